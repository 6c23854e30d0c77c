// Package repositorytest provides an in-memory account store for tests of the
// packages built on repository.IAccountRepository.
package repositorytest

import (
	"context"
	"go-auth-api/model"
	"go-auth-api/repository"
	"sync"
	"time"
)

// Accounts implements repository.IAccountRepository in memory with the same
// unique-email and compare-and-increment guarantees as the Postgres store.
type Accounts struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*model.Account
}

var _ repository.IAccountRepository = (*Accounts)(nil)

func NewAccounts() *Accounts {
	return &Accounts{accounts: make(map[int64]*model.Account)}
}

func (r *Accounts) Save(_ context.Context, account *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	saved := *account
	saved.ID = r.nextID
	saved.CreatedAt = time.Now()
	r.accounts[saved.ID] = &saved
	out := saved
	return &out, nil
}

func (r *Accounts) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (r *Accounts) FindByID(_ context.Context, id int64) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	out := *a
	return &out, nil
}

func (r *Accounts) BumpVersion(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.TokenVersion++
	return nil
}

func (r *Accounts) BumpVersionIfUnchanged(_ context.Context, id int64, expected int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.TokenVersion != expected {
		return false, nil
	}
	a.TokenVersion++
	return true, nil
}

// SetRole changes a stored account's role. It panics on an unknown id.
func (r *Accounts) SetRole(id int64, role model.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[id].Role = role
}

// Version returns the stored credential version, or -1 for an unknown id.
func (r *Accounts) Version(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return -1
	}
	return a.TokenVersion
}
