package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAccountNotFound is returned by the finders when no row matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by Save when the email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
)

const uniqueViolation = "23505"

// IAccountRepository defines the contract for durable account storage,
// including the per-account credential version counter.
type IAccountRepository interface {
	Save(ctx context.Context, account *model.Account) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	// BumpVersion increments the credential version unconditionally.
	BumpVersion(ctx context.Context, id int64) error
	// BumpVersionIfUnchanged increments the credential version only while it still
	// equals expected, and reports whether this call performed the increment.
	BumpVersionIfUnchanged(ctx context.Context, id int64, expected int64) (bool, error)
}

// AccountRepository implements IAccountRepository on Postgres.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `id, email, password_hash, role, token_version, created_at`

// Save inserts a new account and returns it with the generated id, role,
// version and creation time filled in.
func (r *AccountRepository) Save(ctx context.Context, account *model.Account) (*model.Account, error) {
	log := logger.Log.WithField("email", account.Email)
	log.Info("Executing query to create a new account")

	saved := *account
	query := `INSERT INTO accounts (email, password_hash, role, token_version) VALUES ($1, $2, $3, $4)
		RETURNING id, role, token_version, created_at`
	err := r.DB.QueryRowContext(ctx, query, account.Email, account.PasswordHash, string(account.Role), account.TokenVersion).
		Scan(&saved.ID, &saved.Role, &saved.TokenVersion, &saved.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			log.Info("Account email already registered")
			return nil, ErrDuplicateEmail
		}
		log.WithError(err).Error("Failed to execute create account query")
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &saved, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.findOne(ctx, logger.Log.WithField("email", email), query, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.findOne(ctx, logger.Log.WithField("account_id", id), query, id)
}

func (r *AccountRepository) findOne(ctx context.Context, log *logrus.Entry, query string, arg any) (*model.Account, error) {
	account := &model.Account{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.Role, &account.TokenVersion, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		log.WithError(err).Error("Failed to execute find account query")
		return nil, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) BumpVersion(ctx context.Context, id int64) error {
	log := logger.Log.WithField("account_id", id)
	log.Info("Executing query to bump token version")

	res, err := r.DB.ExecContext(ctx, `UPDATE accounts SET token_version = token_version + 1 WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute bump token version query")
		return fmt.Errorf("bump token version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// BumpVersionIfUnchanged is a single compare-and-increment statement; two
// callers holding the same stale version cannot both win.
func (r *AccountRepository) BumpVersionIfUnchanged(ctx context.Context, id int64, expected int64) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":       id,
		"expected_version": expected,
	})

	res, err := r.DB.ExecContext(ctx,
		`UPDATE accounts SET token_version = token_version + 1 WHERE id = $1 AND token_version = $2`, id, expected)
	if err != nil {
		log.WithError(err).Error("Failed to execute conditional bump token version query")
		return false, fmt.Errorf("bump token version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bump token version: %w", err)
	}
	if n == 1 {
		log.Info("Token version bumped")
	}
	return n == 1, nil
}
