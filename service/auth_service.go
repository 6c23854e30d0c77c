package service

import (
	"context"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/metrics"
	"go-auth-api/model"
	"go-auth-api/repository"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// rotationState is where a presented refresh rotation id stands in the ledger.
type rotationState int

const (
	// rotationUnknown: no live record and no retirement marker. Never issued,
	// or expired and purged.
	rotationUnknown rotationState = iota
	// rotationLive: live record owned by the token's subject.
	rotationLive
	// rotationRetired: no live record, retirement marker present. The id was
	// consumed before, so presenting it again is a replay.
	rotationRetired
	// rotationForeign: live record owned by a different account than the
	// token's subject.
	rotationForeign
)

func (s rotationState) String() string {
	switch s {
	case rotationLive:
		return "live"
	case rotationRetired:
		return "retired"
	case rotationForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Escalation reasons, as logged and counted.
const (
	reasonReplay       = "replay"
	reasonCrossAccount = "cross_account"
	reasonLostRace     = "concurrent_reuse"
	reasonLogout       = "logout"
)

// AuthService runs signup, login, refresh-token rotation, logout and access
// token authentication. It keeps no state between calls; the account store
// and the session ledger hold everything.
type AuthService struct {
	accounts   repository.IAccountRepository
	ledger     repository.ISessionLedger
	codec      *TokenCodec
	hasher     Hasher
	retiredTTL time.Duration
	metrics    *metrics.Recorder

	// dummyHash is compared against on unknown emails so both login
	// failures pay for one bcrypt comparison.
	dummyHash string
}

func NewAuthService(
	accounts repository.IAccountRepository,
	ledger repository.ISessionLedger,
	codec *TokenCodec,
	hasher Hasher,
	retiredTTL time.Duration,
	recorder *metrics.Recorder,
) *AuthService {
	dummy, err := hasher.Hash("timing-equalizer-password")
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to prepare login timing hash")
	}
	return &AuthService{
		accounts:   accounts,
		ledger:     ledger,
		codec:      codec,
		hasher:     hasher,
		retiredTTL: retiredTTL,
		metrics:    recorder,
		dummyHash:  dummy,
	}
}

// Signup creates an account with role user and credential version 0.
func (s *AuthService) Signup(ctx context.Context, email, password string) (account *model.Account, err error) {
	defer s.observe("signup", &err)

	email = strings.TrimSpace(email)
	log := logger.Log.WithField("email", email)

	if err := CheckLength(password); err != nil {
		return nil, err
	}

	_, err = s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		log.Info("Signup rejected, email already registered")
		return nil, ErrEmailAlreadyExists
	case !errors.Is(err, repository.ErrAccountNotFound):
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account, err = s.accounts.Save(ctx, model.NewAccount(email, hash))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	log.WithField("account_id", account.ID).Info("Account created")
	return account, nil
}

// Login verifies the credentials and issues a token pair at the account's
// current credential version. Unknown email and wrong password are the same
// error.
func (s *AuthService) Login(ctx context.Context, email, password string) (pair *model.TokenPair, err error) {
	defer s.observe("login", &err)

	email = strings.TrimSpace(email)
	log := logger.Log.WithField("email", email)

	if err := CheckLength(password); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			log.Warn("Login failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		log.Warn("Login failed")
		return nil, ErrInvalidCredentials
	}

	pair, err = s.issuePair(ctx, account.ID, account.Role, account.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	log.WithField("account_id", account.ID).Info("Login succeeded")
	return pair, nil
}

// Refresh rotates a refresh token: the presented rotation id is retired and a
// new pair is issued at the unchanged credential version. A replayed or
// foreign rotation id revokes the subject's sessions and is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *model.TokenPair, err error) {
	defer s.observe("refresh", &err)

	rc, err := s.codec.decodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  rc.accountID,
		"rotation_id": rc.rotationID,
	})

	account, err := s.accounts.FindByID(ctx, rc.accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			log.Warn("Refresh for unknown account")
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	// The account was revoked since this token was issued. The ledger does
	// not matter any more.
	if account.TokenVersion != rc.version {
		log.WithFields(logrus.Fields{
			"token_version":   rc.version,
			"current_version": account.TokenVersion,
		}).Warn("Refresh with revoked token")
		return nil, ErrTokenRevoked
	}

	state, err := s.resolveRotation(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	log = log.WithField("rotation_state", state.String())

	switch state {
	case rotationLive:
		retired, err := s.ledger.RetireIfPresent(ctx, rc.rotationID, s.retiredTTL)
		if err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		if !retired {
			// Another request consumed it between lookup and retire.
			log.Warn("Refresh lost rotation race")
			return nil, s.escalate(ctx, rc, reasonLostRace)
		}

		pair, err = s.issuePair(ctx, account.ID, account.Role, account.TokenVersion)
		if err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		log.Info("Refresh token rotated")
		return pair, nil

	case rotationRetired:
		log.Warn("Refresh token replay detected")
		return nil, s.escalate(ctx, rc, reasonReplay)

	case rotationForeign:
		log.Warn("Refresh rotation id owned by another account")
		return nil, s.escalate(ctx, rc, reasonCrossAccount)

	default:
		log.Info("Refresh with unknown rotation id")
		return nil, ErrTokenInvalid
	}
}

// Logout retires the refresh token's rotation id and, when this call did the
// retiring, revokes the account's outstanding tokens. Repeating it is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer s.observe("logout", &err)

	rc, err := s.codec.decodeRefresh(refreshToken)
	if err != nil {
		return err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  rc.accountID,
		"rotation_id": rc.rotationID,
	})

	retired, err := s.ledger.RetireIfPresent(ctx, rc.rotationID, s.retiredTTL)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if !retired {
		log.Info("Logout of an already retired refresh token")
		return nil
	}

	if _, err := s.bumpIfUnchanged(ctx, rc, reasonLogout); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	log.Info("Logged out")
	return nil
}

// Authenticate validates an access token against the account's current
// credential version and returns the account.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (account *model.Account, err error) {
	defer s.observe("authenticate", &err)

	claims, err := s.codec.DecodeAs(accessToken, model.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	accountID, err := SubjectID(claims)
	if err != nil {
		return nil, err
	}
	version, err := TokenVersion(claims)
	if err != nil {
		return nil, err
	}
	if _, err := TokenRole(claims); err != nil {
		return nil, err
	}

	account, err = s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if account.TokenVersion != version {
		return nil, ErrTokenRevoked
	}
	return account, nil
}

// RevokeAllSessions bumps the account's credential version unconditionally,
// invalidating every token issued to it so far.
func (s *AuthService) RevokeAllSessions(ctx context.Context, accountID int64) (err error) {
	defer s.observe("revoke_all", &err)

	if err := s.accounts.BumpVersion(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("revoke sessions: %w", err)
	}
	logger.Log.WithField("account_id", accountID).Warn("All sessions revoked")
	return nil
}

func (s *AuthService) resolveRotation(ctx context.Context, rc *refreshClaims) (rotationState, error) {
	owner, found, err := s.ledger.LookupOwner(ctx, rc.rotationID)
	if err != nil {
		return rotationUnknown, err
	}
	if found {
		if owner == rc.accountID {
			return rotationLive, nil
		}
		return rotationForeign, nil
	}

	retired, err := s.ledger.IsRetired(ctx, rc.rotationID)
	if err != nil {
		return rotationUnknown, err
	}
	if retired {
		return rotationRetired, nil
	}
	return rotationUnknown, nil
}

// escalate revokes the token subject's sessions once and returns the error the
// refresh must fail with.
func (s *AuthService) escalate(ctx context.Context, rc *refreshClaims, reason string) error {
	if _, err := s.bumpIfUnchanged(ctx, rc, reason); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return ErrReplayDetected
}

// bumpIfUnchanged increments the credential version only if it still equals
// the version the token was issued at, so duplicate or concurrent triggers
// bearing the same stale token bump at most once.
func (s *AuthService) bumpIfUnchanged(ctx context.Context, rc *refreshClaims, reason string) (bool, error) {
	bumped, err := s.accounts.BumpVersionIfUnchanged(ctx, rc.accountID, rc.version)
	if err != nil {
		return false, err
	}
	s.metrics.Escalation(reason, bumped)
	logger.Log.WithFields(logrus.Fields{
		"account_id":  rc.accountID,
		"rotation_id": rc.rotationID,
		"reason":      reason,
		"bumped":      bumped,
	}).Warn("Session revocation")
	return bumped, nil
}

func (s *AuthService) issuePair(ctx context.Context, accountID int64, role model.Role, version int64) (*model.TokenPair, error) {
	access, err := s.codec.IssueAccess(accountID, role, version)
	if err != nil {
		return nil, err
	}
	refresh, rotationID, err := s.codec.IssueRefresh(accountID, role, version)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Record(ctx, rotationID, accountID, s.codec.RefreshTTL()); err != nil {
		return nil, err
	}
	return model.NewTokenPair(access, refresh), nil
}

func (s *AuthService) observe(operation string, err *error) {
	outcome := metrics.OutcomeSuccess
	if *err != nil {
		var authErr *AuthError
		if errors.As(*err, &authErr) {
			outcome = authErr.Code
		} else {
			outcome = "INTERNAL"
		}
	}
	s.metrics.Operation(operation, outcome)
}
