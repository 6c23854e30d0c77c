package service

import (
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCodec signs and verifies access and refresh tokens with one symmetric
// key and algorithm.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec accepts HS256, HS384 or HS512.
func NewTokenCodec(secret []byte, algorithm string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("signing secret is empty")
	}
	return &TokenCodec{
		secret:     secret,
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// RefreshTTL is how long a refresh token, and its ledger record, live.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *TokenCodec) IssueAccess(accountID int64, role model.Role, version int64) (string, error) {
	return c.sign(model.TokenTypeAccess, accountID, role, version, "", c.accessTTL)
}

// IssueRefresh returns the signed token and its fresh rotation id.
func (c *TokenCodec) IssueRefresh(accountID int64, role model.Role, version int64) (string, string, error) {
	rotationID := uuid.NewString()
	token, err := c.sign(model.TokenTypeRefresh, accountID, role, version, rotationID, c.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return token, rotationID, nil
}

func (c *TokenCodec) sign(typ model.TokenType, accountID int64, role model.Role, version int64, rotationID string, ttl time.Duration) (string, error) {
	now := c.now()
	claims := &model.AppClaims{
		Type:    typ,
		Role:    role,
		Version: &version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			ID:        rotationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(c.method, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID).Error("Failed to sign JWT")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}
	return tokenString, nil
}

// Decode verifies signature and expiry together. A well-signed expired token
// yields ErrTokenExpired; anything else that fails yields ErrTokenMalformed.
func (c *TokenCodec) Decode(tokenString string) (*model.AppClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &model.AppClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// DecodeAs decodes and additionally requires the type tag.
func (c *TokenCodec) DecodeAs(tokenString string, typ model.TokenType) (*model.AppClaims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if err := RequireType(claims, typ); err != nil {
		return nil, err
	}
	return claims, nil
}

func RequireType(claims *model.AppClaims, typ model.TokenType) error {
	if claims.Type != typ {
		return ErrTokenMalformed
	}
	return nil
}

// SubjectID parses the "sub" claim as a positive decimal account id.
func SubjectID(claims *model.AppClaims) (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrTokenMalformed
	}
	return id, nil
}

func TokenVersion(claims *model.AppClaims) (int64, error) {
	if claims.Version == nil || *claims.Version < 0 {
		return 0, ErrTokenMalformed
	}
	return *claims.Version, nil
}

func RotationID(claims *model.AppClaims) (string, error) {
	if claims.ID == "" {
		return "", ErrTokenMalformed
	}
	return claims.ID, nil
}

func TokenRole(claims *model.AppClaims) (model.Role, error) {
	if !claims.Role.Valid() {
		return "", ErrTokenMalformed
	}
	return claims.Role, nil
}

// refreshClaims is the validated view of a refresh token.
type refreshClaims struct {
	accountID  int64
	version    int64
	rotationID string
}

func (c *TokenCodec) decodeRefresh(tokenString string) (*refreshClaims, error) {
	claims, err := c.DecodeAs(tokenString, model.TokenTypeRefresh)
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
	rotationID, err := RotationID(claims)
	if err != nil {
		return nil, err
	}
	if _, err := TokenRole(claims); err != nil {
		return nil, err
	}
	return &refreshClaims{accountID: accountID, version: version, rotationID: rotationID}, nil
}
