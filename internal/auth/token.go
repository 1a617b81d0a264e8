package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinSecretLength is the shortest HS256 signing secret accepted.
	MinSecretLength = 32
	// TokenLifetime is how long an issued session token stays valid.
	TokenLifetime = 7 * 24 * time.Hour
)

var (
	ErrConfig       = errors.New("invalid configuration")
	ErrMissingRole  = errors.New("role claim is required")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by a session token. Name and Role are the claims clients
// read; sub mirrors the username.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) { i.now = now }
}

// NewTokenIssuer fails with ErrConfig when the secret is too short for HS256.
func NewTokenIssuer(secret string, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: signing secret must be at least %d bytes, got %d", ErrConfig, MinSecretLength, len(secret))
	}
	i := &TokenIssuer{
		secret:   []byte(secret),
		lifetime: TokenLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue returns a compact JWT for username with the given primary role.
func (i *TokenIssuer) Issue(username, role string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	if role == "" {
		return "", ErrMissingRole
	}
	iat := i.now().UTC().Truncate(time.Second)
	claims := Claims{
		Name: username,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(i.lifetime)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the claims.
func (i *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Name == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
