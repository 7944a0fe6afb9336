package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/dating-api/internal/config"
	"github.com/spec-kit/dating-api/internal/domain"
)

var (
	// ErrTokenConfiguration marks every failure caused by a missing or weak signing key.
	ErrTokenConfiguration = errors.New("token configuration error")
	ErrTokenKeyMissing    = fmt.Errorf("%w: token key not found", ErrTokenConfiguration)
	ErrTokenKeyTooShort   = fmt.Errorf("%w: token key must be at least %d characters", ErrTokenConfiguration, config.MinTokenKeyLength)

	ErrEmptySubject = errors.New("username is required")
)

// SigningMethod is the only algorithm tokens are signed and accepted with.
var SigningMethod = jwt.SigningMethodHS512

// TokenConfig carries the shared secret and the policy knobs for issuing and validating tokens.
type TokenConfig struct {
	Key              string
	TTL              time.Duration
	Issuer           string
	Audience         string
	ValidateIssuer   bool
	ValidateAudience bool
	ClockSkew        time.Duration
}

// NewTokenConfig maps the auth section of the service configuration.
func NewTokenConfig(cfg config.AuthConfig) TokenConfig {
	return TokenConfig{
		Key:              cfg.TokenKey,
		TTL:              cfg.TokenTTL,
		Issuer:           cfg.Issuer,
		Audience:         cfg.Audience,
		ValidateIssuer:   cfg.ValidateIssuer,
		ValidateAudience: cfg.ValidateAudience,
		ClockSkew:        cfg.ClockSkew,
	}
}

// Claims describes the JWT payload. The subject is the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Username returns the identity carried by the token.
func (c *Claims) Username() string {
	return c.Subject
}

// TokenService mints signed bearer tokens for users.
type TokenService struct {
	secret   string
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used to stamp iat/nbf/exp.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService builds an issuer. It refuses an absent or weak key.
func NewTokenService(cfg TokenConfig, opts ...TokenOption) (*TokenService, error) {
	if _, err := signingKey(cfg.Key); err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	s := &TokenService{
		secret:   cfg.Key,
		ttl:      ttl,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL reports the lifetime stamped on issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// CreateToken returns the serialized token for the user.
func (s *TokenService) CreateToken(user domain.User) (string, error) {
	issued, err := s.Issue(user.UserName)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// Issue signs a token whose subject is username and which expires after the configured TTL.
func (s *TokenService) Issue(username string) (domain.IssuedToken, error) {
	if s == nil {
		return domain.IssuedToken{}, ErrTokenKeyMissing
	}
	// checked on every call so a zero-value service never signs with a weak key
	key, err := signingKey(s.secret)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	if strings.TrimSpace(username) == "" {
		return domain.IssuedToken{}, ErrEmptySubject
	}

	now := s.now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if s.issuer != "" {
		claims.Issuer = s.issuer
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	tokenString, err := jwt.NewWithClaims(SigningMethod, claims).SignedString(key)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.IssuedToken{
		Token:     tokenString,
		Subject:   username,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// signingKey derives the HMAC key from the configured secret.
func signingKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrTokenKeyMissing
	}
	if utf8.RuneCountInString(secret) < config.MinTokenKeyLength {
		return nil, ErrTokenKeyTooShort
	}
	return []byte(secret), nil
}
