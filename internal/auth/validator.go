package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every reason a presented token is rejected.
var ErrInvalidToken = errors.New("invalid token")

// ValidationParameters declares how inbound bearer tokens are checked.
//
// Signature and lifetime are always validated. Issuer and audience checks are
// off unless explicitly enabled, which is only acceptable for a single-service,
// single-client deployment.
type ValidationParameters struct {
	SigningKey       []byte
	Algorithm        string
	ValidateIssuer   bool
	ValidIssuer      string
	ValidateAudience bool
	ValidAudience    string
	ClockSkew        time.Duration
}

// NewValidationParameters derives the validation rule from the same config the issuer uses.
func NewValidationParameters(cfg TokenConfig) (ValidationParameters, error) {
	key, err := signingKey(cfg.Key)
	if err != nil {
		return ValidationParameters{}, err
	}
	if cfg.ValidateIssuer && cfg.Issuer == "" {
		return ValidationParameters{}, fmt.Errorf("%w: issuer validation enabled without an issuer", ErrTokenConfiguration)
	}
	if cfg.ValidateAudience && cfg.Audience == "" {
		return ValidationParameters{}, fmt.Errorf("%w: audience validation enabled without an audience", ErrTokenConfiguration)
	}
	if cfg.ClockSkew < 0 {
		return ValidationParameters{}, fmt.Errorf("%w: negative clock skew", ErrTokenConfiguration)
	}
	return ValidationParameters{
		SigningKey:       key,
		Algorithm:        SigningMethod.Alg(),
		ValidateIssuer:   cfg.ValidateIssuer,
		ValidIssuer:      cfg.Issuer,
		ValidateAudience: cfg.ValidateAudience,
		ValidAudience:    cfg.Audience,
		ClockSkew:        cfg.ClockSkew,
	}, nil
}

// ParserOptions translates the declaration into jwt parser options.
func (p ValidationParameters) ParserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{p.Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	}
	if p.ClockSkew > 0 {
		opts = append(opts, jwt.WithLeeway(p.ClockSkew))
	}
	if p.ValidateIssuer {
		opts = append(opts, jwt.WithIssuer(p.ValidIssuer))
	}
	if p.ValidateAudience {
		opts = append(opts, jwt.WithAudience(p.ValidAudience))
	}
	return opts
}

// Validator checks bearer tokens against ValidationParameters.
type Validator struct {
	params ValidationParameters
	parser *jwt.Parser
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*[]jwt.ParserOption)

// WithTimeFunc pins the time used for exp/nbf checks.
func WithTimeFunc(now func() time.Time) ValidatorOption {
	return func(opts *[]jwt.ParserOption) {
		*opts = append(*opts, jwt.WithTimeFunc(now))
	}
}

// NewValidator builds a reusable validator. It is safe for concurrent use.
func NewValidator(params ValidationParameters, opts ...ValidatorOption) (*Validator, error) {
	if len(params.SigningKey) == 0 {
		return nil, ErrTokenKeyMissing
	}
	if params.Algorithm == "" {
		params.Algorithm = SigningMethod.Alg()
	}
	parserOpts := params.ParserOptions()
	for _, opt := range opts {
		opt(&parserOpts)
	}
	return &Validator{params: params, parser: jwt.NewParser(parserOpts...)}, nil
}

// Validate verifies signature and lifetime and returns the claims.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (v *Validator) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok || token.Method.Alg() != v.params.Algorithm {
		return nil, errors.New("unexpected signing method")
	}
	return v.params.SigningKey, nil
}

// FailureReason classifies a validation error for metrics and logs.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "not_yet_valid"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "issuer"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "audience"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "missing_claim"
	default:
		return "invalid"
	}
}
