package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func validClaims(at time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(at),
		ExpiresAt: jwt.NewNumericDate(at.Add(time.Hour)),
	}
}

func TestValidator_RelaxedPolicyIgnoresIssuerAndAudience(t *testing.T) {
	claims := validClaims(issuedAt)
	claims.Issuer = "someone-else"
	claims.Audience = jwt.ClaimStrings{"another-client"}
	token := signClaims(t, jwt.SigningMethodHS512, []byte(testKey), claims)

	if _, err := newTestValidator(t, TokenConfig{Key: testKey}, issuedAt).Validate(token); err != nil {
		t.Errorf("relaxed validator rejected foreign iss/aud: %v", err)
	}
}

func TestValidator_IssuerValidation(t *testing.T) {
	cfg := TokenConfig{Key: testKey, Issuer: "dating-api", ValidateIssuer: true}
	validator := newTestValidator(t, cfg, issuedAt)

	issued, err := newTestIssuer(t, cfg, issuedAt).Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := validator.Validate(issued.Token); err != nil {
		t.Errorf("token from configured issuer rejected: %v", err)
	}

	foreign := validClaims(issuedAt)
	foreign.Issuer = "someone-else"
	_, err = validator.Validate(signClaims(t, jwt.SigningMethodHS512, []byte(testKey), foreign))
	if FailureReason(err) != "issuer" {
		t.Errorf("foreign issuer: err = %v", err)
	}

	missing := validClaims(issuedAt)
	if _, err := validator.Validate(signClaims(t, jwt.SigningMethodHS512, []byte(testKey), missing)); err == nil {
		t.Error("token without issuer accepted")
	}
}

func TestValidator_AudienceValidation(t *testing.T) {
	cfg := TokenConfig{Key: testKey, Audience: "dating-client", ValidateAudience: true}
	validator := newTestValidator(t, cfg, issuedAt)

	issued, err := newTestIssuer(t, cfg, issuedAt).Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := validator.Validate(issued.Token); err != nil {
		t.Errorf("token for configured audience rejected: %v", err)
	}

	foreign := validClaims(issuedAt)
	foreign.Audience = jwt.ClaimStrings{"other"}
	_, err = validator.Validate(signClaims(t, jwt.SigningMethodHS512, []byte(testKey), foreign))
	if FailureReason(err) != "audience" {
		t.Errorf("foreign audience: err = %v", err)
	}
}

func TestNewValidationParameters_RejectsIncompletePolicy(t *testing.T) {
	tests := []TokenConfig{
		{Key: testKey, ValidateIssuer: true},
		{Key: testKey, ValidateAudience: true},
		{Key: testKey, ClockSkew: -time.Second},
	}
	for _, cfg := range tests {
		if _, err := NewValidationParameters(cfg); !errors.Is(err, ErrTokenConfiguration) {
			t.Errorf("NewValidationParameters(%+v) err = %v", cfg, err)
		}
	}
}

func TestValidator_ClockSkew(t *testing.T) {
	cfg := TokenConfig{Key: testKey, ClockSkew: 30 * time.Second}
	issued, err := newTestIssuer(t, cfg, issuedAt).Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	justExpired := issued.ExpiresAt.Add(10 * time.Second)
	if _, err := newTestValidator(t, cfg, justExpired).Validate(issued.Token); err != nil {
		t.Errorf("token within skew rejected: %v", err)
	}
	if _, err := newTestValidator(t, cfg, issued.ExpiresAt.Add(time.Minute)).Validate(issued.Token); err == nil {
		t.Error("token beyond skew accepted")
	}
}

func TestValidator_RejectsOtherAlgorithms(t *testing.T) {
	validator := newTestValidator(t, TokenConfig{Key: testKey}, issuedAt)

	hs256 := signClaims(t, jwt.SigningMethodHS256, []byte(testKey), validClaims(issuedAt))
	if _, err := validator.Validate(hs256); err == nil {
		t.Error("HS256 token accepted")
	}

	none := signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims(issuedAt))
	if _, err := validator.Validate(none); err == nil {
		t.Error("unsigned token accepted")
	}
}

func TestValidator_RequiresExpiryAndSubject(t *testing.T) {
	validator := newTestValidator(t, TokenConfig{Key: testKey}, issuedAt)

	noExp := validClaims(issuedAt)
	noExp.ExpiresAt = nil
	_, err := validator.Validate(signClaims(t, jwt.SigningMethodHS512, []byte(testKey), noExp))
	if FailureReason(err) != "missing_claim" {
		t.Errorf("missing exp: err = %v", err)
	}

	noSub := validClaims(issuedAt)
	noSub.Subject = ""
	if _, err := validator.Validate(signClaims(t, jwt.SigningMethodHS512, []byte(testKey), noSub)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing sub: err = %v", err)
	}
}

func TestValidator_Malformed(t *testing.T) {
	validator := newTestValidator(t, TokenConfig{Key: testKey}, issuedAt)
	for _, token := range []string{"", "abc", "a.b", "a.b.c", "a.b.c.d"} {
		_, err := validator.Validate(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) err = %v", token, err)
		}
	}
	if _, err := validator.Validate("a.b"); FailureReason(err) != "malformed" {
		t.Errorf("FailureReason = %q, want malformed", FailureReason(err))
	}
}

func TestNewValidator_RequiresKey(t *testing.T) {
	if _, err := NewValidator(ValidationParameters{}); !errors.Is(err, ErrTokenKeyMissing) {
		t.Errorf("err = %v, want %v", err, ErrTokenKeyMissing)
	}
}

func TestFailureReason(t *testing.T) {
	tests := map[string]error{
		"":              nil,
		"expired":       jwt.ErrTokenExpired,
		"not_yet_valid": jwt.ErrTokenNotValidYet,
		"signature":     jwt.ErrTokenSignatureInvalid,
		"malformed":     jwt.ErrTokenMalformed,
		"issuer":        jwt.ErrTokenInvalidIssuer,
		"audience":      jwt.ErrTokenInvalidAudience,
		"invalid":       errors.New("other"),
	}
	for want, err := range tests {
		if got := FailureReason(err); got != want {
			t.Errorf("FailureReason(%v) = %q, want %q", err, got, want)
		}
	}
}
