package auth

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dating-api/internal/domain"
	apperrors "github.com/spec-kit/dating-api/pkg/util/errorutil"
)

type stubUsers struct {
	byName map[string]*domain.User
	err    error
}

func (s *stubUsers) Create(context.Context, *domain.User) error { return errors.New("not implemented") }

func (s *stubUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.byName[username]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) List(context.Context) ([]domain.User, error) { return nil, nil }

type recordedFailures struct {
	reasons []string
}

func (r *recordedFailures) RecordTokenValidationFailure(reason string) {
	r.reasons = append(r.reasons, reason)
}

func newProtectedApp(t *testing.T, users *stubUsers, failures *recordedFailures) (*fiber.App, *TokenService) {
	t.Helper()
	cfg := TokenConfig{Key: testKey}
	issuer, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	params, err := NewValidationParameters(cfg)
	if err != nil {
		t.Fatalf("NewValidationParameters: %v", err)
	}
	validator, err := NewValidator(params)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	mw := NewAuthMiddleware(validator, users, failures)
	app.Get("/me", mw.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(principal.Username)
	})
	app.Get("/guarded", RequireAuthenticated(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app, issuer
}

func doGet(t *testing.T, app *fiber.App, path, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware_AcceptsValidBearerToken(t *testing.T) {
	users := &stubUsers{byName: map[string]*domain.User{"alice": {ID: "1", UserName: "alice"}}}
	app, issuer := newProtectedApp(t, users, nil)

	issued, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	status, body := doGet(t, app, "/me", "Bearer "+issued.Token)
	if status != fiber.StatusOK || body != "alice" {
		t.Errorf("got (%d, %q), want (200, alice)", status, body)
	}

	status, _ = doGet(t, app, "/me", "bearer "+issued.Token)
	if status != fiber.StatusOK {
		t.Errorf("lower-case scheme: status = %d", status)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	users := &stubUsers{byName: map[string]*domain.User{"alice": {ID: "1", UserName: "alice"}}}
	failures := &recordedFailures{}
	app, issuer := newProtectedApp(t, users, failures)

	ghost, err := issuer.Issue("ghost")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	foreign, err := newTestIssuer(t, TokenConfig{Key: otherKey}, time.Now()).Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired, err := newTestIssuer(t, TokenConfig{Key: testKey, TTL: time.Hour}, time.Now().Add(-2*time.Hour)).Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage", header: "Bearer not-a-token"},
		{name: "other key", header: "Bearer " + foreign.Token},
		{name: "expired", header: "Bearer " + expired.Token},
		{name: "unknown user", header: "Bearer " + ghost.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doGet(t, app, "/me", tt.header)
			if status != fiber.StatusUnauthorized || body != "UNAUTHORIZED" {
				t.Errorf("got (%d, %q), want (401, UNAUTHORIZED)", status, body)
			}
		})
	}

	want := []string{"malformed", "signature", "expired", "unknown_user"}
	if len(failures.reasons) != len(want) {
		t.Fatalf("recorded reasons = %v, want %v", failures.reasons, want)
	}
	for i := range want {
		if failures.reasons[i] != want[i] {
			t.Errorf("reason[%d] = %q, want %q", i, failures.reasons[i], want[i])
		}
	}
}

func TestAuthMiddleware_RepositoryFailureIsInternal(t *testing.T) {
	app, issuer := newProtectedApp(t, &stubUsers{err: errors.New("db down")}, nil)
	issued, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	status, body := doGet(t, app, "/me", "Bearer "+issued.Token)
	if status != fiber.StatusInternalServerError || body != "INTERNAL_ERROR" {
		t.Errorf("got (%d, %q), want (500, INTERNAL_ERROR)", status, body)
	}
}

func TestRequireAuthenticated_WithoutMiddleware(t *testing.T) {
	app, _ := newProtectedApp(t, &stubUsers{}, nil)
	status, _ := doGet(t, app, "/guarded", "")
	if status != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}
