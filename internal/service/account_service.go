package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/dating-api/internal/auth"
	"github.com/spec-kit/dating-api/internal/config"
	"github.com/spec-kit/dating-api/internal/domain"
	"github.com/spec-kit/dating-api/internal/events"
	"github.com/spec-kit/dating-api/internal/repository"
	apperrors "github.com/spec-kit/dating-api/pkg/util/errorutil"
)

// TokenMetrics counts issued tokens.
type TokenMetrics interface {
	RecordTokenIssued()
}

// AccountService coordinates registration and login flows.
type AccountService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	dispatcher events.Dispatcher
	metrics    TokenMetrics
	logger     *zap.Logger
	bcryptCost int
}

// AccountDependencies encapsulates collaborators for the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenService
	Dispatcher events.Dispatcher
	Metrics    TokenMetrics
	Logger     *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// NormalizeUsername is how usernames are stored and looked up.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register creates a new account and returns a token for it.
func (s *AccountService) Register(ctx context.Context, username, password string) (*domain.User, domain.IssuedToken, error) {
	username = NormalizeUsername(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, domain.IssuedToken{}, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.IssuedToken{}, apperrors.NewConflict("username is taken", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.IssuedToken{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}

	user := &domain.User{UserName: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.IssuedToken{}, apperrors.NewConflict("username is taken", map[string]any{"username": username})
		}
		return nil, domain.IssuedToken{}, err
	}

	s.publish(ctx, events.EventUserRegistered, username, events.UserRegisteredPayload{
		UserID:   user.ID,
		UserName: user.UserName,
	})

	issued, err := s.issue(ctx, user, "register")
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}
	return user, issued, nil
}

// Login authenticates a user by username and password.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.User, domain.IssuedToken, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, domain.IssuedToken{}, apperrors.NewValidationError("username and password required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			auth.CompareDummy(password)
			return nil, domain.IssuedToken{}, apperrors.NewUnauthorized("invalid username or password")
		}
		return nil, domain.IssuedToken{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized("invalid username or password")
	}

	issued, err := s.issue(ctx, user, "login")
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}
	return user, issued, nil
}

func (s *AccountService) issue(ctx context.Context, user *domain.User, reason string) (domain.IssuedToken, error) {
	issued, err := s.tokens.Issue(user.UserName)
	if err != nil {
		if errors.Is(err, auth.ErrTokenConfiguration) {
			s.logger.Error("refusing to issue token", zap.Error(err))
		}
		return domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	if s.metrics != nil {
		s.metrics.RecordTokenIssued()
	}
	s.publish(ctx, events.EventTokenIssued, user.UserName, events.TokenIssuedPayload{
		Reason:    reason,
		ExpiresAt: issued.ExpiresAt,
	})
	return issued, nil
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func validateCredentials(username, password string) error {
	details := map[string]any{}
	if username == "" {
		details["username"] = "required"
	} else if len(username) > 64 {
		details["username"] = "must be at most 64 characters"
	}
	if password == "" {
		details["password"] = "required"
	} else if len(password) > auth.MaxPasswordBytes {
		details["password"] = "must be at most 72 bytes"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}
