package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minutesapp/minutes-server/internal/auth"
	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/id"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/store"
	"github.com/minutesapp/minutes-server/internal/validation"
)

// User-facing identity messages.
const (
	RegisteredMessage         = "Congratulations, you are now a registered user!"
	UsernameTakenMessage      = "Please use a different username."
	EmailTakenMessage         = "Please use a different email address."
	InvalidCredentialsMessage = "Invalid username or password."
	ResetRequestedMessage     = "Check your email for the instructions to reset your password"
	PasswordChangedMessage    = "Your password has been changed."
	CurrentPasswordMessage    = "Current password is incorrect."
	SessionExpiredMessage     = "Your session has expired. Please log in again."
)

// RegisterRequest contains the data for creating an account.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,notblank,max=64"`
	Email           string `json:"email" validate:"required,max=120,email"`
	Password        string `json:"password" validate:"required,max=1024"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginRequest contains the data for opening a session.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Remember  bool   `json:"remember"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// ChangePasswordRequest contains the data for a self-service password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=1024"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// LoginResult is an opened session and the token that carries it.
type LoginResult struct {
	User    *domain.User
	Session *domain.Session
	Token   string
}

// IdentityConfig holds session lifetimes.
type IdentityConfig struct {
	SessionDuration  time.Duration
	RememberDuration time.Duration
}

// IdentityService registers accounts, checks credentials and manages login
// sessions.
type IdentityService struct {
	store     store.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	metrics   *metrics.Metrics
	cfg       IdentityConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewIdentityService creates a new identity service.
func NewIdentityService(
	st store.Store,
	tokens *auth.TokenService,
	validator *validation.Validator,
	m *metrics.Metrics,
	cfg IdentityConfig,
	logger *slog.Logger,
) *IdentityService {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = 12 * time.Hour
	}
	if cfg.RememberDuration <= 0 {
		cfg.RememberDuration = 30 * 24 * time.Hour
	}
	return &IdentityService{
		store:     st,
		tokens:    tokens,
		validator: validator,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates an account. A taken username or email comes back as a
// validation error carrying the message shown to the user.
func (s *IdentityService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           userID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			return nil, domainerrors.InvalidField("username", UsernameTakenMessage)
		case errors.Is(err, store.ErrEmailTaken):
			return nil, domainerrors.InvalidField("email", EmailTakenMessage)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords produce the same error and take comparable time.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.BurnPasswordCheck(password)
			return nil, domainerrors.InvalidCredentials(InvalidCredentialsMessage)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, domainerrors.InvalidCredentials(InvalidCredentialsMessage)
	}
	return user, nil
}

// Login authenticates the caller and opens a session.
func (s *IdentityService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := s.validator.Validate(req); err != nil {
		s.metrics.Login(metrics.LoginFailure)
		return nil, domainerrors.InvalidCredentials(InvalidCredentialsMessage)
	}

	user, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidCredentials) {
			s.metrics.Login(metrics.LoginFailure)
			s.logger.Info("Login failed", "username", req.Username, "ip", req.IPAddress)
		}
		return nil, err
	}

	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	lifetime := s.cfg.SessionDuration
	if req.Remember {
		lifetime = s.cfg.RememberDuration
	}

	now := s.now()
	session := &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Remember:  req.Remember,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.metrics.Login(metrics.LoginSuccess)
	s.logger.Info("User logged in", "user_id", user.ID, "remember", req.Remember)

	return &LoginResult{
		User:    user,
		Session: session,
		Token:   s.tokens.IssueSessionToken(session, user.Username),
	}, nil
}

// Logout deletes a session. Unknown sessions are ignored.
func (s *IdentityService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// VerifySession resolves a session token to the principal it authenticates.
// The token must be valid and its session row must still exist and be
// unexpired.
func (s *IdentityService) VerifySession(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := s.tokens.VerifySessionToken(token)
	if err != nil {
		return domain.Principal{}, domainerrors.Unauthorized(SessionExpiredMessage).WithCause(err)
	}

	session, err := s.store.GetSession(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, domainerrors.Unauthorized(SessionExpiredMessage)
		}
		return domain.Principal{}, fmt.Errorf("lookup session: %w", err)
	}

	if session.UserID != claims.Subject || session.IsExpired(s.now()) {
		return domain.Principal{}, domainerrors.Unauthorized(SessionExpiredMessage)
	}

	p := claims.Principal()
	p.SessionID = session.ID
	return p, nil
}

// ChangePassword replaces the password of userID.
func (s *IdentityService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmptyPassword):
			return domainerrors.InvalidField("new_password", "New password is required.")
		case errors.Is(err, auth.ErrPasswordTooLong):
			return domainerrors.InvalidField("new_password", "New password is too long.")
		}
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePasswordHash(ctx, userID, passwordHash, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("Password changed", "user_id", userID)
	return nil
}

// ChangePasswordWithCurrent changes the password after checking the current one.
func (s *IdentityService) ChangePasswordWithCurrent(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		return domainerrors.InvalidField("current_password", CurrentPasswordMessage)
	}

	return s.ChangePassword(ctx, userID, req.NewPassword)
}

// RequestPasswordReset acknowledges a reset request. No token is issued and
// the answer does not depend on whether the address is registered.
func (s *IdentityService) RequestPasswordReset(_ context.Context, email string) string {
	s.logger.Info("Password reset requested", "email_set", email != "")
	return ResetRequestedMessage
}

// CleanupExpiredSessions deletes every expired session.
func (s *IdentityService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	s.metrics.ExpiredSessionsDeleted(n)
	if n > 0 {
		s.logger.Info("Cleaned up expired sessions", "count", n)
	}
	return n, nil
}

// GetUser returns the account behind userID.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
