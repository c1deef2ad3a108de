package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/minutesapp/minutes-server/internal/access"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/service"
)

// Limiter names reported to metrics; both share the per-client bucket.
const (
	loginLimiterName    = "login"
	registerLimiterName = "register"
)

// RateLimitedMessage is returned when a client exceeds the auth rate limit.
const RateLimitedMessage = "Too many attempts. Please try again later."

// allowAuthAttempt takes a token from the client's bucket.
func (s *Server) allowAuthAttempt(ctx context.Context, limiter string) bool {
	ip := clientIPFrom(ctx)
	allowed := s.loginLimiter.Allow(ip)
	s.metrics.RateLimit(limiter, allowed)
	if !allowed {
		s.logger.Warn("Rate limit exceeded", "ip", ip, "limiter", limiter)
	}
	return allowed
}

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "index",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Landing page",
		Description: "Redirects to the dashboard when logged in, otherwise to the login page",
		Tags:        []string{"Authentication"},
	}, s.handleIndex)

	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register new user",
		Description: "Creates a new account and redirects to the login page",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user, sets the session cookie and redirects to next or the dashboard",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodGet,
		Path:        "/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the current session and clears the session cookie",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPasswordRequest",
		Method:      http.MethodPost,
		Path:        "/auth/reset_password_request",
		Summary:     "Request a password reset",
		Description: "Always answers with the same acknowledgement",
		Tags:        []string{"Authentication"},
	}, s.handleResetPasswordRequest)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPost,
		Path:        "/auth/change_password",
		Summary:     "Change password",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"session": {}}},
		Middlewares: huma.Middlewares{s.requireLogin},
	}, s.handleChangePassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current user",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"session": {}}},
		Middlewares: huma.Middlewares{s.requireLogin},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// RedirectOutput is a redirect carrying a flash message.
type RedirectOutput struct {
	Status   int
	Location string `header:"Location"`
	Body     FlashResponse
}

func redirect(location, flash string) *RedirectOutput {
	return &RedirectOutput{
		Status:   http.StatusSeeOther,
		Location: location,
		Body:     FlashResponse{Flash: flash},
	}
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username        string `json:"username" maxLength:"64" doc:"Username, compared case-sensitively"`
	Email           string `json:"email" maxLength:"120" doc:"Email address"`
	Password        string `json:"password" maxLength:"1024" doc:"Password"`
	ConfirmPassword string `json:"confirm_password" doc:"Must repeat password"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" doc:"Username"`
	Password string `json:"password" doc:"Password"`
	Remember bool   `json:"remember,omitempty" doc:"Keep the session across browser restarts"`
}

// LoginInput wraps the login request with the redirect target and client
// metadata.
type LoginInput struct {
	Body      LoginRequest
	Next      string `query:"next" doc:"Local path to continue to after login"`
	UserAgent string `header:"User-Agent"`
}

// UserResponse contains user information.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Username  string    `json:"username" doc:"Username"`
	Email     string    `json:"email,omitempty" doc:"Email address"`
	CreatedAt time.Time `json:"created_at,omitzero" doc:"Registration time"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Flash     string       `json:"flash,omitempty" doc:"Message to show after following the redirect"`
	User      UserResponse `json:"user" doc:"Authenticated user"`
	SessionID string       `json:"session_id,omitempty" doc:"Session identifier"`
	ExpiresAt time.Time    `json:"expires_at,omitzero" doc:"Session expiry"`
}

// LoginOutput redirects after login and sets the session cookie.
type LoginOutput struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      LoginResponse
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      FlashResponse
}

// ResetPasswordRequest is the body of a password reset request.
type ResetPasswordRequest struct {
	Email string `json:"email" maxLength:"120" doc:"Email address of the account"`
}

// ResetPasswordInput wraps the reset request for Huma.
type ResetPasswordInput struct {
	Body ResetPasswordRequest
}

// ChangePasswordInput wraps the change password request for Huma.
type ChangePasswordInput struct {
	Body service.ChangePasswordRequest
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// === Handlers ===

func (s *Server) handleIndex(ctx context.Context, _ *struct{}) (*RedirectOutput, error) {
	if principalFrom(ctx).IsZero() {
		return redirect(access.LoginPath, ""), nil
	}
	return redirect(access.DashboardPath, ""), nil
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*RedirectOutput, error) {
	if !principalFrom(ctx).IsZero() {
		return redirect("/", ""), nil
	}

	if !s.allowAuthAttempt(ctx, registerLimiterName) {
		return nil, domainerrors.RateLimited(RateLimitedMessage)
	}

	_, err := s.services.Identity.Register(ctx, service.RegisterRequest{
		Username:        input.Body.Username,
		Email:           input.Body.Email,
		Password:        input.Body.Password,
		ConfirmPassword: input.Body.ConfirmPassword,
	})
	if err != nil {
		return nil, err
	}

	return redirect(access.LoginPath, service.RegisteredMessage), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	target := access.SafeNext(input.Next, access.DashboardPath)

	if p := principalFrom(ctx); !p.IsZero() {
		return &LoginOutput{
			Status:   http.StatusSeeOther,
			Location: access.DashboardPath,
			Body:     LoginResponse{User: UserResponse{ID: p.UserID, Username: p.Username}},
		}, nil
	}

	if !s.allowAuthAttempt(ctx, loginLimiterName) {
		s.metrics.Login(metrics.LoginRateLimited)
		return nil, domainerrors.RateLimited(RateLimitedMessage)
	}

	result, err := s.services.Identity.Login(ctx, service.LoginRequest{
		Username:  input.Body.Username,
		Password:  input.Body.Password,
		Remember:  input.Body.Remember,
		IPAddress: clientIPFrom(ctx),
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		Status:    http.StatusSeeOther,
		Location:  target,
		SetCookie: s.sessionCookie(result.Token, result.Session),
		Body: LoginResponse{
			User:      mapUser(result.User.ID, result.User.Username, result.User.Email, result.User.CreatedAt),
			SessionID: result.Session.ID,
			ExpiresAt: result.Session.ExpiresAt,
		},
	}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
	if p := principalFrom(ctx); !p.IsZero() {
		if err := s.services.Identity.Logout(ctx, p.SessionID); err != nil {
			return nil, err
		}
	}

	return &LogoutOutput{
		Status:    http.StatusSeeOther,
		Location:  access.LoginPath,
		SetCookie: s.clearedSessionCookie(),
	}, nil
}

func (s *Server) handleResetPasswordRequest(ctx context.Context, input *ResetPasswordInput) (*RedirectOutput, error) {
	if !principalFrom(ctx).IsZero() {
		return redirect("/", ""), nil
	}
	msg := s.services.Identity.RequestPasswordReset(ctx, input.Body.Email)
	return redirect(access.LoginPath, msg), nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*RedirectOutput, error) {
	p := principalFrom(ctx)
	if err := s.services.Identity.ChangePasswordWithCurrent(ctx, p.UserID, input.Body); err != nil {
		return nil, err
	}
	return redirect(access.DashboardPath, service.PasswordChangedMessage), nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.services.Identity.GetUser(ctx, principalFrom(ctx).UserID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUser(user.ID, user.Username, user.Email, user.CreatedAt)}, nil
}

// === Helpers ===

func mapUser(id, username, email string, createdAt time.Time) UserResponse {
	return UserResponse{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: createdAt,
	}
}
