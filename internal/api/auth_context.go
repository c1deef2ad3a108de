package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/minutesapp/minutes-server/internal/access"
	"github.com/minutesapp/minutes-server/internal/domain"
	"github.com/minutesapp/minutes-server/internal/service"
)

// SessionCookieName names the cookie carrying the session token.
const SessionCookieName = "session"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	principalKey ctxKey = "principal"
	clientIPKey  ctxKey = "client_ip"
)

// principalFrom returns the authenticated principal, or the zero value.
func principalFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey).(domain.Principal)
	return p
}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func clientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// sessionToken reads the token from the session cookie, falling back to a
// Bearer Authorization header for API clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// authMiddleware resolves the session token and stores the principal in
// context. Requests without a valid session continue anonymously; the
// login gate decides what they may reach.
func authMiddleware(identity *service.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := identity.VerifySession(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

// FlashResponse is the body of redirect responses.
type FlashResponse struct {
	Flash string `json:"flash,omitempty" doc:"Message to show after following the redirect"`
}

// requireLogin is the huma operation middleware guarding authenticated
// routes. Anonymous callers are redirected to the login page with the
// requested path as next.
func (s *Server) requireLogin(ctx huma.Context, next func(huma.Context)) {
	u := ctx.URL()
	decision := access.RequireLogin(principalFrom(ctx.Context()), u.RequestURI())
	if decision.Proceed {
		next(ctx)
		return
	}

	ctx.SetHeader("Location", decision.RedirectTo)
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(http.StatusFound)
	body := APIEnvelope{Version: EnvelopeVersion, Success: false, Data: FlashResponse{Flash: decision.Flash}}
	if err := json.MarshalWrite(ctx.BodyWriter(), body); err != nil {
		s.logger.Error("failed to write login redirect", "error", err)
	}
}

// requireLoginHandler is requireLogin for the plain chi handlers.
func (s *Server) requireLoginHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := access.RequireLogin(principalFrom(r.Context()), r.URL.RequestURI())
		if decision.Proceed {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Location", decision.RedirectTo)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusFound)
		body := APIEnvelope{Version: EnvelopeVersion, Data: FlashResponse{Flash: decision.Flash}}
		if err := json.MarshalWrite(w, body); err != nil {
			s.logger.Error("failed to write login redirect", "error", err)
		}
	})
}

// sessionCookie builds the cookie for a new session. Remembered sessions
// persist until they expire; others last for the browser session.
func (s *Server) sessionCookie(token string, session *domain.Session) http.Cookie {
	c := http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if session.Remember {
		c.Expires = session.ExpiresAt.UTC()
		c.MaxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	return c
}

// clearedSessionCookie expires the session cookie.
func (s *Server) clearedSessionCookie() http.Cookie {
	return http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	}
}
