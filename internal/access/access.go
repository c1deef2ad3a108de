// Package access holds the authorization checks applied before any
// transcription or MoM is exposed, and the login gate used by the HTTP layer.
package access

import (
	"net/url"
	"strings"

	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
)

// User-facing messages.
const (
	UnauthorizedMessage  = "You are not authorized to access this transcription or MoM."
	LoginRequiredMessage = "Please log in to access this page."
)

// Landing pages.
const (
	LoginPath     = "/auth/login"
	DashboardPath = "/dashboard"
)

// Authorize allows p to act on t only when p owns t. Every MoM read or write
// goes through here before storage is touched.
func Authorize(p domain.Principal, t *domain.Transcription) error {
	if t == nil || p.IsZero() || !t.IsOwnedBy(p.UserID) {
		return domainerrors.Forbidden(UnauthorizedMessage)
	}
	return nil
}

// Decision is the outcome of the login gate.
type Decision struct {
	Proceed    bool
	RedirectTo string
	Flash      string
}

// RequireLogin lets authenticated principals through and sends everyone else
// to the login page, remembering where they were going.
func RequireLogin(p domain.Principal, requestURI string) Decision {
	if !p.IsZero() {
		return Decision{Proceed: true}
	}
	return Decision{
		RedirectTo: LoginURL(requestURI),
		Flash:      LoginRequiredMessage,
	}
}

// LoginURL returns the login page URL carrying next when next is a safe
// local target.
func LoginURL(next string) string {
	if next == "" || SafeNext(next, "") == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
// Absolute URLs, protocol-relative targets ("//host", "/\host") and anything
// carrying a scheme or host are rejected.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n\t") {
		return fallback
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
