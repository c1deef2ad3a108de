package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutesapp/minutes-server/internal/domain"
	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
)

func TestAuthorize(t *testing.T) {
	owner := domain.Principal{UserID: "user-a", Username: "alice"}
	other := domain.Principal{UserID: "user-b", Username: "bob"}
	tr := &domain.Transcription{ID: 1, UserID: "user-a", Body: "Hello world."}

	assert.NoError(t, Authorize(owner, tr))

	err := Authorize(other, tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	assert.Equal(t, UnauthorizedMessage, err.Error())

	assert.ErrorIs(t, Authorize(domain.Principal{}, tr), domainerrors.ErrForbidden)
	assert.ErrorIs(t, Authorize(owner, nil), domainerrors.ErrForbidden)
}

func TestRequireLogin(t *testing.T) {
	d := RequireLogin(domain.Principal{UserID: "user-a"}, "/dashboard")
	assert.True(t, d.Proceed)
	assert.Empty(t, d.RedirectTo)

	d = RequireLogin(domain.Principal{}, "/transcription/3/mom")
	assert.False(t, d.Proceed)
	assert.Equal(t, "/auth/login?next=%2Ftranscription%2F3%2Fmom", d.RedirectTo)
	assert.Equal(t, LoginRequiredMessage, d.Flash)
}

func TestLoginURL_DropsUnsafeNext(t *testing.T) {
	assert.Equal(t, "/auth/login", LoginURL(""))
	assert.Equal(t, "/auth/login", LoginURL("https://evil.example"))
	assert.Equal(t, "/auth/login?next=%2Fdashboard%3Fpage%3D2", LoginURL("/dashboard?page=2"))
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/dashboard"},
		{"/dashboard", "/dashboard"},
		{"/dashboard?page=2", "/dashboard?page=2"},
		{"/transcription/4/mom", "/transcription/4/mom"},
		{"https://evil.example/", "/dashboard"},
		{"http:/evil.example", "/dashboard"},
		{"//evil.example/path", "/dashboard"},
		{"/\\evil.example", "/dashboard"},
		{"javascript:alert(1)", "/dashboard"},
		{"dashboard", "/dashboard"},
		{"/ok\r\nSet-Cookie: x=y", "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeNext(tt.next, "/dashboard"))
		})
	}
}
