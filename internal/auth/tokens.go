package auth

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/minutesapp/minutes-server/internal/domain"
)

const (
	tokenIssuer   = "minutes-server"
	tokenAudience = "minutes-web"
)

// ErrInvalidToken is returned for tokens that fail decryption or validation.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims are the claims sealed inside a session token. TokenID is the
// session row id, so deleting the row revokes the token.
type SessionClaims struct {
	Username string `json:"username"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// Principal returns the identity carried by the claims.
func (c *SessionClaims) Principal() domain.Principal {
	return domain.Principal{UserID: c.Subject, Username: c.Username, SessionID: c.TokenID}
}

// TokenService seals and opens PASETO v4.local session tokens.
type TokenService struct {
	key paseto.V4SymmetricKey
	now func() time.Time
}

// NewTokenService creates a token service from a 32 byte symmetric key.
func NewTokenService(key []byte) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create PASETO symmetric key: %w", err)
	}
	return &TokenService{key: k, now: time.Now}, nil
}

// IssueSessionToken seals a token for session, valid until the session expires.
func (s *TokenService) IssueSessionToken(session *domain.Session, username string) string {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(session.UserID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(session.ExpiresAt)
	token.SetJti(session.ID)
	//nolint:errcheck // Token.Set only fails on unmarshalable values
	_ = token.Set("username", username)

	return token.V4Encrypt(s.key, nil)
}

// VerifySessionToken opens a token and checks issuer, audience and validity
// window. It does not consult the session store.
func (s *TokenService) VerifySessionToken(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims SessionClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.TokenID == "" {
		return nil, fmt.Errorf("%w: missing subject or token id", ErrInvalidToken)
	}
	return &claims, nil
}
