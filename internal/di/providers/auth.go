package providers

import (
	"github.com/samber/do/v2"

	"github.com/minutesapp/minutes-server/internal/auth"
	"github.com/minutesapp/minutes-server/internal/config"
	"github.com/minutesapp/minutes-server/internal/logger"
)

// AuthKey wraps the session token key bytes.
type AuthKey []byte

// ProvideAuthKey uses AUTH_TOKEN_KEY when set, otherwise loads or generates
// the key file in the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	do.MustInvoke[*DataLock](i)

	if cfg.Auth.TokenKeyHex != "" {
		key, err := auth.KeyFromHex(cfg.Auth.TokenKeyHex)
		if err != nil {
			return nil, err
		}
		log.Info("Session token key loaded from environment")
		return AuthKey(key), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Session token key loaded",
		"session_duration", cfg.Auth.SessionDuration,
		"remember_duration", cfg.Auth.RememberDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	key := do.MustInvoke[AuthKey](i)
	return auth.NewTokenService([]byte(key))
}
