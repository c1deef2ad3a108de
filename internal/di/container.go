// Package di provides dependency injection configuration for the minutes server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/minutesapp/minutes-server/internal/auth"
	"github.com/minutesapp/minutes-server/internal/config"
	"github.com/minutesapp/minutes-server/internal/di/providers"
	"github.com/minutesapp/minutes-server/internal/logger"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideDataLock)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideValidator)

	// Storage
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSummaryGenerator)
	do.Provide(injector, providers.ProvideIdentityService)
	do.Provide(injector, providers.ProvideTranscriptionService)
	do.Provide(injector, providers.ProvideMoMService)
	do.Provide(injector, providers.ProvideExportService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the background work.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.DataLock](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*metrics.Metrics](injector)

	// Business services
	_ = do.MustInvoke[*service.IdentityService](injector)
	_ = do.MustInvoke[*service.TranscriptionService](injector)
	_ = do.MustInvoke[*service.MoMService](injector)
	_ = do.MustInvoke[*service.ExportService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
