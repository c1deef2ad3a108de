package providers

import (
	"github.com/samber/do/v2"

	"github.com/minutesapp/minutes-server/internal/auth"
	"github.com/minutesapp/minutes-server/internal/config"
	"github.com/minutesapp/minutes-server/internal/logger"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/service"
	"github.com/minutesapp/minutes-server/internal/summary"
	"github.com/minutesapp/minutes-server/internal/validation"
)

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(_ do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSummaryGenerator provides the MoM pre-fill generator.
func ProvideSummaryGenerator(i do.Injector) (*summary.Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return summary.NewGenerator(summary.Options{
		MaxSentences: cfg.Summary.MaxSentences,
		MaxChars:     cfg.Summary.MaxChars,
	}), nil
}

// ProvideIdentityService provides the account and session service.
func ProvideIdentityService(i do.Injector) (*service.IdentityService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIdentityService(storeHandle.Store, tokens, validator, m, service.IdentityConfig{
		SessionDuration:  cfg.Auth.SessionDuration,
		RememberDuration: cfg.Auth.RememberDuration,
	}, log.Logger), nil
}

// ProvideTranscriptionService provides the transcription service.
func ProvideTranscriptionService(i do.Injector) (*service.TranscriptionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTranscriptionService(storeHandle.Store, searchService, m, cfg.Dashboard.PageSize, log.Logger), nil
}

// ProvideMoMService provides the minutes of meeting service.
func ProvideMoMService(i do.Injector) (*service.MoMService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	generator := do.MustInvoke[*summary.Generator](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMoMService(storeHandle.Store, generator, searchService, m, log.Logger), nil
}

// ProvideExportService provides the Word export service.
func ProvideExportService(i do.Injector) (*service.ExportService, error) {
	moms := do.MustInvoke[*service.MoMService](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewExportService(moms, log.Logger), nil
}
