//go:generate go tool oapi-codegen --config openapi-codegen-config.yaml openapi.yaml
package api

import (
	"log/slog"
	"net/http"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/metrics"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/relay"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

func ParseEnvironment(s string) Environment {
	if s == "LOCAL" {
		return LOCAL
	}
	return PROD
}

type Settings struct {
	Env            Environment
	WebhookSecret  string
	AllowedOrigins []string
	RelayOptions   relay.Options
}

type API struct {
	provider relay.EventsProvider
	logger   *slog.Logger
	settings Settings
}

var _ StrictServerInterface = (*API)(nil)

func NewAPI(provider relay.EventsProvider, logger *slog.Logger, settings Settings) *API {
	return &API{
		provider: provider,
		logger:   logger,
		settings: settings,
	}
}

// Handler returns the relay's full HTTP surface with every middleware applied.
func (a *API) Handler() (http.Handler, error) {
	swagger, err := GetSwagger()
	if err != nil {
		return nil, err
	}

	strictHandler := NewStrictHandlerWithOptions(a, []StrictMiddlewareFunc{a.tracingStrictMiddleware()}, StrictHTTPServerOptions{
		RequestErrorHandlerFunc:  a.requestErrorHandler,
		ResponseErrorHandlerFunc: a.responseErrorHandler,
	})

	apiMux := http.NewServeMux()
	HandlerFromMux(strictHandler, apiMux)

	// only the webhook is described with a security requirement and a body
	webhook := useMiddlewares(
		apiMux,
		a.openapiValidateMiddleware(swagger),
		a.limitBodyMiddleware(maxWebhookBodySize),
	)

	r := http.NewServeMux()
	r.Handle("GET /health", apiMux)
	r.Handle("POST /webhooks/ghl-to-zoom", webhook)
	r.Handle("GET /metrics", metrics.Handler())

	return useMiddlewares(
		r,
		a.corsMiddleware(),
		a.metricsMiddleware(),
		a.loggingMiddleware(),
		a.requestIdMiddleware(),
		a.recoverMiddleware(),
	), nil
}
