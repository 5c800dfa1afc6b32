package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/metrics"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/ptr"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/google/uuid"
	middleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestIdHeader = "X-Request-Id"
	tracerName      = "github.com/International-Combat-Archery-Alliance/zoom-relay/api"
)

type middlewareFunc func(next http.Handler) http.Handler

// useMiddlewares wraps h so that the last middleware given runs first.
func useMiddlewares(h http.Handler, middlewares ...middlewareFunc) http.Handler {
	s := h

	for _, mw := range middlewares {
		s = mw(s)
	}

	return s
}

func (a *API) requestIdMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestId := uuid.New()

			ctx := ctxWithRequestId(r.Context(), requestId)
			ctx = ctxWithLogger(ctx, a.logger.With(slog.String("request-id", requestId.String())))

			w.Header().Set(requestIdHeader, requestId.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *API) loggingMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := newStatusRecorder(w)

			// process the request
			next.ServeHTTP(rec, r)

			a.getLoggerOrBaseLogger(r.Context()).InfoContext(r.Context(),
				"Access log",
				slog.String("latency", formatDuration(time.Since(start))),
				slog.Int64("request-content-length", r.ContentLength),
				slog.Int("resp-body-size", rec.responseSize),
				slog.String("host", r.Host),
				slog.String("method", r.Method),
				slog.Int("status-code", rec.statusCode),
				slog.String("path", r.URL.Path),
			)
		})
	}
}

func (a *API) metricsMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			// the mux fills in the matched pattern, unmatched paths share one label
			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

func (a *API) recoverMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					a.getLoggerOrBaseLogger(r.Context()).ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
					)

					resp := Error{Error: "Internal server error"}
					if requestId, ok := getRequestIdFromCtx(r.Context()); ok {
						resp.Message = ptr.String("request id " + requestId.String())
					}
					writeJSON(w, http.StatusInternalServerError, resp)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func (a *API) openapiValidateMiddleware(swagger *openapi3.T) middlewareFunc {
	return middleware.OapiRequestValidatorWithOptions(swagger, &middleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: a.authenticateWebhook,
		},
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts middleware.ErrorHandlerOpts) {
			logger := a.getLoggerOrBaseLogger(ctx)

			var requestErr *openapi3filter.RequestError
			var secErr *openapi3filter.SecurityRequirementsError
			if errors.As(err, &secErr) {
				logger.Warn("Rejected webhook with missing or invalid secret")
				metrics.RegistrationsTotal.WithLabelValues(outcomeUnauthorized).Inc()

				writeJSON(w, http.StatusUnauthorized, Error{Error: "Unauthorized"})
				return
			} else if errors.As(err, &requestErr) {
				logger.Warn("Webhook body failed validation", slog.String("error", err.Error()))
				metrics.RegistrationsTotal.WithLabelValues(outcomeInvalidBody).Inc()

				writeJSON(w, http.StatusBadRequest, Error{
					Error:   "Invalid request body",
					Message: ptr.String(err.Error()),
				})
				return
			}

			logger.Error("Failed to validate request", slog.String("error", err.Error()))
			writeJSON(w, opts.StatusCode, Error{
				Error:   http.StatusText(opts.StatusCode),
				Message: ptr.String(err.Error()),
			})
		},
	})
}

func (a *API) limitBodyMiddleware(maxBytes int64) middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// tracingStrictMiddleware opens a server span per operation, continuing the
// caller's trace when one is propagated.
func (a *API) tracingStrictMiddleware() StrictMiddlewareFunc {
	return func(f StrictHandlerFunc, operationID string) StrictHandlerFunc {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request, request interface{}) (interface{}, error) {
			ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

			ctx, span := otel.Tracer(tracerName).Start(ctx, operationID, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			return f(ctx, w, r, request)
		}
	}
}

func (a *API) requestErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	a.getLoggerOrBaseLogger(r.Context()).Warn("Failed to decode request", slog.String("error", err.Error()))
	metrics.RegistrationsTotal.WithLabelValues(outcomeInvalidBody).Inc()

	writeJSON(w, http.StatusBadRequest, Error{
		Error:   "Invalid request body",
		Message: ptr.String(err.Error()),
	})
}

func (a *API) responseErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	a.getLoggerOrBaseLogger(r.Context()).Error("Failed to write response", slog.String("error", err.Error()))

	writeJSON(w, http.StatusInternalServerError, Error{Error: "Internal server error"})
}

func (a *API) corsMiddleware() middlewareFunc {
	var serverCors *cors.Cors

	switch a.settings.Env {
	case LOCAL:
		serverCors = cors.AllowAll()
	default:
		// webhooks are server to server, browsers only get in when origins are configured
		if len(a.settings.AllowedOrigins) == 0 {
			return func(next http.Handler) http.Handler { return next }
		}

		serverCors = cors.New(cors.Options{
			AllowedOrigins: a.settings.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", webhookSecretHeader},
			MaxAge:         300,
		})
	}

	return serverCors.Handler
}

// formatDuration formats a duration to one decimal point.
func formatDuration(d time.Duration) string {
	div := time.Duration(10)
	switch {
	case d > time.Second:
		d = d.Round(time.Second / div)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond / div)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond / div)
	case d > time.Nanosecond:
		d = d.Round(time.Nanosecond / div)
	}
	return d.String()
}
