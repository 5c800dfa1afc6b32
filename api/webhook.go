package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/metrics"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/ptr"
	"github.com/International-Combat-Archery-Alliance/zoom-relay/relay"
)

const (
	maxWebhookBodySize = 1 << 20

	outcomeSuccess      = "success"
	outcomeUnauthorized = "unauthorized"
	outcomeInvalidBody  = "invalid_body"
)

func (a *API) PostWebhooksGhlToZoom(ctx context.Context, request PostWebhooksGhlToZoomRequestObject) (PostWebhooksGhlToZoomResponseObject, error) {
	logger := a.getLoggerOrBaseLogger(ctx)

	reg := incomingRegistrationToRegistration(request.Body)

	result, err := relay.RegisterAttendee(ctx, reg, a.provider, a.settings.RelayOptions)
	if err != nil {
		var relayErr *relay.Error
		if errors.As(err, &relayErr) {
			metrics.RegistrationsTotal.WithLabelValues(strings.ToLower(string(relayErr.Reason))).Inc()

			switch relayErr.Reason {
			case relay.REASON_MISSING_REQUIRED_FIELD:
				logger.Warn("Webhook is missing required fields", slog.String("error", err.Error()))
				return PostWebhooksGhlToZoom400JSONResponse{
					Error: relayErr.Message,
				}, nil
			}

			logger.Error("Failed to relay registration to Zoom",
				slog.String("error", err.Error()),
				slog.String("reason", string(relayErr.Reason)),
				slog.String("eventId", reg.EventID),
			)
			return PostWebhooksGhlToZoom500JSONResponse{
				Error:     "Zoom API error",
				Message:   relayErr.Message,
				ZoomError: relayErr.PayloadJSON(),
			}, nil
		}

		logger.Error("Failed to relay registration to Zoom", slog.String("error", err.Error()))
		metrics.RegistrationsTotal.WithLabelValues("unknown").Inc()

		return PostWebhooksGhlToZoom500JSONResponse{
			Error:   "Zoom API error",
			Message: err.Error(),
		}, nil
	}

	logger.Info("Registered attendee with Zoom",
		slog.String("eventId", result.EventID),
		slog.Bool("hasJoinLink", result.JoinLink != nil),
	)
	metrics.RegistrationsTotal.WithLabelValues(outcomeSuccess).Inc()

	return PostWebhooksGhlToZoom200JSONResponse{
		Status:       "success",
		Email:        result.Email,
		EventId:      result.EventID,
		JoinLink:     result.JoinLink,
		ZoomResponse: result.ProviderResponse,
	}, nil
}

// incomingRegistrationToRegistration treats a missing body and null fields as
// empty strings. Any other fields GoHighLevel sends are ignored.
func incomingRegistrationToRegistration(body *IncomingRegistration) relay.Registration {
	if body == nil {
		return relay.Registration{}
	}

	return relay.Registration{
		Email:     ptr.Deref(body.Email),
		FirstName: ptr.Deref(body.FirstName),
		LastName:  ptr.Deref(body.LastName),
		EventID:   ptr.Deref(body.EventId),
	}
}
