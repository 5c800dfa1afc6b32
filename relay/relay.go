package relay

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/International-Combat-Archery-Alliance/zoom-relay/relay"

var validate = validator.New(validator.WithRequiredStructEnabled())

// EventsProvider is the events platform a registration is relayed to.
type EventsProvider interface {
	AccessToken(ctx context.Context) (string, error)
	ListTicketTypes(ctx context.Context, accessToken string, eventId string) ([]TicketType, error)
	CreateTicket(ctx context.Context, accessToken string, eventId string, ticket TicketRequest) (json.RawMessage, error)
}

type Registration struct {
	Email     string `validate:"required"`
	FirstName string
	LastName  string
	EventID   string `validate:"required"`
}

func (r Registration) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewMissingRequiredFieldError("Missing email or eventId", err)
	}
	return nil
}

type TicketType struct {
	ID string `json:"id"`
}

type TicketRequest struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	TicketTypeID string `json:"ticket_type_id,omitempty"`
}

type Result struct {
	Email            string
	EventID          string
	JoinLink         *string
	ProviderResponse json.RawMessage
}

type Options struct {
	// DefaultEventID is used when the registration does not name an event.
	DefaultEventID string
	// TicketTypeID pins the ticket type and skips the ticket type lookup.
	TicketTypeID string
}

// RegisterAttendee runs the whole relay for one registration: token, ticket
// type, ticket creation and join link extraction. Each step must succeed
// before the next one starts, nothing is undone on failure.
func RegisterAttendee(ctx context.Context, reg Registration, provider EventsProvider, opts Options) (Result, error) {
	if reg.EventID == "" {
		reg.EventID = opts.DefaultEventID
	}

	if err := reg.Validate(); err != nil {
		return Result{}, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "RegisterAttendee",
		trace.WithAttributes(attribute.String("zoom.event_id", reg.EventID)),
	)
	defer span.End()

	result, err := registerAttendee(ctx, reg, provider, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	return result, nil
}

func registerAttendee(ctx context.Context, reg Registration, provider EventsProvider, opts Options) (Result, error) {
	accessToken, err := provider.AccessToken(ctx)
	if err != nil {
		return Result{}, err
	}

	ticketTypeId, err := resolveTicketType(ctx, accessToken, reg.EventID, provider, opts)
	if err != nil {
		return Result{}, err
	}

	resp, err := provider.CreateTicket(ctx, accessToken, reg.EventID, TicketRequest{
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		TicketTypeID: ticketTypeId,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Email:            reg.Email,
		EventID:          reg.EventID,
		JoinLink:         ExtractJoinLink(resp),
		ProviderResponse: resp,
	}, nil
}

// resolveTicketType picks the first ticket type the provider lists for the
// event. There is no ranking or filtering.
func resolveTicketType(ctx context.Context, accessToken string, eventId string, provider EventsProvider, opts Options) (string, error) {
	if opts.TicketTypeID != "" {
		return opts.TicketTypeID, nil
	}

	ticketTypes, err := provider.ListTicketTypes(ctx, accessToken, eventId)
	if err != nil {
		return "", err
	}

	if len(ticketTypes) == 0 {
		return "", NewNoTicketTypeFoundError(eventId)
	}

	return ticketTypes[0].ID, nil
}
