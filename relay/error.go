package relay

import (
	"encoding/json"
	"fmt"
)

type ErrorReason string

const (
	REASON_MISSING_REQUIRED_FIELD ErrorReason = "MISSING_REQUIRED_FIELD"
	REASON_UPSTREAM_AUTH          ErrorReason = "UPSTREAM_AUTH"
	REASON_UPSTREAM_TICKET_TYPES  ErrorReason = "UPSTREAM_TICKET_TYPES"
	REASON_NO_TICKET_TYPE_FOUND   ErrorReason = "NO_TICKET_TYPE_FOUND"
	REASON_UPSTREAM_TICKET        ErrorReason = "UPSTREAM_TICKET"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
	// Payload is the body the events provider answered with, if any.
	Payload []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// PayloadJSON returns the provider payload as JSON. Payloads that are not
// valid JSON are encoded as a JSON string. Nil when there is no payload.
func (e *Error) PayloadJSON() json.RawMessage {
	if len(e.Payload) == 0 {
		return nil
	}
	if json.Valid(e.Payload) {
		return json.RawMessage(e.Payload)
	}

	asString, err := json.Marshal(string(e.Payload))
	if err != nil {
		return nil
	}
	return asString
}

func newRelayError(reason ErrorReason, message string, cause error, payload []byte) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
		Payload: payload,
	}
}

func NewMissingRequiredFieldError(message string, cause error) *Error {
	return newRelayError(REASON_MISSING_REQUIRED_FIELD, message, cause, nil)
}

func NewUpstreamAuthError(message string, cause error, payload []byte) *Error {
	return newRelayError(REASON_UPSTREAM_AUTH, message, cause, payload)
}

func NewUpstreamTicketTypesError(message string, cause error, payload []byte) *Error {
	return newRelayError(REASON_UPSTREAM_TICKET_TYPES, message, cause, payload)
}

func NewNoTicketTypeFoundError(eventId string) *Error {
	return newRelayError(REASON_NO_TICKET_TYPE_FOUND, fmt.Sprintf("No ticket types found for event %s", eventId), nil, nil)
}

func NewUpstreamTicketError(message string, cause error, payload []byte) *Error {
	return newRelayError(REASON_UPSTREAM_TICKET, message, cause, payload)
}
