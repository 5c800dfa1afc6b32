package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ EventsProvider = &mockEventsProvider{}

type mockEventsProvider struct {
	AccessTokenFunc     func(ctx context.Context) (string, error)
	ListTicketTypesFunc func(ctx context.Context, accessToken string, eventId string) ([]TicketType, error)
	CreateTicketFunc    func(ctx context.Context, accessToken string, eventId string, ticket TicketRequest) (json.RawMessage, error)

	calls []string
}

func (m *mockEventsProvider) AccessToken(ctx context.Context) (string, error) {
	m.calls = append(m.calls, "AccessToken")
	if m.AccessTokenFunc != nil {
		return m.AccessTokenFunc(ctx)
	}
	return "T1", nil
}

func (m *mockEventsProvider) ListTicketTypes(ctx context.Context, accessToken string, eventId string) ([]TicketType, error) {
	m.calls = append(m.calls, "ListTicketTypes")
	if m.ListTicketTypesFunc != nil {
		return m.ListTicketTypesFunc(ctx, accessToken, eventId)
	}
	return []TicketType{{ID: "TT1"}}, nil
}

func (m *mockEventsProvider) CreateTicket(ctx context.Context, accessToken string, eventId string, ticket TicketRequest) (json.RawMessage, error) {
	m.calls = append(m.calls, "CreateTicket")
	if m.CreateTicketFunc != nil {
		return m.CreateTicketFunc(ctx, accessToken, eventId, ticket)
	}
	return json.RawMessage(`{"tickets":[{"join_link":"https://zoom/join"}]}`), nil
}

func requireReason(t *testing.T, err error, reason ErrorReason) *Error {
	t.Helper()

	var relayErr *Error
	require.True(t, errors.As(err, &relayErr), "expected *relay.Error, got %T", err)
	assert.Equal(t, reason, relayErr.Reason)

	return relayErr
}

func TestRegisterAttendee(t *testing.T) {
	reg := Registration{Email: "a@b.com", FirstName: "A", LastName: "B", EventID: "E1"}

	t.Run("missing email", func(t *testing.T) {
		provider := &mockEventsProvider{}

		_, err := RegisterAttendee(context.Background(), Registration{EventID: "E1"}, provider, Options{})

		relayErr := requireReason(t, err, REASON_MISSING_REQUIRED_FIELD)
		assert.Equal(t, "Missing email or eventId", relayErr.Message)
		assert.Empty(t, provider.calls)
	})

	t.Run("missing event id", func(t *testing.T) {
		provider := &mockEventsProvider{}

		_, err := RegisterAttendee(context.Background(), Registration{Email: "a@b.com"}, provider, Options{})

		requireReason(t, err, REASON_MISSING_REQUIRED_FIELD)
		assert.Empty(t, provider.calls)
	})

	t.Run("default event id fills a missing one", func(t *testing.T) {
		provider := &mockEventsProvider{}

		result, err := RegisterAttendee(context.Background(), Registration{Email: "a@b.com"}, provider, Options{DefaultEventID: "E9"})

		assert.NoError(t, err)
		assert.Equal(t, "E9", result.EventID)
	})

	t.Run("default event id does not override the request", func(t *testing.T) {
		provider := &mockEventsProvider{}

		result, err := RegisterAttendee(context.Background(), reg, provider, Options{DefaultEventID: "E9"})

		assert.NoError(t, err)
		assert.Equal(t, "E1", result.EventID)
	})

	t.Run("steps run in order with the same token", func(t *testing.T) {
		var tokens []string
		provider := &mockEventsProvider{
			ListTicketTypesFunc: func(ctx context.Context, accessToken string, eventId string) ([]TicketType, error) {
				tokens = append(tokens, accessToken)
				assert.Equal(t, "E1", eventId)
				return []TicketType{{ID: "TT1"}, {ID: "TT2"}}, nil
			},
			CreateTicketFunc: func(ctx context.Context, accessToken string, eventId string, ticket TicketRequest) (json.RawMessage, error) {
				tokens = append(tokens, accessToken)
				assert.Equal(t, "E1", eventId)
				assert.Equal(t, TicketRequest{Email: "a@b.com", FirstName: "A", LastName: "B", TicketTypeID: "TT1"}, ticket)
				return json.RawMessage(`{"tickets":[{"registration_link":"https://zoom/reg"}]}`), nil
			},
		}

		result, err := RegisterAttendee(context.Background(), reg, provider, Options{})

		require.NoError(t, err)
		assert.Equal(t, []string{"AccessToken", "ListTicketTypes", "CreateTicket"}, provider.calls)
		assert.Equal(t, []string{"T1", "T1"}, tokens)
		require.NotNil(t, result.JoinLink)
		assert.Equal(t, "https://zoom/reg", *result.JoinLink)
		assert.JSONEq(t, `{"tickets":[{"registration_link":"https://zoom/reg"}]}`, string(result.ProviderResponse))
		assert.Equal(t, "a@b.com", result.Email)
	})

	t.Run("pinned ticket type skips the lookup", func(t *testing.T) {
		provider := &mockEventsProvider{
			CreateTicketFunc: func(ctx context.Context, accessToken string, eventId string, ticket TicketRequest) (json.RawMessage, error) {
				assert.Equal(t, "PINNED", ticket.TicketTypeID)
				return json.RawMessage(`{}`), nil
			},
		}

		result, err := RegisterAttendee(context.Background(), reg, provider, Options{TicketTypeID: "PINNED"})

		require.NoError(t, err)
		assert.Equal(t, []string{"AccessToken", "CreateTicket"}, provider.calls)
		assert.Nil(t, result.JoinLink)
	})

	t.Run("token failure stops the pipeline", func(t *testing.T) {
		provider := &mockEventsProvider{
			AccessTokenFunc: func(ctx context.Context) (string, error) {
				return "", NewUpstreamAuthError("Request failed with status code 400", errors.New("bad"), []byte(`{"error":"invalid_request"}`))
			},
		}

		_, err := RegisterAttendee(context.Background(), reg, provider, Options{})

		requireReason(t, err, REASON_UPSTREAM_AUTH)
		assert.Equal(t, []string{"AccessToken"}, provider.calls)
	})

	t.Run("empty ticket type list stops before ticket creation", func(t *testing.T) {
		provider := &mockEventsProvider{
			ListTicketTypesFunc: func(ctx context.Context, accessToken string, eventId string) ([]TicketType, error) {
				return nil, nil
			},
		}

		_, err := RegisterAttendee(context.Background(), reg, provider, Options{})

		relayErr := requireReason(t, err, REASON_NO_TICKET_TYPE_FOUND)
		assert.Equal(t, "No ticket types found for event E1", relayErr.Message)
		assert.Equal(t, []string{"AccessToken", "ListTicketTypes"}, provider.calls)
	})

	t.Run("ticket creation failure is returned as is", func(t *testing.T) {
		provider := &mockEventsProvider{
			CreateTicketFunc: func(ctx context.Context, accessToken string, eventId string, ticket TicketRequest) (json.RawMessage, error) {
				return nil, NewUpstreamTicketError("Request failed with status code 400", nil, []byte(`{"code":300}`))
			},
		}

		_, err := RegisterAttendee(context.Background(), reg, provider, Options{})

		relayErr := requireReason(t, err, REASON_UPSTREAM_TICKET)
		assert.JSONEq(t, `{"code":300}`, string(relayErr.PayloadJSON()))
	})
}

func TestErrorPayloadJSON(t *testing.T) {
	assert.Nil(t, NewNoTicketTypeFoundError("E1").PayloadJSON())
	assert.JSONEq(t, `{"a":1}`, string(NewUpstreamTicketError("m", nil, []byte(`{"a":1}`)).PayloadJSON()))
	assert.JSONEq(t, `"not json"`, string(NewUpstreamTicketError("m", nil, []byte(`not json`)).PayloadJSON()))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewUpstreamAuthError("m", cause, nil)

	assert.ErrorIs(t, err, cause)
}
