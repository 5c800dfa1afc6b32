package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/relay"
	"github.com/stretchr/testify/require"
)

var noopLogger = slog.New(slog.DiscardHandler)

var _ relay.EventsProvider = &mockProvider{}

type mockProvider struct {
	AccessTokenFunc     func(ctx context.Context) (string, error)
	ListTicketTypesFunc func(ctx context.Context, accessToken string, eventId string) ([]relay.TicketType, error)
	CreateTicketFunc    func(ctx context.Context, accessToken string, eventId string, ticket relay.TicketRequest) (json.RawMessage, error)

	calls int
}

func (m *mockProvider) AccessToken(ctx context.Context) (string, error) {
	m.calls++
	if m.AccessTokenFunc != nil {
		return m.AccessTokenFunc(ctx)
	}
	return "T1", nil
}

func (m *mockProvider) ListTicketTypes(ctx context.Context, accessToken string, eventId string) ([]relay.TicketType, error) {
	m.calls++
	if m.ListTicketTypesFunc != nil {
		return m.ListTicketTypesFunc(ctx, accessToken, eventId)
	}
	return []relay.TicketType{{ID: "TT1"}}, nil
}

func (m *mockProvider) CreateTicket(ctx context.Context, accessToken string, eventId string, ticket relay.TicketRequest) (json.RawMessage, error) {
	m.calls++
	if m.CreateTicketFunc != nil {
		return m.CreateTicketFunc(ctx, accessToken, eventId, ticket)
	}
	return json.RawMessage(`{"tickets":[]}`), nil
}

const testSecret = "s3cret"

func newTestServer(t *testing.T, provider relay.EventsProvider, settings Settings) *httptest.Server {
	t.Helper()

	if settings.WebhookSecret == "" {
		settings.WebhookSecret = testSecret
	}

	h, err := NewAPI(provider, noopLogger, settings).Handler()
	require.NoError(t, err)

	return newTestServerFromHandler(t, h)
}

func newTestServerFromHandler(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return server
}

func postWebhook(t *testing.T, url string, secret string, body string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(webhookSecretHeader, secret)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(respBody)
}
