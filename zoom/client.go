package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/relay"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultOAuthURL = "https://zoom.us/oauth/token"
	DefaultAPIURL   = "https://api.zoom.us/v2"

	accountCredentialsGrant = "account_credentials"
	maxResponseSize         = 1 << 20
)

type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	OAuthURL     string
	APIURL       string
	Timeout      time.Duration
}

// Client talks to the Zoom Events API on behalf of a server-to-server OAuth app.
type Client struct {
	httpClient      *http.Client
	tokenHTTPClient *http.Client
	tokenConfig     *clientcredentials.Config
	apiURL          string
}

var _ relay.EventsProvider = (*Client)(nil)

// NewClient builds a client on top of transport. A nil transport uses
// http.DefaultTransport. Every outbound request is traced.
func NewClient(cfg Config, transport http.RoundTripper) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = DefaultOAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	traced := otelhttp.NewTransport(transport)

	return &Client{
		httpClient: &http.Client{
			Transport: traced,
			Timeout:   cfg.Timeout,
		},
		tokenHTTPClient: &http.Client{
			Transport: &basicAuthTransport{
				clientID:     cfg.ClientID,
				clientSecret: cfg.ClientSecret,
				next:         traced,
			},
			Timeout: cfg.Timeout,
		},
		tokenConfig: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.OAuthURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
			EndpointParams: map[string][]string{
				"grant_type": {accountCredentialsGrant},
				"account_id": {cfg.AccountID},
			},
		},
		apiURL: cfg.APIURL,
	}
}

// basicAuthTransport sends the client credentials as Basic auth over the raw
// "id:secret" pair. x/oauth2 URL-escapes both parts first, which Zoom rejects
// for secrets containing characters such as + / or =.
type basicAuthTransport struct {
	clientID     string
	clientSecret string
	next         http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.clientID, t.clientSecret)

	return t.next.RoundTrip(req)
}

type statusError struct {
	StatusCode int
	URL        string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

func failedStatusMessage(statusCode int) string {
	return fmt.Sprintf("Request failed with status code %d", statusCode)
}

// do sends an authenticated request and returns the status code and body.
func (c *Client) do(ctx context.Context, method string, url string, accessToken string, body any) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// rawJSON returns body as-is when it is JSON, and as a JSON string otherwise.
func rawJSON(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}

	asString, _ := json.Marshal(string(body))
	return asString
}
