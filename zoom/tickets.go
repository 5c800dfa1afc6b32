package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/relay"
)

type ticketTypesResponse struct {
	TicketTypes []relay.TicketType `json:"ticket_types"`
}

type createTicketsRequest struct {
	Tickets []relay.TicketRequest `json:"tickets"`
}

func (c *Client) eventURL(eventId string, resource string) string {
	return fmt.Sprintf("%s/zoom_events/events/%s/%s", c.apiURL, url.PathEscape(eventId), resource)
}

// ListTicketTypes returns the ticket types of an event in the order Zoom lists them.
func (c *Client) ListTicketTypes(ctx context.Context, accessToken string, eventId string) ([]relay.TicketType, error) {
	u := c.eventURL(eventId, "ticket_types")

	status, body, err := c.do(ctx, http.MethodGet, u, accessToken, nil)
	if err != nil {
		return nil, relay.NewUpstreamTicketTypesError(fmt.Sprintf("Failed to fetch ticket types for event %s", eventId), err, body)
	}
	if !isSuccess(status) {
		return nil, relay.NewUpstreamTicketTypesError(failedStatusMessage(status), &statusError{StatusCode: status, URL: u}, body)
	}

	var resp ticketTypesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, relay.NewUpstreamTicketTypesError("Failed to parse ticket types response", err, body)
	}

	return resp.TicketTypes, nil
}

// CreateTicket registers one attendee for an event and returns Zoom's
// response body unmodified.
func (c *Client) CreateTicket(ctx context.Context, accessToken string, eventId string, ticket relay.TicketRequest) (json.RawMessage, error) {
	u := c.eventURL(eventId, "tickets")

	status, body, err := c.do(ctx, http.MethodPost, u, accessToken, createTicketsRequest{
		Tickets: []relay.TicketRequest{ticket},
	})
	if err != nil {
		return nil, relay.NewUpstreamTicketError(fmt.Sprintf("Failed to create ticket for event %s", eventId), err, body)
	}
	if !isSuccess(status) {
		return nil, relay.NewUpstreamTicketError(failedStatusMessage(status), &statusError{StatusCode: status, URL: u}, body)
	}

	return rawJSON(body), nil
}
