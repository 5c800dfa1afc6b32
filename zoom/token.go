package zoom

import (
	"context"
	"errors"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/relay"
	"golang.org/x/oauth2"
)

// AccessToken runs the account credentials grant and returns a fresh bearer
// token. Tokens are not cached.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.tokenHTTPClient)

	token, err := c.tokenConfig.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", relay.NewUpstreamAuthError(failedStatusMessage(retrieveErr.Response.StatusCode), err, retrieveErr.Body)
		}

		return "", relay.NewUpstreamAuthError("Failed to get Zoom access token", err, nil)
	}

	return token.AccessToken, nil
}
