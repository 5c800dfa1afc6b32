package relay

import (
	"github.com/International-Combat-Archery-Alliance/zoom-relay/ptr"
	"github.com/tidwall/gjson"
)

// joinLinkFields are checked in order on the first ticket of a creation response.
var joinLinkFields = []string{"event_join_link", "join_link", "registration_link"}

// ExtractJoinLink returns the join link of the first ticket in a ticket
// creation response, or nil when there is none.
func ExtractJoinLink(ticketResponse []byte) *string {
	if !gjson.ValidBytes(ticketResponse) {
		return nil
	}

	ticket := gjson.GetBytes(ticketResponse, "tickets.0")
	if !ticket.IsObject() {
		return nil
	}

	for _, field := range joinLinkFields {
		v := ticket.Get(field)
		if v.Type == gjson.String && v.Str != "" {
			return ptr.String(v.Str)
		}
	}

	return nil
}
