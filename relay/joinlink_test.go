package relay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/International-Combat-Archery-Alliance/zoom-relay/ptr"
)

func TestExtractJoinLink(t *testing.T) {
	tests := map[string]struct {
		resp     string
		expected *string
	}{
		"event join link first": {
			resp:     `{"tickets":[{"event_join_link":"E","join_link":"A","registration_link":"B"}]}`,
			expected: ptr.String("E"),
		},
		"join link before registration link": {
			resp:     `{"tickets":[{"join_link":"A","registration_link":"B"}]}`,
			expected: ptr.String("A"),
		},
		"registration link only": {
			resp:     `{"tickets":[{"registration_link":"B"}]}`,
			expected: ptr.String("B"),
		},
		"null field is skipped": {
			resp:     `{"tickets":[{"event_join_link":null,"registration_link":"B"}]}`,
			expected: ptr.String("B"),
		},
		"empty field is skipped": {
			resp:     `{"tickets":[{"event_join_link":"","join_link":"A"}]}`,
			expected: ptr.String("A"),
		},
		"zero is skipped": {
			resp:     `{"tickets":[{"event_join_link":0,"join_link":"A"}]}`,
			expected: ptr.String("A"),
		},
		"false is skipped": {
			resp:     `{"tickets":[{"event_join_link":false,"join_link":"A"}]}`,
			expected: ptr.String("A"),
		},
		"objects are not links": {
			resp:     `{"tickets":[{"event_join_link":{"url":"x"},"registration_link":"B"}]}`,
			expected: ptr.String("B"),
		},
		"no string field": {
			resp:     `{"tickets":[{"event_join_link":1,"join_link":true}]}`,
			expected: nil,
		},
		"only the first ticket is read": {
			resp:     `{"tickets":[{"id":"1"},{"join_link":"A"}]}`,
			expected: nil,
		},
		"no link fields": {
			resp:     `{"tickets":[{"id":"1"}]}`,
			expected: nil,
		},
		"empty tickets": {
			resp:     `{"tickets":[]}`,
			expected: nil,
		},
		"no tickets": {
			resp:     `{}`,
			expected: nil,
		},
		"null body": {
			resp:     `null`,
			expected: nil,
		},
		"invalid json": {
			resp:     `{"tickets":[`,
			expected: nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := ExtractJoinLink([]byte(tc.resp))

			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("ExtractJoinLink() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Nil(t, ExtractJoinLink(nil))
}
