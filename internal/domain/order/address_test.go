package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContact(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    Contact
	}{
		{
			name:    "nil payload",
			payload: nil,
			want:    Contact{},
		},
		{
			name: "current checkout shape",
			payload: map[string]any{
				"fullName":    "Ada Lovelace",
				"email":       "ada@example.com",
				"phone":       "+1 555 0100",
				"address":     "12 Analytical Way",
				"city":        "London",
				"postal_code": "N1 9GU",
			},
			want: Contact{
				Name:         "Ada Lovelace",
				Email:        "ada@example.com",
				Phone:        "+1 555 0100",
				AddressLines: []string{"12 Analytical Way", "London", "N1 9GU"},
			},
		},
		{
			name: "snake_case legacy shape",
			payload: map[string]any{
				"full_name":     "Grace Hopper",
				"contact_email": "grace@example.com",
				"contact_phone": "+1 555 0101",
				"address_line1": "1 Harbor St",
				"address_line2": "Apt 9",
				"state":         "VA",
				"country":       "US",
			},
			want: Contact{
				Name:         "Grace Hopper",
				Email:        "grace@example.com",
				Phone:        "+1 555 0101",
				AddressLines: []string{"1 Harbor St", "Apt 9", "VA", "US"},
			},
		},
		{
			name: "first non-empty alias wins",
			payload: map[string]any{
				"fullName": "",
				"name":     "Fallback Name",
				"email":    "first@example.com",
			},
			want: Contact{Name: "Fallback Name", Email: "first@example.com"},
		},
		{
			name: "non-string values ignored",
			payload: map[string]any{
				"fullName": 42,
				"email":    map[string]any{"nested": true},
				"city":     "Oslo",
			},
			want: Contact{AddressLines: []string{"Oslo"}},
		},
		{
			name:    "unknown shape yields empty contact",
			payload: map[string]any{"street": "Nowhere 1", "zip": "0000"},
			want:    Contact{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractContact(tt.payload))
		})
	}
}
