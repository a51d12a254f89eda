package order

// Contact is the normalized view of an order's address payload.
type Contact struct {
	Name         string
	Email        string
	Phone        string
	AddressLines []string
}

// Address payloads have accumulated several field-naming conventions over
// time. Each alias list is probed in order; the first non-empty string wins.
var (
	nameKeys  = []string{"fullName", "full_name", "name", "contact_name"}
	emailKeys = []string{"email", "contact_email"}
	phoneKeys = []string{"phone", "contact_phone"}

	// Either a single "address" field or discrete components.
	addressKeys = []string{"address", "address_line1", "address_line2", "city", "state", "postal_code", "country"}
)

// ExtractContact normalizes a stored address payload into a Contact.
// Unknown shapes yield an empty contact rather than an error: historical
// orders must keep rendering even when their payload predates the current
// checkout form.
func ExtractContact(payload map[string]any) Contact {
	if payload == nil {
		return Contact{}
	}

	c := Contact{
		Name:  firstString(payload, nameKeys),
		Email: firstString(payload, emailKeys),
		Phone: firstString(payload, phoneKeys),
	}
	for _, key := range addressKeys {
		if s, ok := payload[key].(string); ok && s != "" {
			c.AddressLines = append(c.AddressLines, s)
		}
	}
	return c
}

func firstString(payload map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
