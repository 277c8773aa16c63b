// Package email defines the provider-agnostic fetch contract email
// providers implement to feed the pipeline's model.Message vocabulary.
package email

import "strings"

// Address is an email address with an optional display name, used
// only while parsing provider-native headers before they're flattened
// into model.Message's plain string fields.
type Address struct {
	Name  string
	Email string
}

// String returns the formatted address ("Name <email>" or bare email).
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Domain extracts the lowercased domain from the address.
func (a Address) Domain() string {
	parts := strings.Split(a.Email, "@")
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

// ParseAddress parses a header value like "Name <email@example.com>".
func ParseAddress(s string) Address {
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "<"); start != -1 {
		if end := strings.Index(s, ">"); end > start {
			return Address{
				Name:  strings.TrimSpace(s[:start]),
				Email: strings.TrimSpace(s[start+1 : end]),
			}
		}
	}

	return Address{Email: s}
}

// ParseAddresses parses a comma-separated list of addresses.
func ParseAddresses(s string) []Address {
	if s == "" {
		return nil
	}

	var addresses []Address
	for _, part := range strings.Split(s, ",") {
		if addr := ParseAddress(part); addr.Email != "" {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}
