package maps

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// AddressQuery is the free-form part of an address that needs a postal code.
type AddressQuery struct {
	Line1   string
	City    string
	State   string
	Country string
}

func (q AddressQuery) input() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{q.Line1, q.City, q.State, q.Country} {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}

// PostalCode returns the postal_code component, if Google returned one.
func (p PlaceDetails) PostalCode() string {
	for _, comp := range p.AddressComponents {
		for _, kind := range comp.Types {
			if kind == "postal_code" {
				return comp.LongName
			}
		}
	}
	return ""
}

// ResolvePostalCode looks the address up and returns the postal code of the
// best match. An empty string with a nil error means Google had no match.
func (c *Client) ResolvePostalCode(ctx context.Context, q AddressQuery) (string, error) {
	input := q.input()
	if input == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	req := AutocompleteRequest{Input: input}
	if country := strings.TrimSpace(q.Country); len(country) == 2 {
		req.IncludedRegionCodes = []string{strings.ToUpper(country)}
	}
	suggestions, err := c.Autocomplete(ctx, req)
	if err != nil {
		return "", err
	}
	if len(suggestions) == 0 || suggestions[0].PlaceID == "" {
		return "", nil
	}
	details, err := c.ResolvePlace(ctx, suggestions[0].PlaceID)
	if err != nil {
		return "", err
	}
	return details.PostalCode(), nil
}
