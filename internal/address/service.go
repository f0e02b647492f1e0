package address

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/maps"
)

const maxQueryLength = 200

type placesClient interface {
	Autocomplete(ctx context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error)
	ResolvePlace(ctx context.Context, placeID string) (*maps.PlaceDetails, error)
}

// Service powers the checkout form's address lookup: suggestions while the
// shopper types, then a prefilled address for the chosen place.
type Service interface {
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Resolve(ctx context.Context, placeID string) (helpers.Address, error)
}

type SuggestRequest struct {
	Query    string
	Country  string
	Language string
}

type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type service struct {
	places placesClient
}

// NewService returns a service that reports CodeDependency on every call when
// places is nil, so the routes can stay mounted without a Maps key.
func NewService(places placesClient) Service {
	return &service{places: places}
}

func (s *service) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	if s.places == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "address lookup unavailable")
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, pkgerrors.FieldErrors("invalid query", map[string]string{"q": "is required"})
	}
	if len(query) > maxQueryLength {
		return nil, pkgerrors.FieldErrors("invalid query", map[string]string{"q": "is too long"})
	}

	payload := maps.AutocompleteRequest{Input: query, LanguageCode: strings.TrimSpace(req.Language)}
	if country := strings.TrimSpace(req.Country); country != "" {
		payload.IncludedRegionCodes = []string{strings.ToUpper(country)}
	}
	found, err := s.places.Autocomplete(ctx, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "address lookup failed")
	}

	out := make([]Suggestion, 0, len(found))
	for _, item := range found {
		out = append(out, Suggestion{PlaceID: item.PlaceID, Description: item.Description})
	}
	return out, nil
}

func (s *service) Resolve(ctx context.Context, placeID string) (helpers.Address, error) {
	if s.places == nil {
		return helpers.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "address lookup unavailable")
	}
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return helpers.Address{}, pkgerrors.FieldErrors("invalid place", map[string]string{"place_id": "is required"})
	}
	details, err := s.places.ResolvePlace(ctx, placeID)
	if err != nil {
		return helpers.Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "address lookup failed")
	}
	return fromPlace(details)
}

// fromPlace maps place components onto the checkout address shape. Name and
// contact fields stay empty for the shopper to fill in.
func fromPlace(details *maps.PlaceDetails) (helpers.Address, error) {
	if details == nil {
		return helpers.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "place details missing")
	}
	long := func(kinds ...string) string {
		for _, kind := range kinds {
			if comp := component(details, kind); comp != nil && comp.LongName != "" {
				return comp.LongName
			}
		}
		return ""
	}

	line1 := strings.TrimSpace(strings.Join(nonEmpty(long("street_number"), long("route")), " "))
	if line1 == "" && details.FormattedAddress != "" {
		line1 = strings.TrimSpace(strings.Split(details.FormattedAddress, ",")[0])
	}
	if line1 == "" {
		return helpers.Address{}, pkgerrors.New(pkgerrors.CodeNotFound, "place has no street address")
	}
	city := long("locality", "postal_town", "administrative_area_level_2")
	if city == "" {
		return helpers.Address{}, pkgerrors.New(pkgerrors.CodeNotFound, "place has no city")
	}

	out := helpers.Address{
		AddressLine1: line1,
		City:         city,
		AddressLine2: optional(long("subpremise")),
		State:        optional(long("administrative_area_level_1")),
		PostalCode:   optional(long("postal_code")),
	}
	if comp := component(details, "country"); comp != nil && len(comp.ShortName) == 2 {
		out.Country = optional(strings.ToUpper(comp.ShortName))
	}
	return out, nil
}

func component(details *maps.PlaceDetails, kind string) *maps.AddressComponent {
	for i := range details.AddressComponents {
		for _, typ := range details.AddressComponents[i].Types {
			if typ == kind {
				return &details.AddressComponents[i]
			}
		}
	}
	return nil
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
