package address

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/maps"
)

type fakePlaces struct {
	request maps.AutocompleteRequest
	found   []maps.AutocompleteSuggestion
	details *maps.PlaceDetails
	err     error
}

func (f *fakePlaces) Autocomplete(_ context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error) {
	f.request = req
	return f.found, f.err
}

func (f *fakePlaces) ResolvePlace(context.Context, string) (*maps.PlaceDetails, error) {
	return f.details, f.err
}

func TestSuggest(t *testing.T) {
	places := &fakePlaces{found: []maps.AutocompleteSuggestion{{PlaceID: "p1", Description: "742 Evergreen Terrace"}}}
	svc := NewService(places)

	out, err := svc.Suggest(context.Background(), SuggestRequest{Query: " 742 evergreen ", Country: "us", Language: "en"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].PlaceID)
	assert.Equal(t, "742 evergreen", places.request.Input)
	assert.Equal(t, []string{"US"}, places.request.IncludedRegionCodes)

	_, err = svc.Suggest(context.Background(), SuggestRequest{Query: "  "})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	places.err = errors.New("quota exceeded")
	_, err = svc.Suggest(context.Background(), SuggestRequest{Query: "742"})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestUnconfiguredLookup(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Suggest(context.Background(), SuggestRequest{Query: "742"})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	_, err = svc.Resolve(context.Background(), "p1")
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestResolveMapsComponents(t *testing.T) {
	places := &fakePlaces{details: &maps.PlaceDetails{
		PlaceID:          "p1",
		FormattedAddress: "742 Evergreen Terrace, Springfield, IL 62704, USA",
		AddressComponents: []maps.AddressComponent{
			{LongName: "742", ShortName: "742", Types: []string{"street_number"}},
			{LongName: "Evergreen Terrace", ShortName: "Evergreen Ter", Types: []string{"route"}},
			{LongName: "Springfield", ShortName: "Springfield", Types: []string{"locality", "political"}},
			{LongName: "Illinois", ShortName: "IL", Types: []string{"administrative_area_level_1"}},
			{LongName: "62704", ShortName: "62704", Types: []string{"postal_code"}},
			{LongName: "United States", ShortName: "us", Types: []string{"country"}},
		},
	}}

	got, err := NewService(places).Resolve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "742 Evergreen Terrace", got.AddressLine1)
	assert.Equal(t, "Springfield", got.City)
	require.NotNil(t, got.State)
	assert.Equal(t, "Illinois", *got.State)
	require.NotNil(t, got.PostalCode)
	assert.Equal(t, "62704", *got.PostalCode)
	require.NotNil(t, got.Country)
	assert.Equal(t, "US", *got.Country)
	assert.Nil(t, got.AddressLine2)
}

func TestResolveFallsBackToFormattedAddress(t *testing.T) {
	places := &fakePlaces{details: &maps.PlaceDetails{
		FormattedAddress: "Kings Cross Station, London N1 9AL, UK",
		AddressComponents: []maps.AddressComponent{
			{LongName: "London", Types: []string{"postal_town"}},
		},
	}}
	got, err := NewService(places).Resolve(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Kings Cross Station", got.AddressLine1)
	assert.Equal(t, "London", got.City)
	assert.Nil(t, got.Country)
}

func TestResolveRequiresCity(t *testing.T) {
	places := &fakePlaces{details: &maps.PlaceDetails{FormattedAddress: "Somewhere"}}
	_, err := NewService(places).Resolve(context.Background(), "p3")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = NewService(places).Resolve(context.Background(), " ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
