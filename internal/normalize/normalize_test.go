package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical_BasicStreetNumber(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("רחוב יפו 19, ירושלים", d)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, "יפו", addr.Street)
	require.NotNil(t, addr.HouseNumber)
	assert.Equal(t, 19, *addr.HouseNumber)
	assert.Equal(t, "ירושלים", addr.City)
}

func TestCanonical_RangeCollapsesToMidpoint(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("main st 9-11 jerusalem", d)
	require.Equal(t, ReasonNone, reason)
	require.NotNil(t, addr.HouseNumber)
	assert.Equal(t, 10, *addr.HouseNumber)
	assert.Equal(t, "ירושלים", addr.City, "primary city name regardless of alias used")
}

func TestCanonical_RangeMidpointRounds(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("הרצל 4-9 ירושלים", d)
	require.Equal(t, ReasonNone, reason)
	require.NotNil(t, addr.HouseNumber)
	assert.Equal(t, 7, *addr.HouseNumber)
}

func TestCanonical_ApartmentSuffixStripped(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("הרצל 19/3 ירושלים", d)
	require.Equal(t, ReasonNone, reason)
	require.NotNil(t, addr.HouseNumber)
	assert.Equal(t, 19, *addr.HouseNumber)
}

func TestCanonical_TrailingGarbageTruncated(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("הרצל 12 קומה ב ירושלים", d)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, "הרצל", addr.Street)
	require.NotNil(t, addr.HouseNumber)
	assert.Equal(t, 12, *addr.HouseNumber)
}

func TestCanonical_NeighborhoodStrippedCityKept(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("הרצל 12 בית הכרם ירושלים", d)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, "הרצל", addr.Street)
	assert.Equal(t, "ירושלים", addr.City)
}

func TestCanonical_RepeatedCityTokenSplitsOnLast(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("ירושלים הרצל 12 ירושלים", d)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, "הרצל", addr.Street)
}

func TestCanonical_CityOnlyIsEmpty(t *testing.T) {
	d := DefaultDictionary()

	_, reason := Canonical("ירושלים", d)
	assert.Equal(t, ReasonEmpty, reason)
}

func TestCanonical_BlankIsEmpty(t *testing.T) {
	d := DefaultDictionary()

	_, reason := Canonical("   ", d)
	assert.Equal(t, ReasonEmpty, reason)
}

func TestCanonical_MissingHouseNumber(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("רחוב יפו ירושלים", d)
	assert.Equal(t, ReasonNoHouseNumber, reason)
	assert.Equal(t, "יפו", addr.Street)
	assert.Nil(t, addr.HouseNumber)
}

func TestCanonical_ForeignAddressKeepsEmptyCity(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("הנשיא 5", d)
	require.Equal(t, ReasonNone, reason)
	assert.Empty(t, addr.City)
	require.NotNil(t, addr.HouseNumber)
	assert.Equal(t, 5, *addr.HouseNumber)
}

func TestCanonical_SpellingVariantApplied(t *testing.T) {
	d := DefaultDictionary()

	addr, reason := Canonical("בן יהודא 3 ירושלם", d)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, "בן יהודה", addr.Street)
	assert.Equal(t, "ירושלים", addr.City)
}

func TestCanonical_Idempotent(t *testing.T) {
	d := DefaultDictionary()

	inputs := []string{
		"רחוב יפו 19, ירושלים",
		"main st 9-11 jerusalem",
		"הרצל 19/3 ירושלים",
		"שד' בן גוריון 7 ירושלים",
	}

	for _, raw := range inputs {
		first, reason := Canonical(raw, d)
		require.Equal(t, ReasonNone, reason, raw)

		second, reason := Canonical(first.String(), d)
		require.Equal(t, ReasonNone, reason, raw)
		assert.Equal(t, first, second, raw)
	}
}

func TestStreet_StripsTypeTokenOnce(t *testing.T) {
	d := DefaultDictionary()

	assert.Equal(t, "יפו", Street("רחוב יפו", d))
	assert.Equal(t, "יפו", Street("  יפו ", d))
	assert.Equal(t, "main", Street("St Main", d))
}

func TestStreet_ExpandsAbbreviationPrefix(t *testing.T) {
	d := DefaultDictionary()

	assert.Equal(t, "שדרות בן גוריון", Street("שד' בן גוריון", d))
	assert.Equal(t, "שדרות בן גוריון", Street("שדרות בן גוריון", d))
}

func TestStreet_SeparatorsAndQuotes(t *testing.T) {
	d := DefaultDictionary()

	assert.Equal(t, "בן יהודה", Street("בן-יהודה", d))
	assert.Equal(t, "המלך גורג", Street("המלך ג׳ורג׳", d))
}

func TestStreet_LowersOnlyLatin(t *testing.T) {
	d := DefaultDictionary()

	assert.Equal(t, "king george", Street("King George", d))
	assert.Equal(t, "יפו", Street("יפו", d))
}

func TestStreet_StripsNiqqud(t *testing.T) {
	d := DefaultDictionary()

	// Pointed and unpointed spellings must produce the same key.
	assert.Equal(t, Street("יָפוֹ", d), Street("יפו", d))
}

func TestLoadDictionary_MissingPathUsesDefaults(t *testing.T) {
	d, err := LoadDictionary("")
	require.NoError(t, err)
	assert.Equal(t, "ירושלים", d.CityName())
}
