package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearizeFixedOrderNonBlankOnly(t *testing.T) {
	n := Narrative{
		Description: "boutique hotel with pool",
		Name:        "Hotel Azul",
		Location:    "Oaxaca de Juárez",
		Tags:        "  ", // whitespace counts as blank
		PriceRange:  "comfort",
		StateCode:   "OAX",
	}
	got := n.Linearize()

	want := "Name: Hotel Azul\nLocation: Oaxaca de Juárez\nDescription: boutique hotel with pool"
	assert.Equal(t, want, got)
	// Filter-only fields never reach the embedding input.
	assert.NotContains(t, got, "comfort")
	assert.NotContains(t, got, "OAX")
}

func TestLinearizeGeneralFields(t *testing.T) {
	n := Narrative{
		GeneralDescription: "private transfer from the airport",
		OperationalInfo:    "max 8 persons",
	}
	assert.Equal(t,
		"General Description: private transfer from the airport\nOperational Info: max 8 persons",
		n.Linearize())
}

func TestLinearizeEmptyNarrative(t *testing.T) {
	assert.Equal(t, "", Narrative{}.Linearize())
}

func TestNarrativeFilterResolvesStateCode(t *testing.T) {
	n := Narrative{Name: "Hotel Azul", PriceRange: "luxury", StateCode: "ROO"}
	f := n.Filter()

	assert.Equal(t, "Quintana Roo", f.StateName)
	assert.Equal(t, "luxury", f.PriceTier)
	assert.Equal(t, "Hotel Azul", f.SupplierName)
}

func TestStateNameClosedSet(t *testing.T) {
	assert.Equal(t, "Oaxaca", StateName("OAX"))
	assert.Equal(t, "", StateName("XXX"))
	assert.Equal(t, "", StateName(""))
	assert.True(t, ValidStateCode("ZAC"))
	assert.False(t, ValidStateCode("zac"))
	assert.Len(t, StateCodes(), 32)
}

func TestMatchTypeExact(t *testing.T) {
	assert.True(t, MatchFullFilter.Exact())
	assert.True(t, MatchStateAndPrice.Exact())
	assert.True(t, MatchStateOnly.Exact())
	assert.False(t, MatchPriceOnly.Exact())
	assert.False(t, MatchNameOnly.Exact())
	assert.False(t, MatchNoState.Exact())
}
