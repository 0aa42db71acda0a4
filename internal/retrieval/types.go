// Package retrieval turns a free-text travel query into a structured search
// intent, embeds it, and runs a similarity search with a progressive filter
// fallback chain over the catalog collections.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/rutopia/productobot/internal/vectordb"
)

// MatchType records which fallback level produced the final result set, so
// callers can phrase the answer as an exact match vs. a nearby alternative.
type MatchType string

const (
	MatchFullFilter    MatchType = "full_filter"
	MatchStateAndPrice MatchType = "state_and_price"
	MatchStateOnly     MatchType = "state_only"
	MatchPriceOnly     MatchType = "price_only"
	MatchNameOnly      MatchType = "name_only"
	// MatchNoState is the terminal unfiltered search.
	MatchNoState MatchType = "no_state"
)

// Exact reports whether the destination filter applied to the accepted
// result set. Non-exact matches should be phrased to the user as nearby
// alternatives rather than direct hits.
func (m MatchType) Exact() bool {
	switch m {
	case MatchFullFilter, MatchStateAndPrice, MatchStateOnly:
		return true
	}
	return false
}

// PriceTiers is the closed set of price bands the extractor may emit.
var PriceTiers = []string{"low cost", "comfort", "luxury"}

// Narrative is the structured intent extracted from one user query. Fields
// the user never mentioned stay blank: filling them with defaults would
// match unrelated records, so blank means "no constraint".
type Narrative struct {
	Name        string `json:"Name"`
	Location    string `json:"Location"`
	Description string `json:"Description"`
	Type        string `json:"Type"`
	Services    string `json:"Services"`
	Tags        string `json:"Tags"`

	GeneralDescription  string `json:"General_Description"`
	ServiceDetails      string `json:"Service_Details"`
	SupplierInformation string `json:"Supplier_Information"`
	TariffInformation   string `json:"Tariff_Information"`
	Facilities          string `json:"Facilities"`
	Availability        string `json:"Availability"`
	AgeRestrictions     string `json:"Age_Restrictions"`
	OperationalInfo     string `json:"Operational_Info"`

	// Filter-only fields: used to build the strategy chain, never embedded.
	PriceRange string `json:"Price_Range"`
	StateCode  string `json:"State_Code"`
}

// Linearize concatenates the non-blank narrative fields in a fixed order
// into the canonical embedding input. The fixed order makes semantically
// identical intents embed to the same vector regardless of phrasing.
func (n Narrative) Linearize() string {
	fields := []struct{ label, value string }{
		{"Name", n.Name},
		{"Location", n.Location},
		{"Description", n.Description},
		{"Type", n.Type},
		{"Services", n.Services},
		{"Tags", n.Tags},
		{"General Description", n.GeneralDescription},
		{"Service Details", n.ServiceDetails},
		{"Supplier Information", n.SupplierInformation},
		{"Tariff Information", n.TariffInformation},
		{"Facilities", n.Facilities},
		{"Availability", n.Availability},
		{"Age Restrictions", n.AgeRestrictions},
		{"Operational Info", n.OperationalInfo},
	}
	var lines []string
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", f.label, v))
		}
	}
	return strings.Join(lines, "\n")
}

// Filter returns the structured search constraints carried by the
// narrative. The state code is resolved to the state name the catalog
// stores in its destination field.
func (n Narrative) Filter() vectordb.Filter {
	return vectordb.Filter{
		StateName:    StateName(n.StateCode),
		PriceTier:    strings.TrimSpace(n.PriceRange),
		SupplierName: strings.TrimSpace(n.Name),
	}
}

// Answer is the result of one retrieval run.
type Answer struct {
	// Formatted is the human-readable rendering handed to the reasoning
	// layer, one block per record.
	Formatted string
	Records   []vectordb.Record
	MatchType MatchType
}

// Empty reports whether the search found nothing at all.
func (a Answer) Empty() bool { return len(a.Records) == 0 }
