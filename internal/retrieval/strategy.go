package retrieval

import (
	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/vectordb"
)

// Per-domain relevance thresholds on cosine distance. A result set whose
// closest record sits above its domain threshold is not trusted enough to
// stop the fallback chain early.
var domainThresholds = map[domain.Tag]float64{
	domain.TagLodging:        0.45,
	domain.TagExperiences:    0.55,
	domain.TagTransportation: 0.60,
}

// Threshold returns the relevance threshold for a domain. Unknown domains
// use the most permissive threshold.
func Threshold(tag domain.Tag) float64 {
	if t, ok := domainThresholds[tag]; ok {
		return t
	}
	return 0.60
}

// minAcceptableRecords is how many records a non-terminal strategy must
// return before its top distance is even consulted.
const minAcceptableRecords = 3

// Strategy is one state of the fallback chain: a filter set plus the
// MatchType reported when it is accepted.
type Strategy struct {
	Match  MatchType
	Filter vectordb.Filter
}

// Chain is the ordered fallback state machine: strategies sorted from most
// to least specific, walked strictly forward. The unfiltered strategy is
// always last and is the unique terminal state.
type Chain struct {
	strategies []Strategy
	next       int
}

// BuildChain derives the strategy order from the narrative's available
// filters. Strategies whose filter set would be empty or identical to the
// previous state are skipped, keeping the chain strictly decreasing in
// specificity.
func BuildChain(n Narrative) *Chain {
	full := n.Filter()

	candidates := []vectordb.Filter{
		full,
		{StateName: full.StateName, PriceTier: full.PriceTier},
		{StateName: full.StateName},
		{PriceTier: full.PriceTier},
		{SupplierName: full.SupplierName},
	}

	var strategies []Strategy
	for _, f := range candidates {
		if f.Empty() {
			continue
		}
		if len(strategies) > 0 && strategies[len(strategies)-1].Filter == f {
			continue
		}
		strategies = append(strategies, Strategy{Match: matchFor(f), Filter: f})
	}
	strategies = append(strategies, Strategy{Match: MatchNoState})

	return &Chain{strategies: strategies}
}

// matchFor labels a filter set by what it actually constrains.
func matchFor(f vectordb.Filter) MatchType {
	switch {
	case f.StateName != "" && f.PriceTier != "" && f.SupplierName != "":
		return MatchFullFilter
	case f.StateName != "" && f.PriceTier != "":
		return MatchStateAndPrice
	case f.StateName != "":
		return MatchStateOnly
	case f.PriceTier != "":
		return MatchPriceOnly
	case f.SupplierName != "":
		return MatchNameOnly
	default:
		return MatchNoState
	}
}

// Next advances to the following strategy. The second return value is
// false once the chain is exhausted. A consumed strategy is never
// revisited.
func (c *Chain) Next() (Strategy, bool) {
	if c.next >= len(c.strategies) {
		return Strategy{}, false
	}
	s := c.strategies[c.next]
	c.next++
	return s, true
}

// Exhausted reports whether the strategy just returned by Next was the
// terminal one.
func (c *Chain) Exhausted() bool { return c.next >= len(c.strategies) }

// Len returns the total number of states in the chain.
func (c *Chain) Len() int { return len(c.strategies) }

// Accept decides whether a strategy's result set ends the chain: the
// terminal strategy always does, a non-terminal one only with enough
// records and a sufficiently close top match.
func Accept(records []vectordb.Record, terminal bool, threshold float64) bool {
	if terminal {
		return true
	}
	return len(records) >= minAcceptableRecords && records[0].Distance < threshold
}
