package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/llm"
)

const (
	extractMaxTokens   = 600
	extractTemperature = 0.3
)

// Extraction system prompts per domain. Each instructs the model to leave
// unmentioned fields blank; a defaulted field would filter out records the
// user never asked to exclude.
var lodgingPrompt = fmt.Sprintf(`You are a structured assistant specialized in lodging search. Given a user query, return a JSON object with the following fields exactly:
- Name: The name of the lodging.
- Location: The address or city if the user query mentions it.
- Description: A brief description of the lodging.
- Type: The type of lodging.
- Services: The services offered by the lodging.
- Tags: The tags associated with the lodging.
- Price_Range: The price range of the lodging. [low cost, comfort, luxury]
- State_Code: The state code of the lodging. [%s]
IMPORTANT: If a piece of information is not present in the user query leave the field blank so we dont match with other lodging.`,
	strings.Join(StateCodes(), ", "))

var experiencesPrompt = fmt.Sprintf(`You are a structured assistant specialized in tourism experiences search. Given a user query, return a JSON object with the following fields exactly:
- General_Description: A brief summary of the experience.
- Service_Details: Service type, destination and activity details mentioned.
- Supplier_Information: Any supplier or group information.
- Tariff_Information: Pricing or tariff details if applicable.
- Location: The address or city.
- Facilities: Any amenities or features.
- Availability: Days or response-time expectations.
- Age_Restrictions: Min/max adult, child, and infant ages.
- Operational_Info: Any other operational notes.
- Price_Range: The price range of the experience. [low cost, comfort, luxury]
- State_Code: The state code of the experience. [%s]
IMPORTANT: If a piece of information is not present in the user query leave the field blank so we dont match with other experiences.`,
	strings.Join(StateCodes(), ", "))

var transportPrompt = fmt.Sprintf(`You are a structured assistant specialized in transport search. Given a user query, return a JSON object with the following fields exactly:
- General_Description: A brief summary of the transport service.
- Service_Details: Route, service notes, duration, service type and destination.
- Availability: Days or response-time expectations.
- Age_Restrictions: Min/max adult, child, and infant ages if mentioned.
- Operational_Info: Max persons, tags, supplier name or supplier group if applicable.
- Price_Range: The price range of the service. [low cost, comfort, luxury]
- State_Code: The state code of the service. [%s]
IMPORTANT: If a piece of information is not present in the user query leave the field blank so we dont match with other transport services.`,
	strings.Join(StateCodes(), ", "))

// Extractor maps free-text queries into structured narratives with one
// reasoning call per query.
type Extractor struct {
	llm    llm.Client
	logger *zap.Logger
}

func NewExtractor(client llm.Client, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{llm: client, logger: logger}
}

func promptFor(tag domain.Tag) string {
	switch tag {
	case domain.TagLodging:
		return lodgingPrompt
	case domain.TagTransportation:
		return transportPrompt
	default:
		return experiencesPrompt
	}
}

// Extract runs the domain extraction prompt and decodes the structured
// narrative. Closed-set fields that come back outside their set are
// blanked rather than failed: a bad filter value must not constrain the
// search.
func (e *Extractor) Extract(ctx context.Context, query string, tag domain.Tag) (Narrative, error) {
	resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
		Query:        query,
		SystemPrompt: promptFor(tag),
		Purpose:      "extraction",
		MaxTokens:    extractMaxTokens,
		Temperature:  extractTemperature,
	})
	if err != nil {
		return Narrative{}, fmt.Errorf("narrative extraction: %w", err)
	}

	var n Narrative
	if err := llm.DecodeJSONResponse(resp.Response, &n); err != nil {
		return Narrative{}, fmt.Errorf("narrative extraction: undecodable response: %w", err)
	}
	e.sanitize(&n)
	return n, nil
}

func (e *Extractor) sanitize(n *Narrative) {
	n.PriceRange = strings.ToLower(strings.TrimSpace(n.PriceRange))
	if n.PriceRange != "" && !validPriceTier(n.PriceRange) {
		e.logger.Debug("Dropping price tier outside closed set", zap.String("price_range", n.PriceRange))
		n.PriceRange = ""
	}
	n.StateCode = strings.ToUpper(strings.TrimSpace(n.StateCode))
	if n.StateCode != "" && !ValidStateCode(n.StateCode) {
		e.logger.Debug("Dropping region code outside closed set", zap.String("state_code", n.StateCode))
		n.StateCode = ""
	}
}

func validPriceTier(tier string) bool {
	for _, t := range PriceTiers {
		if tier == t {
			return true
		}
	}
	return false
}
