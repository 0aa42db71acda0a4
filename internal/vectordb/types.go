package vectordb

import "time"

// Config controls Qdrant client behavior
type Config struct {
	Enabled bool
	Host    string
	Port    int
	// Per-domain collections
	Experiences    string
	Lodging        string
	Transportation string
	// Search params
	TopK    int
	Timeout time.Duration
	// Expected embedding dimension (e.g. 1024 for jina-clip-v2); zero skips validation
	ExpectedEmbeddingDim int
}

// Record is one knowledge-base entry returned by a similarity search.
// Distance is cosine distance: lower is closer.
type Record struct {
	ID        string                 `json:"id"`
	Narrative string                 `json:"narrative_text"`
	City      string                 `json:"city"`
	Payload   map[string]interface{} `json:"payload"`
	Distance  float64                `json:"distance"`
}

// Filter narrows a search to records matching structured criteria. Zero
// values mean "no constraint on this field".
type Filter struct {
	// StateName matches the destination's state (full name, e.g. "Oaxaca")
	StateName string
	// PriceTier is an exact match on the record's price band
	PriceTier string
	// SupplierName matches the provider's name as free text
	SupplierName string
}

// Empty reports whether the filter constrains nothing
func (f *Filter) Empty() bool {
	return f == nil || (f.StateName == "" && f.PriceTier == "" && f.SupplierName == "")
}

// UpsertItem represents a single point to insert into Qdrant
type UpsertItem struct {
	ID      interface{}            `json:"id,omitempty"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

// UpsertResponse captures basic Qdrant upsert response
type UpsertResponse struct {
	Status string  `json:"status"`
	Time   float64 `json:"time"`
}
