package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDetectMultiDomainQuery(t *testing.T) {
	d := NewDetector(zap.NewNop(), WithParallelThreshold(true, 3))

	tags := d.Detect("Quiero un hotel en Cancún, tours de snorkel y transporte desde el aeropuerto")

	assert.Contains(t, tags, TagLodging)
	assert.Contains(t, tags, TagExperiences)
	assert.Contains(t, tags, TagTransportation)
	assert.True(t, d.ShouldParallelize(tags))
}

func TestDetectSingleDomainQuery(t *testing.T) {
	d := NewDetector(zap.NewNop(), WithParallelThreshold(true, 4))

	tags := d.Detect("¿Qué hoteles hay en Playa del Carmen con piscina?")

	assert.Equal(t, []Tag{TagLodging}, tags)
	assert.False(t, d.ShouldParallelize(tags))
}

func TestDetectCanonicalOrder(t *testing.T) {
	d := NewDetector(zap.NewNop())

	// Mentions transportation before lodging, detection order stays canonical
	tags := d.Detect("transfer al hotel y precios de tours")

	assert.Equal(t, []Tag{TagExperiences, TagLodging, TagTransportation, TagDatabase}, tags)
}

func TestDetectCaseInsensitive(t *testing.T) {
	d := NewDetector(zap.NewNop())

	assert.Equal(t, d.Detect("HOTEL EN TULUM"), d.Detect("hotel en tulum"))
}

func TestShouldParallelizeDisabled(t *testing.T) {
	d := NewDetector(zap.NewNop(), WithParallelThreshold(false, 1))

	tags := d.Detect("hotel, tours, transporte y precios")
	require.Len(t, tags, 4)
	assert.False(t, d.ShouldParallelize(tags))
}

func TestDetectNoMatches(t *testing.T) {
	d := NewDetector(zap.NewNop())

	assert.Empty(t, d.Detect("hola, buenos días"))
}

func TestApplyKeywordConfigOverridesAndResets(t *testing.T) {
	d := NewDetector(zap.NewNop())

	err := d.applyKeywordConfig(map[string]interface{}{
		"lodging": []interface{}{"glamping"},
	})
	require.NoError(t, err)

	assert.Equal(t, []Tag{TagLodging}, d.Detect("glamping en la sierra"))
	// Original keyword replaced
	assert.Empty(t, d.Detect("un hotel bonito"))
	// Other domains keep their defaults
	assert.Equal(t, []Tag{TagExperiences}, d.Detect("tour de buceo"))

	d.resetKeywords()
	assert.Equal(t, []Tag{TagLodging}, d.Detect("un hotel bonito"))
}

func TestValidateKeywordConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  map[string]interface{}{"experiences": []interface{}{"kayak"}},
		},
		{
			name:    "unknown domain",
			cfg:     map[string]interface{}{"weather": []interface{}{"clima"}},
			wantErr: true,
		},
		{
			name:    "not a list",
			cfg:     map[string]interface{}{"lodging": "hotel"},
			wantErr: true,
		},
		{
			name:    "non-string keyword",
			cfg:     map[string]interface{}{"lodging": []interface{}{42}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKeywordConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
