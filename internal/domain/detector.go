package domain

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/config"
)

// defaultKeywords are the built-in detection lists. Queries arrive mostly in
// Spanish, so the lists lean that way. keywords.yaml overrides them at runtime.
var defaultKeywords = map[Tag][]string{
	TagExperiences: {
		"actividad", "actividades", "experiencia", "experiencias",
		"tour", "tours", "visita", "visitas", "excursión", "excursiones",
		"buceo", "senderismo", "rafting", "aventura", "aventuras",
		"qué hacer", "qué ver", "ver", "visitar",
	},
	TagLodging: {
		"hotel", "hoteles", "alojamiento", "alojamientos",
		"hospedaje", "cabaña", "cabañas", "resort", "resorts",
		"hostal", "hostelería",
		"dónde dormir", "dónde quedarme", "dónde hospedarse",
		"habitación", "cuarto",
	},
	TagTransportation: {
		"transporte", "transportes", "transfer", "transfers",
		"ruta", "rutas", "cómo llegar", "cómo ir",
		"vuelo", "vuelos", "avión", "autobús", "bus",
		"taxi", "uber", "carro", "auto", "coche",
		"llegada", "salida", "desplazamiento",
	},
	TagDatabase: {
		"disponibilidad", "disponible", "cuándo", "fechas",
		"precio", "precios", "costo", "costos",
		"información", "detalles", "especificaciones",
		"buscar", "búsqueda", "filter", "filtro",
	},
}

// KeywordsFile is the config file the detector watches for keyword overrides
const KeywordsFile = "keywords.yaml"

// Detector matches queries against per-domain keyword lists. It is the fast
// path of query analysis: a pure substring scan with no model call.
type Detector struct {
	mu       sync.RWMutex
	keywords map[Tag][]string

	minDomainsForParallel int
	parallelEnabled       bool

	logger *zap.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithParallelThreshold sets the enable flag and the minimum number of
// detected domains that triggers parallel execution.
func WithParallelThreshold(enabled bool, minDomains int) Option {
	return func(d *Detector) {
		d.parallelEnabled = enabled
		d.minDomainsForParallel = minDomains
	}
}

// NewDetector creates a Detector with the built-in keyword lists
func NewDetector(logger *zap.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Detector{
		keywords:              copyKeywords(defaultKeywords),
		minDomainsForParallel: 4,
		parallelEnabled:       true,
		logger:                logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the domains whose keyword lists match the query, in
// canonical domain order. The match is a case-insensitive substring scan, so
// multi-word keywords like "cómo llegar" match as phrases.
func (d *Detector) Detect(query string) []Tag {
	queryLower := strings.ToLower(query)

	d.mu.RLock()
	defer d.mu.RUnlock()

	var detected []Tag
	for _, tag := range All() {
		for _, kw := range d.keywords[tag] {
			if strings.Contains(queryLower, kw) {
				detected = append(detected, tag)
				break
			}
		}
	}
	return detected
}

// ShouldParallelize reports whether the detected domain set is broad enough
// to run the specialists concurrently.
func (d *Detector) ShouldParallelize(tags []Tag) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.parallelEnabled {
		return false
	}
	return len(tags) >= d.minDomainsForParallel
}

// RegisterWith subscribes the detector to keyword config changes so the
// lists can be replaced without a restart.
func (d *Detector) RegisterWith(mgr *config.Manager) {
	mgr.RegisterValidator(KeywordsFile, ValidateKeywordConfig)
	mgr.RegisterHandler(KeywordsFile, func(event config.ChangeEvent) error {
		if event.Action == "delete" {
			d.resetKeywords()
			return nil
		}
		return d.applyKeywordConfig(event.Config)
	})

	// Apply the current file if it was loaded before registration
	if cfg, ok := mgr.GetConfig(KeywordsFile); ok {
		if err := d.applyKeywordConfig(cfg); err != nil {
			d.logger.Warn("Initial keyword config rejected", zap.Error(err))
		}
	}
}

// ValidateKeywordConfig rejects keyword files that name unknown domains or
// carry non-string entries.
func ValidateKeywordConfig(cfg map[string]interface{}) error {
	for name, raw := range cfg {
		if !Valid(Tag(name)) {
			return fmt.Errorf("unknown domain %q in keyword config", name)
		}
		items, ok := raw.([]interface{})
		if !ok {
			return fmt.Errorf("domain %q: expected a list of keywords", name)
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("domain %q: non-string keyword %v", name, item)
			}
		}
	}
	return nil
}

func (d *Detector) applyKeywordConfig(cfg map[string]interface{}) error {
	if err := ValidateKeywordConfig(cfg); err != nil {
		return err
	}

	// Domains absent from the file keep their defaults
	updated := copyKeywords(defaultKeywords)
	for name, raw := range cfg {
		items := raw.([]interface{})
		kws := make([]string, 0, len(items))
		for _, item := range items {
			kws = append(kws, strings.ToLower(item.(string)))
		}
		updated[Tag(name)] = kws
	}

	d.mu.Lock()
	d.keywords = updated
	d.mu.Unlock()

	d.logger.Info("Domain keyword lists reloaded", zap.Int("domains", len(cfg)))
	return nil
}

func (d *Detector) resetKeywords() {
	d.mu.Lock()
	d.keywords = copyKeywords(defaultKeywords)
	d.mu.Unlock()

	d.logger.Info("Domain keyword lists reset to defaults")
}

func copyKeywords(src map[Tag][]string) map[Tag][]string {
	dst := make(map[Tag][]string, len(src))
	for tag, kws := range src {
		cp := make([]string, len(kws))
		copy(cp, kws)
		dst[tag] = cp
	}
	return dst
}
