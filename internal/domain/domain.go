package domain

// Tag identifies one of the closed set of knowledge domains the assistant
// can answer about.
type Tag string

const (
	TagExperiences    Tag = "experiences"
	TagLodging        Tag = "lodging"
	TagTransportation Tag = "transportation"
	TagDatabase       Tag = "database"
)

// All returns the domains in their canonical order. Detection results and
// merged context writes both follow this order.
func All() []Tag {
	return []Tag{TagExperiences, TagLodging, TagTransportation, TagDatabase}
}

// Valid reports whether t is a member of the closed domain set
func Valid(t Tag) bool {
	switch t {
	case TagExperiences, TagLodging, TagTransportation, TagDatabase:
		return true
	}
	return false
}

// Description returns the short human-readable description used when the
// analyzer prompt lists the available specialists.
func (t Tag) Description() string {
	switch t {
	case TagExperiences:
		return "Experiences and activities"
	case TagLodging:
		return "Accommodation options"
	case TagTransportation:
		return "Transportation logistics"
	case TagDatabase:
		return "Specific data lookups"
	default:
		return string(t)
	}
}
