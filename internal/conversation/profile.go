package conversation

import (
	"fmt"
	"math"
	"strings"
)

// Field names one of the candidate profile entries. The set is closed;
// extraction payloads referencing unknown fields are ignored.
type Field string

const (
	FieldFullName          Field = "full_name"
	FieldEmail             Field = "email"
	FieldPhone             Field = "phone"
	FieldYearsOfExperience Field = "years_of_experience"
	FieldDesiredPositions  Field = "desired_positions"
	FieldCurrentLocation   Field = "current_location"
	FieldTechStack         Field = "tech_stack"
)

// profileFields fixes the field order used by Missing, Summary and export.
var profileFields = []Field{
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldYearsOfExperience,
	FieldDesiredPositions,
	FieldCurrentLocation,
	FieldTechStack,
}

var fieldLabels = map[Field]string{
	FieldFullName:          "Name",
	FieldEmail:             "Email",
	FieldPhone:             "Phone",
	FieldYearsOfExperience: "Experience",
	FieldDesiredPositions:  "Position(s)",
	FieldCurrentLocation:   "Location",
	FieldTechStack:         "Tech Stack",
}

// Fields returns the profile field names in their fixed order.
func Fields() []Field {
	out := make([]Field, len(profileFields))
	copy(out, profileFields)
	return out
}

// KnownField reports whether the name belongs to the closed field set.
func KnownField(f Field) bool {
	_, ok := fieldLabels[f]
	return ok
}

// Profile is the structured candidate record accumulated through
// extraction. Fields start unset; once set, a value is never overwritten
// (first-write-wins).
type Profile struct {
	values map[Field]string
}

// NewProfile creates an empty profile.
func NewProfile() *Profile {
	return &Profile{values: make(map[Field]string, len(profileFields))}
}

// Set stores the value for an unset known field and reports whether it was
// stored. Later writes to the same field are ignored.
func (p *Profile) Set(f Field, value string) bool {
	if !KnownField(f) {
		return false
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}

	if _, exists := p.values[f]; exists {
		return false
	}

	p.values[f] = value
	return true
}

// Get returns the field value and whether it has been set.
func (p *Profile) Get(f Field) (string, bool) {
	value, ok := p.values[f]
	return value, ok
}

// GetOr returns the field value, or the fallback when unset.
func (p *Profile) GetOr(f Field, fallback string) string {
	if value, ok := p.values[f]; ok {
		return value
	}
	return fallback
}

// Missing returns the names of fields still to be collected, in order.
func (p *Profile) Missing() []Field {
	var missing []Field
	for _, f := range profileFields {
		if _, ok := p.values[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// Filled returns a copy of the collected field values.
func (p *Profile) Filled() map[Field]string {
	filled := make(map[Field]string, len(p.values))
	for f, v := range p.values {
		filled[f] = v
	}
	return filled
}

// IsComplete reports whether every field has been collected.
func (p *Profile) IsComplete() bool {
	return len(p.values) == len(profileFields)
}

// CompletionPercentage returns the share of collected fields, rounded to
// the nearest whole percent. 100 exactly when IsComplete.
func (p *Profile) CompletionPercentage() int {
	return int(math.Round(100 * float64(len(p.values)) / float64(len(profileFields))))
}

// Summary renders one line per field in fixed order, used as model context.
func (p *Profile) Summary() string {
	lines := make([]string, 0, len(profileFields))
	for _, f := range profileFields {
		value, ok := p.values[f]
		if !ok {
			value = "Pending..."
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", fieldLabels[f], value))
	}
	return strings.Join(lines, "\n")
}
