package family

import (
	"slices"
	"strconv"
	"strings"
)

// Gender is the recorded gender of a person.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = "U"
)

// ParseGender maps the spellings found in source records to a [Gender].
// Polish records use "K" (kobieta) for women. Anything unrecognized is
// [GenderUnknown].
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "man", "mężczyzna":
		return GenderMale
	case "f", "female", "woman", "k", "kobieta":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// Year is an optional calendar year. The zero value is an unknown year.
type Year struct {
	Value int  `json:"value"`
	Known bool `json:"known"`
}

// YearOf returns a known year.
func YearOf(v int) Year { return Year{Value: v, Known: true} }

// Person is a single genealogical record. It is read-only for the duration
// of a layout run.
//
// FatherID and MotherID are empty when the parent is unknown. They may
// reference ids that are not part of the loaded set; such references are
// treated as absent by [Index].
type Person struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Gender    Gender   `json:"gender"`
	BirthYear Year     `json:"birth_year"`
	DeathYear Year     `json:"death_year"`
	FatherID  string   `json:"father_id,omitempty"`
	MotherID  string   `json:"mother_id,omitempty"`
	SpouseIDs []string `json:"spouse_ids,omitempty"`

	// Passthrough metadata for renderers. Not used by the layout.
	ProtocolKey string `json:"protocol_key,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Valid reports whether the person can take part in a layout: both the id
// and the name must be non-empty.
func (p Person) Valid() bool { return p.ID != "" && p.Name != "" }

// Surname returns the lowercased last whitespace-delimited token of the
// name, or "" for an empty name.
func (p Person) Surname() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// Lifespan formats the known life years the way the family tree labels
// them: "1850 – 1910", "ur. 1850" or "† 1910". It returns "" when neither
// year is known.
func (p Person) Lifespan() string {
	b, d := p.BirthYear, p.DeathYear
	switch {
	case b.Known && d.Known:
		return strconv.Itoa(b.Value) + " – " + strconv.Itoa(d.Value)
	case b.Known:
		return "ur. " + strconv.Itoa(b.Value)
	case d.Known:
		return "† " + strconv.Itoa(d.Value)
	}
	return ""
}

// Normalize returns a copy of p with references and text fields resolved
// into a single shape: surrounding whitespace is trimmed, placeholder
// ids and references ("null", "none", "undefined") become empty, spouse ids
// are deduplicated in order and a self reference is dropped.
func Normalize(p Person) Person {
	p.ID = normRef(p.ID)
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	p.FatherID = normRef(p.FatherID)
	p.MotherID = normRef(p.MotherID)
	if p.Gender == "" {
		p.Gender = GenderUnknown
	}

	spouses := make([]string, 0, len(p.SpouseIDs))
	for _, s := range p.SpouseIDs {
		s = normRef(s)
		if s == "" || s == p.ID || slices.Contains(spouses, s) {
			continue
		}
		spouses = append(spouses, s)
	}
	p.SpouseIDs = spouses

	p.ProtocolKey = strings.TrimSpace(p.ProtocolKey)
	p.HouseNumber = strings.TrimSpace(p.HouseNumber)
	p.Notes = strings.TrimSpace(p.Notes)
	return p
}

func normRef(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "undefined", "nil":
		return ""
	}
	return s
}
