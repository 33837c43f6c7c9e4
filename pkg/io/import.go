package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Document is an imported family.
type Document struct {
	// RootID is the person the document was exported around, if any.
	RootID string
	People []family.Person
}

// marriageColor marks marriage edges in node/edge documents.
const marriageColor = "#9b59b6"

// flexID accepts a JSON string, number or null.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id %s: want string or number", b)
		}
		*f = flexID(n.String())
	}
	return nil
}

type dateDoc struct {
	Year *int `json:"year,omitempty"`
}

func (d *dateDoc) year() family.Year {
	if d == nil || d.Year == nil {
		return family.Year{}
	}
	return family.YearOf(*d.Year)
}

type personDoc struct {
	ID          flexID   `json:"id"`
	Name        string   `json:"name"`
	Gender      string   `json:"gender,omitempty"`
	BirthDate   *dateDoc `json:"birthDate,omitempty"`
	DeathDate   *dateDoc `json:"deathDate,omitempty"`
	FatherID    flexID   `json:"fatherId,omitempty"`
	MotherID    flexID   `json:"motherId,omitempty"`
	SpouseIDs   []flexID `json:"spouseIds,omitempty"`
	ProtocolKey string   `json:"protocolKey,omitempty"`
	HouseNumber flexID   `json:"houseNumber,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type visNode struct {
	ID          flexID `json:"id"`
	Label       string `json:"label"`
	Shape       string `json:"shape,omitempty"`
	ProtocolKey string `json:"protocolKey,omitempty"`
}

type visEdge struct {
	From   flexID          `json:"from"`
	To     flexID          `json:"to"`
	Dashes json.RawMessage `json:"dashes,omitempty"`
	Color  json.RawMessage `json:"color,omitempty"`
}

type document struct {
	RootID  flexID       `json:"rootId,omitempty"`
	Persons *[]personDoc `json:"persons,omitempty"`
	Nodes   *[]visNode   `json:"nodes,omitempty"`
	Edges   []visEdge    `json:"edges,omitempty"`
}

// ReadPersons decodes a genealogy or node/edge document from r. People are
// normalized with [family.Normalize]. ReadPersons does not close r.
func ReadPersons(r io.Reader) (Document, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errs.Wrap(errs.ErrCodeInvalidDocument, err, "decode family document")
	}

	switch {
	case doc.Persons != nil:
		return fromGenealogy(doc), nil
	case doc.Nodes != nil:
		return fromNetwork(*doc.Nodes, doc.Edges), nil
	}
	return Document{}, errs.New(errs.ErrCodeInvalidDocument, `family document has neither "persons" nor "nodes"`)
}

// ImportPersons reads the document at path with [ReadPersons].
func ImportPersons(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadPersons(f)
}

func fromGenealogy(doc document) Document {
	out := Document{RootID: strings.TrimSpace(string(doc.RootID))}
	for _, d := range *doc.Persons {
		p := family.Person{
			ID:          string(d.ID),
			Name:        d.Name,
			Gender:      family.ParseGender(d.Gender),
			BirthYear:   d.BirthDate.year(),
			DeathYear:   d.DeathDate.year(),
			FatherID:    string(d.FatherID),
			MotherID:    string(d.MotherID),
			ProtocolKey: d.ProtocolKey,
			HouseNumber: string(d.HouseNumber),
			Notes:       d.Notes,
		}
		for _, s := range d.SpouseIDs {
			p.SpouseIDs = append(p.SpouseIDs, string(s))
		}
		out.People = append(out.People, family.Normalize(p))
	}
	return out
}

func fromNetwork(nodes []visNode, edges []visEdge) Document {
	people := make([]family.Person, len(nodes))
	at := make(map[string]int, len(nodes))
	for i, n := range nodes {
		id := strings.TrimSpace(string(n.ID))
		people[i] = family.Person{
			ID:          id,
			Name:        n.Label,
			Gender:      shapeGender(n.Shape),
			ProtocolKey: n.ProtocolKey,
		}
		if _, dup := at[id]; !dup {
			at[id] = i
		}
	}

	for _, e := range edges {
		from, ok1 := at[strings.TrimSpace(string(e.From))]
		to, ok2 := at[strings.TrimSpace(string(e.To))]
		if !ok1 || !ok2 {
			continue
		}
		if e.marriage() {
			addSpouse(&people[from], people[to].ID)
			addSpouse(&people[to], people[from].ID)
			continue
		}
		setParent(&people[to], people[from])
	}

	out := Document{People: make([]family.Person, len(people))}
	for i, p := range people {
		out.People[i] = family.Normalize(p)
	}
	return out
}

func (e visEdge) marriage() bool {
	if truthy(e.Dashes) {
		return true
	}
	var color string
	if json.Unmarshal(e.Color, &color) == nil {
		return strings.EqualFold(color, marriageColor)
	}
	var obj struct {
		Color string `json:"color"`
	}
	return json.Unmarshal(e.Color, &obj) == nil && strings.EqualFold(obj.Color, marriageColor)
}

// truthy reports whether a raw "dashes" value enables dashing. Network
// viewers accept a bool or a dash pattern array.
func truthy(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	switch s {
	case "", "false", "null", "[]", "0":
		return false
	}
	return true
}

func shapeGender(shape string) family.Gender {
	switch strings.ToLower(shape) {
	case "box", "square":
		return family.GenderMale
	case "ellipse", "circle", "dot":
		return family.GenderFemale
	}
	return family.GenderUnknown
}

func addSpouse(p *family.Person, id string) {
	for _, s := range p.SpouseIDs {
		if s == id {
			return
		}
	}
	p.SpouseIDs = append(p.SpouseIDs, id)
}

// setParent fills the slot matching the parent's gender. A parent of
// unknown gender takes the first free slot. A full slot is never
// overwritten.
func setParent(child *family.Person, parent family.Person) {
	if child.FatherID == parent.ID || child.MotherID == parent.ID {
		return
	}
	switch {
	case parent.Gender == family.GenderMale && child.FatherID == "":
		child.FatherID = parent.ID
	case parent.Gender == family.GenderFemale && child.MotherID == "":
		child.MotherID = parent.ID
	case parent.Gender == family.GenderUnknown && child.FatherID == "":
		child.FatherID = parent.ID
	case parent.Gender == family.GenderUnknown && child.MotherID == "":
		child.MotherID = parent.ID
	}
}

// Validate reports record-level problems in doc: people without an id or
// name, duplicate ids, and parent or spouse references that do not resolve.
// Every problem is returned; use [multierr.Errors] to list them.
func Validate(doc Document) error {
	var err error
	seen := make(map[string]bool, len(doc.People))
	for i, p := range doc.People {
		if p.ID == "" {
			err = multierr.Append(err, errs.New(errs.ErrCodeInvalidInput, "person #%d has no id", i))
			continue
		}
		if p.Name == "" {
			err = multierr.Append(err, errs.New(errs.ErrCodeInvalidInput, "person %s has no name", p.ID))
		}
		if seen[p.ID] {
			err = multierr.Append(err, errs.New(errs.ErrCodeInvalidInput, "duplicate person id %s", p.ID))
		}
		seen[p.ID] = true
	}
	for _, p := range doc.People {
		for _, ref := range []struct{ kind, id string }{{"father", p.FatherID}, {"mother", p.MotherID}} {
			if ref.id != "" && !seen[ref.id] {
				err = multierr.Append(err, errs.New(errs.ErrCodePersonNotFound, "person %s: %s %s not found", p.ID, ref.kind, ref.id))
			}
		}
		for _, s := range p.SpouseIDs {
			if !seen[s] {
				err = multierr.Append(err, errs.New(errs.ErrCodePersonNotFound, "person %s: spouse %s not found", p.ID, s))
			}
		}
	}
	if doc.RootID != "" && !seen[doc.RootID] {
		err = multierr.Append(err, errs.New(errs.ErrCodePersonNotFound, "root person %s not found", doc.RootID))
	}
	return err
}

// MarshalJSON writes numeric ids as numbers so documents that came with
// numeric ids are written back the same way.
func (f flexID) MarshalJSON() ([]byte, error) {
	if n, ok := numericID(string(f)); ok {
		return strconv.AppendInt(nil, n, 10), nil
	}
	return json.Marshal(string(f))
}

func numericID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil && strconv.FormatInt(n, 10) == id
}
