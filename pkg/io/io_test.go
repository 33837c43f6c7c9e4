package io

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/multierr"

	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

const genealogyDoc = `{
  "rootId": 1,
  "persons": [
    {"id": 1, "name": " Jan  Kowalski ", "gender": "M", "birthDate": {"year": 1850}, "deathDate": {"year": 1910}, "spouseIds": [2, 2, 1], "houseNumber": 12},
    {"id": "2", "name": "Anna Nowak", "gender": "K", "spouseIds": ["1"], "birthDate": {}},
    {"id": 3, "name": "Adam Kowalski", "fatherId": 1, "motherId": 2, "protocolKey": "P-7", "notes": "syn"},
    {"id": 4, "name": "Ewa", "fatherId": null, "motherId": "null"}
  ]
}`

func TestReadPersonsGenealogy(t *testing.T) {
	doc, err := ReadPersons(strings.NewReader(genealogyDoc))
	if err != nil {
		t.Fatal(err)
	}
	if doc.RootID != "1" {
		t.Errorf("RootID = %q, want 1", doc.RootID)
	}
	if len(doc.People) != 4 {
		t.Fatalf("len(People) = %d, want 4", len(doc.People))
	}

	jan := doc.People[0]
	if jan.Name != "Jan Kowalski" || jan.Gender != family.GenderMale {
		t.Errorf("jan = %+v", jan)
	}
	if jan.BirthYear != family.YearOf(1850) || jan.DeathYear != family.YearOf(1910) {
		t.Errorf("jan years = %v %v", jan.BirthYear, jan.DeathYear)
	}
	if !slices.Equal(jan.SpouseIDs, []string{"2"}) {
		t.Errorf("jan spouses = %v, want [2]", jan.SpouseIDs)
	}
	if jan.HouseNumber != "12" {
		t.Errorf("house number = %q", jan.HouseNumber)
	}

	anna := doc.People[1]
	if anna.Gender != family.GenderFemale || anna.BirthYear.Known {
		t.Errorf("anna = %+v", anna)
	}

	adam := doc.People[2]
	if adam.FatherID != "1" || adam.MotherID != "2" || adam.ProtocolKey != "P-7" || adam.Notes != "syn" {
		t.Errorf("adam = %+v", adam)
	}

	ewa := doc.People[3]
	if ewa.FatherID != "" || ewa.MotherID != "" || ewa.Gender != family.GenderUnknown {
		t.Errorf("ewa = %+v", ewa)
	}
}

func TestReadPersonsNetwork(t *testing.T) {
	const in = `{
	  "nodes": [
	    {"id": 1, "label": "Jan Kowalski", "shape": "box"},
	    {"id": 2, "label": "Anna Nowak", "shape": "ellipse"},
	    {"id": 3, "label": "Adam Kowalski", "shape": "box"},
	    {"id": 4, "label": "Obcy", "protocolKey": "P-1"},
	    {"id": 5, "label": "Maria"}
	  ],
	  "edges": [
	    {"from": 1, "to": 2, "dashes": true},
	    {"from": 2, "to": 3},
	    {"from": 1, "to": 3},
	    {"from": 4, "to": 5},
	    {"from": 3, "to": 5, "color": "#9b59b6"},
	    {"from": 3, "to": 99}
	  ]
	}`
	doc, err := ReadPersons(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	byID := map[string]family.Person{}
	for _, p := range doc.People {
		byID[p.ID] = p
	}

	if !slices.Equal(byID["1"].SpouseIDs, []string{"2"}) || !slices.Equal(byID["2"].SpouseIDs, []string{"1"}) {
		t.Errorf("marriage 1-2 missing: %v %v", byID["1"].SpouseIDs, byID["2"].SpouseIDs)
	}
	if a := byID["3"]; a.FatherID != "1" || a.MotherID != "2" {
		t.Errorf("adam parents = %q %q, want 1 2", a.FatherID, a.MotherID)
	}
	if m := byID["5"]; m.FatherID != "4" || m.MotherID != "" {
		t.Errorf("unknown-gender parent = %q %q, want father slot", m.FatherID, m.MotherID)
	}
	if !slices.Equal(byID["3"].SpouseIDs, []string{"5"}) {
		t.Errorf("colored marriage missing: %v", byID["3"].SpouseIDs)
	}
	if byID["2"].Gender != family.GenderFemale || byID["4"].Gender != family.GenderUnknown {
		t.Error("shape gender mapping wrong")
	}
	if byID["4"].ProtocolKey != "P-1" {
		t.Errorf("protocol key = %q", byID["4"].ProtocolKey)
	}
}

func TestReadPersonsInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"persons": [`},
		{"neither", `{"people": []}`},
		{"bad id", `{"persons": [{"id": {"x": 1}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPersons(strings.NewReader(tt.in))
			if !errs.Is(err, errs.ErrCodeInvalidDocument) {
				t.Errorf("err = %v, want %s", err, errs.ErrCodeInvalidDocument)
			}
		})
	}
}

func TestImportPersonsMissingFile(t *testing.T) {
	_, err := ImportPersons(filepath.Join(t.TempDir(), "missing.json"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want %s", err, errs.ErrCodeFileNotFound)
	}
}

func TestRoundTrip(t *testing.T) {
	doc, err := ReadPersons(strings.NewReader(genealogyDoc))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "family.json")
	if err := ExportPersons(path, doc); err != nil {
		t.Fatal(err)
	}
	back, err := ImportPersons(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.RootID != doc.RootID || len(back.People) != len(doc.People) {
		t.Fatalf("round trip changed document: %+v", back)
	}
	for i := range doc.People {
		a, b := doc.People[i], back.People[i]
		if a.ID != b.ID || a.Name != b.Name || a.Gender != b.Gender || a.BirthYear != b.BirthYear ||
			a.FatherID != b.FatherID || a.MotherID != b.MotherID || !slices.Equal(a.SpouseIDs, b.SpouseIDs) {
			t.Errorf("person %d: %+v != %+v", i, a, b)
		}
	}
}

func TestWritePersonsNumericIDs(t *testing.T) {
	var buf bytes.Buffer
	doc := Document{People: []family.Person{
		{ID: "1", Name: "A", Gender: family.GenderUnknown},
		{ID: "007", Name: "B", FatherID: "1", Gender: family.GenderMale},
	}}
	if err := WritePersons(&buf, doc); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"id": 1,`, `"id": "007"`, `"fatherId": 1`, `"gender": "M"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"gender": "U"`) {
		t.Error("unknown gender should be omitted")
	}
}

func TestValidate(t *testing.T) {
	doc := Document{
		RootID: "9",
		People: []family.Person{
			{ID: "1", Name: "A", FatherID: "7"},
			{ID: "1", Name: "B"},
			{ID: "", Name: "C"},
			{ID: "2", SpouseIDs: []string{"8"}},
		},
	}
	err := Validate(doc)
	if got := len(multierr.Errors(err)); got != 6 {
		t.Errorf("Validate found %d problems, want 6: %v", got, err)
	}

	clean := Document{People: []family.Person{{ID: "1", Name: "A"}}}
	if err := Validate(clean); err != nil {
		t.Errorf("Validate(clean) = %v", err)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct{ label, ext, want string }{
		{"Jan Kowalski", "svg", "jan-kowalski.svg"},
		{"Wójcik", "png", "wojcik.png"},
		{"", "json", "family.json"},
		{"P-12", "", "p-12"},
	}
	for _, tt := range tests {
		if got := FileName(tt.label, tt.ext); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.label, tt.ext, got, tt.want)
		}
	}
}
