package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gosimple/slug"

	"github.com/matzehuels/kintree/pkg/family"
)

type exportDoc struct {
	RootID  flexID      `json:"rootId,omitempty"`
	Persons []personDoc `json:"persons"`
}

// WritePersons encodes doc as an indented genealogy document.
func WritePersons(w io.Writer, doc Document) error {
	out := exportDoc{RootID: flexID(doc.RootID), Persons: make([]personDoc, len(doc.People))}
	for i, p := range doc.People {
		out.Persons[i] = toDoc(p)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportPersons writes doc to a file at path with [WritePersons].
func ExportPersons(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePersons(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName builds a file name for a family export from a human label, such
// as a surname or a protocol key: "Łukasz Wójcik" and "svg" give
// "lukasz-wojcik.svg". An empty label gives "family".
func FileName(label, ext string) string {
	base := slug.Make(label)
	if base == "" {
		base = "family"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func toDoc(p family.Person) personDoc {
	d := personDoc{
		ID:          flexID(p.ID),
		Name:        p.Name,
		FatherID:    flexID(p.FatherID),
		MotherID:    flexID(p.MotherID),
		ProtocolKey: p.ProtocolKey,
		HouseNumber: flexID(p.HouseNumber),
		Notes:       p.Notes,
	}
	if p.Gender != family.GenderUnknown {
		d.Gender = string(p.Gender)
	}
	if p.BirthYear.Known {
		d.BirthDate = &dateDoc{Year: &p.BirthYear.Value}
	}
	if p.DeathYear.Known {
		d.DeathDate = &dateDoc{Year: &p.DeathYear.Value}
	}
	for _, s := range p.SpouseIDs {
		d.SpouseIDs = append(d.SpouseIDs, flexID(s))
	}
	return d
}
