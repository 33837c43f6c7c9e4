package source

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	errs "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// twoFamilies holds the Kowalski family (1-5) and an unrelated Nowak
// couple (10-11).
func twoFamilies() []family.Person {
	return []family.Person{
		{ID: "1", Name: "Jan Kowalski", SpouseIDs: []string{"2"}},
		{ID: "2", Name: "Maria Kowalska"},
		{ID: "3", Name: "Adam Kowalski", FatherID: "1", MotherID: "2", ProtocolKey: "P-3"},
		{ID: "4", Name: "Ewa Kowalska", FatherID: "3", MotherID: "99"},
		{ID: "5", Name: "Zofia Wiśniewska", SpouseIDs: []string{"3"}},
		{ID: "10", Name: "Piotr Nowak", SpouseIDs: []string{"11"}, ProtocolKey: "P-10"},
		{ID: "11", Name: "Irena Nowak", SpouseIDs: []string{"10"}},
	}
}

func ids(people []family.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}

func TestMemorySourceFamily(t *testing.T) {
	src := NewMemorySource("test", twoFamilies(), Options{})
	fam, err := src.Family(context.Background(), "P-3")
	if err != nil {
		t.Fatal(err)
	}
	if fam.RootID != "3" {
		t.Errorf("RootID = %q, want 3", fam.RootID)
	}
	got := ids(fam.People)
	slices.Sort(got)
	if want := []string{"1", "2", "3", "4", "5"}; !slices.Equal(got, want) {
		t.Errorf("people = %v, want %v", got, want)
	}
	if fam.Truncated {
		t.Error("Truncated = true")
	}

	fam, err = src.Family(context.Background(), "P-10")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(fam.People); !slices.Equal(got, []string{"10", "11"}) {
		t.Errorf("Nowak family = %v", got)
	}
}

func TestMemorySourceErrors(t *testing.T) {
	src := NewMemorySource("test", twoFamilies(), Options{})
	ctx := context.Background()

	if _, err := src.Family(ctx, "P-404"); !errs.Is(err, errs.ErrCodeFamilyNotFound) {
		t.Errorf("unknown key: err = %v, want %s", err, errs.ErrCodeFamilyNotFound)
	}
	if _, err := src.Family(ctx, "a/b"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("bad key: err = %v, want %s", err, errs.ErrCodeInvalidInput)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := src.Family(cancelled, "P-3"); !errs.Is(err, errs.ErrCodeTimeout) {
		t.Errorf("cancelled: err = %v, want %s", err, errs.ErrCodeTimeout)
	}
}

func TestMemorySourceLimits(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"max people", Options{MaxPeople: 2}, 2},
		{"max depth", Options{MaxDepth: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewMemorySource("test", twoFamilies(), tt.opts)
			fam, err := src.Family(context.Background(), "P-3")
			if err != nil {
				t.Fatal(err)
			}
			if len(fam.People) != tt.want || !fam.Truncated {
				t.Errorf("got %d people truncated=%v, want %d truncated", len(fam.People), fam.Truncated, tt.want)
			}
		})
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.json")
	doc := `{"persons": [
		{"id": 1, "name": "Jan Kowalski", "protocolKey": "P-1"},
		{"id": 2, "name": "Adam Kowalski", "fatherId": 1, "protocolKey": "P-2"},
		{"id": 3, "name": "Obcy Człowiek", "protocolKey": "P-1"}
	]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewFileSource(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.Name() != "file" {
		t.Errorf("Name = %q", src.Name())
	}
	if got := src.ProtocolKeys(); !slices.Equal(got, []string{"P-1", "P-2"}) {
		t.Errorf("ProtocolKeys = %v", got)
	}
	fam, err := src.Family(context.Background(), "P-1")
	if err != nil {
		t.Fatal(err)
	}
	if fam.RootID != "1" || !slices.Equal(ids(fam.People), []string{"1", "2"}) {
		t.Errorf("family = %+v", fam)
	}

	if _, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json"), Options{}); err == nil {
		t.Error("NewFileSource(missing) = nil error")
	}
}

func TestPersonRecord(t *testing.T) {
	born := 1850
	oid := primitive.NewObjectID()
	rec := personRecord{
		ID:          int32(7),
		Name:        " Jan  Kowalski ",
		Gender:      "m",
		BirthYear:   &born,
		FatherID:    int64(3),
		MotherID:    "null",
		SpouseIDs:   []any{oid, int32(7), "8"},
		HouseNumber: 12.0,
	}
	p := rec.person()
	if p.ID != "7" || p.Name != "Jan Kowalski" || p.Gender != family.GenderMale {
		t.Errorf("person = %+v", p)
	}
	if p.BirthYear != family.YearOf(1850) || p.DeathYear.Known {
		t.Errorf("years = %v %v", p.BirthYear, p.DeathYear)
	}
	if p.FatherID != "3" || p.MotherID != "" || p.HouseNumber != "12" {
		t.Errorf("refs = %q %q %q", p.FatherID, p.MotherID, p.HouseNumber)
	}
	if want := []string{oid.Hex(), "8"}; !slices.Equal(p.SpouseIDs, want) {
		t.Errorf("spouses = %v, want %v", p.SpouseIDs, want)
	}
}

func TestRelatedFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	f := relatedFilter([]string{"7", "abc", oid.Hex()})
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 4 {
		t.Fatalf("filter = %v", f)
	}
	in := or[0].(bson.M)["_id"].(bson.M)["$in"].(bson.A)
	want := bson.A{"7", int64(7), "abc", oid.Hex(), oid}
	if len(in) != len(want) {
		t.Fatalf("$in = %v, want %v", in, want)
	}
	for i := range want {
		if in[i] != want[i] {
			t.Errorf("$in[%d] = %v, want %v", i, in[i], want[i])
		}
	}
}
