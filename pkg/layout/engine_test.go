package layout

import (
	"bytes"
	"encoding/json"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"

	"github.com/matzehuels/kintree/pkg/family"
)

var quiet = WithLogger(log.New(io.Discard))

func threeGenerations() []family.Person {
	return []family.Person{
		{ID: "g", Name: "Jan Kowalski", Gender: family.GenderMale},
		{ID: "p", Name: "Adam Kowalski", Gender: family.GenderMale, FatherID: "g", SpouseIDs: []string{"o"}},
		{ID: "o", Name: "Anna Nowak", Gender: family.GenderFemale, SpouseIDs: []string{"p"}},
		{ID: "c", Name: "Ewa Kowalska", Gender: family.GenderFemale, FatherID: "p", MotherID: "o"},
	}
}

func largeFamily() []family.Person {
	return []family.Person{
		{ID: "1", Name: "Piotr Wiśniewski", SpouseIDs: []string{"2"}},
		{ID: "2", Name: "Maria Zielińska", SpouseIDs: []string{"1"}},
		{ID: "3", Name: "Jan Wiśniewski", FatherID: "1", MotherID: "2", SpouseIDs: []string{"4"}},
		{ID: "4", Name: "Zofia Lis", FatherID: "9", SpouseIDs: []string{"3"}},
		{ID: "5", Name: "Tomasz Wiśniewski", FatherID: "3", MotherID: "4"},
		{ID: "6", Name: "Karol Wiśniewski", FatherID: "3", MotherID: "4", SpouseIDs: []string{"7", "11"}},
		{ID: "7", Name: "Helena Mazur", SpouseIDs: []string{"6"}},
		{ID: "8", Name: "Olga Wiśniewska", FatherID: "6", MotherID: "7"},
		{ID: "9", Name: "Stefan Lis"},
		{ID: "10", Name: "Samotny Człowiek"},
		{ID: "11", Name: "Irena Bąk", SpouseIDs: []string{"6"}},
		{ID: "12", Name: "Wojciech Bąk", FatherID: "missing", SpouseIDs: []string{"gone"}},
	}
}

func generations(res Result) map[string]int {
	out := make(map[string]int, len(res.Nodes))
	for _, n := range res.Nodes {
		out[n.PersonID] = n.Generation
	}
	return out
}

func count(conns []Connection, kind ConnectionKind) int {
	n := 0
	for _, c := range conns {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func TestCompute_Empty(t *testing.T) {
	for _, people := range [][]family.Person{nil, {{ID: "", Name: "x"}, {ID: "1"}}} {
		res := Compute(people, quiet)
		if len(res.Nodes) != 0 || len(res.Connections) != 0 || len(res.Marriages) != 0 {
			t.Errorf("Compute(%v) = %+v, want empty result", people, res)
		}
		if res.Bounds != (Bounds{}) {
			t.Errorf("Bounds = %+v, want zero", res.Bounds)
		}
	}
}

func TestCompute_ThreeGenerations(t *testing.T) {
	res := Compute(threeGenerations(), quiet)

	want := map[string]int{"g": 0, "p": 1, "o": 1, "c": 2}
	got := generations(res)
	for id, g := range want {
		if got[id] != g {
			t.Errorf("generation(%s) = %d, want %d", id, got[id], g)
		}
	}

	if len(res.Marriages) != 1 {
		t.Fatalf("len(Marriages) = %d, want 1", len(res.Marriages))
	}
	if m := res.Marriages[0]; m.Left.PersonID != "p" || m.Right.PersonID != "o" {
		t.Errorf("marriage = %s-%s, want p-o", m.Left.PersonID, m.Right.PersonID)
	}
	if n := count(res.Connections, KindMarriage); n != 1 {
		t.Errorf("marriage connectors = %d, want 1", n)
	}

	into := 0
	for _, c := range res.Connections {
		if c.Kind == KindParentChild && c.ChildID == "c" {
			into++
		}
	}
	if into != 2 {
		t.Errorf("connectors into child = %d, want 2", into)
	}
}

func TestCompute_Geometry(t *testing.T) {
	res := Compute(threeGenerations(), quiet)

	p, _ := res.Node("p")
	o, _ := res.Node("o")
	c, _ := res.Node("c")

	if p.X != 80 || p.Y != 280 || p.BoxWidth != 121 {
		t.Errorf("p = (%v, %v, w=%v), want (80, 280, w=121)", p.X, p.Y, p.BoxWidth)
	}
	if o.X != p.Right()+20 {
		t.Errorf("o.X = %v, want %v", o.X, p.Right()+20)
	}
	if c.Y != 480 {
		t.Errorf("c.Y = %v, want 480", c.Y)
	}

	for _, conn := range res.Connections {
		if conn.Kind != KindParentChild || conn.ChildID != "c" {
			continue
		}
		want := []Point{{211, 320}, {211, 420}, {140, 420}, {140, 480}}
		if len(conn.Path) != len(want) {
			t.Fatalf("path = %v, want %v", conn.Path, want)
		}
		for i := range want {
			if conn.Path[i] != want[i] {
				t.Errorf("path[%d] = %v, want %v", i, conn.Path[i], want[i])
			}
		}
	}

	if res.Bounds != (Bounds{Width: 421, Height: 640}) {
		t.Errorf("Bounds = %+v, want {421 640}", res.Bounds)
	}
}

func TestCompute_SingleParentConnector(t *testing.T) {
	res := Compute(threeGenerations(), quiet)
	g, _ := res.Node("g")
	p, _ := res.Node("p")

	for _, conn := range res.Connections {
		if conn.ChildID != "p" {
			continue
		}
		if conn.Source != g.BottomCenter() {
			t.Errorf("Source = %v, want %v", conn.Source, g.BottomCenter())
		}
		if conn.Target != p.TopCenter() {
			t.Errorf("Target = %v, want %v", conn.Target, p.TopCenter())
		}
		if midY := conn.Path[1].Y; midY != (g.Bottom()+p.Y)/2 {
			t.Errorf("midY = %v, want %v", midY, (g.Bottom()+p.Y)/2)
		}
	}
}

func TestCompute_DanglingSpouse(t *testing.T) {
	res := Compute([]family.Person{
		{ID: "a", Name: "Anna", SpouseIDs: []string{"x"}},
	}, quiet)

	if len(res.Nodes) != 1 {
		t.Fatalf("len(Nodes) = %d, want 1", len(res.Nodes))
	}
	if res.Nodes[0].PartnerID != "" {
		t.Errorf("PartnerID = %q, want none", res.Nodes[0].PartnerID)
	}
	if len(res.Marriages) != 0 || len(res.Connections) != 0 {
		t.Errorf("Marriages, Connections = %v, %v; want none", res.Marriages, res.Connections)
	}
}

func TestCompute_Cycle(t *testing.T) {
	res := Compute([]family.Person{
		{ID: "a", Name: "A", FatherID: "b"},
		{ID: "b", Name: "B", FatherID: "a"},
	}, quiet)

	got := generations(res)
	if got["a"] != 0 || got["b"] != 0 {
		t.Errorf("generations = %v, want both 0", got)
	}
	if len(res.Diagnostics.Severed) != 2 {
		t.Errorf("Severed = %v, want 2 links", res.Diagnostics.Severed)
	}
	if len(res.Connections) != 0 {
		t.Errorf("Connections = %v, want none between same-generation people", res.Connections)
	}
}

func TestCompute_Invariants(t *testing.T) {
	people := largeFamily()
	idx := family.NewIndex(people)
	cfg := DefaultConfig()

	for _, focus := range []string{"", "1", "8", "11", "10"} {
		res := Compute(people, WithFocus(focus), quiet)
		gens := generations(res)

		lo := len(res.Nodes)
		for _, n := range res.Nodes {
			lo = min(lo, n.Generation)
			for _, parent := range idx.Parents(n.PersonID) {
				if n.Generation <= gens[parent] {
					t.Errorf("focus %q: %s on %d, parent %s on %d", focus, n.PersonID, n.Generation, parent, gens[parent])
				}
			}
			for _, s := range idx.MutualSpouses(n.PersonID) {
				if gens[s] != n.Generation {
					t.Errorf("focus %q: spouses %s and %s on different rows", focus, n.PersonID, s)
				}
			}
		}
		if lo != 0 {
			t.Errorf("focus %q: min generation = %d, want 0", focus, lo)
		}

		for _, row := range res.Rows() {
			for i := 1; i < len(row); i++ {
				gap := row[i].X - row[i-1].Right()
				if gap < min(cfg.MarriageGap, cfg.HorizontalGap) {
					t.Errorf("focus %q: %s and %s overlap (gap %v)", focus, row[i-1].PersonID, row[i].PersonID, gap)
				}
			}
		}

		for _, n := range res.Nodes {
			if n.BoxWidth < cfg.MinBoxWidth {
				t.Errorf("%s width = %v, want >= %v", n.PersonID, n.BoxWidth, cfg.MinBoxWidth)
			}
			if n.Right() > res.Bounds.Width || n.Bottom() > res.Bounds.Height {
				t.Errorf("%s outside bounds %+v", n.PersonID, res.Bounds)
			}
		}
	}
}

func TestCompute_MultipleMarriagesPairOnce(t *testing.T) {
	res := Compute(largeFamily(), quiet)

	karol, _ := res.Node("6")
	if karol.PartnerID != "7" {
		t.Errorf("PartnerID(6) = %q, want 7 (first listed spouse)", karol.PartnerID)
	}
	irena, _ := res.Node("11")
	if irena.PartnerID != "" {
		t.Errorf("PartnerID(11) = %q, want single", irena.PartnerID)
	}
	if irena.Generation != karol.Generation {
		t.Errorf("second spouse on %d, want %d", irena.Generation, karol.Generation)
	}
}

func TestCompute_SinglesBeforePairs(t *testing.T) {
	res := Compute(largeFamily(), quiet)

	for _, row := range res.Rows() {
		seenPair := false
		for _, n := range row {
			if n.PartnerID != "" {
				seenPair = true
			} else if seenPair {
				t.Errorf("single %s placed after a pair", n.PersonID)
			}
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	encode := func() []byte {
		var buf bytes.Buffer
		res := Compute(largeFamily(), WithFocus("3"), quiet)
		if err := json.NewEncoder(&buf).Encode(res); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	first := encode()
	for range 5 {
		if !bytes.Equal(first, encode()) {
			t.Fatal("Compute output differs between identical runs")
		}
	}
}

// joinedLines returns two root lines of different depth joined by a
// marriage: g1 → a and g2 → b → c, with a married to c.
func joinedLines() []family.Person {
	return []family.Person{
		{ID: "g1", Name: "Jan Kowalski"},
		{ID: "g2", Name: "Stefan Lis"},
		{ID: "b", Name: "Piotr Lis", FatherID: "g2"},
		{ID: "a", Name: "Adam Kowalski", FatherID: "g1", SpouseIDs: []string{"c"}},
		{ID: "c", Name: "Zofia Lis", FatherID: "b", SpouseIDs: []string{"a"}},
	}
}

func TestCompute_RerootPreservesDeltas(t *testing.T) {
	tests := []struct {
		name   string
		people []family.Person
	}{
		{"three generations", threeGenerations()},
		{"joined lines", joinedLines()},
		{"large family", largeFamily()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := generations(Compute(tt.people, quiet))
			for _, p := range tt.people {
				rerooted := generations(Compute(tt.people, WithFocus(p.ID), quiet))
				offset := rerooted[p.ID] - base[p.ID]
				for id, g := range base {
					if rerooted[id]-g != offset {
						t.Errorf("focus %s: %s shifted by %d, want %d", p.ID, id, rerooted[id]-g, offset)
					}
				}
			}
		})
	}
}

func TestCompute_JoinedLines(t *testing.T) {
	want := map[string]int{"g1": 0, "g2": 0, "b": 1, "a": 2, "c": 2}
	for _, focus := range []string{"", "g1", "g2", "a", "b", "c"} {
		got := generations(Compute(joinedLines(), WithFocus(focus), quiet))
		for id, w := range want {
			if got[id] != w {
				t.Errorf("focus %q: generation(%s) = %d, want %d", focus, id, got[id], w)
			}
		}
	}
}

func TestCompute_ZeroID(t *testing.T) {
	res := Compute([]family.Person{
		{ID: "0", Name: "Jan Kowalski", SpouseIDs: []string{"1"}},
		{ID: "1", Name: "Anna Nowak", SpouseIDs: []string{"0"}},
		{ID: "2", Name: "Ewa Kowalska", FatherID: "0", MotherID: "1"},
	}, quiet)

	if n := count(res.Connections, KindParentChild); n != 2 {
		t.Errorf("parent-child connectors = %d, want 2", n)
	}
	if n := count(res.Connections, KindMarriage); n != 1 {
		t.Errorf("marriage connectors = %d, want 1", n)
	}
}

func TestCompute_UnresolvedFocus(t *testing.T) {
	res := Compute(threeGenerations(), WithFocus("nobody"), quiet)

	if !res.Diagnostics.UnresolvedFocus {
		t.Error("UnresolvedFocus = false, want true")
	}
	if res.Focus != "" {
		t.Errorf("Focus = %q, want empty", res.Focus)
	}
	for _, n := range res.Nodes {
		if n.IsFocus {
			t.Errorf("%s marked as focus", n.PersonID)
		}
	}
}

func TestCompute_FocusFlag(t *testing.T) {
	res := Compute(threeGenerations(), WithFocus("p"), quiet)
	for _, n := range res.Nodes {
		if n.IsFocus != (n.PersonID == "p") {
			t.Errorf("%s IsFocus = %v", n.PersonID, n.IsFocus)
		}
	}
	if res.Focus != "p" {
		t.Errorf("Focus = %q, want p", res.Focus)
	}
}

func TestCompute_ScopeConnected(t *testing.T) {
	people := largeFamily()

	res := Compute(people, WithFocus("10"), WithScope(ScopeConnected), quiet)
	if len(res.Nodes) != 1 || res.Nodes[0].PersonID != "10" {
		t.Errorf("Nodes = %v, want only 10", res.Nodes)
	}

	res = Compute(people, WithScope(ScopeConnected), quiet)
	if _, ok := res.Node("10"); ok {
		t.Error("isolated person included without focus, want largest family only")
	}
	if _, ok := res.Node("1"); !ok {
		t.Error("largest family missing")
	}
}

func TestCompute_Skipped(t *testing.T) {
	people := append(threeGenerations(), family.Person{ID: "g", Name: "Dup"}, family.Person{Name: "No Id"})
	res := Compute(people, quiet)
	if res.Diagnostics.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", res.Diagnostics.Skipped)
	}
}

func TestCompute_Measure(t *testing.T) {
	wide := func(string) float64 { return 500 }
	res := Compute(threeGenerations(), WithMeasure(wide), quiet)
	for _, n := range res.Nodes {
		if n.BoxWidth != 530 {
			t.Errorf("%s width = %v, want 530", n.PersonID, n.BoxWidth)
		}
	}
}

func TestCompute_Locale(t *testing.T) {
	people := []family.Person{
		{ID: "1", Name: "Anna Mazur"},
		{ID: "2", Name: "Ewa Łukasik"},
		{ID: "3", Name: "Jan Lis"},
	}

	order := func(res Result) []string {
		var ids []string
		for _, n := range res.Nodes {
			ids = append(ids, n.PersonID)
		}
		return ids
	}

	plain := order(Compute(people, quiet))
	polish := order(Compute(people, WithLocale(language.Polish), quiet))

	// Byte order puts "ł" after every ASCII letter.
	if want := []string{"3", "1", "2"}; !slices.Equal(plain, want) {
		t.Errorf("byte order = %v, want %v", plain, want)
	}
	if want := []string{"3", "2", "1"}; !slices.Equal(polish, want) {
		t.Errorf("polish order = %v, want %v", polish, want)
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeAll, false},
		{"all", ScopeAll, false},
		{"Connected", ScopeConnected, false},
		{"world", ScopeAll, true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseScope(%q) = %v, %v", tt.in, got, err)
		}
	}
}

