package layout

import (
	"cmp"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/collate"

	"github.com/matzehuels/kintree/pkg/family"
)

// rowOrder is the total order of people within a row: surname, then id in
// natural order ("2" before "10"), then input position.
type rowOrder struct {
	idx  *family.Index
	coll *collate.Collator
}

func (o rowOrder) compare(a, b string) int {
	pa, _ := o.idx.Person(a)
	pb, _ := o.idx.Person(b)
	if c := o.compareSurnames(surnameOf(pa), surnameOf(pb)); c != 0 {
		return c
	}
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return cmp.Compare(o.idx.Position(a), o.idx.Position(b))
}

func (o rowOrder) compareSurnames(a, b string) int {
	if o.coll != nil {
		if c := o.coll.CompareString(a, b); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func surnameOf(p *family.Person) string {
	if p == nil {
		return ""
	}
	return p.Surname()
}
