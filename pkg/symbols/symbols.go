// Package symbols deduplicates class name occurrences into indexed symbols.
package symbols

import (
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/position"
)

// Table maps every distinct spelling to an index. Indexes are assigned in first
// occurrence order and never change for a given occurrence sequence.
type Table struct {
	spellings []string
	indexes   map[string]int
}

// SpellingOf is the class name an occurrence denotes, with CSS escapes decoded, so
// `.sm\:flex` and `.sm\3A flex` share the spelling `sm:flex`.
func SpellingOf(occ position.RawPosition) string {
	return extract.Unescape(occ.Text)
}

// Allocate builds the table for occurrences. Occurrences sharing a spelling share an index.
func Allocate(occurrences position.RawPositionArray) *Table {
	table := &Table{
		spellings: make([]string, 0, len(occurrences)),
		indexes:   make(map[string]int, len(occurrences)),
	}
	for _, occ := range occurrences {
		spelling := SpellingOf(occ)
		if _, ok := table.indexes[spelling]; ok {
			continue
		}
		table.indexes[spelling] = len(table.spellings)
		table.spellings = append(table.spellings, spelling)
	}
	return table
}

// IndexOf returns the index of the symbol occ belongs to.
func (me *Table) IndexOf(occ position.RawPosition) (int, bool) {
	return me.Index(SpellingOf(occ))
}

func (me *Table) Index(spelling string) (int, bool) {
	idx, ok := me.indexes[spelling]
	return idx, ok
}

func (me *Table) Spelling(index int) string {
	return me.spellings[index]
}

func (me *Table) Len() int {
	return len(me.spellings)
}

// Spellings returns the spellings ordered by index.
func (me *Table) Spellings() []string {
	out := make([]string, len(me.spellings))
	copy(out, me.spellings)
	return out
}
