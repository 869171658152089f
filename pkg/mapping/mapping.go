// Package mapping links class name occurrences in a stylesheet to the spans of the
// declaration text generated for them, and translates offsets across that link.
package mapping

import (
	"strings"

	"github.com/walteh/gocssmods/pkg/emit"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/symbols"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrUnknownSymbol    = errors.Base("occurrence has no symbol")
	ErrMissingStatement = errors.Base("virtual text has no statement for symbol")
)

// Data describes which host features may cross an entry.
type Data struct {
	// Navigation allows definition, references and rename to use the entry.
	Navigation bool `json:"navigation"`
}

// Span is an offset and a length in one document.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

func (s Span) End() int {
	return s.Offset + s.Length
}

// Contains includes the end boundary.
func (s Span) Contains(offset int) bool {
	return offset >= s.Offset && offset <= s.End()
}

// Entry asserts that a source span and a generated span denote the same name.
type Entry struct {
	SourceOffset    int  `json:"sourceOffset"`
	SourceLength    int  `json:"sourceLength"`
	GeneratedOffset int  `json:"generatedOffset"`
	GeneratedLength int  `json:"generatedLength"`
	Data            Data `json:"data"`
}

func (e Entry) Source() Span {
	return Span{Offset: e.SourceOffset, Length: e.SourceLength}
}

func (e Entry) Generated() Span {
	return Span{Offset: e.GeneratedOffset, Length: e.GeneratedLength}
}

// Table holds two entries per occurrence, in occurrence order: the synthetic binding name
// in the declaration first, then the alias string in the export.
type Table []Entry

// Build creates the table for occurrences. Spans are searched only inside the statement
// belonging to the occurrence's symbol, so names repeated elsewhere in the text cannot
// be picked up by mistake.
func Build(occurrences position.RawPositionArray, table *symbols.Table, vt *emit.VirtualText) (Table, error) {
	out := make(Table, 0, len(occurrences)*2)

	for _, occ := range occurrences {
		idx, ok := table.IndexOf(occ)
		if !ok {
			return nil, errors.Errorf("%s: %w", occ.ID(), ErrUnknownSymbol)
		}
		if idx >= len(vt.Declarations) || idx >= len(vt.Exports) {
			return nil, errors.Errorf("symbol %d: %w", idx, ErrMissingStatement)
		}

		name, err := locateBindingName(vt.Declarations[idx], idx)
		if err != nil {
			return nil, err
		}

		alias, err := locateAlias(vt.Exports[idx], table.Spelling(idx))
		if err != nil {
			return nil, err
		}

		out = append(out,
			Entry{
				SourceOffset:    occ.Offset,
				SourceLength:    occ.Length(),
				GeneratedOffset: name.Offset,
				GeneratedLength: name.Length,
				Data:            Data{Navigation: true},
			},
			Entry{
				SourceOffset:    occ.Offset,
				SourceLength:    occ.Length(),
				GeneratedOffset: alias.Offset,
				GeneratedLength: alias.Length,
				Data:            Data{Navigation: true},
			},
		)
	}

	return out, nil
}

// locateBindingName finds `<name>:` directly after `declare var ` in the statement.
func locateBindingName(stmt position.RawPosition, index int) (Span, error) {
	name := emit.SyntheticName(index)
	rel := strings.Index(stmt.Text, " "+name+":")
	if rel < 0 {
		return Span{}, errors.Errorf("binding %s in %q: %w", name, stmt.Text, ErrMissingStatement)
	}
	return Span{Offset: stmt.Offset + rel + 1, Length: len(name)}, nil
}

// locateAlias finds the contents of the quoted alias after the first ` as ` in the statement.
func locateAlias(stmt position.RawPosition, spelling string) (Span, error) {
	sep := strings.Index(stmt.Text, " as ")
	quoted := emit.Quote(spelling)
	if sep < 0 || !strings.HasPrefix(stmt.Text[sep+len(" as "):], quoted) {
		return Span{}, errors.Errorf("alias %s in %q: %w", quoted, stmt.Text, ErrMissingStatement)
	}
	// skip the opening quote
	return Span{Offset: stmt.Offset + sep + len(" as ") + 1, Length: len(quoted) - 2}, nil
}
