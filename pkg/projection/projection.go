// Package projection turns a stylesheet snapshot into its TypeScript stand-in and the
// mapping between the two.
package projection

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/gocssmods/pkg/emit"
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/mapping"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/symbols"
	"gitlab.com/tozd/go/errors"
)

// Projection is the complete result for one snapshot. It is never partially filled.
type Projection struct {
	Occurrences position.RawPositionArray
	Symbols     *symbols.Table
	Virtual     *emit.VirtualText
	Mappings    mapping.Table
}

// Projector runs extraction, symbol allocation, emission and mapping in one call. It keeps
// no state between calls and may be shared by any number of documents.
type Projector struct {
	extractor extract.Extractor
}

func NewProjector(extractor extract.Extractor) *Projector {
	return &Projector{extractor: extractor}
}

func NewDefaultProjector() *Projector {
	return NewProjector(extract.NewRegexExtractor())
}

func (me *Projector) Project(ctx context.Context, text string) (*Projection, error) {
	occurrences, err := me.extractor.Extract(ctx, text)
	if err != nil {
		return nil, errors.Errorf("extracting class names: %w", err)
	}

	table := symbols.Allocate(occurrences)
	vt := emit.Emit(table)

	mappings, err := mapping.Build(occurrences, table, vt)
	if err != nil {
		return nil, errors.Errorf("building mappings: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Int("occurrences", len(occurrences)).
		Int("symbols", table.Len()).
		Int("mappings", len(mappings)).
		Msg("projected stylesheet")

	zerolog.Ctx(ctx).Trace().
		Str("virtual_text", vt.Content).
		Interface("mappings", mappings.CodeMappings()).
		Msg("projection output")

	return &Projection{
		Occurrences: occurrences,
		Symbols:     table,
		Virtual:     vt,
		Mappings:    mappings,
	}, nil
}
