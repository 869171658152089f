// Package extract finds class selector names in stylesheet text.
//
// Extraction is lexical: every implementation returns the names in left to right scan
// order with their byte offsets, keeping duplicates. Finding nothing is not an error.
package extract

import (
	"context"

	"github.com/walteh/gocssmods/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// Extractor produces the class name occurrences of a stylesheet. Each returned position
// holds the name without its leading dot.
type Extractor interface {
	Extract(ctx context.Context, text string) (position.RawPositionArray, error)
}

// Kind names an Extractor implementation.
type Kind string

const (
	KindRegex      Kind = "regex"
	KindLexer      Kind = "lexer"
	KindTreeSitter Kind = "tree-sitter"
)

var ErrUnknownKind = errors.Base("unknown extractor kind")

// Kinds lists every available extractor kind.
func Kinds() []Kind {
	return []Kind{KindRegex, KindLexer, KindTreeSitter}
}

// New returns the extractor registered under kind. An empty kind selects the regex extractor.
func New(kind Kind) (Extractor, error) {
	switch kind {
	case KindRegex, "":
		return NewRegexExtractor(), nil
	case KindLexer:
		return NewLexerExtractor(), nil
	case KindTreeSitter:
		return NewTreeSitterExtractor(), nil
	}
	return nil, errors.Errorf("%q: %w", kind, ErrUnknownKind)
}
