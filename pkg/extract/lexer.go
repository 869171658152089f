package extract

import (
	"context"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/walteh/gocssmods/pkg/position"
	"gitlab.com/tozd/go/errors"
)

const (
	// a hex escape may be closed by one whitespace character, which belongs to the name
	escape    = `\\(?:[0-9a-fA-F]{1,6}(?:\r\n|[ \t\r\n\f])?|[^\n\r\f0-9a-fA-F])`
	nameStart = `(?:[_a-zA-Z]|` + escape + `|[^\x00-\x7F])`
	nameChar  = `(?:[_a-zA-Z0-9-]|` + escape + `|[^\x00-\x7F])`
)

var (
	// StylesheetLexerRules tokenizes just enough of a stylesheet to tell class selectors
	// apart from the same characters inside comments, strings, urls and numbers.
	StylesheetLexerRules = lexer.Rules{
		"Root": {
			{Name: "Comment", Pattern: `/\*(?:[^*]|\*+[^*/])*\*+/`, Action: nil},
			{Name: "UnterminatedComment", Pattern: `/\*[\s\S]*`, Action: nil},
			{Name: "String", Pattern: `"(?:\\[\s\S]|[^"\\\n])*"|'(?:\\[\s\S]|[^'\\\n])*'`, Action: nil},
			{Name: "URL", Pattern: `[uU][rR][lL]\(\s*[^)"'\s]*\s*\)`, Action: nil},
			{Name: "Number", Pattern: `[0-9]*\.[0-9]+|[0-9]+`, Action: nil},
			{Name: "Class", Pattern: `\.-?` + nameStart + nameChar + `*`, Action: nil},
			{Name: "Ident", Pattern: `-?` + nameStart + nameChar + `*`, Action: nil},
			{Name: "whitespace", Pattern: `\s+`, Action: nil},
			{Name: "Char", Pattern: `.|\n`, Action: nil},
		},
	}

	// StylesheetLexer is the stateful lexer built from StylesheetLexerRules
	StylesheetLexer = lexer.MustStateful(StylesheetLexerRules)

	classToken = StylesheetLexer.Symbols()["Class"]
)

// LexerExtractor reports class selectors found by StylesheetLexer. Unlike RegexExtractor it
// accepts escaped and non-ASCII names and ignores comments, strings, urls and numbers.
// Occurrence spans keep the escapes as written; see Unescape for the name they denote.
type LexerExtractor struct{}

func NewLexerExtractor() *LexerExtractor {
	return &LexerExtractor{}
}

func (me *LexerExtractor) Extract(ctx context.Context, text string) (position.RawPositionArray, error) {
	lex, err := StylesheetLexer.LexString("", text)
	if err != nil {
		return nil, errors.Errorf("creating stylesheet lexer: %w", err)
	}

	occurrences := make(position.RawPositionArray, 0)
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, errors.Errorf("lexing stylesheet: %w", err)
		}
		if tok.EOF() {
			break
		}
		if tok.Type != classToken {
			continue
		}
		// drop the leading dot
		occurrences = append(occurrences, position.NewBasicPosition(tok.Value[1:], tok.Pos.Offset+1))
	}

	return occurrences, nil
}
