package tsindex

import (
	"github.com/alecthomas/participle/v2/lexer"
	"gitlab.com/tozd/go/errors"
)

var (
	// ScriptLexerRules tokenizes the parts of TypeScript the index needs: identifiers,
	// strings and punctuation. Comments and whitespace are kept as tokens and dropped
	// later. Regular expression literals are not recognized.
	ScriptLexerRules = lexer.Rules{
		"Root": {
			{Name: "LineComment", Pattern: `//[^\n]*`, Action: nil},
			{Name: "BlockComment", Pattern: `/\*(?:[^*]|\*+[^*/])*\*+/`, Action: nil},
			{Name: "UnterminatedComment", Pattern: `/\*[\s\S]*`, Action: nil},
			{Name: "String", Pattern: `"(?:\\[\s\S]|[^"\\\n])*"|'(?:\\[\s\S]|[^'\\\n])*'`, Action: nil},
			{Name: "Template", Pattern: "`(?:\\\\[\\s\\S]|[^`\\\\])*`", Action: nil},
			{Name: "Number", Pattern: `[0-9][0-9_]*(?:\.[0-9]+)?|\.[0-9]+`, Action: nil},
			{Name: "Ident", Pattern: `[_$a-zA-Z][_$a-zA-Z0-9]*`, Action: nil},
			{Name: "Dot", Pattern: `\?\.|\.`, Action: nil},
			{Name: "whitespace", Pattern: `\s+`, Action: nil},
			{Name: "Char", Pattern: `.|\n`, Action: nil},
		},
	}

	// ScriptLexer is the stateful lexer built from ScriptLexerRules
	ScriptLexer = lexer.MustStateful(ScriptLexerRules)
)

type tokenKind int

const (
	tokenOther tokenKind = iota
	tokenIdent
	tokenString
	tokenDot
)

type token struct {
	kind   tokenKind
	value  string
	offset int
}

func (t token) is(kind tokenKind, value string) bool {
	return t.kind == kind && t.value == value
}

func (t token) isChar(value string) bool {
	return t.kind == tokenOther && t.value == value
}

var tokenKinds = func() map[lexer.TokenType]tokenKind {
	symbols := ScriptLexer.Symbols()
	return map[lexer.TokenType]tokenKind{
		symbols["Ident"]:  tokenIdent,
		symbols["String"]: tokenString,
		symbols["Dot"]:    tokenDot,
	}
}()

var skippedTokens = func() map[lexer.TokenType]bool {
	symbols := ScriptLexer.Symbols()
	return map[lexer.TokenType]bool{
		symbols["LineComment"]:         true,
		symbols["BlockComment"]:        true,
		symbols["UnterminatedComment"]: true,
		symbols["whitespace"]:          true,
	}
}()

func tokenize(fileName, text string) ([]token, error) {
	lex, err := ScriptLexer.LexString(fileName, text)
	if err != nil {
		return nil, errors.Errorf("creating script lexer: %w", err)
	}

	var toks []token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, errors.Errorf("lexing %s: %w", fileName, err)
		}
		if tok.EOF() {
			return toks, nil
		}
		if skippedTokens[tok.Type] {
			continue
		}
		toks = append(toks, token{kind: tokenKinds[tok.Type], value: tok.Value, offset: tok.Pos.Offset})
	}
}

// unquote returns the value of a string literal token. Only the escapes the declaration
// emitter produces and the common single character escapes are decoded.
func unquote(literal string) string {
	if len(literal) < 2 {
		return literal
	}
	body := literal[1 : len(literal)-1]
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			out = append(out, c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			if i+4 < len(body) && body[i+1:i+5] == "2028" {
				out = append(out, "\u2028"...)
				i += 4
			} else if i+4 < len(body) && body[i+1:i+5] == "2029" {
				out = append(out, "\u2029"...)
				i += 4
			} else {
				out = append(out, 'u')
			}
		default:
			out = append(out, body[i])
		}
	}
	return string(out)
}
