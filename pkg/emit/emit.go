// Package emit renders the TypeScript declaration text that stands in for a stylesheet.
//
// Every symbol becomes a synthetic binding plus an export that aliases it to the class
// name, for example
//
//	declare var _token_0: string;
//	declare var _token_1: string;
//	export { _token_0 as 'foo' };
//	export { _token_1 as 'bar' };
//
// The layout is fixed: declarations in ascending index order, then exports in ascending
// index order, one statement per line and no trailing newline.
package emit

import (
	"fmt"
	"strings"

	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/symbols"
)

// EmptyModule is emitted when a stylesheet has no class names, so the host still sees a
// well formed module with a default export.
const EmptyModule = "declare const styles: {};\nexport default styles;"

const syntheticPrefix = "_token_"

// VirtualText is the rendered document and the span of every statement in it.
type VirtualText struct {
	Content string
	// Declarations[i] is the `declare var` statement of symbol i.
	Declarations position.RawPositionArray
	// Exports[i] is the export statement aliasing symbol i.
	Exports position.RawPositionArray
}

// SyntheticName is the binding name used for symbol index.
func SyntheticName(index int) string {
	return fmt.Sprintf("%s%d", syntheticPrefix, index)
}

// Quote renders s as a single quoted TypeScript string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	sb.WriteString(EscapeString(s))
	sb.WriteByte('\'')
	return sb.String()
}

// EscapeString escapes s for use between single quotes.
func EscapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\u2028':
			sb.WriteString(`\u2028`)
		case '\u2029':
			sb.WriteString(`\u2029`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func declaration(index int) string {
	return fmt.Sprintf("declare var %s: string;", SyntheticName(index))
}

func export(index int, spelling string) string {
	return fmt.Sprintf("export { %s as %s };", SyntheticName(index), Quote(spelling))
}

// Emit renders the declaration document for table.
func Emit(table *symbols.Table) *VirtualText {
	if table.Len() == 0 {
		return &VirtualText{
			Content:      EmptyModule,
			Declarations: position.RawPositionArray{},
			Exports:      position.RawPositionArray{},
		}
	}

	vt := &VirtualText{
		Declarations: make(position.RawPositionArray, 0, table.Len()),
		Exports:      make(position.RawPositionArray, 0, table.Len()),
	}

	var sb strings.Builder
	writeStatement := func(stmt string) position.RawPosition {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		pos := position.NewBasicPosition(stmt, sb.Len())
		sb.WriteString(stmt)
		return pos
	}

	for i := 0; i < table.Len(); i++ {
		vt.Declarations = append(vt.Declarations, writeStatement(declaration(i)))
	}
	for i := 0; i < table.Len(); i++ {
		vt.Exports = append(vt.Exports, writeStatement(export(i, table.Spelling(i))))
	}

	vt.Content = sb.String()
	return vt
}
