package emit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gocssmods/pkg/emit"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/symbols"
)

func table(spellings ...string) *symbols.Table {
	occs := make(position.RawPositionArray, 0, len(spellings))
	for i, s := range spellings {
		occs = append(occs, position.NewBasicPosition(s, i*10))
	}
	return symbols.Allocate(occs)
}

func TestEmit(t *testing.T) {
	tests := []struct {
		name  string
		table *symbols.Table
		want  string
	}{
		{
			name:  "empty",
			table: table(),
			want:  "declare const styles: {};\nexport default styles;",
		},
		{
			name:  "one symbol",
			table: table("foo"),
			want:  "declare var _token_0: string;\nexport { _token_0 as 'foo' };",
		},
		{
			name:  "two symbols",
			table: table("foo", "bar"),
			want: "declare var _token_0: string;\n" +
				"declare var _token_1: string;\n" +
				"export { _token_0 as 'foo' };\n" +
				"export { _token_1 as 'bar' };",
		},
		{
			name:  "duplicates collapse",
			table: table("foo", "foo"),
			want:  "declare var _token_0: string;\nexport { _token_0 as 'foo' };",
		},
		{
			name:  "quotes are escaped",
			table: table(`it's\x`),
			want:  "declare var _token_0: string;\nexport { _token_0 as 'it\\'s\\\\x' };",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vt := emit.Emit(tt.table)
			assert.Equal(t, tt.want, vt.Content)
		})
	}
}

func TestEmitStatementSpans(t *testing.T) {
	vt := emit.Emit(table("foo", "bar", "_token_0"))

	require.Len(t, vt.Declarations, 3)
	require.Len(t, vt.Exports, 3)

	for i := range vt.Declarations {
		decl := vt.Declarations[i]
		assert.Equal(t, decl.Text, vt.Content[decl.Offset:decl.End()], "declaration span should slice the content")
		assert.Contains(t, decl.Text, emit.SyntheticName(i))

		exp := vt.Exports[i]
		assert.Equal(t, exp.Text, vt.Content[exp.Offset:exp.End()], "export span should slice the content")
		assert.Contains(t, exp.Text, emit.SyntheticName(i))
	}

	assert.Equal(t, "export { _token_2 as '_token_0' };", vt.Exports[2].Text)
}

func TestEmitIsDeterministic(t *testing.T) {
	a := emit.Emit(table("foo", "bar", "baz"))
	b := emit.Emit(table("foo", "bar", "baz"))
	assert.Equal(t, a, b)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'foo'`, emit.Quote("foo"))
	assert.Equal(t, `'a\nb'`, emit.Quote("a\nb"))
	assert.Equal(t, `'sm\\:flex'`, emit.Quote(`sm\:flex`))
}
