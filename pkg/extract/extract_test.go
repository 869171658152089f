package extract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/position"
)

func TestExtractors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  position.RawPositionArray
	}{
		{
			name:  "two rules",
			input: ".foo { } .bar { }",
			want: position.RawPositionArray{
				position.NewBasicPosition("foo", 1),
				position.NewBasicPosition("bar", 10),
			},
		},
		{
			name:  "duplicates are kept",
			input: ".foo .foo {}",
			want: position.RawPositionArray{
				position.NewBasicPosition("foo", 1),
				position.NewBasicPosition("foo", 6),
			},
		},
		{
			name:  "no selectors",
			input: "body { color: red; }",
			want:  position.RawPositionArray{},
		},
		{
			name:  "empty input",
			input: "",
			want:  position.RawPositionArray{},
		},
		{
			name:  "compound selectors across lines",
			input: "div.card > .card-title,\n.card_body:hover {}",
			want: position.RawPositionArray{
				position.NewBasicPosition("card", 4),
				position.NewBasicPosition("card-title", 12),
				position.NewBasicPosition("card_body", 25),
			},
		},
	}

	for _, kind := range extract.Kinds() {
		ex, err := extract.New(kind)
		require.NoError(t, err)

		for _, tt := range tests {
			t.Run(string(kind)+"/"+tt.name, func(t *testing.T) {
				got, err := ex.Extract(context.Background(), tt.input)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestExtractorPrecision(t *testing.T) {
	input := `.a { margin: .5em; background: url(img.png) } /* .c */ .b-2 { content: ".d" }`

	tests := []struct {
		kind extract.Kind
		want []string
	}{
		{
			// lexical matching also picks up values, urls, comments and strings
			kind: extract.KindRegex,
			want: []string{"a@1", "5em@14", "png@39", "c@50", "b-2@56", "d@73"},
		},
		{
			kind: extract.KindLexer,
			want: []string{"a@1", "b-2@56"},
		},
		{
			kind: extract.KindTreeSitter,
			want: []string{"a@1", "b-2@56"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ex, err := extract.New(tt.kind)
			require.NoError(t, err)

			got, err := ex.Extract(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ToStrings())
		})
	}
}

func TestLexerExtractorEscapedNames(t *testing.T) {
	got, err := extract.NewLexerExtractor().Extract(context.Background(), `.sm\:flex, .héllo:hover, .\31 0 {}`)
	require.NoError(t, err)
	assert.Equal(t, []string{`sm\:flex@1`, "héllo@12", `\31 0@27`}, got.ToStrings(), "spans keep the escapes as written")
	assert.Equal(t, []string{"sm:flex", "héllo", "10"}, []string{
		extract.Unescape(got[0].Text),
		extract.Unescape(got[1].Text),
		extract.Unescape(got[2].Text),
	})
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "card", want: "card"},
		{name: "punctuation", in: `sm\:flex`, want: "sm:flex"},
		{name: "hex with terminating space", in: `sm\3A flex`, want: "sm:flex"},
		{name: "hex without terminator", in: `a\2e`, want: "a."},
		{name: "hex closed by crlf", in: "\\31\r\n0", want: "10"},
		{name: "six hex digits end the escape", in: `\00003132`, want: "132"},
		{name: "zero is replaced", in: `a\0 b`, want: "a\uFFFDb"},
		{name: "surrogate is replaced", in: `\D800`, want: "\uFFFD"},
		{name: "past the last code point", in: `\110000`, want: "\uFFFD"},
		{name: "trailing backslash", in: `a\`, want: "a\uFFFD"},
		{name: "escaped backslash", in: `a\\b`, want: `a\b`},
		{name: "escaped non ascii", in: `\é`, want: "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract.Unescape(tt.in))
		})
	}
}

func TestLexerExtractorUnterminated(t *testing.T) {
	got, err := extract.NewLexerExtractor().Extract(context.Background(), ".ok { } /* .never")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok@1"}, got.ToStrings())
}

func TestNewUnknownKind(t *testing.T) {
	_, err := extract.New("postcss")
	require.ErrorIs(t, err, extract.ErrUnknownKind)

	ex, err := extract.New("")
	require.NoError(t, err)
	assert.IsType(t, &extract.RegexExtractor{}, ex)
}
