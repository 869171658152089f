package tsindex_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gocssmods/pkg/host"
	"github.com/walteh/gocssmods/pkg/tsindex"
)

const stylesheetModule = "declare var _token_0: string;\n" +
	"declare var _token_1: string;\n" +
	"export { _token_0 as 'foo' };\n" +
	"export { _token_1 as 'bar' };"

const clientScript = "import * as styles from './a.module.css';\n" +
	"import { foo } from './a.module.css';\n" +
	"styles.foo;\n" +
	"styles['bar'];\n" +
	"foo;"

// offsetOf returns the offset of the nth (zero based) occurrence of needle.
func offsetOf(t *testing.T, text, needle string, nth int) int {
	t.Helper()
	offset := -1
	for i := 0; i <= nth; i++ {
		next := strings.Index(text[offset+1:], needle)
		require.GreaterOrEqual(t, next, 0, "needle %q #%d", needle, nth)
		offset += next + 1
	}
	return offset
}

func newIndex() (*tsindex.Index, *host.MapHost) {
	h := host.NewMapHost(map[string]string{
		"/p/a.module.css": stylesheetModule,
		"/p/app.ts":       clientScript,
		"/p/index.ts":     "export { foo as primary } from './a.module.css';",
		"/p/other.ts":     "import { primary } from './index';\nprimary;",
	})
	return tsindex.New(h), h
}

func locs(locations []host.Location) []string {
	var out []string
	for _, l := range locations {
		out = append(out, l.String())
	}
	return out
}

func TestDefinition(t *testing.T) {
	ctx := context.Background()
	idx, _ := newIndex()

	tests := []struct {
		name   string
		file   string
		offset func(t *testing.T) int
		want   []string
	}{
		{
			name:   "synthetic binding resolves to itself",
			file:   "/p/a.module.css",
			offset: func(t *testing.T) int { return 12 },
			want:   []string{"/p/a.module.css:_token_0@12"},
		},
		{
			name:   "alias resolves to the binding it exports",
			file:   "/p/a.module.css",
			offset: func(t *testing.T) int { return 112 },
			want:   []string{"/p/a.module.css:_token_1@42"},
		},
		{
			name:   "namespace member",
			file:   "/p/app.ts",
			offset: func(t *testing.T) int { return offsetOf(t, clientScript, "foo", 1) },
			want:   []string{"/p/a.module.css:_token_0@12"},
		},
		{
			name:   "element access member",
			file:   "/p/app.ts",
			offset: func(t *testing.T) int { return offsetOf(t, clientScript, "bar", 0) },
			want:   []string{"/p/a.module.css:_token_1@42"},
		},
		{
			name:   "named import",
			file:   "/p/app.ts",
			offset: func(t *testing.T) int { return offsetOf(t, clientScript, "foo", 2) },
			want:   []string{"/p/a.module.css:_token_0@12"},
		},
		{
			name: "through a re-export",
			file: "/p/other.ts",
			offset: func(t *testing.T) int {
				return strings.LastIndex("import { primary } from './index';\nprimary;", "primary")
			},
			want: []string{"/p/a.module.css:_token_0@12"},
		},
		{
			name:   "whitespace has no definition",
			file:   "/p/app.ts",
			offset: func(t *testing.T) int { return strings.Index(clientScript, ";") },
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Definition(ctx, tt.file, tt.offset(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, locs(got))
		})
	}
}

func TestReferences(t *testing.T) {
	ctx := context.Background()
	idx, _ := newIndex()

	got, err := idx.References(ctx, "/p/app.ts", offsetOf(t, clientScript, "foo", 1))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"/p/a.module.css:_token_0@12",
		"/p/a.module.css:_token_0@69",
		"/p/a.module.css:foo@82",
		fmt.Sprintf("/p/app.ts:foo@%d", offsetOf(t, clientScript, "foo", 0)),
		fmt.Sprintf("/p/app.ts:foo@%d", offsetOf(t, clientScript, "foo", 1)),
		fmt.Sprintf("/p/app.ts:foo@%d", offsetOf(t, clientScript, "foo", 2)),
		"/p/index.ts:foo@9",
		"/p/index.ts:primary@16",
		"/p/other.ts:primary@9",
		"/p/other.ts:primary@35",
	}, locs(got))
}

func TestRenameLocations(t *testing.T) {
	ctx := context.Background()
	idx, _ := newIndex()

	t.Run("binding", func(t *testing.T) {
		got, err := idx.RenameLocations(ctx, "/p/a.module.css", 12)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"/p/a.module.css:_token_0@12",
			"/p/a.module.css:_token_0@69",
		}, locs(got))
	})

	t.Run("export", func(t *testing.T) {
		got, err := idx.RenameLocations(ctx, "/p/a.module.css", 82)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			"/p/a.module.css:foo@82",
			fmt.Sprintf("/p/app.ts:foo@%d", offsetOf(t, clientScript, "foo", 0)),
			fmt.Sprintf("/p/app.ts:foo@%d", offsetOf(t, clientScript, "foo", 1)),
			fmt.Sprintf("/p/app.ts:foo@%d", offsetOf(t, clientScript, "foo", 2)),
			"/p/index.ts:foo@9",
		}, locs(got))
	})
}

func TestIndexErrors(t *testing.T) {
	idx, _ := newIndex()

	t.Run("missing file", func(t *testing.T) {
		_, err := idx.Definition(context.Background(), "/p/missing.ts", 0)
		require.ErrorIs(t, err, host.ErrFileNotFound)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := idx.References(ctx, "/p/app.ts", 0)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestIndexReparsesChangedFiles(t *testing.T) {
	ctx := context.Background()
	idx, h := newIndex()

	got, err := idx.Definition(ctx, "/p/a.module.css", 12)
	require.NoError(t, err)
	require.Len(t, got, 1)

	h.Set("/p/a.module.css", "declare const styles: {};\nexport default styles;")

	got, err = idx.Definition(ctx, "/p/a.module.css", len("declare const sty"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/a.module.css:styles@14"}, locs(got))
}

func TestDefaultImportMembersDoNotResolve(t *testing.T) {
	ctx := context.Background()
	script := "import styles from './a.module.css';\nstyles.foo;"
	idx := tsindex.New(host.NewMapHost(map[string]string{
		"/p/a.module.css": stylesheetModule,
		"/p/default.ts":   script,
	}))

	got, err := idx.Definition(ctx, "/p/default.ts", strings.LastIndex(script, "foo"))
	require.NoError(t, err)
	assert.Empty(t, got, "the declaration module has no default export")

	got, err = idx.Definition(ctx, "/p/default.ts", strings.LastIndex(script, "styles"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
