package adapter_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gocssmods/pkg/adapter"
	"github.com/walteh/gocssmods/pkg/emit"
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/host"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/projection"
	"github.com/walteh/gocssmods/pkg/tsindex"
)

const (
	stylesheet = ".foo { } .bar { } .foo { }"
	duplicates = ".foo .foo"
	client     = "import * as styles from './a.module.css';\nstyles.foo;"
)

type fixture struct {
	host     *host.MapHost
	language *adapter.Language
	service  *adapter.Service
}

func newFixture(ctx context.Context) *fixture {
	h := host.NewMapHost(map[string]string{
		"/p/a.module.css": stylesheet,
		"/p/b.module.css": duplicates,
		"/p/app.ts":       client,
	})
	lang := adapter.NewLanguage(h, adapter.NewCSSModulePlugin(projection.NewDefaultProjector()))
	return &fixture{
		host:     h,
		language: lang,
		service:  adapter.NewService(lang, tsindex.New(lang.Host(ctx))),
	}
}

func locs(locations []host.Location) []string {
	var out []string
	for _, l := range locations {
		out = append(out, l.String())
	}
	return out
}

func TestNavigation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)
	member := strings.LastIndex(client, "foo")
	memberLoc := "/p/app.ts:" + position.NewBasicPosition("foo", member).String()

	tests := []struct {
		name   string
		query  func(*adapter.Service) func(context.Context, string, int) ([]host.Location, error)
		file   string
		offset int
		want   []string
	}{
		{
			name: "references of a single class name",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.References
			},
			file:   "/p/a.module.css",
			offset: 10,
			want:   []string{"/p/a.module.css:bar@10"},
		},
		{
			name: "rename from either duplicate returns both",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.RenameLocations
			},
			file:   "/p/b.module.css",
			offset: 6,
			want:   []string{"/p/b.module.css:foo@1", "/p/b.module.css:foo@6"},
		},
		{
			name: "rename from the first duplicate",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.RenameLocations
			},
			file:   "/p/b.module.css",
			offset: 1,
			want:   []string{"/p/b.module.css:foo@1", "/p/b.module.css:foo@6"},
		},
		{
			name: "definition goes to the first occurrence",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.Definition
			},
			file:   "/p/a.module.css",
			offset: 20,
			want:   []string{"/p/a.module.css:foo@1"},
		},
		{
			name: "definition from a script",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.Definition
			},
			file:   "/p/app.ts",
			offset: member,
			want:   []string{"/p/a.module.css:foo@1"},
		},
		{
			name: "references from a script",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.References
			},
			file:   "/p/app.ts",
			offset: member + 1,
			want:   []string{"/p/a.module.css:foo@1", "/p/a.module.css:foo@19", memberLoc},
		},
		{
			name: "rename from a stylesheet reaches scripts",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.RenameLocations
			},
			file:   "/p/a.module.css",
			offset: 1,
			want:   []string{"/p/a.module.css:foo@1", "/p/a.module.css:foo@19", memberLoc},
		},
		{
			name: "unmapped offset",
			query: func(s *adapter.Service) func(context.Context, string, int) ([]host.Location, error) {
				return s.Definition
			},
			file:   "/p/a.module.css",
			offset: 5,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query(f.service)(ctx, tt.file, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, locs(got))
		})
	}
}

func TestServiceErrors(t *testing.T) {
	t.Run("missing stylesheet", func(t *testing.T) {
		f := newFixture(context.Background())
		_, err := f.service.Definition(context.Background(), "/p/missing.module.css", 1)
		require.ErrorIs(t, err, host.ErrFileNotFound)
	})

	t.Run("cancelled before the query", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := newFixture(ctx)
		got, err := f.service.References(ctx, "/p/a.module.css", 1)
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got)
	})

	t.Run("cancelled during the query", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f := newFixture(ctx)
		inner := &cancellingService{cancel: cancel}
		svc := adapter.NewService(f.language, inner)

		got, err := svc.RenameLocations(ctx, "/p/a.module.css", 1)
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got)
		assert.Equal(t, 1, inner.calls)
	})
}

// cancellingService cancels the query context and then answers as if nothing happened.
type cancellingService struct {
	cancel context.CancelFunc
	calls  int
}

func (me *cancellingService) answer(_ context.Context, fileName string, offset int) ([]host.Location, error) {
	me.calls++
	me.cancel()
	return []host.Location{{FileName: fileName, Span: position.NewBasicPosition("_token_0", offset)}}, nil
}

func (me *cancellingService) Definition(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	return me.answer(ctx, fileName, offset)
}

func (me *cancellingService) References(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	return me.answer(ctx, fileName, offset)
}

func (me *cancellingService) RenameLocations(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	return me.answer(ctx, fileName, offset)
}

func TestVirtualCodeCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx)

	first, ok, err := f.language.VirtualCode(ctx, "/p/a.module.css")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, adapter.VirtualCodeID, first.ID)
	assert.Equal(t, adapter.LanguageIDTypeScript, first.LanguageID)
	assert.Len(t, first.Mappings, 6)

	again, _, err := f.language.VirtualCode(ctx, "/p/a.module.css")
	require.NoError(t, err)
	assert.Same(t, first, again, "unchanged snapshot reuses the code")

	f.host.Set("/p/a.module.css", "body { color: red; }")
	stale, _, err := f.language.VirtualCode(ctx, "/p/a.module.css")
	require.NoError(t, err)
	assert.NotSame(t, first, stale)
	assert.Equal(t, emit.EmptyModule, stale.Snapshot.Text())
	assert.Empty(t, stale.Mappings)

	snap, ok := f.language.Host(ctx).ScriptSnapshot("/p/a.module.css")
	require.True(t, ok)
	assert.Equal(t, emit.EmptyModule, snap.Text())

	_, ok, err = f.language.VirtualCode(ctx, "/p/app.ts")
	require.NoError(t, err)
	assert.False(t, ok, "scripts have no virtual code")

	snap, ok = f.language.Host(ctx).ScriptSnapshot("/p/app.ts")
	require.True(t, ok)
	assert.Equal(t, client, snap.Text())
}

func TestCSSModulePlugin(t *testing.T) {
	plugin := adapter.NewCSSModulePlugin(projection.NewDefaultProjector())

	id, ok := plugin.LanguageID("/p/a.module.css")
	assert.True(t, ok)
	assert.Equal(t, adapter.LanguageIDCSSModule, id)

	_, ok = plugin.LanguageID("/p/a.css")
	assert.False(t, ok)

	assert.Equal(t, []adapter.FileExtension{
		{Extension: "css", IsMixedContent: true, ScriptKind: adapter.ScriptKindTS},
	}, plugin.ExtraFileExtensions())

	code, err := plugin.CreateVirtualCode(context.Background(), "/p/a.module.css", adapter.LanguageIDCSSModule, host.NewStringSnapshot(".foo"))
	require.NoError(t, err)
	script := plugin.ServiceScript(code)
	assert.Equal(t, ".ts", script.Extension)
	assert.Equal(t, adapter.ScriptKindTS, script.ScriptKind)
	assert.Same(t, code, script.Code)

	code, err = plugin.CreateVirtualCode(context.Background(), "/p/a.scss", "scss", host.NewStringSnapshot(".foo"))
	require.NoError(t, err)
	assert.Nil(t, code)

	custom := adapter.NewCSSModulePlugin(projection.NewDefaultProjector(), ".module.css", ".module.scss", ".m.css")
	assert.Len(t, custom.ExtraFileExtensions(), 2)
}

func TestEscapedClassNames(t *testing.T) {
	ctx := context.Background()
	sheet := `.sm\:flex { } .sm\3A flex:hover { }`
	script := "import * as s from './e.module.css';\ns['sm:flex'];\ns['sm\\\\:flex'];"

	h := host.NewMapHost(map[string]string{
		"/p/e.module.css": sheet,
		"/p/app.ts":       script,
	})
	lang := adapter.NewLanguage(h, adapter.NewCSSModulePlugin(projection.NewProjector(extract.NewLexerExtractor())))
	svc := adapter.NewService(lang, tsindex.New(lang.Host(ctx)))

	code, ok, err := lang.VirtualCode(ctx, "/p/e.module.css")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, code.Snapshot.Text(), "as 'sm:flex'")
	assert.NotContains(t, code.Snapshot.Text(), `\\`)

	decoded := strings.Index(script, "sm:flex")
	got, err := svc.Definition(ctx, "/p/app.ts", decoded)
	require.NoError(t, err)
	assert.Equal(t, []string{`/p/e.module.css:sm\:flex@1`}, locs(got), "the decoded name reaches the stylesheet")

	got, err = svc.References(ctx, "/p/e.module.css", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		`/p/e.module.css:sm\:flex@1`,
		`/p/e.module.css:sm\3A flex@15`,
		"/p/app.ts:sm:flex@" + strconv.Itoa(decoded),
	}, locs(got))

	escaped := strings.Index(script, `sm\\:flex`)
	got, err = svc.Definition(ctx, "/p/app.ts", escaped)
	require.NoError(t, err)
	assert.Empty(t, got, "the escaped spelling is not a class name")
}
