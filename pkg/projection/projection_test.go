package projection_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gocssmods/pkg/emit"
	"github.com/walteh/gocssmods/pkg/extract"
	"github.com/walteh/gocssmods/pkg/mapping"
	"github.com/walteh/gocssmods/pkg/position"
	"github.com/walteh/gocssmods/pkg/projection"
)

func TestProjectStylesheets(t *testing.T) {
	ctx := context.Background()
	projector := projection.NewDefaultProjector()

	t.Run("two selectors", func(t *testing.T) {
		source := ".foo { } .bar { }"
		proj, err := projector.Project(ctx, source)
		require.NoError(t, err)

		assert.Len(t, proj.Occurrences, 2)
		assert.Equal(t, 2, proj.Symbols.Len())
		assert.Contains(t, proj.Virtual.Content, "as 'foo'")
		assert.Contains(t, proj.Virtual.Content, "as 'bar'")

		barOffset := strings.Index(source, "bar")
		generated := proj.Mappings.ToGenerated(barOffset, mapping.Navigation)
		require.Len(t, generated, 2)
		assert.Equal(t, "bar", proj.Virtual.Content[generated[1]:generated[1]+3], "position on bar reaches the bar alias")
		assert.Equal(t, emit.SyntheticName(1), proj.Virtual.Content[generated[0]:generated[0]+len(emit.SyntheticName(1))])
	})

	t.Run("duplicate selector", func(t *testing.T) {
		proj, err := projector.Project(ctx, ".foo .foo")
		require.NoError(t, err)

		assert.Len(t, proj.Occurrences, 2)
		assert.Equal(t, 1, proj.Symbols.Len())
		assert.Equal(t, 1, strings.Count(proj.Virtual.Content, "declare var "))
	})

	t.Run("no selectors", func(t *testing.T) {
		proj, err := projector.Project(ctx, "body { color: red; }")
		require.NoError(t, err)

		assert.Equal(t, emit.EmptyModule, proj.Virtual.Content)
		assert.Empty(t, proj.Mappings)
	})

	t.Run("definition site is the first occurrence", func(t *testing.T) {
		proj, err := projector.Project(ctx, ".foo .bar .foo")
		require.NoError(t, err)

		decl := proj.Virtual.Declarations[0]
		nameOffset := decl.Offset + strings.Index(decl.Text, emit.SyntheticName(0))
		sources := proj.Mappings.ToSource(nameOffset, mapping.Navigation)
		require.NotEmpty(t, sources)
		assert.Equal(t, 1, sources[0])
	})
}

func TestProjectIsDeterministic(t *testing.T) {
	ctx := context.Background()
	source := ".card { } .card-title { } .card:hover .icon { } .card { }"

	for _, kind := range extract.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			ex, err := extract.New(kind)
			require.NoError(t, err)
			projector := projection.NewProjector(ex)

			first, err := projector.Project(ctx, source)
			require.NoError(t, err)
			second, err := projector.Project(ctx, source)
			require.NoError(t, err)

			assert.Equal(t, first.Virtual.Content, second.Virtual.Content)
			assert.Equal(t, first.Mappings, second.Mappings)
		})
	}
}

func TestProjectDeduplicatesSpellings(t *testing.T) {
	proj, err := projection.NewDefaultProjector().Project(context.Background(), ".a .b .a .c .b .a")
	require.NoError(t, err)

	for _, o1 := range proj.Occurrences {
		for _, o2 := range proj.Occurrences {
			if o1.Text != o2.Text {
				continue
			}
			i1, _ := proj.Symbols.Index(o1.Text)
			i2, _ := proj.Symbols.Index(o2.Text)
			assert.Equal(t, i1, i2)
		}
	}

	for i := 0; i < proj.Symbols.Len(); i++ {
		assert.Equal(t, 1, strings.Count(proj.Virtual.Content, "declare var "+emit.SyntheticName(i)+":"))
	}
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, string) (position.RawPositionArray, error) {
	return nil, assert.AnError
}

func TestProjectExtractorError(t *testing.T) {
	_, err := projection.NewProjector(failingExtractor{}).Project(context.Background(), ".foo")
	require.ErrorIs(t, err, assert.AnError)
}
