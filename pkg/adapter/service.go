package adapter

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/gocssmods/pkg/host"
	"github.com/walteh/gocssmods/pkg/mapping"
	"github.com/walteh/gocssmods/pkg/position"
)

type query func(ctx context.Context, fileName string, offset int) ([]host.Location, error)

// Service decorates a service running over Language.Host so that callers address foreign
// files by their own offsets and receive results in the same terms.
type Service struct {
	language *Language
	inner    host.Service
}

var _ host.Service = (*Service)(nil)

func NewService(language *Language, inner host.Service) *Service {
	return &Service{language: language, inner: inner}
}

// Definition keeps only the first source span of each mapped result, which is the first
// occurrence of the class name.
func (me *Service) Definition(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	return me.run(ctx, "definition", fileName, offset, me.inner.Definition, true)
}

func (me *Service) References(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	return me.run(ctx, "references", fileName, offset, me.inner.References, false)
}

func (me *Service) RenameLocations(ctx context.Context, fileName string, offset int) ([]host.Location, error) {
	return me.run(ctx, "rename", fileName, offset, me.inner.RenameLocations, false)
}

func (me *Service) run(ctx context.Context, name, fileName string, offset int, q query, firstOnly bool) ([]host.Location, error) {
	logger := zerolog.Ctx(ctx).With().Str("query", name).Str("file", fileName).Int("offset", offset).Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	offsets, err := me.toGenerated(ctx, fileName, offset)
	if err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		logger.Trace().Msg("offset is not mapped")
		return nil, nil
	}

	var raw []host.Location
	for _, generated := range offsets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		locs, err := q(ctx, fileName, generated)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw = append(raw, locs...)
	}

	out, err := me.toSource(ctx, raw, firstOnly)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug().Ints("generated_offsets", offsets).Int("raw", len(raw)).Int("results", len(out)).Msg("translated query")
	return out, nil
}

func (me *Service) toGenerated(ctx context.Context, fileName string, offset int) ([]int, error) {
	code, foreign, err := me.language.VirtualCode(ctx, fileName)
	if err != nil {
		return nil, err
	}
	if !foreign {
		return []int{offset}, nil
	}
	return code.Mappings.ToGenerated(offset, mapping.Navigation), nil
}

func (me *Service) toSource(ctx context.Context, raw []host.Location, firstOnly bool) ([]host.Location, error) {
	seen := map[host.Location]bool{}
	var out []host.Location
	add := func(loc host.Location) {
		if seen[loc] {
			return
		}
		seen[loc] = true
		out = append(out, loc)
	}

	for _, loc := range raw {
		code, foreign, err := me.language.VirtualCode(ctx, loc.FileName)
		if err != nil {
			return nil, err
		}
		if !foreign {
			add(loc)
			continue
		}

		spans := code.Mappings.SpanToSource(mapping.Span{Offset: loc.Span.Offset, Length: loc.Span.Length()}, mapping.Navigation)
		if firstOnly && len(spans) > 1 {
			spans = spans[:1]
		}
		for _, span := range spans {
			pos, ok := position.NewSpan(code.Source.Text(), span.Offset, span.Length)
			if !ok {
				continue
			}
			add(host.Location{FileName: loc.FileName, Span: pos})
		}
	}
	return out, nil
}
