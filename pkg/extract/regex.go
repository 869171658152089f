package extract

import (
	"context"
	"regexp"

	"github.com/walteh/gocssmods/pkg/position"
)

var classSelectorRegex = regexp.MustCompile(`\.([a-zA-Z0-9_-]+)`)

// RegexExtractor matches every `.name` run in the text, whatever its syntactic context.
// Property values such as `.5em` or `url(a.png)` are reported too.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

func (me *RegexExtractor) Extract(ctx context.Context, text string) (position.RawPositionArray, error) {
	matches := classSelectorRegex.FindAllStringSubmatchIndex(text, -1)
	occurrences := make(position.RawPositionArray, 0, len(matches))
	for _, m := range matches {
		occurrences = append(occurrences, position.NewBasicPosition(text[m[2]:m[3]], m[2]))
	}
	return occurrences, nil
}
