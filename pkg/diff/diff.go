// Package diff previews edits before they are written.
package diff

import (
	"sort"
	"strings"

	"github.com/kylelemons/godebug/diff"
	"github.com/walteh/gocssmods/pkg/position"
	"gitlab.com/tozd/go/errors"
)

var ErrOverlappingSpans = errors.Base("spans overlap")

// Apply replaces every span of text with replacement. Spans may come in any order but
// must not overlap and must lie inside text. An empty span touching another counts as
// overlapping.
func Apply(text string, spans position.RawPositionArray, replacement string) (string, error) {
	sorted := make(position.RawPositionArray, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	var sb strings.Builder
	last := 0
	for i, span := range sorted {
		if i > 0 && sorted[i-1].HasRangeOverlapWith(span) {
			return "", errors.Errorf("%s and %s: %w", sorted[i-1], span, ErrOverlappingSpans)
		}
		if span.End() > len(text) || text[span.Offset:span.End()] != span.Text {
			return "", errors.Errorf("span %s does not match the text", span)
		}
		sb.WriteString(text[last:span.Offset])
		sb.WriteString(replacement)
		last = span.End()
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}

// Preview renders the line diff from before to after. Removed lines start with ➖ and
// added lines with ➕. Equal texts produce an empty preview.
func Preview(before, after string) string {
	if before == after {
		return ""
	}
	str := diff.Diff(before, after)
	str = "\n" + str
	str = strings.ReplaceAll(strings.ReplaceAll(str, "\n-", "\n➖"), "\n+", "\n➕")
	return strings.TrimPrefix(str, "\n")
}
