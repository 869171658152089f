package position

import (
	"fmt"
	"strings"
)

// Place is a zero-based line and character pair.
type Place struct {
	Line      int
	Character int
}

type Range struct {
	Start Place
	End   Place
}

// RawPosition represents a span in some text.
type RawPosition struct {
	// Offset is the byte offset in the text
	Offset int
	// Text is the actual text covered by this span
	Text string
}

// ID returns a unique identifier for this position based on offset and text
func (p RawPosition) ID() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

// Length returns the length of the text at this position
func (p RawPosition) Length() int {
	return len(p.Text)
}

// End returns the offset directly after the span.
func (p RawPosition) End() int {
	return p.Offset + len(p.Text)
}

func NewBasicPosition(text string, offset int) RawPosition {
	return RawPosition{Text: text, Offset: offset}
}

// NewSpan slices text at [offset, offset+length) into a RawPosition. It returns false
// when the span falls outside of text.
func NewSpan(text string, offset, length int) (RawPosition, bool) {
	if offset < 0 || length < 0 || offset+length > len(text) {
		return RawPosition{}, false
	}
	return RawPosition{Text: text[offset : offset+length], Offset: offset}, true
}

// NewRawPositionFromLineAndColumn converts a zero-based line and byte column into a position.
// Lines past the end of the file clamp to the end of the text.
func NewRawPositionFromLineAndColumn(line, col int, text, fileText string) RawPosition {
	split := strings.Split(fileText, "\n")
	offset := 0
	for i := 0; i < line && i < len(split); i++ {
		offset += len(split[i]) + 1
	}
	offset += col
	if offset > len(fileText) {
		offset = len(fileText)
	}
	return RawPosition{Text: text, Offset: offset}
}

// Contains reports whether offset lies inside the span, counting the end boundary so that
// a cursor placed right after an identifier still addresses it.
func (p RawPosition) Contains(offset int) bool {
	return offset >= p.Offset && offset <= p.End()
}

func (p RawPosition) HasRangeOverlapWith(start RawPosition) bool {
	startOffset := start.Offset
	endOffset := startOffset + start.Length()

	posOffset := p.Offset
	posEndOffset := posOffset + p.Length()

	if p.Length() == 0 {
		return posOffset >= startOffset && posOffset <= endOffset
	}
	if start.Length() == 0 {
		return startOffset >= posOffset && startOffset <= posEndOffset
	}

	return startOffset < posEndOffset && endOffset > posOffset
}

// GetLineAndColumn calculates the line and column number for a given position in the text
// Returns zero-based line and column numbers, the column counted in bytes
func (p RawPosition) GetLineAndColumn(text string) (line, col int) {
	if p.Offset == 0 {
		return 0, 0
	}

	lastNewline := -1
	for i := 0; i < p.Offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}

	col = p.Offset - lastNewline - 1

	return line, col
}

func (p RawPosition) GetEndPosition() RawPosition {
	return RawPosition{
		Text:   "",
		Offset: p.Offset + p.Length(),
	}
}

// GetRange calculates the zero-based line/column range for a RawPosition
func (p RawPosition) GetRange(fileText string) Range {
	startLine, startCol := p.GetLineAndColumn(fileText)
	endLine, endCol := p.GetEndPosition().GetLineAndColumn(fileText)
	return Range{
		Start: Place{Line: startLine, Character: startCol},
		End:   Place{Line: endLine, Character: endCol},
	}
}

func (p RawPosition) String() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

type RawPositionArray []RawPosition

func (me RawPositionArray) ToStrings() []string {
	var texts []string
	for _, pos := range me {
		texts = append(texts, pos.String())
	}
	return texts
}

// Texts returns the text of every position in order.
func (me RawPositionArray) Texts() []string {
	texts := make([]string, 0, len(me))
	for _, pos := range me {
		texts = append(texts, pos.Text)
	}
	return texts
}
