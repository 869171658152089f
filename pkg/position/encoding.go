package position

import (
	"strings"
	"unicode/utf8"

	"github.com/apparentlymart/go-textseg/v13/textseg"
	"gitlab.com/tozd/go/errors"
)

// Encoding is the unit offsets and columns are counted in.
type Encoding string

const (
	EncodingUTF8  Encoding = "utf-8"
	EncodingUTF16 Encoding = "utf-16"
)

var ErrUnknownEncoding = errors.Base("unknown offset encoding")

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "utf-16", "utf16":
		return EncodingUTF16, nil
	}
	return "", errors.Errorf("%q: %w", s, ErrUnknownEncoding)
}

// Converter translates byte offsets of a single text into another encoding and back.
type Converter struct {
	text     string
	encoding Encoding
}

func NewConverter(text string, encoding Encoding) *Converter {
	return &Converter{text: text, encoding: encoding}
}

// FromByteOffset converts a byte offset into the converter's unit. Offsets inside a multi-byte
// rune resolve to the end of that rune.
func (me *Converter) FromByteOffset(offset int) int {
	if me.encoding != EncodingUTF16 {
		return offset
	}
	units := 0
	for i, r := range me.text {
		if i >= offset {
			return units
		}
		units += utf16Len(r)
	}
	return units
}

// ToByteOffset converts an offset in the converter's unit into a byte offset.
func (me *Converter) ToByteOffset(offset int) int {
	if me.encoding != EncodingUTF16 {
		return offset
	}
	units := 0
	for i, r := range me.text {
		if units >= offset {
			return i
		}
		units += utf16Len(r)
	}
	return len(me.text)
}

// ByteOffsetOfPlace resolves a zero-based line and a character counted in the converter's
// unit to a byte offset.
func (me *Converter) ByteOffsetOfPlace(place Place) int {
	lineStart := NewRawPositionFromLineAndColumn(place.Line, 0, "", me.text).Offset
	lineEnd := strings.IndexByte(me.text[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(me.text)
	} else {
		lineEnd += lineStart
	}
	line := NewConverter(me.text[lineStart:lineEnd], me.encoding)
	return lineStart + line.ToByteOffset(place.Character)
}

// PlaceOf returns the zero-based line and the character counted in the converter's unit.
func (me *Converter) PlaceOf(offset int) Place {
	offset = clamp(offset, len(me.text))
	line, col := RawPosition{Offset: offset}.GetLineAndColumn(me.text)
	lineStart := offset - col
	lineText := me.text[lineStart:offset]
	return Place{Line: line, Character: NewConverter(lineText, me.encoding).FromByteOffset(len(lineText))}
}

func utf16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

// GraphemeColumn counts the user-perceived characters between the start of the line holding
// offset and offset itself. Used for human readable output where a column should match what
// an editor shows.
func GraphemeColumn(text string, offset int) (int, error) {
	offset = clamp(offset, len(text))
	_, col := RawPosition{Offset: offset}.GetLineAndColumn(text)
	count, err := textseg.TokenCount([]byte(text[offset-col:offset]), textseg.ScanGraphemeClusters)
	if err != nil {
		return 0, errors.Errorf("counting grapheme clusters: %w", err)
	}
	return count, nil
}

func clamp(offset, limit int) int {
	if offset < 0 {
		return 0
	}
	if offset > limit {
		return limit
	}
	return offset
}

// OffsetOfGraphemeColumn is the inverse of GraphemeColumn: it returns the byte offset of
// the col-th (zero-based) user-perceived character of a zero-based line. Columns past the
// end of the line clamp to the line end.
func OffsetOfGraphemeColumn(text string, line, col int) (int, error) {
	offset := NewRawPositionFromLineAndColumn(line, 0, "", text).Offset
	rest := []byte(text[offset:])
	for ; col > 0 && len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r'; col-- {
		advance, _, err := textseg.ScanGraphemeClusters(rest, true)
		if err != nil {
			return 0, errors.Errorf("scanning grapheme clusters: %w", err)
		}
		if advance == 0 {
			break
		}
		offset += advance
		rest = rest[advance:]
	}
	return offset, nil
}
