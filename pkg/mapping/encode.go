package mapping

import (
	"github.com/walteh/gocssmods/pkg/position"
)

// CodeMapping is the columnar form hosts consume: parallel offset and length arrays
// sharing one Data value.
type CodeMapping struct {
	SourceOffsets    []int `json:"sourceOffsets"`
	GeneratedOffsets []int `json:"generatedOffsets"`
	Lengths          []int `json:"lengths"`
	GeneratedLengths []int `json:"generatedLengths"`
	Data             Data  `json:"data"`
}

// CodeMappings groups entries by Data, keeping entry order inside every group and
// ordering groups by first appearance.
func (t Table) CodeMappings() []CodeMapping {
	out := make([]CodeMapping, 0, 1)
	groups := map[Data]int{}
	for _, e := range t {
		idx, ok := groups[e.Data]
		if !ok {
			idx = len(out)
			groups[e.Data] = idx
			out = append(out, CodeMapping{
				SourceOffsets:    []int{},
				GeneratedOffsets: []int{},
				Lengths:          []int{},
				GeneratedLengths: []int{},
				Data:             e.Data,
			})
		}
		cm := &out[idx]
		cm.SourceOffsets = append(cm.SourceOffsets, e.SourceOffset)
		cm.Lengths = append(cm.Lengths, e.SourceLength)
		cm.GeneratedOffsets = append(cm.GeneratedOffsets, e.GeneratedOffset)
		cm.GeneratedLengths = append(cm.GeneratedLengths, e.GeneratedLength)
	}
	return out
}

// Encode re-expresses the byte offsets of the table in encoding. The texts are the ones
// the table was built from.
func (t Table) Encode(sourceText, generatedText string, encoding position.Encoding) Table {
	if encoding != position.EncodingUTF16 {
		return t
	}

	src := position.NewConverter(sourceText, encoding)
	gen := position.NewConverter(generatedText, encoding)

	out := make(Table, 0, len(t))
	for _, e := range t {
		srcStart := src.FromByteOffset(e.SourceOffset)
		genStart := gen.FromByteOffset(e.GeneratedOffset)
		out = append(out, Entry{
			SourceOffset:    srcStart,
			SourceLength:    src.FromByteOffset(e.SourceOffset+e.SourceLength) - srcStart,
			GeneratedOffset: genStart,
			GeneratedLength: gen.FromByteOffset(e.GeneratedOffset+e.GeneratedLength) - genStart,
			Data:            e.Data,
		})
	}
	return out
}
