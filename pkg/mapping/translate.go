package mapping

// Filter selects the entries a translation may use.
type Filter func(Data) bool

// Navigation accepts entries eligible for definition, references and rename.
func Navigation(d Data) bool {
	return d.Navigation
}

// ToGenerated returns the generated offsets for sourceOffset, one per matching entry and in
// entry order. An offset outside every source span has no mapping and yields nil.
func (t Table) ToGenerated(sourceOffset int, filter Filter) []int {
	var out []int
	for _, e := range t {
		if !filter(e.Data) || !e.Source().Contains(sourceOffset) {
			continue
		}
		out = appendUnique(out, translate(sourceOffset, e.Source(), e.Generated()))
	}
	return out
}

// ToSource returns the source offsets for generatedOffset in entry order, so the first
// result belongs to the first occurrence of the name.
func (t Table) ToSource(generatedOffset int, filter Filter) []int {
	var out []int
	for _, e := range t {
		if !filter(e.Data) || !e.Generated().Contains(generatedOffset) {
			continue
		}
		out = appendUnique(out, translate(generatedOffset, e.Generated(), e.Source()))
	}
	return out
}

// SpanToSource maps a generated span whose both ends fall inside the same entry.
func (t Table) SpanToSource(span Span, filter Filter) []Span {
	var out []Span
	for _, e := range t {
		gen := e.Generated()
		if !filter(e.Data) || !gen.Contains(span.Offset) || !gen.Contains(span.End()) {
			continue
		}
		start := translate(span.Offset, gen, e.Source())
		end := translate(span.End(), gen, e.Source())
		out = appendUniqueSpan(out, Span{Offset: start, Length: end - start})
	}
	return out
}

// SpanToGenerated maps a source span whose both ends fall inside the same entry.
func (t Table) SpanToGenerated(span Span, filter Filter) []Span {
	var out []Span
	for _, e := range t {
		src := e.Source()
		if !filter(e.Data) || !src.Contains(span.Offset) || !src.Contains(span.End()) {
			continue
		}
		start := translate(span.Offset, src, e.Generated())
		end := translate(span.End(), src, e.Generated())
		out = appendUniqueSpan(out, Span{Offset: start, Length: end - start})
	}
	return out
}

// translate moves offset from one side of an entry to the other. The two sides may differ
// in length, so the end of one side always lands on the end of the other and offsets past
// the shorter side clamp to its end.
func translate(offset int, from, to Span) int {
	rel := offset - from.Offset
	if rel >= from.Length || rel > to.Length {
		return to.End()
	}
	return to.Offset + rel
}

func appendUnique(out []int, v int) []int {
	for _, o := range out {
		if o == v {
			return out
		}
	}
	return append(out, v)
}

func appendUniqueSpan(out []Span, v Span) []Span {
	for _, o := range out {
		if o == v {
			return out
		}
	}
	return append(out, v)
}
