package transliteration

import "strings"

// Span is a piece of tag-like markup cut out of the input. Offset is the
// byte position in the shielded working text where Text belongs.
type Span struct {
	Offset int
	Text   string
}

// Shield removes every "<...>" span from text, scanning left to right
// from each '<' to the next '>'. Spans do not nest. A '<' with no later
// '>' is left in place as ordinary text.
func Shield(text string) (string, []Span) {
	var (
		b     strings.Builder
		spans []Span
	)
	rest := text
	for {
		open := strings.IndexByte(rest, '<')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open+1:], '>')
		if end < 0 {
			break
		}
		closeAt := open + 1 + end

		b.WriteString(rest[:open])
		spans = append(spans, Span{Offset: b.Len(), Text: rest[open : closeAt+1]})
		rest = rest[closeAt+1:]
	}
	if len(spans) == 0 {
		return text, nil
	}
	b.WriteString(rest)
	return b.String(), spans
}

// Unshield splices spans back into the working text produced by Shield.
func Unshield(working string, spans []Span) string {
	return unshieldMap(working, spans, nil)
}

// unshieldMap rebuilds the text, passing every segment between spans
// through fn. Offsets always refer to the untransformed working text, so
// fn may change segment lengths freely.
func unshieldMap(working string, spans []Span, fn func(string) string) string {
	if fn == nil {
		fn = func(s string) string { return s }
	}
	if len(spans) == 0 {
		return fn(working)
	}

	var b strings.Builder
	b.Grow(len(working) + len(spans)*8)
	prev := 0
	for _, sp := range spans {
		off := min(max(sp.Offset, prev), len(working))
		b.WriteString(fn(working[prev:off]))
		b.WriteString(sp.Text)
		prev = off
	}
	b.WriteString(fn(working[prev:]))
	return b.String()
}
