package transliteration

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Direction selects which script is the source of a conversion.
type Direction string

const (
	// Auto picks the direction from the detected script of the input.
	Auto            Direction = ""
	LatinToCyrillic Direction = "latin-to-cyrillic"
	CyrillicToLatin Direction = "cyrillic-to-latin"
)

var ErrUnknownDirection = errors.New("unknown direction")

func (d Direction) String() string {
	if d == Auto {
		return "auto"
	}
	return string(d)
}

// ParseDirection accepts the wire names of a direction. "" and "auto"
// both mean Auto.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case string(LatinToCyrillic):
		return LatinToCyrillic, nil
	case string(CyrillicToLatin):
		return CyrillicToLatin, nil
	default:
		return Auto, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

// DirectionFor returns the direction that converts text written in s
// into the other script.
func DirectionFor(s Script) Direction {
	if s == ScriptCyrillic {
		return CyrillicToLatin
	}
	return LatinToCyrillic
}

// Result describes one conversion.
type Result struct {
	Text      string
	Direction Direction
	// Detected is true when the direction came from DetectScript.
	Detected bool
	// Spans is the number of markup spans left untouched.
	Spans int
}

// Transliterate converts text between the Latin and Cyrillic Uzbek
// alphabets. With Auto the direction follows DetectScript. Tag-like
// "<...>" spans are copied verbatim and characters outside both tables
// pass through unchanged.
func Transliterate(text string, dir Direction) string {
	return TransliterateDetailed(text, dir).Text
}

// TransliterateDetailed is Transliterate with the resolved direction and
// span count reported alongside the output.
func TransliterateDetailed(text string, dir Direction) Result {
	res := Result{Direction: dir}
	if dir != LatinToCyrillic && dir != CyrillicToLatin {
		res.Direction = DirectionFor(DetectScript(text))
		res.Detected = true
	}

	working, spans := Shield(text)
	res.Spans = len(spans)

	convert := toLatin
	if res.Direction == LatinToCyrillic {
		convert = toCyrillic
	}
	res.Text = unshieldMap(working, spans, convert)
	return res
}

func toCyrillic(s string) string {
	if s == "" {
		return s
	}
	for _, g := range latinMulti {
		s = strings.ReplaceAll(s, g.src, g.dst)
	}

	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if dst, ok := latinRunes[r]; ok {
			b.WriteString(dst)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toLatin(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		dst, ok := cyrillicRunes[r]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if utf8.RuneCountInString(dst) > 1 && unicode.IsUpper(r) && upperContext(runes, i) {
			dst = strings.ToUpper(dst)
		}
		b.WriteString(dst)
	}
	return b.String()
}

// upperContext reports whether the letter at i sits in an all-caps run:
// the next rune decides when it is a letter, otherwise the previous one.
func upperContext(runes []rune, i int) bool {
	if i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
		return unicode.IsUpper(runes[i+1])
	}
	if i > 0 && unicode.IsLetter(runes[i-1]) {
		return unicode.IsUpper(runes[i-1])
	}
	return false
}
