package transliteration

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		dir       Direction
		candidate string
		want      string
		ok        bool
	}{
		{LatinToCyrillic, "sh", "ш", true},
		{LatinToCyrillic, "Sh", "Ш", true},
		{LatinToCyrillic, "SH", "Ш", true},
		{LatinToCyrillic, "o'", "ў", true},
		{LatinToCyrillic, "G'", "Ғ", true},
		{LatinToCyrillic, "'", "ъ", true},
		{LatinToCyrillic, "q", "қ", true},
		{LatinToCyrillic, "sH", "", false},
		{LatinToCyrillic, "7", "", false},
		{CyrillicToLatin, "ш", "sh", true},
		{CyrillicToLatin, "Ғ", "G'", true},
		{CyrillicToLatin, "ъ", "'", true},
		{CyrillicToLatin, "ш", "sh", true},
		{CyrillicToLatin, "sh", "", false},
		{Auto, "a", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.dir, tt.candidate)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%s, %q) = (%q, %v), want (%q, %v)", tt.dir, tt.candidate, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCyrillicTableIsSingleRune(t *testing.T) {
	for src := range cyrillicToLatin {
		if len([]rune(src)) != 1 {
			t.Errorf("Cyrillic source %q has more than one rune", src)
		}
	}
}

func TestDigraphOrder(t *testing.T) {
	order := Digraphs()
	index := make(map[string]int, len(order))
	for i, d := range order {
		index[d] = i
	}

	// Apostrophe letters run before any two-letter digraph.
	if index["o'"] > index["yo"] || index["o'"] > index["Yo"] || index["o'"] > index["YO"] {
		t.Error("o' must be replaced before the yo digraphs")
	}
	for _, base := range []string{"sh", "ch", "yo", "yu", "ya"} {
		upper, title := strings.ToUpper(base), strings.ToUpper(base[:1])+base[1:]
		if !(index[upper] < index[title] && index[title] < index[base]) {
			t.Errorf("%s forms out of order: %d %d %d", base, index[upper], index[title], index[base])
		}
	}
}

func TestMustBuildPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("mustBuild did not panic on a duplicate key")
		}
	}()
	mustBuild("test", []grapheme{{"sh", "ш"}}, []grapheme{{"sh", "щ"}})
}

func TestMustBuildPanicsOnEmptySource(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("mustBuild did not panic on an empty key")
		}
	}()
	mustBuild("test", []grapheme{{"", "ш"}})
}

func TestMustRuneIndexPanicsOnMultiRune(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("mustRuneIndex did not panic on a digraph")
		}
	}()
	mustRuneIndex([]grapheme{{"sh", "ш"}})
}
