package transliteration

import (
	"fmt"
	"unicode/utf8"
)

type grapheme struct {
	src string
	dst string
}

// Multi-character Latin graphemes in first-pass order. The apostrophe
// letters go first so that "yo'l" becomes "йўл" rather than "ё'л".
// Within the digraphs, uppercase forms precede capitalized ones, which
// precede lowercase ones.
var latinMulti = []grapheme{
	{"o'", "ў"}, {"O'", "Ў"},
	{"g'", "ғ"}, {"G'", "Ғ"},
	{"oʻ", "ў"}, {"Oʻ", "Ў"},
	{"gʻ", "ғ"}, {"Gʻ", "Ғ"},
	{"o’", "ў"}, {"O’", "Ў"},
	{"g’", "ғ"}, {"G’", "Ғ"},

	{"SH", "Ш"}, {"CH", "Ч"}, {"YO", "Ё"}, {"YU", "Ю"}, {"YA", "Я"},
	{"Sh", "Ш"}, {"Ch", "Ч"}, {"Yo", "Ё"}, {"Yu", "Ю"}, {"Ya", "Я"},
	{"sh", "ш"}, {"ch", "ч"}, {"yo", "ё"}, {"yu", "ю"}, {"ya", "я"},
}

var latinSingle = []grapheme{
	{"a", "а"}, {"b", "б"}, {"c", "ц"}, {"d", "д"}, {"e", "е"},
	{"f", "ф"}, {"g", "г"}, {"h", "ҳ"}, {"i", "и"}, {"j", "ж"},
	{"k", "к"}, {"l", "л"}, {"m", "м"}, {"n", "н"}, {"o", "о"},
	{"p", "п"}, {"q", "қ"}, {"r", "р"}, {"s", "с"}, {"t", "т"},
	{"u", "у"}, {"v", "в"}, {"x", "х"}, {"y", "й"}, {"z", "з"},

	{"A", "А"}, {"B", "Б"}, {"C", "Ц"}, {"D", "Д"}, {"E", "Е"},
	{"F", "Ф"}, {"G", "Г"}, {"H", "Ҳ"}, {"I", "И"}, {"J", "Ж"},
	{"K", "К"}, {"L", "Л"}, {"M", "М"}, {"N", "Н"}, {"O", "О"},
	{"P", "П"}, {"Q", "Қ"}, {"R", "Р"}, {"S", "С"}, {"T", "Т"},
	{"U", "У"}, {"V", "В"}, {"X", "Х"}, {"Y", "Й"}, {"Z", "З"},

	{"'", "ъ"},
}

// Uppercase letters map to the capitalized Latin form; the engine widens
// it to all caps when the neighbouring letters are uppercase.
var cyrillicSingle = []grapheme{
	{"а", "a"}, {"б", "b"}, {"в", "v"}, {"г", "g"}, {"д", "d"},
	{"е", "e"}, {"ё", "yo"}, {"ж", "j"}, {"з", "z"}, {"и", "i"},
	{"й", "y"}, {"к", "k"}, {"л", "l"}, {"м", "m"}, {"н", "n"},
	{"о", "o"}, {"п", "p"}, {"р", "r"}, {"с", "s"}, {"т", "t"},
	{"у", "u"}, {"ф", "f"}, {"х", "x"}, {"ц", "ts"}, {"ч", "ch"},
	{"ш", "sh"}, {"ъ", "'"}, {"ь", ""}, {"э", "e"}, {"ю", "yu"},
	{"я", "ya"}, {"ў", "o'"}, {"қ", "q"}, {"ғ", "g'"}, {"ҳ", "h"},

	{"А", "A"}, {"Б", "B"}, {"В", "V"}, {"Г", "G"}, {"Д", "D"},
	{"Е", "E"}, {"Ё", "Yo"}, {"Ж", "J"}, {"З", "Z"}, {"И", "I"},
	{"Й", "Y"}, {"К", "K"}, {"Л", "L"}, {"М", "M"}, {"Н", "N"},
	{"О", "O"}, {"П", "P"}, {"Р", "R"}, {"С", "S"}, {"Т", "T"},
	{"У", "U"}, {"Ф", "F"}, {"Х", "X"}, {"Ц", "Ts"}, {"Ч", "Ch"},
	{"Ш", "Sh"}, {"Ъ", "'"}, {"Ь", ""}, {"Э", "E"}, {"Ю", "Yu"},
	{"Я", "Ya"}, {"Ў", "O'"}, {"Қ", "Q"}, {"Ғ", "G'"}, {"Ҳ", "H"},
}

var (
	latinToCyrillic = mustBuild("latin-to-cyrillic", latinMulti, latinSingle)
	cyrillicToLatin = mustBuild("cyrillic-to-latin", cyrillicSingle)

	latinRunes    = mustRuneIndex(latinSingle)
	cyrillicRunes = mustRuneIndex(cyrillicSingle)
)

// mustBuild merges the given tables into one lookup map and panics on a
// repeated source grapheme.
func mustBuild(name string, tables ...[]grapheme) map[string]string {
	m := make(map[string]string)
	for _, table := range tables {
		if err := addAll(m, table); err != nil {
			panic(fmt.Sprintf("transliteration: %s table: %v", name, err))
		}
	}
	return m
}

func addAll(m map[string]string, table []grapheme) error {
	for _, g := range table {
		if g.src == "" {
			return fmt.Errorf("empty source grapheme (target %q)", g.dst)
		}
		if _, dup := m[g.src]; dup {
			return fmt.Errorf("duplicate source grapheme %q", g.src)
		}
		m[g.src] = g.dst
	}
	return nil
}

// mustRuneIndex keys a single-character table by rune for the per-rune
// pass.
func mustRuneIndex(table []grapheme) map[rune]string {
	m := make(map[rune]string, len(table))
	for _, g := range table {
		r, size := utf8.DecodeRuneInString(g.src)
		if size != len(g.src) {
			panic(fmt.Sprintf("transliteration: %q is not a single rune", g.src))
		}
		m[r] = g.dst
	}
	return m
}

// Lookup returns the target grapheme for candidate in the given
// direction. Auto has no table and never matches.
func Lookup(dir Direction, candidate string) (string, bool) {
	var table map[string]string
	switch dir {
	case LatinToCyrillic:
		table = latinToCyrillic
	case CyrillicToLatin:
		table = cyrillicToLatin
	default:
		return "", false
	}
	dst, ok := table[candidate]
	return dst, ok
}

// Digraphs returns the multi-character Latin graphemes in the order the
// first substitution pass applies them.
func Digraphs() []string {
	out := make([]string, len(latinMulti))
	for i, g := range latinMulti {
		out[i] = g.src
	}
	return out
}
