package transliteration

import "unicode"

// Script is the orthography a piece of Uzbek text is written in.
type Script string

const (
	ScriptLatin    Script = "latin"
	ScriptCyrillic Script = "cyrillic"
)

const (
	cyrillicFirst = 0x0400
	cyrillicLast  = 0x04FF
)

// DetectScript classifies text by counting letters of each script.
// Cyrillic wins only with a strict majority; ties and text without
// letters are Latin.
func DetectScript(text string) Script {
	latin, cyrillic := CountLetters(text)
	if cyrillic > latin {
		return ScriptCyrillic
	}
	return ScriptLatin
}

// CountLetters returns the number of ASCII Latin letters and Cyrillic
// letters in text. Digits, punctuation, whitespace and letters of other
// scripts count toward neither.
func CountLetters(text string) (latin, cyrillic int) {
	for _, r := range text {
		switch {
		case isLatinLetter(r):
			latin++
		case isCyrillicLetter(r):
			cyrillic++
		}
	}
	return latin, cyrillic
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isCyrillicLetter(r rune) bool {
	return r >= cyrillicFirst && r <= cyrillicLast && unicode.IsLetter(r)
}
