package transliteration

import "testing"

func TestDetectScript(t *testing.T) {
	tests := []struct {
		input string
		want  Script
	}{
		{"salom", ScriptLatin},
		{"салом", ScriptCyrillic},
		{"Ўзбекистон", ScriptCyrillic},
		{"ҒҲҚЎ", ScriptCyrillic},
		{"12345", ScriptLatin},
		{"", ScriptLatin},
		{"!?.,", ScriptLatin},
		{"ab вг", ScriptLatin},
		{"a вг", ScriptCyrillic},
		{"Toshkent - Тошкент!", ScriptLatin},
	}
	for _, tt := range tests {
		got := DetectScript(tt.input)
		if got != tt.want {
			t.Errorf("DetectScript(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCountLetters(t *testing.T) {
	latin, cyrillic := CountLetters("Hi, Ўзбек 2024 ü")
	if latin != 2 || cyrillic != 5 {
		t.Errorf("CountLetters = (%d, %d), want (2, 5)", latin, cyrillic)
	}
}

func TestDirectionFor(t *testing.T) {
	if DirectionFor(ScriptLatin) != LatinToCyrillic {
		t.Error("Latin text should convert to Cyrillic")
	}
	if DirectionFor(ScriptCyrillic) != CyrillicToLatin {
		t.Error("Cyrillic text should convert to Latin")
	}
}
