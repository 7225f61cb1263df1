package language

import "unicode/utf8"

// minScriptRunes is the shortest text DetectScript will classify.
const minScriptRunes = 10

// ScriptCounts holds how many runes of a text fall in each script band.
// Total counts every rune, including ones in no band.
type ScriptCounts struct {
	Hiragana    int
	Katakana    int
	Ideographs  int
	Punctuation int // CJK symbols and punctuation, fullwidth forms
	ASCII       int // ASCII letters
	Total       int
}

// CountScripts tallies the runes of text by band.
func CountScripts(text string) ScriptCounts {
	c := ScriptCounts{Total: utf8.RuneCountInString(text)}
	for _, r := range text {
		switch {
		case r >= 0x3040 && r <= 0x309F:
			c.Hiragana++
		case r >= 0x30A0 && r <= 0x30FF:
			c.Katakana++
		case r >= 0x4E00 && r <= 0x9FFF:
			c.Ideographs++
		case r >= 0x3000 && r <= 0x303F, r >= 0xFF00 && r <= 0xFFEF:
			c.Punctuation++
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			c.ASCII++
		}
	}
	return c
}

// DetectScript guesses the bucket of text from the share of kana, CJK
// ideographs, and ASCII letters it contains. Ratios are taken over the full
// rune count, punctuation and spaces included. Texts shorter than ten runes
// are Unknown.
func DetectScript(text string) Code {
	c := CountScripts(text)
	if c.Total < minScriptRunes {
		return Unknown
	}

	kana := c.Hiragana + c.Katakana
	n := float64(c.Total)
	switch {
	case float64(kana)/n > 0.1:
		return Japanese
	case float64(c.Ideographs)/n > 0.3 && kana == 0:
		return Chinese
	case float64(c.ASCII)/n > 0.5:
		return English
	default:
		return Unknown
	}
}
