// Package chunker splits extracted source text into bounded retrieval units.
// Both splitters are pure functions of their input.
package chunker

import "strings"

// SplitFixed splits text into units of at most size characters, each unit
// starting overlap characters before the previous unit's end. With overlap 0
// the units are strictly sequential and concatenate back to the input.
func SplitFixed(text string, size, overlap int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	step := size - overlap
	runes := []rune(text)

	var units []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		units = append(units, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return units
}

// SplitSentences splits text at sentence boundaries (., !, ? followed by
// whitespace), accumulating sentences until maxLen is reached, then closing
// the unit and starting a new one. A sentence is never split across units;
// a single sentence longer than maxLen becomes a unit of its own.
func SplitSentences(text string, maxLen int) []string {
	sentences := splitIntoSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var units []string
	var current strings.Builder

	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxLen {
			units = append(units, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		units = append(units, current.String())
	}
	return units
}

// splitIntoSentences cuts text after sentence-final punctuation that is
// followed by whitespace. Trailing text without a terminator is kept as a
// final sentence.
func splitIntoSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && isSpace(text[i+1]) {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
