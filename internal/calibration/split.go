package calibration

import (
	"strings"
	"unicode"
)

func isSentenceEnd(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?', '\n':
		return true
	}
	return false
}

// splitText cuts text into chunks of at most size runes, preferring to cut
// right after the last sentence end inside each window. Whitespace-only
// chunks are dropped.
func splitText(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := -1
		for i := end - 1; i >= start; i-- {
			if isSentenceEnd(runes[i]) {
				cut = i + 1
				break
			}
		}
		if cut == -1 {
			cut = end
		}
		chunks = append(chunks, string(runes[start:cut]))
		start = cut
	}

	kept := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			kept = append(kept, c)
		}
	}
	return kept
}

// lastSentence returns the last non-blank sentence of text.
func lastSentence(text string) string {
	runes := []rune(strings.TrimSpace(text))
	end := len(runes)
	for end > 0 {
		start := end - 1
		for start > 0 && !isSentenceEnd(runes[start-1]) {
			start--
		}
		s := strings.TrimSpace(string(runes[start:end]))
		if strings.TrimFunc(s, isSentenceEnd) != "" {
			return s
		}
		end = start
	}
	return ""
}

// keepSpacing surrounds text with the whitespace that led and trailed chunk,
// so chunks cut between sentences join back with their separators.
func keepSpacing(chunk, text string) string {
	lead := len(chunk) - len(strings.TrimLeftFunc(chunk, unicode.IsSpace))
	if lead == len(chunk) {
		return text
	}
	trail := len(chunk) - len(strings.TrimRightFunc(chunk, unicode.IsSpace))
	return chunk[:lead] + text + chunk[len(chunk)-trail:]
}
