// Package summary builds the extractive summary used to pre-fill minutes of meeting.
//
// The summary is made of the leading sentences of a transcription, cut to a
// character budget. Lengths are counted in code points, not bytes, so a
// multi-byte character costs the same as an ASCII one.
package summary

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxSentences is the number of leading sentences considered.
	DefaultMaxSentences = 3
	// DefaultMaxChars is the character budget of a summary.
	DefaultMaxChars = 300

	ellipsis = "..."

	// A sentence that overflows the budget is only truncated when more than
	// this many characters remain.
	minTruncationRoom = 10
)

// Options configures a Generator.
type Options struct {
	MaxSentences int
	MaxChars     int
}

// Generator summarizes text with fixed limits.
type Generator struct {
	maxSentences int
	maxChars     int
}

// NewGenerator returns a Generator. Non-positive limits fall back to the defaults.
func NewGenerator(opts Options) *Generator {
	g := &Generator{
		maxSentences: opts.MaxSentences,
		maxChars:     opts.MaxChars,
	}
	if g.maxSentences <= 0 {
		g.maxSentences = DefaultMaxSentences
	}
	if g.maxChars <= 0 {
		g.maxChars = DefaultMaxChars
	}
	return g
}

// Summarize applies the generator limits to text.
func (g *Generator) Summarize(text string) string {
	return Summarize(text, g.maxSentences, g.maxChars)
}

// Summarize returns up to maxSentences leading sentences of text, joined by
// single spaces, within maxChars characters.
//
// A sentence that does not fit is truncated with "..." when more than ten
// characters of budget remain, and the summary ends there. When not even the
// first sentence makes it in, the whole text is cut to maxChars instead.
func Summarize(text string, maxSentences, maxChars int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	sentences := SplitSentences(text)
	if maxSentences < 0 {
		maxSentences = 0
	}
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}

	parts := make([]string, 0, len(sentences))
	used := 0
	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)
		if used+n <= maxChars {
			parts = append(parts, sentence)
			used += n + 1 // joining space
			continue
		}

		remaining := maxChars - used
		if remaining > minTruncationRoom {
			parts = append(parts, prefix(sentence, remaining-len(ellipsis))+ellipsis)
		}
		break
	}

	if len(parts) == 0 {
		return cut(text, maxChars)
	}
	return strings.Join(parts, " ")
}

// SplitSentences splits trimmed text after '.', '!' or '?' when followed by
// whitespace. Terminators stay with their sentence and the whitespace run
// between sentences is dropped.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	prev := rune(0)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) && isTerminator(prev) {
			sentences = append(sentences, text[start:i])
			j := i
			for j < len(text) {
				r2, size2 := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += size2
			}
			start = j
			i = j
			prev = 0
			continue
		}
		prev = r
		i += size
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// cut is the fallback used when no sentence fits.
func cut(text string, maxChars int) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return prefix(text, maxChars-len(ellipsis)) + ellipsis
}

// prefix returns the first n runes of s. A negative n yields "".
func prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
