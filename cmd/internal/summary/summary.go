// Package summary turns transcript text into a short summary.
package summary

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"
)

// ErrEmptyInput is returned for blank text.
var ErrEmptyInput = errors.New("summary: empty input")

// Transformer produces a summary for text.
type Transformer interface {
	Transform(ctx context.Context, text string) (string, error)
}

// DefaultSentences is how many sentences Extractive keeps when unset.
const DefaultSentences = 3

// Extractive keeps the highest scoring sentences, in their original order.
// A sentence scores the mean document frequency of its content words.
type Extractive struct {
	Sentences int
}

func (e Extractive) Transform(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	n := e.Sentences
	if n <= 0 {
		n = DefaultSentences
	}

	sentences := splitSentences(text)
	if len(sentences) <= n {
		return strings.Join(sentences, " "), nil
	}

	freq := make(map[string]int)
	tokenized := make([][]string, len(sentences))
	for i, s := range sentences {
		tokenized[i] = contentWords(s)
		for _, w := range tokenized[i] {
			freq[w]++
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, words := range tokenized {
		var total int
		for _, w := range words {
			total += freq[w]
		}
		var score float64
		if len(words) > 0 {
			score = float64(total) / float64(len(words))
		}
		ranked[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	keep := make([]int, 0, n)
	for _, r := range ranked[:n] {
		keep = append(keep, r.idx)
	}
	sort.Ints(keep)

	out := make([]string, len(keep))
	for i, idx := range keep {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

func splitSentences(text string) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return out
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "he": {}, "her": {}, "his": {},
	"i": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"she": {}, "so": {}, "that": {}, "the": {}, "their": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "we": {}, "were": {}, "will": {}, "with": {}, "you": {},
}

func contentWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
