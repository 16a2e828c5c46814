package app

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"review_insight/internal/domain"
)

// stopWords mirrors the usual English word-cloud stop list.
var stopWords = func() map[string]struct{} {
	words := strings.Fields(`a about above after again against all am an and any are as at be because been
before being below between both but by can could did do does doing down during each few for from
further had has have having he her here hers herself him himself his how i if in into is it its
itself just me more most my myself no nor not now of off on once only or other our ours ourselves
out over own same she should so some such than that the their theirs them themselves then there
these they this those through to too under until up very was we were what when where which while
who whom why will with would you your yours yourself yourselves ve ll re don didn doesn isn wasn
aren weren won wouldn shouldn couldn also get got`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// WordFrequencies returns the limit most frequent words across all non-empty
// review texts. ok is false when there is no text to count.
func WordFrequencies(reviews []domain.Review, limit int) (words []domain.WordCount, ok bool) {
	var sb strings.Builder
	for _, r := range reviews {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(r.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	counts := map[string]int{}
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, tok := range tokens {
		tok = strings.Trim(tok, "'")
		if i := strings.IndexByte(tok, '\''); i > 0 {
			tok = tok[:i] // don't -> don
		}
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		counts[tok]++
	}

	words = make([]domain.WordCount, 0, len(counts))
	for w, n := range counts {
		words = append(words, domain.WordCount{Word: w, Count: n})
	}
	sort.Slice(words, func(a, b int) bool {
		if words[a].Count != words[b].Count {
			return words[a].Count > words[b].Count
		}
		return words[a].Word < words[b].Word
	})
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words, true
}
