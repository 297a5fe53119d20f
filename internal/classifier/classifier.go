
package classifier

import (
	"sort"
	"strings"
	"unicode"

	"cron-shell/internal/models"
)

// simple stopword list (extend as needed)
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "a": {}, "for": {}, "is": {}, "on": {}, "with": {}, "as": {},
	"by": {}, "at": {}, "from": {}, "that": {}, "this": {}, "it": {}, "an": {}, "be": {}, "or": {}, "are": {}, "was": {},
	"will": {}, "has": {}, "have": {}, "had": {}, "but": {}, "not": {}, "your": {}, "you": {}, "we": {}, "our": {},
	"how": {}, "what": {}, "why": {}, "who": {}, "can": {}, "about": {}, "just": {},
}

// Topics returns the n most frequent keywords across the post texts,
// ignoring stopwords and tokens shorter than three characters. Ties are
// broken alphabetically.
func Topics(posts []models.Item, n int) []string {
	freq := map[string]int{}
	token := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) }
	for _, p := range posts {
		for _, w := range strings.FieldsFunc(strings.ToLower(p.Text), token) {
			if len([]rune(w)) < 3 {
				continue
			}
			if _, stop := stopwords[w]; stop {
				continue
			}
			freq[w]++
		}
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] == freq[words[j]] {
			return words[i] < words[j]
		}
		return freq[words[i]] > freq[words[j]]
	})
	if n < len(words) {
		words = words[:n]
	}
	return words
}
