package listing

import (
	"regexp"
	"sort"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// stopwords are common words excluded from derived keywords.
var stopwords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "its": {}, "has": {}, "are": {},
	"was": {}, "not": {}, "but": {}, "you": {}, "your": {},
	"very": {}, "good": {}, "great": {}, "condition": {}, "item": {},
}

// Tokenize splits text into lowercase tokens, filtering short tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Keywords derives search keywords from listing text, ranked by frequency.
// Stopwords and duplicates are dropped; at most limit keywords are returned.
func Keywords(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, token := range Tokenize(text) {
		if _, skip := stopwords[token]; skip {
			continue
		}
		if _, seen := counts[token]; !seen {
			order = append(order, token)
		}
		counts[token]++
	}
	// Stable rank: frequency first, then first appearance.
	firstSeen := make(map[string]int, len(order))
	for i, token := range order {
		firstSeen[token] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}
