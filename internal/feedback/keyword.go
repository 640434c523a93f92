package feedback

import (
	"sort"
	"strings"
)

// stopwords excluded from keyword overlap so "the" and "is" don't
// inflate scores.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"in": true, "is": true, "it": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true,
	"with": true,
}

// analyzeByKeywords scores a response by token overlap with each
// reference answer. It is the deterministic offline fallback when no
// embedding provider is configured; scores are comparable to cosine
// similarity in that they live in [0, 1].
func analyzeByKeywords(text string, refs []string) Analysis {
	responseTokens := tokenize(text)
	if len(responseTokens) == 0 {
		return Analysis{Score: 0.0}
	}

	type scored struct {
		index   int
		overlap float64
	}
	results := make([]scored, 0, len(refs))
	for i, ref := range refs {
		results = append(results, scored{index: i, overlap: overlap(responseTokens, tokenize(ref))})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].overlap > results[j].overlap
	})

	analysis := Analysis{Score: results[0].overlap}
	for _, r := range results[:min(3, len(results))] {
		if r.overlap > matchThreshold {
			analysis.BestMatches = append(analysis.BestMatches, refs[r.index])
		}
	}
	return analysis
}

// tokenize lowercases, strips punctuation, and drops stopwords.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		})
		if len(word) < 2 || stopwords[word] {
			continue
		}
		tokens[word] = true
	}
	return tokens
}

// overlap is the fraction of reference tokens present in the response.
func overlap(response, ref map[string]bool) float64 {
	if len(ref) == 0 {
		return 0
	}
	shared := 0
	for token := range ref {
		if response[token] {
			shared++
		}
	}
	return float64(shared) / float64(len(ref))
}
