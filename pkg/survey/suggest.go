package survey

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// suggestionThreshold filters out candidates too far from the query to be a
// plausible typo.
const suggestionThreshold = 0.5

// maxSuggestions caps how many near-miss column names an unknown-column
// error carries.
const maxSuggestions = 3

type columnMatch struct {
	name  string
	score float64
}

// suggestColumns ranks known column names by similarity to a mistyped query.
// It blends a global Levenshtein score with a token-wise score so that both
// near-exact names ("LangugeHaveWorkedWith") and keyword guesses
// ("languages worked") find their column.
func suggestColumns(query string, candidates []string) []string {
	if query == "" || len(candidates) == 0 {
		return nil
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenize(queryLower)

	var matches []columnMatch
	for _, name := range candidates {
		if name == "" {
			continue
		}
		score := similarityScore(queryLower, queryTokens, name)
		if score >= suggestionThreshold {
			matches = append(matches, columnMatch{name: name, score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})

	limit := maxSuggestions
	if len(matches) < limit {
		limit = len(matches)
	}
	names := make([]string, limit)
	for i := 0; i < limit; i++ {
		names[i] = matches[i].name
	}
	return names
}

// similarityScore returns a score between 0 and 1 combining substring,
// Levenshtein, and token-wise matching.
func similarityScore(queryLower string, queryTokens map[string]bool, candidate string) float64 {
	candidateLower := strings.ToLower(candidate)

	if queryLower == candidateLower {
		return 1.0
	}
	if strings.Contains(candidateLower, queryLower) {
		return 0.95
	}

	// Global Levenshtein, for near-exact column names with a typo.
	levDist := levenshtein.Distance(queryLower, candidateLower, nil)
	maxLen := float64(len(queryLower))
	if len(candidateLower) > int(maxLen) {
		maxLen = float64(len(candidateLower))
	}
	globalScore := 1.0 - (float64(levDist) / maxLen)
	if globalScore < 0 {
		globalScore = 0
	}

	// Token-wise best match, for keyword-style guesses against camelCase
	// column names. Tokenize the original name so case boundaries survive.
	candidateTokens := tokenize(candidate)
	totalTokenScore := 0.0
	for qToken := range queryTokens {
		bestTokenScore := 0.0
		if candidateTokens[qToken] {
			bestTokenScore = 1.0
		} else {
			for cToken := range candidateTokens {
				dist := levenshtein.Distance(qToken, cToken, nil)
				tMax := float64(len(qToken))
				if len(cToken) > int(tMax) {
					tMax = float64(len(cToken))
				}
				score := 1.0 - (float64(dist) / tMax)
				if score > bestTokenScore {
					bestTokenScore = score
				}
			}
		}
		totalTokenScore += bestTokenScore
	}
	tokenScore := 0.0
	if len(queryTokens) > 0 {
		tokenScore = totalTokenScore / float64(len(queryTokens))
	}

	return math.Max(globalScore, tokenScore)
}

// tokenize splits a string into unique lowercase tokens, breaking on
// non-alphanumeric characters and camelCase boundaries.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens[strings.ToLower(current.String())] = true
			current.Reset()
		}
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && current.Len() > 0 {
			flush()
		}
		current.WriteRune(r)
	}
	flush()
	return tokens
}
