package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
	fillerRegex         = buildFillerRegex()
)

// titleFillers are seller phrases that say nothing about which item is listed.
// Longer phrases come first so "brand new" is removed before "new".
var titleFillers = []string{
	"hard to find", "fast shipping", "free shipping", "ships fast",
	"brand new", "like new", "with box", "in box", "lot of",
	"new", "sealed", "mint", "condition", "authentic", "genuine", "official",
	"unopened", "bundle", "rare", "limited", "exclusive", "excellent",
	"great", "tested", "working", "nib", "nwt", "obo",
}

// titleStopWords are dropped when tokenizing normalized titles
var titleStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true,
}

func buildFillerRegex() *regexp.Regexp {
	quoted := make([]string, len(titleFillers))
	for i, f := range titleFillers {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// NormalizeTitle lowercases a title, strips seller filler and punctuation,
// and collapses whitespace.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	s := strings.ToLower(title)
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = fillerRegex.ReplaceAllString(s, " ")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokenize splits a normalized title into distinct tokens, skipping stop words
func tokenize(normalized string) []string {
	words := strings.Fields(normalized)

	tokens := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, word := range words {
		if titleStopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

// findIntersection returns the count of common tokens
func findIntersection(tokens1, tokens2 []string) int {
	set := make(map[string]bool, len(tokens1))
	for _, t := range tokens1 {
		set[t] = true
	}

	count := 0
	for _, t := range tokens2 {
		if set[t] {
			count++
		}
	}
	return count
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool, len(tokens1)+len(tokens2))
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}

// lcsLength returns the length of the longest common subsequence of two rune slices
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// sequenceRatio is 2*LCS/(|a|+|b|), a character-level similarity in [0, 1]
func sequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return 2 * float64(lcsLength(ra, rb)) / float64(total)
}
