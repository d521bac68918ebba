package assist

import (
	"strings"
	"unicode"
)

// similarityThreshold is the Dice coefficient above which two generated
// texts count as duplicates.
const similarityThreshold = 0.82

// diceSimilarity computes the Sorensen-Dice coefficient over letter bigrams.
// Case and punctuation are ignored so trivially reworded variants still
// match.
func diceSimilarity(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 && len(bb) == 0 {
		return 1
	}
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(ba))
	for _, g := range ba {
		counts[g]++
	}
	overlap := 0
	for _, g := range bb {
		if counts[g] > 0 {
			counts[g]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ba)+len(bb))
}

func bigrams(s string) []string {
	var letters []rune
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters = append(letters, r)
		}
	}
	if len(letters) < 2 {
		return nil
	}
	grams := make([]string, 0, len(letters)-1)
	for i := 0; i < len(letters)-1; i++ {
		grams = append(grams, string(letters[i:i+2]))
	}
	return grams
}

// tooSimilar reports whether candidate is a near-duplicate of any accepted
// text.
func tooSimilar(candidate string, accepted []string) bool {
	for _, a := range accepted {
		if diceSimilarity(candidate, a) >= similarityThreshold {
			return true
		}
	}
	return false
}
