package graph

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "how": {}, "what": {}, "which": {}, "who": {},
	"are": {}, "is": {}, "does": {}, "do": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "into": {}, "about": {}, "can": {}, "you": {},
}

func terms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// termOverlap is the share of question terms that appear in text.
func termOverlap(question []string, text string) float64 {
	if len(question) == 0 {
		return 0
	}
	have := make(map[string]struct{})
	for _, t := range terms(text) {
		have[t] = struct{}{}
	}
	hits := 0
	for _, q := range question {
		if _, ok := have[q]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(question))
}

// rankTop returns the indexes of the k best scores, ties kept in input order.
func rankTop(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	if k > 0 && k < len(idx) {
		idx = idx[:k]
	}
	return idx
}
