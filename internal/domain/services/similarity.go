package services

import "strings"

// lcsLength computes the longest common subsequence length of two strings.
// Inputs are truncated to keep the DP table small; URL labels and page
// titles are short in practice.
func lcsLength(a, b string) int {
	const maxLen = 128
	if len(a) > maxLen {
		a = a[:maxLen]
	}
	if len(b) > maxLen {
		b = b[:maxLen]
	}

	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// lcsRatio is the similarity of two lowercased strings in [0,1]
func lcsRatio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if len(a)+len(b) == 0 {
		return 0
	}
	return 2 * float64(lcsLength(a, b)) / float64(len(a)+len(b))
}

// maxLabelSimilarity returns the highest similarity between label and any
// candidate different from it
func maxLabelSimilarity(label string, candidates []string) float64 {
	label = strings.ToLower(label)
	best := 0.0
	for _, c := range candidates {
		if c == "" || strings.EqualFold(c, label) {
			continue
		}
		if r := lcsRatio(label, c); r > best {
			best = r
		}
	}
	return best
}
