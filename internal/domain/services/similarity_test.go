package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLCSLength(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 0},
		{"abc", "abc", 3},
		{"paypal", "paypa1", 5},
		{"abcdef", "acf", 3},
		{"xyz", "abc", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lcsLength(tt.a, tt.b), "lcs(%q, %q)", tt.a, tt.b)
	}
}

func TestLCSRatio(t *testing.T) {
	assert.Equal(t, 0.0, lcsRatio("", ""))
	assert.Equal(t, 1.0, lcsRatio("paypal", "PayPal"))
	assert.InDelta(t, 10.0/12.0, lcsRatio("paypal", "paypa1"), 1e-9)
	assert.Equal(t, 0.0, lcsRatio("xyz", "abc"))
}

func TestMaxLabelSimilarity(t *testing.T) {
	candidates := []string{"google", "paypal", "amazon"}

	// Exact matches are skipped so a brand never impersonates itself.
	assert.Equal(t, 0.0, maxLabelSimilarity("paypal", []string{"paypal"}))

	got := maxLabelSimilarity("paypa1", candidates)
	assert.InDelta(t, 10.0/12.0, got, 1e-9)

	assert.Equal(t, 0.0, maxLabelSimilarity("qqqq", nil))
	assert.Equal(t, 0.0, maxLabelSimilarity("qqqq", []string{""}))
}
