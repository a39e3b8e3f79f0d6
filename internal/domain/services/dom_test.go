package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectDOMStats_NilDoc(t *testing.T) {
	stats := collectDOMStats(nil, "example.com")
	assert.Equal(t, "", stats.title)
	assert.Equal(t, 0, stats.requestTotal)
}

func TestCollectDOMStats_AnchorClassification(t *testing.T) {
	body := `<html><body>
		<a href="/about">About</a>
		<a href="https://example.com/pricing">Pricing</a>
		<a href="https://sub.example.com/docs">Docs</a>
		<a href="https://other.test/away">Away</a>
		<a href="#">Top</a>
		<a href="javascript:void(0)">Noop</a>
	</body></html>`

	stats := collectDOMStats(parseHTML(t, body), "example.com")

	assert.Equal(t, 3, stats.selfRefs, "relative and same-domain links are self")
	assert.Equal(t, 1, stats.externalRefs)
	assert.Equal(t, 2, stats.emptyRefs)
}

func TestCollectDOMStats_RequestRatio(t *testing.T) {
	body := `<html><body>
		<img src="/local.png">
		<img src="https://cdn.other.test/remote.png">
		<script src="//static.other.test/app.js"></script>
		<img src="data:image/png;base64,AAAA">
	</body></html>`

	stats := collectDOMStats(parseHTML(t, body), "example.com")

	assert.Equal(t, 3, stats.requestTotal, "data: URIs are not requests")
	assert.Equal(t, 2, stats.requestExternal)
}

func TestIsExternalRef(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"/relative/path", false},
		{"page.html", false},
		{"https://example.com/x", false},
		{"https://www.example.com/x", false},
		{"https://other.test/x", true},
		{"//cdn.other.test/x", true},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isExternalRef(tt.ref, "example.com"), "ref=%q", tt.ref)
	}
}

func TestHasCopyrightMarker(t *testing.T) {
	assert.True(t, hasCopyrightMarker("<footer>© 2024 Example Inc.</footer>"))
	assert.True(t, hasCopyrightMarker("<footer>&copy; Example</footer>"))
	assert.True(t, hasCopyrightMarker("Copyright Example"))
	assert.False(t, hasCopyrightMarker("<footer>All rights reserved</footer>"))
}

func TestHasSocialLinks(t *testing.T) {
	assert.True(t, hasSocialLinks(`<a href="https://facebook.com/example">fb</a>`))
	assert.False(t, hasSocialLinks(`<a href="https://example.com">home</a>`))
}
