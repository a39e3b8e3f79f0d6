package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowReset(t *testing.T) {
	tests := []struct {
		name   string
		window time.Duration
	}{
		{"minute", time.Minute},
		{"hour", time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2024, 11, 5, 12, 30, 17, 0, time.UTC)
			reset := windowReset(now, tt.window)

			windowSecs := int64(tt.window.Seconds())
			assert.True(t, reset.After(now))
			assert.LessOrEqual(t, reset.Sub(now), tt.window)
			// The reset lands exactly on the next bucket boundary, not a
			// full window after the request.
			assert.Zero(t, reset.Unix()%windowSecs)
		})
	}
}

func TestWindowReset_OnBoundary(t *testing.T) {
	now := time.Date(2024, 11, 5, 12, 30, 0, 0, time.UTC)
	reset := windowReset(now, time.Minute)

	assert.Equal(t, now.Add(time.Minute).Unix(), reset.Unix())
}
