package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		sinceLast time.Duration
		minDelay  time.Duration
		allowed   bool
		remaining time.Duration
	}{
		{
			name:      "rejected with remaining wait",
			sinceLast: 5 * time.Minute,
			minDelay:  15 * time.Minute,
			allowed:   false,
			remaining: 10 * time.Minute,
		},
		{
			name:      "approved after delay elapsed",
			sinceLast: 20 * time.Minute,
			minDelay:  15 * time.Minute,
			allowed:   true,
		},
		{
			name:      "approved exactly at the boundary",
			sinceLast: 15 * time.Minute,
			minDelay:  15 * time.Minute,
			allowed:   true,
		},
		{
			name:      "zero delay always approves",
			sinceLast: 0,
			minDelay:  0,
			allowed:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := Check(tt.sinceLast, tt.minDelay)
			assert.Equal(t, tt.allowed, dec.Allowed)
			assert.Equal(t, tt.remaining, dec.Remaining)
		})
	}
}
