package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClock_UsesLocation(t *testing.T) {
	tehran := time.FixedZone("Asia/Tehran", 3*3600+1800)

	now := NewSystemClock(tehran).Now()

	assert.Equal(t, tehran, now.Location())
}

func TestMockClock(t *testing.T) {
	start := time.Date(2025, time.February, 8, 10, 0, 0, 0, time.UTC)
	clock := &MockClock{FixedNow: start}

	clock.Advance(7 * 24 * time.Hour)

	assert.Equal(t, start.AddDate(0, 0, 7), clock.Now())
}
