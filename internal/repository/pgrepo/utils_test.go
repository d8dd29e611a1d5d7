package pgrepo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitter(t *testing.T) {
	for range 100 {
		v := jitter(100, 0.1, 0.2)
		assert.GreaterOrEqual(t, v, 90.0)
		assert.LessOrEqual(t, v, 120.0)

		// некорректные проценты заменяются на 15%.
		v = jitter(100, -1, 0.5)
		assert.GreaterOrEqual(t, v, 85.0)
		assert.LessOrEqual(t, v, 115.0)
	}
}

func TestRetryDelay(t *testing.T) {
	for range 100 {
		d := retryDelay(3 * time.Second)
		assert.GreaterOrEqual(t, d, 2400*time.Millisecond)
		assert.LessOrEqual(t, d, 3600*time.Millisecond)
	}
}
