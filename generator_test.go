package ragmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrounded(t *testing.T) {
	chunks := []string{"the capital of France is Paris", "Paris has two million inhabitants"}

	t.Run("answer overlapping context", func(t *testing.T) {
		assert.True(t, grounded("The capital is Paris.", chunks))
	})

	t.Run("fabricated answer", func(t *testing.T) {
		assert.False(t, grounded("Berlin hosts quarterly carnival festivities", chunks))
	})

	t.Run("abstention passes unchecked", func(t *testing.T) {
		assert.True(t, grounded(UnknownAnswer, chunks))
	})

	t.Run("short answers pass unchecked", func(t *testing.T) {
		assert.True(t, grounded("Paris", chunks))
	})
}
