package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSafeSwallowsPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Safe(zap.NewNop(), "test", func() {
			panic("boom")
		})
	})
}

func TestSafeRunsFunction(t *testing.T) {
	ran := false
	Safe(zap.NewNop(), "test", func() { ran = true })
	assert.True(t, ran)
}
