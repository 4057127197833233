package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewAppLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		t.Run(env, func(t *testing.T) {
			l, err := NewAppLogger(env, "warn")
			require.NoError(t, err)
			defer Sync(l)

			assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
			assert.True(t, l.Desugar().Core().Enabled(zapcore.WarnLevel))
		})
	}
}

func TestNewAppLogger_BadLevel(t *testing.T) {
	_, err := NewAppLogger("development", "loud")
	assert.Error(t, err)
}
