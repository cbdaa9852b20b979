package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "Production", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, l.With("component", "test"))
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop().With("user_id", 1)
	assert.NotPanics(t, func() {
		l.Debug("d")
		l.Info("i", "k", "v")
		l.Warn("w")
		l.Error("e")
		l.Sync()
	})
}
