package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	req := require.New(t)

	log, err := New("debug")
	req.NoError(err)
	req.True(log.Core().Enabled(zapcore.DebugLevel))

	log, err = New(" WARN ")
	req.NoError(err)
	req.False(log.Core().Enabled(zapcore.InfoLevel))
	req.True(log.Core().Enabled(zapcore.WarnLevel))

	_, err = New("loud")
	req.Error(err)
}
