package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"", "local", "dev", "prod"} {
		t.Run("env="+env, func(t *testing.T) {
			l, err := New(env, "")
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestNew_UnknownEnvironment(t *testing.T) {
	_, err := New("staging", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := New("prod", "debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("local", "error")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New("local", "loud")
	require.Error(t, err)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	got, ok := Lookup(ctx)
	assert.True(t, ok)
	assert.Same(t, l, got)

	_, ok = Lookup(context.Background())
	assert.False(t, ok)
}
