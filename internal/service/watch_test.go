package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	s := newTestService(t, testBatch)
	paths := s.Paths()
	good, err := os.ReadFile(paths.Model)
	require.NoError(t, err)

	// Start unready: the model file is broken.
	require.NoError(t, os.WriteFile(paths.Model, []byte("trees: {"), 0o644))
	require.Error(t, s.Reload(context.Background()))

	stop, err := s.Watch(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(paths.Model, good, 0o644))
	require.Eventually(t, func() bool { return s.Ready() == nil }, 5*time.Second, 10*time.Millisecond)
}
