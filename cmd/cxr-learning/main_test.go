package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"cxr-learning/internal/store"
)

func TestPurgeExpired_SweepsMemoryBackend(t *testing.T) {
	defer goleak.VerifyNone(t)

	mem := store.NewMemoryKV()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mem.Set(ctx, "cxr:session:gone", "{}", time.Millisecond))
	require.NoError(t, mem.Set(ctx, "cxr:session:kept", "{}", time.Hour))

	done := make(chan struct{})
	go func() {
		purgeExpired(ctx, mem, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool { return mem.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, err := mem.Get(ctx, "cxr:session:kept")
	assert.NoError(t, err)

	cancel()
	<-done
}
