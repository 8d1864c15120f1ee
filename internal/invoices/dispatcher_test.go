package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ateliermora/storefront-backend/pkg/enums"
)

func TestDispatcherGeneratesInBackground(t *testing.T) {
	conn := newTestDB(t)
	generator := newTestGenerator(t, conn, newFakeStore(), &fakeRenderer{}, nil)
	dispatcher, err := NewDispatcher(generator, 2, 8, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	seedOrder(t, conn, "cs_test_1", "user-1")

	assert.True(t, dispatcher.Dispatch(ctx, "cs_test_1"))

	require.Eventually(t, func() bool {
		artifact, err := NewRepository(conn).FindArtifact(ctx, "cs_test_1")
		return err == nil && artifact != nil && artifact.Status == enums.ArtifactStatusReady
	}, 2*time.Second, 10*time.Millisecond)

	dispatcher.Stop()
}

func TestDispatcherStopDrainsQueue(t *testing.T) {
	conn := newTestDB(t)
	store := newFakeStore()
	generator := newTestGenerator(t, conn, store, &fakeRenderer{}, nil)
	dispatcher, err := NewDispatcher(generator, 1, 8, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	seedOrder(t, conn, "cs_test_1", "user-1")
	seedOrder(t, conn, "cs_test_2", "user-2")

	assert.True(t, dispatcher.Dispatch(ctx, "cs_test_1"))
	assert.True(t, dispatcher.Dispatch(ctx, "cs_test_2"))

	dispatcher.Stop()

	assert.Equal(t, 2, store.count(), "queued work finishes before Stop returns")
}

func TestDispatchAfterStopIsSafe(t *testing.T) {
	conn := newTestDB(t)
	generator := newTestGenerator(t, conn, newFakeStore(), &fakeRenderer{}, nil)
	dispatcher, err := NewDispatcher(generator, 1, 1, testLogger())
	require.NoError(t, err)

	dispatcher.Stop()
	assert.False(t, dispatcher.Dispatch(context.Background(), "cs_after_stop"))
}
