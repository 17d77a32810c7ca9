package auctiontimer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/squadbid/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_center_fireExactlyOnce(t *testing.T) {
	ctx := testutil.NewMockContext()
	center := NewCenter(ctx)

	var fired int32
	center.SetExpireHandler(func(ctx context.Context, auctionID, lotID string) {
		atomic.AddInt32(&fired, 1)
	})

	center.Start(ctx, "auction1", "lot1", 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)

	// No second firing for the same scheduling.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func Test_center_stopPreventsFiring(t *testing.T) {
	ctx := testutil.NewMockContext()
	center := NewCenter(ctx)

	var fired int32
	center.SetExpireHandler(func(ctx context.Context, auctionID, lotID string) {
		atomic.AddInt32(&fired, 1)
	})

	center.Start(ctx, "auction1", "lot1", 20*time.Millisecond)
	center.Stop("auction1")

	time.Sleep(100 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&fired))
	require.Zero(t, center.Remaining("auction1"))
}

func Test_center_restartReplacesLot(t *testing.T) {
	ctx := testutil.NewMockContext()
	center := NewCenter(ctx)

	var firedLot atomic.Value
	center.SetExpireHandler(func(ctx context.Context, auctionID, lotID string) {
		firedLot.Store(lotID)
	})

	// Rescheduling for a new lot silences the firing queued for the old one.
	center.Start(ctx, "auction1", "lot1", 10*time.Millisecond)
	center.Start(ctx, "auction1", "lot2", 50*time.Millisecond)

	require.Eventually(t, func() bool {
		return firedLot.Load() != nil
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "lot2", firedLot.Load())
}

func Test_center_restartFlooredAtMinimum(t *testing.T) {
	ctx := testutil.NewMockContext()
	center := NewCenter(ctx)

	// The configured minimum is 10s, a harsher reduction is floored there.
	center.Restart(ctx, "auction1", "lot1", 1*time.Second)
	remaining := center.Remaining("auction1")
	require.Greater(t, remaining, 9*time.Second)
	require.LessOrEqual(t, remaining, 10*time.Second)

	center.Stop("auction1")
}

func Test_center_remaining(t *testing.T) {
	ctx := testutil.NewMockContext()
	center := NewCenter(ctx)

	require.Zero(t, center.Remaining("auction1"))

	center.Start(ctx, "auction1", "lot1", time.Minute)
	remaining := center.Remaining("auction1")
	require.Greater(t, remaining, 59*time.Second)
	require.LessOrEqual(t, remaining, time.Minute)

	center.Stop("auction1")
}
