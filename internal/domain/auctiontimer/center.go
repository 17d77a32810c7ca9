package auctiontimer

import (
	"context"
	"time"

	mathUtil "github.com/pkg/math"
	"github.com/puzpuzpuz/xsync"
	"github.com/squadbid/backend/pkg/xcontext"
)

// ExpireFunc is called exactly once when the countdown of a lot runs out.
// The handler must re-check that the lot is still current, the center only
// guarantees it does not fire twice for the same scheduling.
type ExpireFunc func(ctx context.Context, auctionID, lotID string)

type countdown struct {
	lotID     string
	startedAt time.Time
	endsAt    time.Time
	timer     *time.Timer
}

// Center drives the countdown of the active lot. It keeps at most one
// countdown per auction, scheduling is in-process while the authoritative
// timer instants live on the auction record.
type Center struct {
	rootCtx  context.Context
	timers   *xsync.MapOf[string, *countdown]
	onExpire ExpireFunc
}

func NewCenter(ctx context.Context) *Center {
	return &Center{
		rootCtx: ctx,
		timers:  xsync.NewMapOf[*countdown](),
	}
}

// SetExpireHandler wires the state machine's finalize path. It must be
// called before the first Start.
func (c *Center) SetExpireHandler(fn ExpireFunc) {
	c.onExpire = fn
}

// Start begins a fresh countdown for the lot, replacing any previous one of
// the auction.
func (c *Center) Start(ctx context.Context, auctionID, lotID string, duration time.Duration) time.Time {
	c.Stop(auctionID)

	now := time.Now()
	cd := &countdown{
		lotID:     lotID,
		startedAt: now,
		endsAt:    now.Add(duration),
	}
	cd.timer = time.AfterFunc(duration, func() {
		c.fire(auctionID, lotID)
	})

	c.timers.Store(auctionID, cd)
	xcontext.Logger(ctx).Debugf("Timer started for lot %s: %s", lotID, duration)
	return cd.endsAt
}

// Restart replaces the countdown with a reduced duration, floored at the
// configured minimum.
func (c *Center) Restart(ctx context.Context, auctionID, lotID string, duration time.Duration) time.Time {
	minimum := xcontext.Configs(ctx).Auction.MinTimerDuration
	floored := time.Duration(mathUtil.MaxInt(int(duration), int(minimum)))
	return c.Start(ctx, auctionID, lotID, floored)
}

// Stop cancels the countdown of the auction if one is running.
func (c *Center) Stop(auctionID string) {
	if cd, ok := c.timers.LoadAndDelete(auctionID); ok {
		cd.timer.Stop()
	}
}

// Remaining returns the non-negative time left on the countdown, zero when
// none is running.
func (c *Center) Remaining(auctionID string) time.Duration {
	cd, ok := c.timers.Load(auctionID)
	if !ok {
		return 0
	}

	if remaining := time.Until(cd.endsAt); remaining > 0 {
		return remaining
	}

	return 0
}

func (c *Center) fire(auctionID, lotID string) {
	cd, ok := c.timers.LoadAndDelete(auctionID)
	if !ok || cd.lotID != lotID {
		// The countdown was stopped or rescheduled for another lot after
		// this firing was queued.
		return
	}

	if c.onExpire != nil {
		c.onExpire(c.rootCtx, auctionID, lotID)
	}
}
