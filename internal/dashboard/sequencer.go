package dashboard

import (
	"context"
	"time"

	"aquariumd/internal/frameset"
)

// Tick advances the animation by at most one frame. It is the foreground
// consumer: constant-time, no I/O. If the inter-frame interval has not
// elapsed it does nothing. If the next frame's buffer is not ready yet it
// returns without touching lastUpdate, so every subsequent tick retries
// until the frame arrives: the animation stalls rather than skips.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastUpdate) < c.frameInterval {
		return
	}

	abs := frameset.AbsIndex(c.category, c.pendingFrame)
	data, slotID, ok := c.pipe.PollAndConsume(abs)
	if !ok {
		c.log.Debug().Int("frame", abs).Msg("frame not ready, retrying next tick")
		return
	}

	c.displayGen++
	c.display.ShowFrame(FrameView{
		Data:       data,
		FrameIndex: abs,
		Category:   c.category,
		Generation: c.displayGen,
	})
	c.log.Debug().Int("frame", abs).Int("slot", slotID).Msg("frame displayed")

	c.frameInCat = c.pendingFrame
	c.lastUpdate = now

	// Read-ahead of exactly one frame: request the next frame now so the
	// producer hides the load latency behind the inter-frame interval.
	c.pendingFrame = (c.pendingFrame + 1) % frameset.FramesPerCategory
	c.pipe.Request(frameset.AbsIndex(c.category, c.pendingFrame))
}

// Run drives Tick on a fixed cadence until ctx is done. This is the
// foreground loop; everything it calls is non-blocking.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(c.clock())
		}
	}
}
