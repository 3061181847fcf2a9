package dashboard

import (
	"aquariumd/pkg/types"
)

// Ready reports whether the dashboard can serve: the controller is always
// ready once constructed, since a stalled animation is a degraded state, not
// an outage.
func (c *Controller) Ready() bool { return true }

// Status builds the detailed status response for /status.
func (c *Controller) Status() types.StatusResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.clock()
	return types.StatusResponse{
		State:             "ready",
		Category:          c.category,
		FrameInCategory:   c.frameInCat,
		DisplayGeneration: c.displayGen,
		Pipeline:          c.pipe.Status(),
		Mood:              c.result,
		UptimeSeconds:     int64(now.Sub(c.startTime).Seconds()),
		ServerTimeUnix:    now.Unix(),
	}
}
