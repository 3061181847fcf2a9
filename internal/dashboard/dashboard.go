// Package dashboard owns the live tank state and orchestrates the mood
// evaluator, the animation sequencer, and the snapshot sinks. All methods
// on Controller are safe for concurrent use; the sequencer tick and the
// HTTP handlers share it.
package dashboard

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aquariumd/internal/frameset"
	"aquariumd/internal/mood"
	"aquariumd/internal/pipeline"
	"aquariumd/pkg/types"
)

// FrameView is what the render layer receives on every frame swap. The
// Generation counter increments on each swap; a renderer redraws whenever it
// sees a generation it has not drawn yet. Data aliases a pipeline slot and
// is valid until the slot is refilled, which the double buffer guarantees is
// at least one full swap away.
type FrameView struct {
	Data       []byte
	FrameIndex int
	Category   types.Category
	Generation uint64
}

// Display is the render-layer boundary. ShowFrame runs on the sequencer
// tick and must not block.
type Display interface {
	ShowFrame(FrameView)
}

// NopDisplay discards frames; used when no render backend is attached.
type NopDisplay struct{}

func (NopDisplay) ShowFrame(FrameView) {}

// LogDisplay logs frame swaps; the default backend for the headless daemon.
type LogDisplay struct{ Log zerolog.Logger }

func (d LogDisplay) ShowFrame(v FrameView) {
	d.Log.Debug().Int("frame", v.FrameIndex).Stringer("category", v.Category).
		Uint64("generation", v.Generation).Msg("frame swapped")
}

// SnapshotSink receives a state snapshot after every re-evaluation.
// Implementations must be lightweight and non-blocking; Publish must not
// panic (same contract as an event publisher).
type SnapshotSink interface {
	Publish(types.Snapshot)
}

// Config holds Controller tunables.
type Config struct {
	// FrameInterval is the cadence between animation frame advances.
	FrameInterval time.Duration
	// TickEvery is how often the sequencer wakes to check the interval and
	// poll for a ready frame. Must be well under FrameInterval so a missed
	// frame is retried promptly.
	TickEvery time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

const (
	defaultFrameInterval = 10 * time.Second
	defaultTickEvery     = 500 * time.Millisecond
)

// Controller is the dashboard's single source of truth.
type Controller struct {
	mu sync.RWMutex

	params types.Params
	result types.MoodResult

	// Sequencer state. category is what is currently playing; pendingFrame
	// is the frame-in-category the next tick will poll for.
	category     types.Category
	frameInCat   int
	pendingFrame int
	lastUpdate   time.Time
	displayGen   uint64

	pipe    *pipeline.Pipeline
	display Display
	sinks   []SnapshotSink

	frameInterval time.Duration
	tickEvery     time.Duration
	clock         func() time.Time
	startTime     time.Time
	log           zerolog.Logger
}

// New builds a Controller with sane starting parameters: a freshly fed and
// cleaned tank with ideal water, so the dashboard starts HAPPY and corrects
// itself as real readings arrive.
func New(pipe *pipeline.Pipeline, display Display, cfg Config, log zerolog.Logger) *Controller {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = defaultFrameInterval
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = defaultTickEvery
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if display == nil {
		display = NopDisplay{}
	}
	now := cfg.Clock()
	c := &Controller{
		params: types.Params{
			AmmoniaPPM:        0,
			NitritePPM:        0,
			NitratePPM:        10,
			PH:                7.0,
			LastFeedUnix:      now.Unix(),
			LastCleanUnix:     now.Unix(),
			FeedIntervalSec:   8 * 3600,
			CleanIntervalDays: 7,
		},
		pipe:          pipe,
		display:       display,
		frameInterval: cfg.FrameInterval,
		tickEvery:     cfg.TickEvery,
		clock:         cfg.Clock,
		startTime:     now,
		log:           log.With().Str("component", "dashboard").Logger(),
	}
	c.result = mood.Evaluate(c.params, now)
	c.category = c.result.Category
	c.resetSequencerLocked(now)
	return c
}

// AddSink registers a snapshot sink. Not safe to call after Run starts.
func (c *Controller) AddSink(s SnapshotSink) {
	c.sinks = append(c.sinks, s)
}

// Mood returns the last computed mood result.
func (c *Controller) Mood() types.MoodResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Params returns a copy of the live parameters.
func (c *Controller) Params() types.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// Snapshot builds a point-in-time snapshot of the whole dashboard state.
func (c *Controller) Snapshot() types.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(c.clock())
}

func (c *Controller) snapshotLocked(now time.Time) types.Snapshot {
	return types.Snapshot{
		TakenAtUnix:       now.Unix(),
		Params:            c.params,
		Mood:              c.result,
		SecondsSinceFeed:  maxInt64(0, now.Unix()-c.params.LastFeedUnix),
		SecondsSinceClean: maxInt64(0, now.Unix()-c.params.LastCleanUnix),
	}
}

// UpdateParam clamps and stores one reading or policy value, then
// re-evaluates the mood. Unknown kinds are rejected.
func (c *Controller) UpdateParam(kind string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clamped := value
	switch kind {
	case "ammonia":
		clamped = clampFloat(value, 0, 10)
		c.params.AmmoniaPPM = clamped
	case "nitrite":
		clamped = clampFloat(value, 0, 10)
		c.params.NitritePPM = clamped
	case "nitrate":
		clamped = clampFloat(value, 0, 500)
		c.params.NitratePPM = clamped
	case "ph":
		clamped = clampFloat(value, 0, 14)
		c.params.PH = clamped
	case "feed_interval_sec":
		clamped = clampFloat(value, 60, 48*3600)
		c.params.FeedIntervalSec = int64(clamped)
	case "clean_interval_days":
		clamped = clampFloat(value, 1, 60)
		c.params.CleanIntervalDays = int64(clamped)
	default:
		return ErrUnknownParam(kind)
	}
	if clamped != value {
		c.log.Warn().Str("kind", kind).Float64("value", value).
			Float64("clamped", clamped).Msg("parameter clamped to valid range")
	}
	c.reevaluateLocked(c.clock())
	return nil
}

// LogEvent stamps the current time as the last feed or clean and
// re-evaluates the mood.
func (c *Controller) LogEvent(kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock()
	switch kind {
	case "feed":
		c.params.LastFeedUnix = now.Unix()
	case "clean":
		c.params.LastCleanUnix = now.Unix()
	default:
		return ErrUnknownEvent(kind)
	}
	c.reevaluateLocked(now)
	return nil
}

// SetCategoryOverride forces the animation category, bypassing the
// evaluator until the next re-evaluation. Out-of-range values are rejected
// without any state change.
func (c *Controller) SetCategoryOverride(v int) error {
	if v < 0 || v >= types.NumCategories {
		c.log.Warn().Int("category", v).Msg("rejected out-of-range category override")
		return ErrInvalidCategory(v)
	}
	cat := types.Category(v)
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat == c.category {
		return nil
	}
	c.log.Info().Stringer("category", cat).Msg("manual category override")
	c.switchCategoryLocked(cat, c.clock())
	return nil
}

// reevaluateLocked recomputes the mood, switches the animation category if
// it changed, and fans the snapshot out to the sinks.
func (c *Controller) reevaluateLocked(now time.Time) {
	c.result = mood.Evaluate(c.params, now)
	moodEvaluations.WithLabelValues(c.result.Category.String()).Inc()
	if c.result.Category != c.category {
		c.log.Info().Stringer("from", c.category).Stringer("to", c.result.Category).
			Str("reason", c.result.Reason).Msg("mood category changed")
		c.switchCategoryLocked(c.result.Category, now)
	}
	snap := c.snapshotLocked(now)
	for _, s := range c.sinks {
		s.Publish(snap)
	}
}

// switchCategoryLocked performs the category-change transition: reset the
// sequence to frame 0, pull lastUpdate back a full interval so the first
// frame shows on the very next tick, invalidate both buffer slots (their
// contents belong to the old category), and request frame 0 of the new one.
func (c *Controller) switchCategoryLocked(cat types.Category, now time.Time) {
	c.category = cat
	c.resetSequencerLocked(now)
}

func (c *Controller) resetSequencerLocked(now time.Time) {
	c.frameInCat = 0
	c.pendingFrame = 0
	c.lastUpdate = now.Add(-c.frameInterval)
	c.pipe.Invalidate()
	c.pipe.Request(frameset.AbsIndex(c.category, 0))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
