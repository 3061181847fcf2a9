// Package pipeline implements the bounded double-buffer hand-off between the
// blocking frame producer and the non-blocking render tick.
//
// Exactly one producer goroutine (Run) fills slots and exactly one consumer
// (the animation sequencer) drains them. Each slot's ready flag is an
// atomic.Bool: the producer's plain writes to the slot happen before
// ready.Store(true), and the consumer reads them only after observing
// ready.Load() == true, so the flag alone gives the required ordering with
// no mutex on the hot path. This single-producer/single-consumer discipline is
// load-bearing; adding a second producer or consumer requires real locking.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"aquariumd/pkg/types"
)

// Loader loads the frame at an absolute index into dst. It may block on
// I/O; it is only ever invoked from the producer goroutine.
type Loader interface {
	Load(abs int, dst []byte) error
}

// slot is one of the two fixed buffers. frameIndex and generation are
// meaningful only while ready is true.
type slot struct {
	data       []byte
	frameIndex int
	generation uint64
	ready      atomic.Bool
}

// Pipeline owns the two slots and the latest-wins request mailbox.
type Pipeline struct {
	loader Loader
	slots  [2]slot
	log    zerolog.Logger

	// generation increments on Invalidate; slots published under an older
	// generation are never returned to the consumer.
	generation atomic.Uint64

	// Request mailbox: a single overwrite slot. Only the newest requested
	// frame matters, so an unserviced request is replaced, not queued.
	mu         sync.Mutex
	cond       *sync.Cond
	pending    int // -1 when empty
	pendingGen uint64
	closed     bool

	framesLoaded     atomic.Uint64
	loadFailures     atomic.Uint64
	droppedBusy      atomic.Uint64
	droppedOverwrite atomic.Uint64
	staleDiscards    atomic.Uint64
}

// New builds a pipeline whose two slots each hold frameBytes bytes. The
// slots are allocated once and reused for the process lifetime.
func New(loader Loader, frameBytes int, log zerolog.Logger) *Pipeline {
	p := &Pipeline{
		loader:  loader,
		pending: -1,
		log:     log.With().Str("component", "pipeline").Logger(),
	}
	p.cond = sync.NewCond(&p.mu)
	p.slots[0].data = make([]byte, frameBytes)
	p.slots[1].data = make([]byte, frameBytes)
	return p
}

// Request asks the producer to load the frame at the given absolute index.
// Overwrite semantics: if an earlier request has not been serviced yet it
// is discarded. Never blocks; safe to call from the render tick.
func (p *Pipeline) Request(frameIndex int) {
	gen := p.generation.Load()
	p.mu.Lock()
	if p.pending >= 0 {
		p.droppedOverwrite.Add(1)
		requestsDropped.WithLabelValues("overwritten").Inc()
		p.log.Debug().Int("old", p.pending).Int("new", frameIndex).
			Msg("unserviced frame request overwritten")
	}
	p.pending = frameIndex
	p.pendingGen = gen
	p.cond.Signal()
	p.mu.Unlock()
}

// PollAndConsume checks both slots for a ready frame matching expected and
// the current generation. On a hit it clears the slot's ready flag and
// returns the slot's buffer and id. Constant time, no I/O, no allocation:
// this is the only pipeline call the render tick makes.
//
// A ready slot carrying a stale generation is a late publish from before an
// Invalidate; it is released here (ready cleared, never displayed) so the
// slot does not stay occupied forever.
func (p *Pipeline) PollAndConsume(expected int) (data []byte, slotID int, ok bool) {
	gen := p.generation.Load()
	for i := range p.slots {
		s := &p.slots[i]
		if !s.ready.Load() {
			continue
		}
		if s.generation != gen {
			s.ready.Store(false)
			p.staleDiscards.Add(1)
			staleDiscards.Inc()
			continue
		}
		if s.frameIndex != expected {
			continue
		}
		s.ready.Store(false)
		return s.data, i, true
	}
	return nil, -1, false
}

// Invalidate cancels all in-flight work for the previous category: both
// ready flags are cleared and the generation is bumped so a load already in
// progress cannot publish stale data that the consumer would accept.
func (p *Pipeline) Invalidate() {
	p.generation.Add(1)
	p.slots[0].ready.Store(false)
	p.slots[1].ready.Store(false)
}

// Generation returns the current invalidation generation.
func (p *Pipeline) Generation() uint64 { return p.generation.Load() }

// Run is the producer loop. It services one request at a time: pick a free
// slot, load (blocking), and publish unless the generation moved while the
// load was in flight. Load failures are non-fatal; the consumer's
// retry-every-tick cadence re-requests the frame.
func (p *Pipeline) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.mu.Lock()
		p.closed = true
		p.cond.Broadcast()
		p.mu.Unlock()
	}()

	for {
		p.mu.Lock()
		for p.pending < 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		frameIndex, gen := p.pending, p.pendingGen
		p.pending = -1
		p.mu.Unlock()

		if p.generation.Load() != gen {
			// Category switched after the request was filed.
			p.staleDiscards.Add(1)
			staleDiscards.Inc()
			continue
		}

		s := p.pickFreeSlot()
		if s == nil {
			p.droppedBusy.Add(1)
			requestsDropped.WithLabelValues("busy").Inc()
			p.log.Warn().Int("frame", frameIndex).
				Msg("both buffer slots occupied, dropping frame request")
			continue
		}

		if err := p.loader.Load(frameIndex, s.data); err != nil {
			p.loadFailures.Add(1)
			loadFailures.Inc()
			p.log.Warn().Err(err).Int("frame", frameIndex).Msg("frame load failed")
			continue
		}

		if p.generation.Load() != gen {
			// Loaded for a category that is no longer current.
			p.staleDiscards.Add(1)
			staleDiscards.Inc()
			continue
		}
		s.frameIndex = frameIndex
		s.generation = gen
		s.ready.Store(true)
		p.framesLoaded.Add(1)
		framesLoaded.Inc()
	}
}

// pickFreeSlot returns the first slot not currently ready, preferring slot
// 0, or nil when both are occupied.
func (p *Pipeline) pickFreeSlot() *slot {
	if !p.slots[0].ready.Load() {
		return &p.slots[0]
	}
	if !p.slots[1].ready.Load() {
		return &p.slots[1]
	}
	return nil
}

// Status reports the pipeline counters for /status.
func (p *Pipeline) Status() types.PipelineStatus {
	return types.PipelineStatus{
		FramesLoaded:       p.framesLoaded.Load(),
		LoadFailures:       p.loadFailures.Load(),
		DroppedBusy:        p.droppedBusy.Load(),
		DroppedOverwritten: p.droppedOverwrite.Load(),
		StaleDiscards:      p.staleDiscards.Load(),
		Generation:         p.generation.Load(),
	}
}
