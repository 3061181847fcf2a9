package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeLoader records load order and can block or fail on demand.
type fakeLoader struct {
	mu      sync.Mutex
	loads   []int
	fail    map[int]bool
	gate    chan struct{} // when non-nil, Load blocks until a receive succeeds
	perLoad chan int      // receives each frame index as Load returns
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{fail: map[int]bool{}, perLoad: make(chan int, 64)}
}

func (f *fakeLoader) Load(abs int, dst []byte) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.loads = append(f.loads, abs)
	failed := f.fail[abs]
	f.mu.Unlock()
	if failed {
		f.perLoad <- abs
		return errors.New("injected load failure")
	}
	for i := range dst {
		dst[i] = byte(abs)
	}
	f.perLoad <- abs
	return nil
}

func (f *fakeLoader) loadOrder() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.loads))
	copy(out, f.loads)
	return out
}

func waitLoaded(t *testing.T, f *fakeLoader, want int) {
	t.Helper()
	select {
	case got := <-f.perLoad:
		if got != want {
			t.Fatalf("loaded frame %d, want %d", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame %d to load", want)
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func startPipeline(t *testing.T, f *fakeLoader) *Pipeline {
	t.Helper()
	p := New(f, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.Run(ctx)
	return p
}

func TestSingleConsume(t *testing.T) {
	f := newFakeLoader()
	p := startPipeline(t, f)

	p.Request(5)
	waitLoaded(t, f, 5)
	eventually(t, func() bool { _, _, ok := p.PollAndConsume(5); return ok },
		"frame 5 never became ready")

	// Exactly one consume: an immediate second poll must miss.
	if _, _, ok := p.PollAndConsume(5); ok {
		t.Fatal("second PollAndConsume returned the same frame twice")
	}
}

func TestConsumeReturnsLoadedBytes(t *testing.T) {
	f := newFakeLoader()
	p := startPipeline(t, f)

	p.Request(7)
	waitLoaded(t, f, 7)
	var data []byte
	eventually(t, func() bool {
		d, _, ok := p.PollAndConsume(7)
		data = d
		return ok
	}, "frame 7 never became ready")
	for i, b := range data {
		if b != 7 {
			t.Fatalf("data[%d] = %d, want 7", i, b)
		}
	}
}

func TestPollWrongIndexLeavesSlotIntact(t *testing.T) {
	f := newFakeLoader()
	p := startPipeline(t, f)

	p.Request(3)
	waitLoaded(t, f, 3)
	eventually(t, func() bool { return p.Status().FramesLoaded == 1 }, "frame 3 not published")

	if _, _, ok := p.PollAndConsume(4); ok {
		t.Fatal("consumed a frame with the wrong index")
	}
	if _, _, ok := p.PollAndConsume(3); !ok {
		t.Fatal("matching poll should still succeed after a mismatched one")
	}
}

func TestLatestRequestWins(t *testing.T) {
	f := newFakeLoader()
	f.gate = make(chan struct{})
	p := startPipeline(t, f)

	// Producer picks up frame 1 and blocks inside Load.
	p.Request(1)
	// Two rapid requests while the producer is busy: only the newest may
	// survive in the mailbox.
	eventually(t, func() bool {
		p.mu.Lock()
		empty := p.pending < 0
		p.mu.Unlock()
		return empty
	}, "producer never dequeued the first request")
	p.Request(2)
	p.Request(3)

	f.gate <- struct{}{} // finish load of 1
	waitLoaded(t, f, 1)
	f.gate <- struct{}{} // producer proceeds with the surviving request
	waitLoaded(t, f, 3)

	order := f.loadOrder()
	for _, idx := range order {
		if idx == 2 {
			t.Fatalf("frame 2 was loaded despite being overwritten (order %v)", order)
		}
	}
	if got := p.Status().DroppedOverwritten; got != 1 {
		t.Fatalf("DroppedOverwritten = %d, want 1", got)
	}
}

func TestBothSlotsBusyDropsRequest(t *testing.T) {
	f := newFakeLoader()
	p := startPipeline(t, f)

	p.Request(0)
	waitLoaded(t, f, 0)
	eventually(t, func() bool { return p.Status().FramesLoaded == 1 }, "frame 0 not published")
	p.Request(1)
	waitLoaded(t, f, 1)
	eventually(t, func() bool { return p.Status().FramesLoaded == 2 }, "frame 1 not published")

	// Both slots now hold unconsumed frames; the next request must be
	// dropped and counted, and the system must heal after a consume.
	p.Request(2)
	eventually(t, func() bool { return p.Status().DroppedBusy == 1 },
		"request was not dropped while both slots were busy")

	if _, _, ok := p.PollAndConsume(0); !ok {
		t.Fatal("frame 0 should still be consumable")
	}
	p.Request(2)
	waitLoaded(t, f, 2)
	eventually(t, func() bool { _, _, ok := p.PollAndConsume(2); return ok },
		"pipeline did not recover after draining a slot")
}

func TestLoadFailureIsNonFatal(t *testing.T) {
	f := newFakeLoader()
	f.fail[4] = true
	p := startPipeline(t, f)

	p.Request(4)
	waitLoaded(t, f, 4)
	eventually(t, func() bool { return p.Status().LoadFailures == 1 }, "failure not counted")
	if _, _, ok := p.PollAndConsume(4); ok {
		t.Fatal("a failed load must not publish a frame")
	}

	// Retry path: the same frame can be requested again.
	f.mu.Lock()
	f.fail[4] = false
	f.mu.Unlock()
	p.Request(4)
	waitLoaded(t, f, 4)
	eventually(t, func() bool { _, _, ok := p.PollAndConsume(4); return ok },
		"retry after failure never produced the frame")
}

func TestInvalidateDiscardsInFlightLoad(t *testing.T) {
	f := newFakeLoader()
	f.gate = make(chan struct{})
	p := startPipeline(t, f)

	p.Request(6)
	eventually(t, func() bool {
		p.mu.Lock()
		empty := p.pending < 0
		p.mu.Unlock()
		return empty
	}, "producer never dequeued the request")

	// Category switch while frame 6 is mid-load.
	p.Invalidate()
	f.gate <- struct{}{}
	waitLoaded(t, f, 6)

	eventually(t, func() bool { return p.Status().StaleDiscards >= 1 },
		"stale load was not discarded")
	if _, _, ok := p.PollAndConsume(6); ok {
		t.Fatal("a frame loaded for the old generation was published")
	}
}

func TestInvalidateClearsReadySlots(t *testing.T) {
	f := newFakeLoader()
	p := startPipeline(t, f)

	p.Request(8)
	waitLoaded(t, f, 8)
	eventually(t, func() bool { return p.Status().FramesLoaded == 1 }, "frame 8 not published")

	p.Invalidate()
	if _, _, ok := p.PollAndConsume(8); ok {
		t.Fatal("invalidated slot was still consumable")
	}
}

func TestStaleGenerationSlotIsReleased(t *testing.T) {
	// A publish can slip in between the producer's generation check and the
	// ready flip; the consumer must release such a slot without showing it.
	f := newFakeLoader()
	p := New(f, 8, zerolog.Nop())
	p.slots[0].frameIndex = 2
	p.slots[0].generation = 0
	p.slots[0].ready.Store(true)
	p.generation.Add(1)

	if _, _, ok := p.PollAndConsume(2); ok {
		t.Fatal("consumed a slot from a stale generation")
	}
	if p.slots[0].ready.Load() {
		t.Fatal("stale slot not released")
	}
	if got := p.Status().StaleDiscards; got != 1 {
		t.Fatalf("StaleDiscards = %d, want 1", got)
	}
}
