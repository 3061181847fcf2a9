package frameset

import (
	"fmt"
	"io"
	"os"
)

// Loader reads one addressed frame fully into a caller-supplied buffer.
// Load blocks on file I/O and must only be called from the pipeline's
// producer goroutine, never from the render tick.
type Loader struct {
	set *Set
}

// NewLoader returns a Loader over a scanned set.
func NewLoader(set *Set) *Loader { return &Loader{set: set} }

// FrameBytes exposes the per-frame buffer capacity the loader expects.
func (l *Loader) FrameBytes() int { return l.set.FrameBytes() }

// Load reads the asset for the absolute frame index into dst. dst must be
// exactly FrameBytes long. The read must fill dst exactly; a short or long
// asset is an error. After a successful read the fixed even/odd byte swap
// is applied: the asset pipeline stores RGB565 samples byte-swapped
// relative to the raster's native order, so the swap is unconditional and
// data-independent.
func (l *Loader) Load(abs int, dst []byte) error {
	if abs < 0 || abs >= NumFrames {
		return fmt.Errorf("frame index %d out of range [0,%d)", abs, NumFrames)
	}
	if len(dst) != l.set.FrameBytes() {
		return fmt.Errorf("destination is %d bytes, want %d", len(dst), l.set.FrameBytes())
	}
	f, err := os.Open(l.set.Path(abs))
	if err != nil {
		return fmt.Errorf("open frame %d: %w", abs, err)
	}
	defer f.Close()
	if _, err := io.ReadFull(f, dst); err != nil {
		return fmt.Errorf("read frame %d: %w", abs, err)
	}
	// Reject trailing bytes: the asset size is fixed.
	var one [1]byte
	if n, _ := f.Read(one[:]); n != 0 {
		return fmt.Errorf("frame %d: asset larger than %d bytes", abs, len(dst))
	}
	swapBytePairs(dst)
	return nil
}

// swapBytePairs exchanges every even/odd byte pair in place.
func swapBytePairs(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
