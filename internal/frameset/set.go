// Package frameset addresses the pre-rendered animation frames on disk and
// loads them into caller-supplied buffers. Frames are raw RGB565 rasters,
// one fixed-size .bin file per frame, grouped by mood category:
//
//	<root>/happy/frame0.bin .. frame7.bin
//	<root>/sad/frame0.bin   .. frame7.bin
//	<root>/angry/frame0.bin .. frame7.bin
//
// Frames are addressed by absolute index: category*FramesPerCategory + n.
package frameset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aquariumd/pkg/types"
)

// FramesPerCategory is the length of each category's frame sequence.
const FramesPerCategory = 8

// NumFrames is the total number of addressable frames.
const NumFrames = types.NumCategories * FramesPerCategory

// categoryDirs maps Category values to their on-disk directory names.
var categoryDirs = [types.NumCategories]string{"happy", "sad", "angry"}

// Set describes a validated frame collection rooted at Dir.
type Set struct {
	Dir    string
	Width  int
	Height int
}

// FrameBytes is the exact encoded size of one frame: 2 bytes per pixel.
func (s *Set) FrameBytes() int { return s.Width * s.Height * 2 }

// Path returns the asset path for an absolute frame index. The index must
// be in [0, NumFrames); callers validate before use.
func (s *Set) Path(abs int) string {
	cat := abs / FramesPerCategory
	n := abs % FramesPerCategory
	return filepath.Join(s.Dir, categoryDirs[cat], fmt.Sprintf("frame%d.bin", n))
}

// AbsIndex converts a category and frame-within-category to the absolute
// frame index.
func AbsIndex(cat types.Category, frame int) int {
	return int(cat)*FramesPerCategory + frame
}

// ScanDir validates that dir holds a complete frame set for the given
// dimensions: every category directory present, every frame file present
// with exactly the expected size. It fails eagerly so a misflashed asset
// partition is caught at startup rather than as a per-frame load failure.
func ScanDir(dir string, width, height int) (*Set, error) {
	base, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	s := &Set{Dir: abs, Width: width, Height: height}
	want := int64(s.FrameBytes())
	for i := 0; i < NumFrames; i++ {
		p := s.Path(i)
		fi, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if fi.Size() != want {
			return nil, fmt.Errorf("frame %d: %s is %d bytes, want %d", i, p, fi.Size(), want)
		}
	}
	return s, nil
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
