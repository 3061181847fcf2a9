// framegen converts PNG animation sources into the raw RGB565 frame assets
// aquariumd loads at runtime. Input is a directory with happy/ sad/ angry/
// subdirectories of PNGs; output mirrors that layout as frame0.bin..frame7.bin.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/image/draw"

	"aquariumd/internal/frameset"
)

func main() {
	inDir := flag.String("in", "", "Directory with happy/ sad/ angry/ PNG sources")
	outDir := flag.String("out", "", "Output directory for the frame set")
	width := flag.Int("width", 320, "Output frame width in pixels")
	height := flag.Int("height", 240, "Output frame height in pixels")
	flag.Parse()

	if *inDir == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "usage: framegen -in <png dir> -out <frames dir> [-width N] [-height N]")
		os.Exit(2)
	}
	if err := run(*inDir, *outDir, *width, *height); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(inDir, outDir string, width, height int) error {
	for _, cat := range []string{"happy", "sad", "angry"} {
		srcs, err := listPNGs(filepath.Join(inDir, cat))
		if err != nil {
			return err
		}
		if len(srcs) != frameset.FramesPerCategory {
			return fmt.Errorf("%s: found %d PNGs, want exactly %d", cat, len(srcs), frameset.FramesPerCategory)
		}
		dst := filepath.Join(outDir, cat)
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return err
		}
		for i, src := range srcs {
			out := filepath.Join(dst, fmt.Sprintf("frame%d.bin", i))
			if err := convert(src, out, width, height); err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
		}
	}
	return nil
}

func listPNGs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".png" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func convert(srcPath, dstPath string, width, height int) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	return os.WriteFile(dstPath, encodeRGB565(scaled), 0o644)
}

// encodeRGB565 packs pixels as 5-6-5 with the high byte first; the loader
// swaps each pair into the panel's byte order.
func encodeRGB565(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			r, g, bl := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
			out = append(out, byte(v>>8), byte(v))
		}
	}
	return out
}
