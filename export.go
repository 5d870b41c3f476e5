package lumen

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/transform"
)

// QueueExport requests a labeled PNG of the next rendered frame. The file
// is written to the export directory with a timestamped name at the end of
// Render. Safe to call from Update or from a cue step.
func (e *Engine) QueueExport(label string) {
	e.exportQueue = append(e.exportQueue, label)
}

// ExportPNG encodes the most recent output to w.
func (e *Engine) ExportPNG(w io.Writer) error {
	return EncodePNG(w, e.pipeline.Output())
}

// EncodePNG writes an output raster to w as a PNG.
func EncodePNG(w io.Writer, img *image.RGBA) error {
	if err := png.Encode(w, toNRGBA(img)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportFile writes the most recent output to the export directory and
// returns the path written.
func (e *Engine) ExportFile(label string) (string, error) {
	paths, err := writeExports(e.exportDir, e.pipeline.Output(), []string{label})
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// Thumbnail returns the most recent output scaled to fit within a
// size×size box, preserving aspect ratio.
func (e *Engine) Thumbnail(size int) *image.RGBA {
	return FitImage(e.pipeline.Output(), size)
}

func (e *Engine) flushExports(out *image.RGBA) {
	if len(e.exportQueue) == 0 {
		return
	}
	paths, err := writeExports(e.exportDir, out, e.exportQueue)
	if err != nil {
		Logger().Error("export failed", "error", err)
	}
	for _, p := range paths {
		Logger().Info("exported frame", "path", p)
	}
	e.exportQueue = e.exportQueue[:0]
}

// writeExports writes one PNG per label and returns the paths that were
// written before any failure.
func writeExports(dir string, img *image.RGBA, labels []string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	straight := toNRGBA(img)
	stamp := time.Now().Format("20060102_150405")

	paths := make([]string, 0, len(labels))
	for _, label := range labels {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, straight); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// toNRGBA converts premultiplied RGBA to straight alpha.
func toNRGBA(src *image.RGBA) *image.NRGBA {
	b := src.Rect
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		for i := 0; i < len(s); i += 4 {
			r, g, bl, a := s[i], s[i+1], s[i+2], s[i+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			d[i], d[i+1], d[i+2], d[i+3] = r, g, bl, a
		}
	}
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores. Empty labels become "frame".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "frame"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}

// FitImage scales src down to fit within a size×size box, preserving
// aspect ratio. Images that already fit, or a non-positive size, yield a
// copy.
func FitImage(src *image.RGBA, size int) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if size <= 0 || (w <= size && h <= size) {
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		copy(out.Pix, src.Pix)
		return out
	}
	tw, th := size, size
	if w >= h {
		th = max(1, h*size/w)
	} else {
		tw = max(1, w*size/h)
	}
	return transform.Resize(src, tw, th, transform.Linear)
}
