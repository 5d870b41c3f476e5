package lumen

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerBand keeps bands large enough that goroutine overhead stays
// small next to the per-pixel work.
const minRowsPerBand = 16

// parallelRows splits [0, h) into horizontal bands and runs fn on each
// concurrently. fn must only write rows inside its band.
func parallelRows(h int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if h < minRowsPerBand*2 || workers < 2 {
		fn(0, h)
		return
	}
	bands := min(workers, h/minRowsPerBand)
	step := (h + bands - 1) / bands

	var g errgroup.Group
	for y0 := 0; y0 < h; y0 += step {
		y1 := min(y0+step, h)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}
