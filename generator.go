package lumen

import (
	"image"
	"math"
)

// GeneratorSource renders the procedural patterns into a Source. The
// pattern is re-rendered only when the generator settings, the output size
// or the animation clock change.
type GeneratorSource struct {
	src   *Source
	clock float64
	last  generatorKey
}

type generatorKey struct {
	gen   Generator
	w, h  int
	clock float64
}

// NewGeneratorSource creates an idle generator.
func NewGeneratorSource() *GeneratorSource {
	return &GeneratorSource{}
}

// Advance moves the animation clock forward by dt seconds when the
// generator is animated. Param3 sets the speed; 50 is one unit per second.
func (g *GeneratorSource) Advance(dt float64, gen Generator) {
	if !gen.IsAnimated || gen.Type == GeneratorNone {
		return
	}
	g.clock += dt * gen.Param3 / 50
}

// Clock returns the animation time in seconds.
func (g *GeneratorSource) Clock() float64 { return g.clock }

// Render returns the pattern as a w×h source, or nil for GeneratorNone.
func (g *GeneratorSource) Render(w, h int, gen Generator) *Source {
	if gen.Type == GeneratorNone || w <= 0 || h <= 0 {
		return nil
	}
	key := generatorKey{gen: gen, w: w, h: h, clock: g.clock}
	if g.src != nil && key == g.last {
		return g.src
	}
	if g.src == nil {
		g.src = &Source{}
	}
	if g.src.img == nil || g.src.img.Rect.Dx() != w || g.src.img.Rect.Dy() != h {
		g.src.img = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	renderPattern(g.src.img, gen, g.clock)
	g.src.touch()
	g.last = key
	return g.src
}

// patternFunc returns an RGB color in [0, 1] for normalized coordinates
// centered on the raster, with the shorter side spanning [-1, 1].
type patternFunc func(u, v float64) (r, g, b float64)

func renderPattern(dst *image.RGBA, gen Generator, t float64) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	half := float64(min(w, h)) / 2
	cx, cy := float64(w)/2, float64(h)/2
	fn := pattern(gen, t)

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := dst.Pix[y*dst.Stride:]
			v := (float64(y) + 0.5 - cy) / half
			for x := 0; x < w; x++ {
				u := (float64(x) + 0.5 - cx) / half
				r, g, b := fn(u, v)
				i := x * 4
				row[i+0] = unit8(r)
				row[i+1] = unit8(g)
				row[i+2] = unit8(b)
				row[i+3] = 0xff
			}
		}
	})
}

func pattern(gen Generator, t float64) patternFunc {
	p1, p2 := gen.Param1/100, gen.Param2/100
	switch gen.Type {
	case GeneratorFibonacci:
		return fibonacciPattern(p1, p2, t)
	case GeneratorVoronoi:
		return voronoiPattern(p1, p2, t)
	case GeneratorGrid:
		return gridPattern(p1, p2, t)
	case GeneratorLiquid:
		return liquidPattern(p1, p2, t)
	case GeneratorPlasma:
		return plasmaPattern(p1, p2, t)
	case GeneratorFractal:
		return fractalPattern(p1, p2, t)
	case GeneratorNone:
	}
	return func(u, v float64) (float64, float64, float64) { return 0, 0, 0 }
}

// goldenAngle is the divergence angle of a sunflower head.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// fibonacciPattern draws a phyllotaxis spiral. p1 sets the seed count and
// p2 the seed size.
func fibonacciPattern(p1, p2, t float64) patternFunc {
	n := 40 + int(p1*760)
	spacing := 1 / math.Sqrt(float64(n))
	dot := spacing * (0.2 + 0.6*p2)
	return func(u, v float64) (float64, float64, float64) {
		r := math.Hypot(u, v)
		if r > 1.05 {
			return 0, 0, 0
		}
		// Seed k sits at radius spacing*sqrt(k); check the rings around r.
		kc := (r / spacing) * (r / spacing)
		theta := math.Atan2(v, u)
		best, bestK := math.MaxFloat64, 0
		for k := max(int(kc)-int(2*math.Sqrt(kc))-3, 0); k <= int(kc)+int(2*math.Sqrt(kc))+3 && k < n; k++ {
			a := float64(k)*goldenAngle + t*0.3
			rk := spacing * math.Sqrt(float64(k))
			dx, dy := u-rk*math.Cos(a), v-rk*math.Sin(a)
			if d := dx*dx + dy*dy; d < best {
				best, bestK = d, k
			}
		}
		d := math.Sqrt(best)
		if d > dot {
			return 0.02, 0.02, 0.04
		}
		edge := 1 - d/dot
		return hsv(float64(bestK)/float64(n)+theta/(2*math.Pi)*0.1, 0.8, 0.4+0.6*edge)
	}
}

// voronoiPattern shades cells around drifting seeds. p1 sets the seed
// count and p2 the border width.
func voronoiPattern(p1, p2, t float64) patternFunc {
	n := 4 + int(p1*60)
	seeds := make([]Vec2, n)
	for i := range seeds {
		fx, fy := hash2(i)
		seeds[i] = Vec2{
			X: (fx*2-1)*1.6 + 0.15*math.Sin(t+float64(i)),
			Y: (fy*2-1)*1.2 + 0.15*math.Cos(t*1.3+float64(i)),
		}
	}
	border := 0.005 + 0.08*p2
	return func(u, v float64) (float64, float64, float64) {
		d1, d2, idx := math.MaxFloat64, math.MaxFloat64, 0
		for i, s := range seeds {
			dx, dy := u-s.X, v-s.Y
			d := dx*dx + dy*dy
			if d < d1 {
				d2, d1, idx = d1, d, i
			} else if d < d2 {
				d2 = d
			}
		}
		gap := math.Sqrt(d2) - math.Sqrt(d1)
		if gap < border {
			return 0.95, 0.95, 0.95
		}
		return hsv(float64(idx)/float64(n), 0.65, 0.35+0.5*math.Min(gap*3, 1))
	}
}

// gridPattern draws a rotating lattice. p1 sets the cell count and p2 the
// line thickness.
func gridPattern(p1, p2, t float64) patternFunc {
	cells := 2 + p1*22
	thick := 0.02 + 0.3*p2
	sin, cos := math.Sincos(t * 0.2)
	return func(u, v float64) (float64, float64, float64) {
		ru, rv := u*cos-v*sin, u*sin+v*cos
		gx, gy := ru*cells, rv*cells
		fx, fy := gx-math.Floor(gx), gy-math.Floor(gy)
		edge := math.Min(math.Min(fx, 1-fx), math.Min(fy, 1-fy))
		if edge < thick/2 {
			return hsv(0.55+0.1*math.Sin(t), 0.7, 1)
		}
		checker := math.Mod(math.Floor(gx)+math.Floor(gy), 2)
		if checker < 0 {
			checker += 2
		}
		return 0.05 + 0.1*checker, 0.05 + 0.1*checker, 0.1 + 0.15*checker
	}
}

// liquidPattern folds sine fields into each other. p1 sets the frequency
// and p2 the fold strength.
func liquidPattern(p1, p2, t float64) patternFunc {
	f := 1 + p1*6
	k := 0.3 + p2*2
	return func(u, v float64) (float64, float64, float64) {
		x, y := u*f, v*f
		for i := 1; i <= 3; i++ {
			fi := float64(i)
			x += k / fi * math.Sin(fi*y+t)
			y += k / fi * math.Cos(fi*x-t*0.7)
		}
		s := 0.5 + 0.5*math.Sin(x+y)
		return hsv(0.08+0.1*math.Sin(x*0.3), 0.6+0.3*s, 0.3+0.7*s)
	}
}

// plasmaPattern is the classic sum of sines. p1 sets the scale and p2 the
// palette spread.
func plasmaPattern(p1, p2, t float64) patternFunc {
	scale := 1 + p1*8
	spread := 0.2 + p2
	return func(u, v float64) (float64, float64, float64) {
		x, y := u*scale, v*scale
		s := math.Sin(x+t) +
			math.Sin((y+t)/2) +
			math.Sin((x+y+t)/2) +
			math.Sin(math.Sqrt(x*x+y*y+1)+t)
		return hsv(s/4*spread+t*0.05, 0.9, 0.9)
	}
}

// fractalPattern renders a Julia set whose constant orbits with time. p1
// picks the orbit radius and p2 the zoom.
func fractalPattern(p1, p2, t float64) patternFunc {
	const maxIter = 64
	radius := 0.6 + 0.25*p1
	cr, ci := radius*math.Cos(t*0.25+2.2), radius*math.Sin(t*0.25+2.2)
	zoom := 1.6 - 1.2*p2
	return func(u, v float64) (float64, float64, float64) {
		zr, zi := u*zoom, v*zoom
		i := 0
		for ; i < maxIter && zr*zr+zi*zi < 4; i++ {
			zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
		}
		if i == maxIter {
			return 0, 0, 0
		}
		f := float64(i) / maxIter
		return hsv(0.6+f*2, 0.8, math.Sqrt(f))
	}
}

// hsv converts hue (wrapping), saturation and value in [0, 1] to RGB.
func hsv(h, s, v float64) (float64, float64, float64) {
	h -= math.Floor(h)
	h *= 6
	i := math.Floor(h)
	f := h - i
	p, q, t := v*(1-s), v*(1-s*f), v*(1-s*(1-f))
	switch int(i) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// hash2 returns two stable pseudo-random values in [0, 1) for i.
func hash2(i int) (float64, float64) {
	x := uint32(i)*0x9E3779B9 + 0x7F4A7C15
	x ^= x >> 16
	x *= 0x85EBCA6B
	x ^= x >> 13
	y := x*0xC2B2AE35 + 0x27D4EB2F
	y ^= y >> 16
	return float64(x) / (1 << 32), float64(y) / (1 << 32)
}

func unit8(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
