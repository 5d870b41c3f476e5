package lumen

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine matrices are stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// multiplyAffine multiplies two 2D affine matrices: result = p * c, so c is
// applied first.
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// chain multiplies matrices left to right, so the last one is applied to a
// point first. This mirrors the order canvas-style translate/rotate/scale
// calls are written in.
func chain(ms ...[6]float64) [6]float64 {
	out := identityTransform
	for _, m := range ms {
		out = multiplyAffine(out, m)
	}
	return out
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func translation(x, y float64) [6]float64 { return [6]float64{1, 0, 0, 1, x, y} }

func scaling(sx, sy float64) [6]float64 { return [6]float64{sx, 0, 0, sy, 0, 0} }

func rotation(r float64) [6]float64 {
	sin, cos := math.Sincos(r)
	return [6]float64{cos, sin, -sin, cos, 0, 0}
}

// toAff3 converts to the row-major layout used by x/image/draw.
func toAff3(m [6]float64) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// placement returns the source-to-viewport matrix for a Transform group:
// the source is centered on (cx, cy), offset by (X, Y), then scaled and
// rotated about its own center.
func placement(t Transform, cx, cy float64, sw, sh int) [6]float64 {
	return chain(
		translation(cx+t.X, cy+t.Y),
		scaling(t.Scale, t.Scale),
		rotation(t.Rotation),
		translation(-float64(sw)/2, -float64(sh)/2),
	)
}
