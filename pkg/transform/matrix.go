package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix returns t as a 3x3 homogeneous matrix:
//
//	| a c e |
//	| b d f |
//	| 0 0 1 |
//
// Compound transforms with a rotation are composed as translate * rotate * scale.
func (t T) Matrix() *mat.Dense {
	if t.Rotate == 0 {
		return mat.NewDense(3, 3, []float64{
			t.ScaleX, t.SkewX, t.TranslateX,
			t.SkewY, t.ScaleY, t.TranslateY,
			0, 0, 1,
		})
	}

	rad := t.Rotate * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	translate := mat.NewDense(3, 3, []float64{
		1, 0, t.TranslateX,
		0, 1, t.TranslateY,
		0, 0, 1,
	})
	rotate := mat.NewDense(3, 3, []float64{
		cos, -sin, 0,
		sin, cos, 0,
		0, 0, 1,
	})
	scale := mat.NewDense(3, 3, []float64{
		t.ScaleX, t.SkewX, 0,
		t.SkewY, t.ScaleY, 0,
		0, 0, 1,
	})

	var tr, out mat.Dense
	tr.Mul(translate, rotate)
	out.Mul(&tr, scale)
	return &out
}

// FromMatrix converts a 3x3 homogeneous matrix back into matrix form.
func FromMatrix(m mat.Matrix) T {
	return T{
		ScaleX:     m.At(0, 0),
		SkewY:      m.At(1, 0),
		SkewX:      m.At(0, 1),
		ScaleY:     m.At(1, 1),
		TranslateX: m.At(0, 2),
		TranslateY: m.At(1, 2),
	}
}

// Then returns the transform that applies t first and then next, which is
// the SVG nesting order of a child (t) inside a parent (next).
func (t T) Then(next T) T {
	var out mat.Dense
	out.Mul(next.Matrix(), t.Matrix())
	return FromMatrix(&out)
}

// Apply maps the point (x, y) through t.
func (t T) Apply(x, y float64) (float64, float64) {
	var out mat.VecDense
	out.MulVec(t.Matrix(), mat.NewVecDense(3, []float64{x, y, 1}))
	return out.AtVec(0), out.AtVec(1)
}

// Bounds maps the axis-aligned rectangle (x, y, w, h) through t and returns
// the axis-aligned bounding box of the result.
func (t T) Bounds(x, y, w, h float64) (minX, minY, maxX, maxY float64) {
	if t.IsIdentity() {
		return x, y, x + w, y + h
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{x, y}, {x + w, y}, {x, y + h}, {x + w, y + h}} {
		px, py := t.Apply(p[0], p[1])
		minX = math.Min(minX, px)
		minY = math.Min(minY, py)
		maxX = math.Max(maxX, px)
		maxY = math.Max(maxY, py)
	}
	return minX, minY, maxX, maxY
}
