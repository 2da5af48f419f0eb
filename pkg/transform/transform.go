// Package transform decodes SVG affine transform attributes into structured
// records.
//
// Two encodings are understood:
//
//   - Matrix form: "matrix(a,b,c,d,e,f)" (comma or space separated). The six
//     values map directly onto ScaleX, SkewY, SkewX, ScaleY, TranslateX and
//     TranslateY. Rotate stays 0; use [T.Rotation] to recover an angle.
//   - Compound form: any combination of "translate(tx[,ty])", "scale(sx[,sy])"
//     and "rotate(deg)". A missing ty defaults to tx, a missing sy to sx.
//
// Parsing never fails. Unparseable input yields [Identity].
//
// The rest of the module depends on [T] only; raw transform strings do not
// travel past this package.
package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// T is a decomposed 2D affine transform.
type T struct {
	ScaleX     float64
	SkewY      float64
	SkewX      float64
	ScaleY     float64
	TranslateX float64
	TranslateY float64
	Rotate     float64 // degrees; only populated by the compound form
}

// Identity returns the identity transform.
func Identity() T {
	return T{ScaleX: 1, ScaleY: 1}
}

var (
	matrixRe    = regexp.MustCompile(`matrix\s*\(([^)]*)\)`)
	translateRe = regexp.MustCompile(`translate\s*\(([^)]+)\)`)
	scaleRe     = regexp.MustCompile(`scale\s*\(([^)]+)\)`)
	rotateRe    = regexp.MustCompile(`rotate\s*\(([^)]+)\)`)
	leadingNum  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// Parse decodes a transform attribute value.
func Parse(s string) T {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identity()
	}
	if strings.Contains(s, "matrix") {
		return parseMatrix(s)
	}
	return parseCompound(s)
}

func parseMatrix(s string) T {
	m := matrixRe.FindStringSubmatch(s)
	if m == nil {
		return Identity()
	}
	args := splitArgs(m[1])
	if len(args) != 6 {
		return Identity()
	}
	v := make([]float64, 6)
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Identity()
		}
		v[i] = f
	}
	return T{
		ScaleX:     v[0],
		SkewY:      v[1],
		SkewX:      v[2],
		ScaleY:     v[3],
		TranslateX: v[4],
		TranslateY: v[5],
	}
}

func parseCompound(s string) T {
	t := Identity()

	if m := translateRe.FindStringSubmatch(s); m != nil {
		args := splitArgs(m[1])
		if tx, ok := leadingFloat(at(args, 0)); ok {
			t.TranslateX = tx
		}
		t.TranslateY = t.TranslateX
		if ty, ok := leadingFloat(at(args, 1)); ok {
			t.TranslateY = ty
		}
	}

	if m := scaleRe.FindStringSubmatch(s); m != nil {
		args := splitArgs(m[1])
		if sx, ok := leadingFloat(at(args, 0)); ok {
			t.ScaleX = sx
		}
		t.ScaleY = t.ScaleX
		if sy, ok := leadingFloat(at(args, 1)); ok {
			t.ScaleY = sy
		}
	}

	if m := rotateRe.FindStringSubmatch(s); m != nil {
		if deg, ok := leadingFloat(at(splitArgs(m[1]), 0)); ok {
			t.Rotate = deg
		}
	}

	return t
}

// splitArgs splits a transform argument list on commas and whitespace.
func splitArgs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

func at(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// Number parses the numeric prefix of a CSS-style length ("12.5px" -> 12.5).
func Number(s string) (float64, bool) {
	return leadingFloat(s)
}

func leadingFloat(s string) (float64, bool) {
	m := leadingNum.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsIdentity reports whether t leaves every point unchanged.
func (t T) IsIdentity() bool {
	return t == Identity()
}

// Rotation returns the rotation angle in degrees. For compound transforms it
// is the explicit rotate() value; for matrix transforms it is recovered from
// the linear part as atan2(skewY, scaleX).
func (t T) Rotation() float64 {
	if t.Rotate != 0 {
		return t.Rotate
	}
	if t.SkewY == 0 {
		return 0
	}
	return math.Atan2(t.SkewY, t.ScaleX) * 180 / math.Pi
}

// String formats t as an SVG transform attribute.
func (t T) String() string {
	if t.Rotate != 0 {
		return "translate(" + ftoa(t.TranslateX) + " " + ftoa(t.TranslateY) + ") rotate(" +
			ftoa(t.Rotate) + ") scale(" + ftoa(t.ScaleX) + " " + ftoa(t.ScaleY) + ")"
	}
	return "matrix(" + strings.Join([]string{
		ftoa(t.ScaleX), ftoa(t.SkewY), ftoa(t.SkewX),
		ftoa(t.ScaleY), ftoa(t.TranslateX), ftoa(t.TranslateY),
	}, ",") + ")"
}

// Format formats f the way transform attributes are written: shortest
// decimal form, no exponent.
func Format(f float64) string { return ftoa(f) }

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
