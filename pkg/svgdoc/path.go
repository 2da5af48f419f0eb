package svgdoc

import (
	"math"
	"strconv"
	"strings"
)

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	minX, minY := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	maxX, maxY := math.Max(r.MaxX(), o.MaxX()), math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// bbox accumulates points into a bounding box.
type bbox struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newBBox() bbox {
	return bbox{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1), empty: true}
}

func (b *bbox) add(x, y float64) {
	b.minX = math.Min(b.minX, x)
	b.minY = math.Min(b.minY, y)
	b.maxX = math.Max(b.maxX, x)
	b.maxY = math.Max(b.maxY, y)
	b.empty = false
}

func (b bbox) rect() (Rect, bool) {
	if b.empty {
		return Rect{}, false
	}
	return Rect{X: b.minX, Y: b.minY, W: b.maxX - b.minX, H: b.maxY - b.minY}, true
}

// PathBounds returns the exact bounding box of path data d, including
// curve extrema. It reports false for empty or unparseable data.
func PathBounds(d string) (Rect, bool) {
	p := &pathScanner{s: d}
	b := newBBox()

	var (
		cx, cy float64 // current point
		sx, sy float64 // subpath start
		px, py float64 // last control point, for S/T reflection
		prev   byte
		cmd    byte
	)

	for {
		p.skipSep()
		if p.done() {
			break
		}
		if c := p.peek(); isCommand(c) {
			cmd = c
			p.pos++
		} else if cmd == 0 {
			return Rect{}, false
		} else if cmd == 'Z' || cmd == 'z' {
			// Closepath takes no arguments; stray data after it ends the path.
			return b.rect()
		}
		rel := cmd >= 'a'
		up := cmd &^ 0x20

		ox, oy := 0.0, 0.0
		if rel {
			ox, oy = cx, cy
		}

		switch up {
		case 'Z':
			cx, cy = sx, sy
			prev = 'Z'
			continue
		case 'M':
			x, y, ok := p.pair()
			if !ok {
				return b.rect()
			}
			cx, cy = ox+x, oy+y
			sx, sy = cx, cy
			b.add(cx, cy)
			// Subsequent pairs after M are implicit lineto.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L':
			x, y, ok := p.pair()
			if !ok {
				return b.rect()
			}
			cx, cy = ox+x, oy+y
			b.add(cx, cy)
		case 'H':
			x, ok := p.number()
			if !ok {
				return b.rect()
			}
			cx = ox + x
			b.add(cx, cy)
		case 'V':
			y, ok := p.number()
			if !ok {
				return b.rect()
			}
			cy = oy + y
			b.add(cx, cy)
		case 'C', 'S':
			var x1, y1 float64
			if up == 'C' {
				var ok bool
				if x1, y1, ok = p.pair(); !ok {
					return b.rect()
				}
				x1, y1 = ox+x1, oy+y1
			} else if prev == 'C' || prev == 'S' {
				x1, y1 = 2*cx-px, 2*cy-py
			} else {
				x1, y1 = cx, cy
			}
			x2, y2, ok1 := p.pair()
			x, y, ok2 := p.pair()
			if !ok1 || !ok2 {
				return b.rect()
			}
			x2, y2, x, y = ox+x2, oy+y2, ox+x, oy+y
			cubicBounds(&b, cx, cy, x1, y1, x2, y2, x, y)
			px, py = x2, y2
			cx, cy = x, y
		case 'Q', 'T':
			var x1, y1 float64
			if up == 'Q' {
				var ok bool
				if x1, y1, ok = p.pair(); !ok {
					return b.rect()
				}
				x1, y1 = ox+x1, oy+y1
			} else if prev == 'Q' || prev == 'T' {
				x1, y1 = 2*cx-px, 2*cy-py
			} else {
				x1, y1 = cx, cy
			}
			x, y, ok := p.pair()
			if !ok {
				return b.rect()
			}
			x, y = ox+x, oy+y
			quadBounds(&b, cx, cy, x1, y1, x, y)
			px, py = x1, y1
			cx, cy = x, y
		case 'A':
			rx, ok1 := p.number()
			ry, ok2 := p.number()
			rot, ok3 := p.number()
			large, ok4 := p.flag()
			sweep, ok5 := p.flag()
			x, y, ok6 := p.pair()
			if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
				return b.rect()
			}
			x, y = ox+x, oy+y
			arcBounds(&b, cx, cy, rx, ry, rot, large, sweep, x, y)
			cx, cy = x, y
		}
		prev = up
	}
	return b.rect()
}

func isCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

type pathScanner struct {
	s   string
	pos int
}

func (p *pathScanner) done() bool { return p.pos >= len(p.s) }

func (p *pathScanner) peek() byte { return p.s[p.pos] }

func (p *pathScanner) skipSep() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', ',', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// number reads one number. Numbers may be packed without separators
// ("1.5.5" is 1.5 and .5, "1-2" is 1 and -2).
func (p *pathScanner) number() (float64, bool) {
	p.skipSep()
	start := p.pos
	if p.pos < len(p.s) && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
		p.pos++
	}
	digits, dot := false, false
scan:
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot:
			dot = true
		default:
			break scan
		}
		p.pos++
	}
	if !digits {
		p.pos = start
		return 0, false
	}
	if p.pos < len(p.s) && (p.s[p.pos] == 'e' || p.s[p.pos] == 'E') {
		save := p.pos
		p.pos++
		if p.pos < len(p.s) && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
			p.pos++
		}
		expDigits := false
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
			expDigits = true
		}
		if !expDigits {
			p.pos = save
		}
	}
	f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (p *pathScanner) pair() (float64, float64, bool) {
	x, ok := p.number()
	if !ok {
		return 0, 0, false
	}
	y, ok := p.number()
	return x, y, ok
}

// flag reads a single arc flag digit, which may be packed ("a1 1 0 01 5 5").
func (p *pathScanner) flag() (bool, bool) {
	p.skipSep()
	if p.done() {
		return false, false
	}
	switch p.s[p.pos] {
	case '0':
		p.pos++
		return false, true
	case '1':
		p.pos++
		return true, true
	}
	return false, false
}

func cubicBounds(b *bbox, x0, y0, x1, y1, x2, y2, x3, y3 float64) {
	b.add(x0, y0)
	b.add(x3, y3)
	for _, t := range cubicExtrema(x0, x1, x2, x3) {
		x, y := cubicAt(t, x0, x1, x2, x3), cubicAt(t, y0, y1, y2, y3)
		b.add(x, y)
	}
	for _, t := range cubicExtrema(y0, y1, y2, y3) {
		x, y := cubicAt(t, x0, x1, x2, x3), cubicAt(t, y0, y1, y2, y3)
		b.add(x, y)
	}
}

func cubicAt(t, p0, p1, p2, p3 float64) float64 {
	mt := 1 - t
	return mt*mt*mt*p0 + 3*mt*mt*t*p1 + 3*mt*t*t*p2 + t*t*t*p3
}

// cubicExtrema returns the parameters in (0,1) where the derivative of a
// one-dimensional cubic Bezier vanishes.
func cubicExtrema(p0, p1, p2, p3 float64) []float64 {
	a := -p0 + 3*p1 - 3*p2 + p3
	b := 2 * (p0 - 2*p1 + p2)
	c := p1 - p0

	var ts []float64
	if math.Abs(a) < 1e-12 {
		if math.Abs(b) > 1e-12 {
			ts = append(ts, -c/b)
		}
	} else {
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			ts = append(ts, (-b+sq)/(2*a), (-b-sq)/(2*a))
		}
	}
	out := ts[:0]
	for _, t := range ts {
		if t > 0 && t < 1 {
			out = append(out, t)
		}
	}
	return out
}

func quadBounds(b *bbox, x0, y0, x1, y1, x2, y2 float64) {
	b.add(x0, y0)
	b.add(x2, y2)
	for _, t := range []float64{quadExtremum(x0, x1, x2), quadExtremum(y0, y1, y2)} {
		if t > 0 && t < 1 {
			mt := 1 - t
			b.add(mt*mt*x0+2*mt*t*x1+t*t*x2, mt*mt*y0+2*mt*t*y1+t*t*y2)
		}
	}
}

func quadExtremum(p0, p1, p2 float64) float64 {
	d := p0 - 2*p1 + p2
	if math.Abs(d) < 1e-12 {
		return -1
	}
	return (p0 - p1) / d
}

// arcBounds adds an elliptical arc by converting it to center form and
// sampling it. Degenerate radii draw a straight line, as renderers do.
func arcBounds(b *bbox, x1, y1, rx, ry, rotDeg float64, large, sweep bool, x2, y2 float64) {
	b.add(x1, y1)
	b.add(x2, y2)
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 || (x1 == x2 && y1 == y2) {
		return
	}

	phi := rotDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx, dy := (x1-x2)/2, (y1-y2)/2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (x1+x2)/2
	cy := sinPhi*cxp + cosPhi*cyp + (y1+y2)/2

	theta1 := angle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	delta := angle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	const steps = 64
	for i := 1; i < steps; i++ {
		t := theta1 + delta*float64(i)/steps
		ex, ey := rx*math.Cos(t), ry*math.Sin(t)
		b.add(cosPhi*ex-sinPhi*ey+cx, sinPhi*ex+cosPhi*ey+cy)
	}
}

func angle(ux, uy, vx, vy float64) float64 {
	a := math.Atan2(vy, vx) - math.Atan2(uy, ux)
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
