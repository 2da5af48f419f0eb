package svgdoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/mockup/pkg/transform"
)

// Transform returns the parsed transform attribute of n.
func (n *Node) Transform() transform.T {
	return transform.Parse(n.Attr("transform"))
}

// CTM returns the transform from n's local space to document space: n's own
// transform followed by every ancestor's, up to and excluding the root.
func (n *Node) CTM() transform.T {
	t := n.Transform()
	for p := n.Parent; p != nil && p.Parent != nil; p = p.Parent {
		if p.HasAttr("transform") {
			t = t.Then(p.Transform())
		}
	}
	return t
}

// Num returns the numeric value of attribute name, or 0.
func (n *Node) Num(name string) float64 {
	v, _ := transform.Number(n.Attr(name))
	return v
}

// PathData returns path data for n: the d attribute of a <path>, or the
// equivalent path of a basic shape. It reports false for elements without
// vector geometry.
func (n *Node) PathData() (string, bool) {
	switch n.Tag {
	case "path":
		d := strings.TrimSpace(n.Attr("d"))
		return d, d != ""
	case "rect":
		x, y, w, h := n.Num("x"), n.Num("y"), n.Num("width"), n.Num("height")
		if w <= 0 || h <= 0 {
			return "", false
		}
		return fmt.Sprintf("M%s %sH%sV%sH%sZ", ff(x), ff(y), ff(x+w), ff(y+h), ff(x)), true
	case "circle":
		r := n.Num("r")
		if r <= 0 {
			return "", false
		}
		return ellipsePath(n.Num("cx"), n.Num("cy"), r, r), true
	case "ellipse":
		rx, ry := n.Num("rx"), n.Num("ry")
		if rx <= 0 || ry <= 0 {
			return "", false
		}
		return ellipsePath(n.Num("cx"), n.Num("cy"), rx, ry), true
	case "line":
		return fmt.Sprintf("M%s %sL%s %s",
			ff(n.Num("x1")), ff(n.Num("y1")), ff(n.Num("x2")), ff(n.Num("y2"))), true
	case "polyline", "polygon":
		pts := strings.TrimSpace(n.Attr("points"))
		if pts == "" {
			return "", false
		}
		d := "M" + pts
		if n.Tag == "polygon" {
			d += "Z"
		}
		return d, true
	}
	return "", false
}

func ellipsePath(cx, cy, rx, ry float64) string {
	return fmt.Sprintf("M%s %sA%s %s 0 1 0 %s %sA%s %s 0 1 0 %s %sZ",
		ff(cx-rx), ff(cy), ff(rx), ff(ry), ff(cx+rx), ff(cy),
		ff(rx), ff(ry), ff(cx-rx), ff(cy))
}

func ff(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// LocalBounds returns the bounding box of n in its own coordinate space,
// before its transform is applied. Groups report the union of their
// children in the group's space.
func (n *Node) LocalBounds() (Rect, bool) {
	switch n.Tag {
	case "image", "use", "foreignObject":
		w, h := n.Num("width"), n.Num("height")
		return Rect{X: n.Num("x"), Y: n.Num("y"), W: w, H: h}, true
	case "text":
		return Rect{X: n.Num("x"), Y: n.Num("y")}, true
	case "g", "svg":
		var out Rect
		found := false
		for _, c := range n.Elements() {
			r, ok := c.Bounds()
			if !ok {
				continue
			}
			if !found {
				out, found = r, true
			} else {
				out = out.Union(r)
			}
		}
		return out, found
	}
	if d, ok := n.PathData(); ok {
		return PathBounds(d)
	}
	return Rect{}, false
}

// Bounds returns the bounding box of n in its parent's coordinate space,
// with n's own transform applied.
func (n *Node) Bounds() (Rect, bool) {
	r, ok := n.LocalBounds()
	if !ok {
		return Rect{}, false
	}
	return applyRect(n.Transform(), r), true
}

// DocumentBounds returns the bounding box of n in document space.
func (n *Node) DocumentBounds() (Rect, bool) {
	r, ok := n.LocalBounds()
	if !ok {
		return Rect{}, false
	}
	return applyRect(n.CTM(), r), true
}

func applyRect(t transform.T, r Rect) Rect {
	if t.IsIdentity() {
		return r
	}
	minX, minY, maxX, maxY := t.Bounds(r.X, r.Y, r.W, r.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// ParseViewBox parses "minX minY width height".
func ParseViewBox(s string) (Rect, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return Rect{}, false
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Rect{}, false
		}
		v[i] = n
	}
	return Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}, true
}

// String formats r as a viewBox value.
func (r Rect) String() string {
	return ff(r.X) + " " + ff(r.Y) + " " + ff(r.W) + " " + ff(r.H)
}
