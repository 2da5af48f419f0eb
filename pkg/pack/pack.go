// Package pack arranges rectangles on fixed-size sheets.
//
// Items are sorted by height, then width, and laid out on shelves that
// grow from the bottom of the sheet upward. Each shelf starts at x = 2*gap;
// an item that would cross the inner guide starts a new shelf above the
// previous one, and a shelf that would leave the top of the sheet starts a
// new sheet. Every returned sheet holds at least one item.
//
// Pack is pure: it computes placements only. Rendering the sheets is the
// caller's job (see the merge package).
package pack

import (
	"math"
	"sort"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Item is a rectangle to place.
type Item struct {
	Ref    string // caller-defined reference, usually the source file
	Width  float64
	Height float64

	// Scale is the intrinsic scale of a vector item's root path. Values of
	// 0 and 1 mean unscaled.
	Scale float64
}

// Placement is an item with its assigned top-left corner on a sheet.
type Placement struct {
	Item
	Left, Top float64
}

// Right returns the right edge of the placement.
func (p Placement) Right() float64 { return p.Left + p.Width }

// Bottom returns the bottom edge of the placement.
func (p Placement) Bottom() float64 { return p.Top + p.Height }

// Sheet is one output canvas.
type Sheet struct {
	Width, Height float64
	Placements    []Placement
}

// Options sets the sheet size and the guide gap.
type Options struct {
	Width  float64
	Height float64
	Gap    float64
}

// Interior returns the largest item size that fits a sheet.
func (o Options) Interior() (w, h float64) {
	return o.Width - 2*o.Gap, o.Height - 2*o.Gap
}

// Pack places items on as many sheets as needed. It returns no sheets and
// no error when there are no items or the sheet size is not positive, and
// a SIZE_EXCEEDED error naming the violated dimension when an item is
// larger than the sheet interior.
func Pack(items []Item, opts Options) ([]Sheet, error) {
	if len(items) == 0 || opts.Width <= 0 || opts.Height <= 0 {
		return nil, nil
	}

	maxW, maxH := opts.Interior()
	for _, it := range items {
		if it.Width > maxW {
			return nil, errors.New(errors.ErrCodeSizeExceeded,
				"%s is too large: width %g exceeds the usable sheet width %g", refName(it), it.Width, maxW)
		}
		if it.Height > maxH {
			return nil, errors.New(errors.ErrCodeSizeExceeded,
				"%s is too large: height %g exceeds the usable sheet height %g", refName(it), it.Height, maxH)
		}
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Height != sorted[j].Height {
			return sorted[i].Height < sorted[j].Height
		}
		return sorted[i].Width < sorted[j].Width
	})

	g := opts.Gap
	startX, floor, right := 2*g, opts.Height-2*g, opts.Width-2*g

	var sheets []Sheet
	cur := Sheet{Width: opts.Width, Height: opts.Height}
	x, baseline, shelfH := startX, floor, 0.0
	for _, it := range sorted {
		if shelfH > 0 && x+it.Width > right {
			x = startX
			baseline -= shelfH + g
			shelfH = 0
		}
		if baseline-it.Height < 0 {
			sheets = append(sheets, cur)
			cur = Sheet{Width: opts.Width, Height: opts.Height}
			x, baseline, shelfH = startX, floor, 0
		}

		top := baseline - it.Height - scaleGap(g, it.Scale)
		cur.Placements = append(cur.Placements, Placement{Item: it, Left: x, Top: math.Max(0, top)})
		x += it.Width + g
		shelfH = math.Max(shelfH, it.Height)
	}
	if len(cur.Placements) > 0 {
		sheets = append(sheets, cur)
	}
	return sheets, nil
}

// scaleGap compensates the guide gap for vector items whose root path is
// scaled.
func scaleGap(gap, scale float64) float64 {
	if scale == 0 || scale == 1 {
		return 0
	}
	return math.Floor(gap / scale * 0.9)
}

func refName(it Item) string {
	if it.Ref == "" {
		return "element"
	}
	return it.Ref
}

// Line is a guide segment.
type Line struct {
	X1, Y1, X2, Y2 float64
}

// Guide stroke style.
const (
	GuideColor = "red"
	GuideWidth = 3
)

// Guides returns the trim guides of a sheet: the full-bleed border and an
// inner border inset by gap, four segments each.
func Guides(opts Options) []Line {
	w, h, g := opts.Width, opts.Height, opts.Gap
	return []Line{
		{0, 0, w, 0}, {w, 0, w, h}, {w, h, 0, h}, {0, h, 0, 0},
		{g, g, w - g, g}, {w - g, g, w - g, h - g}, {w - g, h - g, g, h - g}, {g, h - g, g, g},
	}
}
