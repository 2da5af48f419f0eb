package asset

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"none":        {},
	"transparent": {},
}

// ParseColor parses a CSS color: #rgb, #rrggbb, #rrggbbaa, rgb(), rgba()
// or a basic color name.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgb") {
		lp, rp := strings.IndexByte(s, '('), strings.IndexByte(s, ')')
		if lp < 0 || rp < lp {
			return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
		}
		parts := strings.Split(s[lp+1:rp], ",")
		if len(parts) < 3 {
			return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
		}
		c := color.NRGBA{A: 255}
		for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
			v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
			}
			*dst = clampByte(v)
		}
		if len(parts) > 3 {
			if a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err == nil {
				c.A = clampByte(a * 255)
			}
		}
		return c, nil
	}
	return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
}

func parseHex(h string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("malformed hex color #%s", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("malformed hex color #%s", h)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
