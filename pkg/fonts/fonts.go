// Package fonts provides the font faces used to rasterize size labels and
// text overlays.
//
// The Go fonts are compiled into golang.org/x/image, so no font files need
// to be present at runtime. Parsed fonts are cached after first use.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Style selects a font variant.
type Style int

const (
	Regular Style = iota
	Italic
)

// FontFamily is the CSS family written into generated SVG text.
const FontFamily = "Arial"

// FallbackFontFamily lists fallbacks for viewers without FontFamily.
const FallbackFontFamily = `Arial, 'Go', Helvetica, sans-serif`

var (
	parseOnce sync.Once
	parsed    map[Style]*opentype.Font
	parseErr  error
)

func load() (map[Style]*opentype.Font, error) {
	parseOnce.Do(func() {
		parsed = make(map[Style]*opentype.Font, 2)
		for style, ttf := range map[Style][]byte{Regular: goregular.TTF, Italic: goitalic.TTF} {
			f, err := opentype.Parse(ttf)
			if err != nil {
				parseErr = fmt.Errorf("parse font %d: %w", style, err)
				return
			}
			parsed[style] = f
		}
	})
	return parsed, parseErr
}

// Face returns a face of the given style at size points (72 DPI, so one
// point is one pixel).
func Face(style Style, size float64) (font.Face, error) {
	fs, err := load()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 12
	}
	return opentype.NewFace(fs[style], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
