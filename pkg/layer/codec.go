package layer

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matzehuels/mockup/pkg/transform"
)

// wireLayer is the JSON shape shared with the decoder and the UI.
type wireLayer struct {
	Name      string     `json:"name"`
	Kind      Kind       `json:"kind"`
	LayerID   string     `json:"layerId,omitempty"`
	Visible   *bool      `json:"visible"`
	Opacity   *flexFloat `json:"opacity"`
	BlendMode string     `json:"blend_mode,omitempty"`

	X      flexFloat `json:"x"`
	Y      flexFloat `json:"y"`
	Width  flexFloat `json:"width"`
	Height flexFloat `json:"height"`

	ScaleX     *flexFloat `json:"scaleX"`
	ScaleY     *flexFloat `json:"scaleY"`
	SkewX      flexFloat  `json:"skewX"`
	SkewY      flexFloat  `json:"skewY"`
	TranslateX flexFloat  `json:"translateX"`
	TranslateY flexFloat  `json:"translateY"`
	Rotate     flexFloat  `json:"rotate"`

	ZIndex   flexFloat    `json:"z_index"`
	IsGroup  bool         `json:"is_group"`
	Children []*wireLayer `json:"children"`

	ImagePath      *string `json:"image_path"`
	RawImagePath   *string `json:"raw_image_path"`
	CropImagePath  *string `json:"crop_image_path"`
	ThumbImagePath *string `json:"thumb_image_path"`
	SVGPath        *string `json:"svg_path"`
	FillColor      *string `json:"fill_color"`

	TextData *wireText `json:"text_data"`
}

type wireText struct {
	Text        string    `json:"text"`
	FontName    string    `json:"font_name"`
	FontSize    flexFloat `json:"font_size"`
	FillColor   string    `json:"fill_color"`
	StrokeColor string    `json:"stroke_color"`
	StrokeWidth flexFloat `json:"stroke_width"`
	FontPath    string    `json:"font_path"`
	TextPath    string    `json:"text_path,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (l *Layer) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(l))
}

// UnmarshalJSON implements json.Unmarshaler. Missing scales default to 1,
// numeric fields accept strings such as "27px", and is_group is ignored in
// favour of the children list.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var w wireLayer
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = *fromWire(&w)
	return nil
}

func toWire(l *Layer) *wireLayer {
	visible := l.Visible
	opacity := flexFloat(l.Opacity)
	sx, sy := flexFloat(l.Transform.ScaleX), flexFloat(l.Transform.ScaleY)
	w := &wireLayer{
		Name:       l.Name,
		Kind:       l.Kind,
		LayerID:    l.LayerID,
		Visible:    &visible,
		Opacity:    &opacity,
		BlendMode:  l.BlendMode,
		X:          flexFloat(l.X),
		Y:          flexFloat(l.Y),
		Width:      flexFloat(l.Width),
		Height:     flexFloat(l.Height),
		ScaleX:     &sx,
		ScaleY:     &sy,
		SkewX:      flexFloat(l.Transform.SkewX),
		SkewY:      flexFloat(l.Transform.SkewY),
		TranslateX: flexFloat(l.Transform.TranslateX),
		TranslateY: flexFloat(l.Transform.TranslateY),
		Rotate:     flexFloat(l.Transform.Rotate),
		ZIndex:     flexFloat(l.ZIndex),
		IsGroup:    l.IsGroup(),
	}
	if l.IsGroup() {
		w.Kind = KindGroup
		w.Children = make([]*wireLayer, len(l.Children))
		for i, c := range l.Children {
			w.Children[i] = toWire(c)
		}
	}
	if p := l.Pixel; p != nil {
		w.ImagePath = nullable(p.ImagePath)
		w.RawImagePath = nullable(p.RawImagePath)
		w.CropImagePath = nullable(p.CropImagePath)
		w.ThumbImagePath = nullable(p.ThumbImagePath)
		w.SVGPath = nullable(p.SVGPath)
		w.FillColor = nullable(p.FillColor)
	}
	if t := l.Text; t != nil {
		w.TextData = &wireText{
			Text:        t.Text,
			FontName:    t.FontName,
			FontSize:    flexFloat(t.FontSize),
			FillColor:   t.FillColor,
			StrokeColor: t.StrokeColor,
			StrokeWidth: flexFloat(t.StrokeWidth),
			FontPath:    t.FontPath,
			TextPath:    t.TextPath,
		}
	}
	return w
}

func fromWire(w *wireLayer) *Layer {
	l := &Layer{
		Name:      w.Name,
		Kind:      w.Kind,
		LayerID:   w.LayerID,
		Visible:   w.Visible == nil || *w.Visible,
		Opacity:   DefaultOpacity,
		BlendMode: w.BlendMode,
		X:         float64(w.X),
		Y:         float64(w.Y),
		Width:     float64(w.Width),
		Height:    float64(w.Height),
		ZIndex:    int(w.ZIndex),
		Transform: transform.T{
			ScaleX:     orOne(w.ScaleX),
			ScaleY:     orOne(w.ScaleY),
			SkewX:      float64(w.SkewX),
			SkewY:      float64(w.SkewY),
			TranslateX: float64(w.TranslateX),
			TranslateY: float64(w.TranslateY),
			Rotate:     float64(w.Rotate),
		},
	}
	if w.Opacity != nil {
		l.Opacity = int(*w.Opacity)
	}
	if l.BlendMode == "" {
		l.BlendMode = DefaultBlendMode
	}

	if len(w.Children) > 0 {
		l.Kind = KindGroup
		l.Children = make([]*Layer, 0, len(w.Children))
		for _, c := range w.Children {
			if c != nil {
				l.Children = append(l.Children, fromWire(c))
			}
		}
		return l
	}

	if l.Kind.IsText() && w.TextData != nil {
		l.Text = &Text{
			Text:        w.TextData.Text,
			FontName:    w.TextData.FontName,
			FontSize:    float64(w.TextData.FontSize),
			FillColor:   w.TextData.FillColor,
			StrokeColor: w.TextData.StrokeColor,
			StrokeWidth: float64(w.TextData.StrokeWidth),
			FontPath:    w.TextData.FontPath,
			TextPath:    w.TextData.TextPath,
		}
		return l
	}

	// Decoders report kinds such as "shape" or "smartobject"; anything that
	// is neither a group nor text renders as an image.
	l.Kind = KindPixel
	l.Pixel = &Pixel{
		ImagePath:      deref(w.ImagePath),
		RawImagePath:   deref(w.RawImagePath),
		CropImagePath:  deref(w.CropImagePath),
		ThumbImagePath: deref(w.ThumbImagePath),
		SVGPath:        deref(w.SVGPath),
		FillColor:      deref(w.FillColor),
	}
	return l
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orOne(f *flexFloat) float64 {
	if f == nil {
		return 1
	}
	return float64(*f)
}

// flexFloat decodes JSON numbers, numeric strings with units ("27px") and
// null. Unparseable strings decode as 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, _ := transform.Number(strings.TrimSpace(s))
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
