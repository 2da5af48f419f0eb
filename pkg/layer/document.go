package layer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Document format constants written into every model file.
const (
	ColorModeRGB    = 3
	DocumentVersion = 1

	// FileName is the conventional name of a persisted model.
	FileName = "psd_data.json"
)

// Offset is a 2D displacement.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Document is a persisted layer model.
type Document struct {
	Layers       []*Layer `json:"layers"`
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	ColorMode    int      `json:"color_mode"`
	Version      int      `json:"version"`
	LayersCount  int      `json:"layers_count"`
	MissingFonts []string `json:"missing_fonts"`

	// CopyOffset is the displacement of the "copy" group relative to its
	// "base", when the source declared one.
	CopyOffset *Offset `json:"copy_offset,omitempty"`
}

// NewDocument wraps layers into a document for the source at path.
func NewDocument(path string, layers []*Layer) *Document {
	return &Document{
		Layers:       layers,
		Path:         path,
		Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		ColorMode:    ColorModeRGB,
		Version:      DocumentVersion,
		LayersCount:  len(layers),
		MissingFonts: []string{},
	}
}

// Decode parses a document from JSON.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid layer document")
	}
	if doc.MissingFonts == nil {
		doc.MissingFonts = []string{}
	}
	return &doc, nil
}

// ReadDocument loads a document from a JSON file.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layer document not found: %s", path)
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Encode serializes the document with indentation.
func (d *Document) Encode() ([]byte, error) {
	d.LayersCount = len(d.Layers)
	return json.MarshalIndent(d, "", "  ")
}

// WriteFile writes the document as JSON to path, creating parent
// directories.
func (d *Document) WriteFile(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Layers = make([]*Layer, len(d.Layers))
	for i, l := range d.Layers {
		c.Layers[i] = l.Clone()
	}
	c.MissingFonts = append([]string{}, d.MissingFonts...)
	if d.CopyOffset != nil {
		o := *d.CopyOffset
		c.CopyOffset = &o
	}
	return &c
}

// Find returns the first top-level layer named exactly name.
func (d *Document) Find(name string) *Layer {
	for _, l := range d.Layers {
		if l != nil && l.Name == name {
			return l
		}
	}
	return nil
}
