package decoder

import (
	"strings"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
)

// minSegments is the number of path segments an image path needs before it
// is looked up in the archive. Shorter paths were never written by the
// decoder and are kept as they are.
const minSegments = 4

// Load opens the decoder archive at path, reads the model stored under
// jsonFile and inlines the images of every leaf as PNG data URIs.
func Load(path, jsonFile string) (*layer.Document, error) {
	if jsonFile == "" {
		jsonFile = layer.FileName
	}
	a, err := asset.OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	data, err := a.Read(jsonFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecoderFailed, err, "%s not found in archive", jsonFile)
	}
	doc, err := layer.Decode(data)
	if err != nil {
		return nil, err
	}
	Inline(a, doc)
	return doc, nil
}

// Inline replaces the image and thumbnail paths of every leaf with the
// matching archive entry. Top-level layers named "background" are left
// untouched, as are paths without an entry.
func Inline(a *asset.Archive, doc *layer.Document) {
	for _, top := range doc.Layers {
		if top == nil || strings.EqualFold(top.Name, "background") {
			continue
		}
		layer.Walk([]*layer.Layer{top}, func(l, _ *layer.Layer) bool {
			if l.IsGroup() || l.Pixel == nil || l.Pixel.ImagePath == "" {
				return true
			}
			l.Pixel.ImagePath = inline(a, l.Pixel.ImagePath)
			l.Pixel.ThumbImagePath = inline(a, l.Pixel.ThumbImagePath)
			return true
		})
	}
}

func inline(a *asset.Archive, p string) string {
	if p == "" || strings.HasPrefix(p, "data:") {
		return p
	}
	if len(strings.Split(strings.ReplaceAll(p, `\`, "/"), "/")) < minSegments {
		return p
	}
	uri, err := a.DataURI(p)
	if err != nil {
		return p
	}
	return uri
}
