// Package templates reads the catalog of prebuilt mockup templates.
//
// A template is a named layer model. Loading one replaces the working
// session wholesale. Two [Store] backends exist:
//
//   - [HTTPStore] talks to the catalog API (GET /templates, GET /templates/{id})
//     whose responses use the {success, message, data} reply envelope
//   - [MongoStore] reads the catalog collection directly
//
// [Cached] wraps either with a [cache.Cache] so repeated lookups of the same
// template skip the network.
package templates

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
)

// Summary is a catalog entry as listed.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Preview string `json:"preview,omitempty"`
}

// Template is a catalog entry with its layer model.
type Template struct {
	Summary
	Data json.RawMessage `json:"psdData"`
}

// Document decodes the template's layer model.
func (t *Template) Document() (*layer.Document, error) {
	if len(t.Data) == 0 || string(t.Data) == "null" {
		return nil, errors.New(errors.ErrCodeInvalidStructure, "template %s has no layer data", t.ID)
	}
	doc, err := layer.Decode(t.Data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStructure, err, "template %s is invalid", t.ID)
	}
	return doc, nil
}

// Store lists and fetches templates.
type Store interface {
	// List returns every template summary.
	List(ctx context.Context) ([]Summary, error)

	// Get returns one template. Unknown ids fail with NOT_FOUND.
	Get(ctx context.Context, id string) (*Template, error)

	// Close releases backend resources.
	Close() error
}
