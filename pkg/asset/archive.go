package asset

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Archive is a decoder output archive holding extracted layer images.
type Archive struct {
	zr    *zip.ReadCloser
	files map[string]*zip.File
}

// OpenArchive opens the zip file at p.
func OpenArchive(p string) (*Archive, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecoderFailed, err, "open archive %s", p)
	}
	a := &Archive{zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[strings.ReplaceAll(f.Name, `\`, "/")] = f
	}
	return a, nil
}

// Close releases the archive.
func (a *Archive) Close() error { return a.zr.Close() }

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.files) }

// Key maps an image path recorded in a model to its archive entry name.
// Paths with four or more segments are keyed by "<parentFolder>/<fileName>";
// shorter paths are used as they are.
func Key(imagePath string) string {
	p := strings.ReplaceAll(imagePath, `\`, "/")
	segs := strings.Split(p, "/")
	if len(segs) >= 4 {
		return path.Join(segs[len(segs)-2], segs[len(segs)-1])
	}
	return strings.TrimPrefix(p, "/")
}

// Read returns the content of the entry for imagePath.
func (a *Archive) Read(imagePath string) ([]byte, error) {
	key := Key(imagePath)
	if err := errors.ValidatePath(key); err != nil {
		return nil, err
	}
	f, ok := a.files[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeAssetUnavailable, "archive has no entry %s", key)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetUnavailable, err, "open archive entry %s", key)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DataURI returns the entry for imagePath as a PNG data URI.
func (a *Archive) DataURI(imagePath string) (string, error) {
	data, err := a.Read(imagePath)
	if err != nil {
		return "", err
	}
	return DataURI("image/png", data), nil
}
