package layer

import (
	"fmt"
	"strings"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Validate checks the structural rules of a decoded document before it is
// rendered:
//
//   - a group named "#..." may not contain another "#..." group at any depth
//   - leaves with a blank name are renamed Unknown_1, Unknown_2, ...
//
// Top-level layers named "background" (any case) are not inspected. On
// failure the error has code INVALID_STRUCTURE and names the offending
// group; the document may already carry renamed leaves.
func Validate(doc *Document) error {
	v := &validator{next: 1}
	for _, l := range doc.Layers {
		if l == nil || strings.EqualFold(l.Name, "background") {
			continue
		}
		if err := v.check(l, ""); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	next int
}

// check walks l; outer is the name of the enclosing "#" group, if any.
func (v *validator) check(l *Layer, outer string) error {
	if l.IsGroup() {
		if strings.HasPrefix(l.Name, "#") {
			if outer != "" {
				return errors.New(errors.ErrCodeInvalidStructure,
					"nested # groups are not allowed: %q inside %q", l.Name, outer)
			}
			outer = l.Name
		}
		for _, c := range l.Children {
			if c == nil {
				continue
			}
			if err := v.check(c, outer); err != nil {
				return err
			}
		}
		return nil
	}
	if strings.TrimSpace(l.Name) == "" {
		l.Name = fmt.Sprintf("Unknown_%d", v.next)
		v.next++
	}
	return nil
}
