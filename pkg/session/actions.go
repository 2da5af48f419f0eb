package session

import (
	"slices"
	"strings"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Toggle flips the visibility of a thumbnail item. Siblings in the same
// control are hidden first, so a control shows at most one of its
// thumbnails. Items related through at-links or vector keys follow, and
// text inputs tied to the item are revealed while unrelated ones are
// cleared.
func (s *State) Toggle(id string) error {
	it := s.byID[id]
	if it == nil {
		return errors.New(errors.ErrCodeNotFound, "no item %s", id)
	}
	if !it.Toggleable() {
		return errors.New(errors.ErrCodeInvalidInput, "%s cannot be toggled", it.Layer.Name)
	}
	s.toggle(it, map[string]bool{})
	return nil
}

func (s *State) toggle(it *Item, seen map[string]bool) {
	if seen[it.ID] || !it.Toggleable() {
		return
	}
	seen[it.ID] = true

	if v, ok := s.SizeScales[it.ID]; ok && v > 0 {
		s.Scale = v
	}

	visible := it.Visible
	if it.control != nil {
		for _, sib := range it.control.Items {
			if sib.Toggleable() {
				sib.Visible = false
			}
		}
	}
	it.Visible = !visible

	name := strings.TrimSpace(it.Layer.Name)
	key := strings.ToLower(it.Group + "-" + name)
	linked := s.Relations[key]
	for _, rid := range linked {
		r := s.byID[rid]
		if r == nil || r.control == nil {
			continue
		}
		for _, sib := range r.control.Items {
			switch {
			case slices.Contains(linked, sib.ID):
				sib.Hidden = false
			case sib.IsText():
				sib.Text = ""
				sib.Visible = false
				sib.Hidden = true
			}
		}
	}

	var related []string
	for _, rid := range append(append([]string{}, s.Relations[name]...), linked...) {
		if !slices.Contains(related, rid) {
			related = append(related, rid)
		}
	}
	for _, rid := range related {
		if r := s.byID[rid]; r != nil {
			s.toggle(r, seen)
		}
	}
}

// SetText replaces the text of a text item. Empty text hides it.
func (s *State) SetText(id, text string) error {
	it := s.byID[id]
	if it == nil {
		return errors.New(errors.ErrCodeNotFound, "no item %s", id)
	}
	if !it.IsText() {
		return errors.New(errors.ErrCodeInvalidInput, "%s is not a text layer", it.Layer.Name)
	}
	it.Text = text
	it.Visible = text != ""
	return nil
}

// SetImage substitutes the image drawn for an image item.
func (s *State) SetImage(id, path string) error {
	it := s.byID[id]
	if it == nil {
		return errors.New(errors.ErrCodeNotFound, "no item %s", id)
	}
	if it.IsText() {
		return errors.New(errors.ErrCodeInvalidInput, "%s is a text layer", it.Layer.Name)
	}
	if path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "image path is required")
	}
	it.ImagePath = path
	return nil
}

// SelectOption rebuilds the state with another option group selected.
// Every selection, text and substituted image is reset.
func (s *State) SelectOption(name string) error {
	if !slices.Contains(s.Options(), name) {
		return errors.New(errors.ErrCodeNotFound, "no option group %q", name)
	}
	if name == s.Option {
		return nil
	}
	opts := s.opts
	opts.Option = name
	ns, err := New(s.Doc, opts)
	if err != nil {
		return err
	}
	*s = *ns
	return nil
}
