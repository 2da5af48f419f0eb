// Package session holds the editing state of one loaded mockup.
//
// A [State] is built from a layer document by [New] and owns everything
// the sidebar and canvas need: the controls tree, the placed items in paint
// order, the at-link and vector relations between items, the size scales
// and the copy offset. A State is created fresh for every document or
// template load and discarded on reset; selecting another option group
// rebuilds it.
//
// Items are addressed by generated ids ("image-xxxxxxxx") that are stable
// for the life of a State. [Item.Key] is the slash-joined layer path and
// survives rebuilds, which is what [Snapshot] persists.
package session

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/naming"
	"github.com/matzehuels/mockup/pkg/transform"
)

// Options configures how a State is built.
type Options struct {
	// Option is the raw name of the selected "*" option group.
	Option string

	// ShowText fills text items with their document text instead of
	// starting empty.
	ShowText bool

	// NewID returns a unique id suffix. Defaults to an 8 character uuid
	// prefix.
	NewID func() string
}

func (o *Options) setDefaults() {
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString()[:8] }
	}
}

// Item is one placed leaf.
type Item struct {
	ID    string
	Key   string
	Layer *layer.Layer

	// Group is the classified base name of the enclosing group, Hashtag
	// its hashtag.
	Group   string
	Hashtag string

	Visible   bool
	Canvas    bool   // drawn on the canvas; size thumbnails only set the scale
	Hidden    bool   // hidden in the sidebar until an at-link reveals it
	Text      string // current text of text items
	ImagePath string // current image of image items

	control *Control
}

// IsText reports whether the item renders live text.
func (it *Item) IsText() bool { return it.Layer.Kind.IsText() && it.Layer.Text != nil }

// Toggleable reports whether the item shows a thumbnail the user can click.
func (it *Item) Toggleable() bool {
	p := it.Layer.Pixel
	return !it.IsText() && p != nil && (p.CropImagePath != "" || p.ThumbImagePath != "")
}

// Control is one sidebar entry: a group with its leaves and subgroups.
type Control struct {
	ID       string
	Name     string // raw layer name
	Option   bool   // "*" radio group
	Selected bool   // option group matching Options.Option
	Hidden   bool
	Items    []*Item
	Children []*Control
}

// Title returns the user-facing name of the control.
func (c *Control) Title() string {
	r := strings.NewReplacer("<", "", ">", "", "+", "", " ", " ")
	return naming.DisplayName(r.Replace(c.Name))
}

// State is the editing state of one document.
type State struct {
	Doc      *layer.Document
	Option   string
	Controls []*Control

	// Items in paint order: ascending z-index, text on top, build order
	// within one z-index.
	Items []*Item

	// Relations maps "<link>-<leaf>" keys to the ids that show and hide
	// together.
	Relations map[string][]string

	// SizeScales holds the relative scale of every size-group item,
	// normalized so the largest is 1.
	SizeScales map[string]float64

	// Scale is the export scale picked by the last selected size item.
	Scale float64

	// CopyOffset is the displacement of duplicated items, or nil.
	CopyOffset *layer.Offset

	opts Options
	byID map[string]*Item
}

// New validates doc and builds its state. The document is cloned and
// sorted; the caller's copy is not modified.
func New(doc *layer.Document, opts Options) (*State, error) {
	opts.setDefaults()
	doc = doc.Clone()
	if err := layer.Validate(doc); err != nil {
		return nil, err
	}
	naming.Sort(doc.Layers)

	s := &State{
		Doc:        doc,
		Option:     opts.Option,
		Relations:  map[string][]string{},
		SizeScales: map[string]float64{},
		Scale:      1,
		CopyOffset: doc.CopyOffset,
		opts:       opts,
		byID:       map[string]*Item{},
	}

	b := builder{s: s, root: &Control{}, raw: map[string]string{}}
	for _, l := range doc.Layers {
		b.build(l, b.root, l.Name, "")
	}
	s.Controls = b.root.Children

	sort.SliceStable(s.Items, func(i, j int) bool { return s.zIndex(s.Items[i]) < s.zIndex(s.Items[j]) })
	s.normalizeScales(b.raw)
	s.selectDefaults(s.Controls)
	return s, nil
}

func (s *State) zIndex(it *Item) int {
	if it.IsText() {
		return layer.TextZIndex
	}
	return it.Layer.ZIndex
}

type builder struct {
	s    *State
	root *Control
	raw  map[string]string // id -> size label
}

func (b *builder) build(l *layer.Layer, parent *Control, groupName, path string) {
	if l == nil || naming.Has(l.Name, naming.RoleFrame) {
		return
	}
	if naming.Has(l.Name, naming.RoleCopy) {
		b.copyOffset(l)
		return
	}

	s := b.s
	id := "image-" + s.opts.NewID()
	key := strings.TrimPrefix(path+"/"+l.Name, "/")
	class := naming.Classify(groupName)

	var item *Item
	switch {
	case l.Kind.IsText() && l.Text != nil:
		item = &Item{Canvas: true}
		if s.opts.ShowText {
			item.Text = strings.ReplaceAll(l.Text.Text, ".", "")
		}
		item.Visible = item.Text != ""
	case l.ImagePath() != "":
		item = &Item{ImagePath: exportImagePath(l), Canvas: class.Base != naming.RoleSize}
	}
	if item != nil {
		item.ID, item.Key, item.Layer = id, key, l
		item.Group, item.Hashtag = class.Base, class.Hashtag
		s.Items = append(s.Items, item)
		s.byID[id] = item
	}

	if l.IsGroup() {
		c := &Control{
			ID:       id,
			Name:     l.Name,
			Option:   strings.HasPrefix(l.Name, "*"),
			Selected: l.Name == s.opts.Option,
		}
		parent.Children = append(parent.Children, c)
		if c.Option && !c.Selected {
			return
		}
		for _, child := range l.Children {
			b.build(child, c, l.Name, key)
		}
		return
	}

	if item == nil {
		return
	}
	if parent == b.root {
		parent = &Control{ID: id, Name: l.Name}
		b.root.Children = append(b.root.Children, parent)
	}
	item.control = parent
	parent.Items = append(parent.Items, item)

	if class.AtLink != "" {
		rel := strings.ToLower(class.AtLink + "-" + naming.LeafBase(l.Name))
		s.Relations[rel] = append(s.Relations[rel], id)
		if item.IsText() {
			item.Hidden = true
		} else {
			parent.Hidden = true
		}
	}
	if class.VectorKey != "" {
		rel := strings.ToLower(class.VectorKey + "-" + strings.TrimSpace(l.Name))
		s.Relations[rel] = append(s.Relations[rel], id)
	}
	if class.SizeKey != "" {
		b.raw[id] = strings.Fields(l.Name + " ")[0]
	}
}

// exportImagePath prefers a remote image and otherwise the raw asset.
func exportImagePath(l *layer.Layer) string {
	p := l.Pixel
	if strings.Contains(p.ImagePath, "https://") || p.RawImagePath == "" {
		return p.ImagePath
	}
	return p.RawImagePath
}

func (b *builder) copyOffset(l *layer.Layer) {
	var base, cp *layer.Layer
	for _, c := range l.Children {
		switch {
		case base == nil && naming.Has(c.Name, naming.RoleBase):
			base = c
		case cp == nil && naming.Has(c.Name, naming.RoleCopy):
			cp = c
		}
	}
	off := layer.Offset{}
	if cp != nil {
		off.X, off.Y = cp.X, cp.Y
	}
	if base != nil {
		off.X -= base.X
		off.Y -= base.Y
	}
	b.s.CopyOffset = &off
}

// normalizeScales converts size labels to numbers relative to the largest.
// Labels that are not numbers count as 0.
func (s *State) normalizeScales(raw map[string]string) {
	top := 0.0
	vals := make(map[string]float64, len(raw))
	for id, label := range raw {
		v, _ := transform.Number(label)
		vals[id] = v
		if v > top {
			top = v
		}
	}
	for id, v := range vals {
		if top > 0 {
			v /= top
		}
		s.SizeScales[id] = v
	}
}

// selectDefaults shows the first thumbnail of every control that holds
// leaves only.
func (s *State) selectDefaults(cs []*Control) {
	for _, c := range cs {
		if len(c.Children) > 0 {
			s.selectDefaults(c.Children)
			continue
		}
		if len(c.Items) > 0 && c.Items[0].Toggleable() {
			s.Toggle(c.Items[0].ID)
		}
	}
}

// Item returns the item with id, or nil.
func (s *State) Item(id string) *Item { return s.byID[id] }

// Find returns the first item whose key is key, or nil.
func (s *State) Find(key string) *Item {
	for _, it := range s.Items {
		if it.Key == key {
			return it
		}
	}
	return nil
}

// Visible returns the items that are drawn, in paint order. Text items
// count as visible when they hold text.
func (s *State) Visible() []*Item {
	var out []*Item
	for _, it := range s.Items {
		if it.Visible && it.Canvas {
			out = append(out, it)
		}
	}
	return out
}

// Options returns the names of all option groups in sidebar order.
func (s *State) Options() []string {
	var out []string
	var walk func([]*Control)
	walk = func(cs []*Control) {
		for _, c := range cs {
			if c.Option {
				out = append(out, c.Name)
			}
			walk(c.Children)
		}
	}
	walk(s.Controls)
	return out
}
