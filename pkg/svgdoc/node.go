// Package svgdoc parses SVG markup into a lightweight node tree and answers
// the questions the layer builder asks of it: which top-level groups exist,
// what style applies to an element, and where an element sits in document
// space.
//
// Only the subset of SVG written by design tools is understood. Unknown
// elements are kept in the tree but contribute no geometry.
package svgdoc

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/matzehuels/mockup/pkg/errors"
)

// TextTag is the tag of character-data nodes.
const TextTag = "#text"

// Attr is one element attribute. Names are local names; the xlink prefix
// is dropped on parse so "xlink:href" is stored as "href".
type Attr struct {
	Name  string
	Value string
}

// Node is an element or a character-data node.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string // character data; only set on TextTag nodes
	Children []*Node
	Parent   *Node
}

// Attr returns the value of the named attribute or "".
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name string) bool {
	for _, a := range n.Attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// ID returns the id attribute.
func (n *Node) ID() string { return n.Attr("id") }

// DataName returns the Illustrator layer name (data-name), falling back to
// the id.
func (n *Node) DataName() string {
	if v := n.Attr("data-name"); v != "" {
		return v
	}
	return n.ID()
}

// Elements returns the element children of n, skipping text nodes.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Tag != TextTag {
			out = append(out, c)
		}
	}
	return out
}

// TextContent concatenates all character data below n in document order.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.collectText(&b)
	return b.String()
}

func (n *Node) collectText(b *strings.Builder) {
	if n.Tag == TextTag {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.collectText(b)
	}
}

// Find returns the first descendant element with tag, depth first.
func (n *Node) Find(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
		if f := c.Find(tag); f != nil {
			return f
		}
	}
	return nil
}

// FindAll returns every descendant element with tag in document order.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
		out = append(out, c.FindAll(tag)...)
	}
	return out
}

// Document is a parsed SVG file.
type Document struct {
	Root   *Node
	Styles Stylesheet
}

// ViewBox returns the root viewBox attribute.
func (d *Document) ViewBox() string { return d.Root.Attr("viewBox") }

// Parse reads SVG markup. The root element must be <svg>.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var root *Node
	var cur *Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "malformed SVG")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Parent: cur}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if cur == nil {
				if root != nil {
					return nil, errors.New(errors.ErrCodeInvalidFormat, "multiple root elements")
				}
				root = n
			} else {
				cur.Children = append(cur.Children, n)
			}
			cur = n
		case xml.EndElement:
			if cur != nil {
				cur = cur.Parent
			}
		case xml.CharData:
			if cur != nil {
				cur.Children = append(cur.Children, &Node{Tag: TextTag, Text: string(t), Parent: cur})
			}
		}
	}
	if root == nil || root.Tag != "svg" {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "document has no <svg> root")
	}

	doc := &Document{Root: root, Styles: Stylesheet{}}
	for _, s := range root.FindAll("style") {
		doc.Styles.merge(ParseStylesheet(s.TextContent()))
	}
	return doc, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// Groups returns the layer groups of the document: the <g> children of the
// root. Illustrator wraps its content in
// <switch><foreignObject/><g>...</g></switch>; such wrappers are unwrapped
// and their inner groups returned in place.
func (d *Document) Groups() []*Node {
	return topGroups(d.Root)
}

func topGroups(n *Node) []*Node {
	var out []*Node
	for _, c := range n.Children {
		switch c.Tag {
		case "g":
			out = append(out, c)
		case "switch":
			for _, inner := range c.Children {
				if inner.Tag == "g" {
					out = append(out, topGroups(inner)...)
				}
			}
		}
	}
	return out
}

// Primitives returns the drawable descendants of g in document order,
// flattening nested groups.
func Primitives(g *Node) []*Node {
	var out []*Node
	for _, c := range g.Children {
		switch c.Tag {
		case TextTag, "style", "defs", "title", "desc", "clipPath", "mask":
		case "g":
			out = append(out, Primitives(c)...)
		default:
			out = append(out, c)
		}
	}
	return out
}
