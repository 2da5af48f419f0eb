package svgdoc

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
)

// Namespaces written on generated documents.
const (
	NamespaceSVG   = "http://www.w3.org/2000/svg"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
)

// NewElement returns a detached element.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs}
}

// NewSVG returns an <svg> root with namespaces and, if non-empty, a viewBox.
func NewSVG(viewBox string) *Node {
	root := NewElement("svg",
		Attr{Name: "xmlns", Value: NamespaceSVG},
		Attr{Name: "xmlns:xlink", Value: NamespaceXLink},
	)
	if viewBox != "" {
		root.SetAttr("viewBox", viewBox)
	}
	return root
}

// Append adds children to n and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// AppendText adds a character-data child.
func (n *Node) AppendText(s string) *Node {
	return n.Append(&Node{Tag: TextTag, Text: s})
}

// Encode writes n and its subtree as XML.
func (n *Node) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := n.encode(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// Markup returns the XML encoding of n.
func (n *Node) Markup() []byte {
	var buf bytes.Buffer
	_ = n.Encode(&buf)
	return buf.Bytes()
}

func (n *Node) encode(w *bufio.Writer) error {
	if n.Tag == TextTag {
		return xml.EscapeText(w, []byte(n.Text))
	}
	w.WriteByte('<')
	w.WriteString(n.Tag)
	for _, a := range n.Attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		if err := xml.EscapeText(w, []byte(a.Value)); err != nil {
			return err
		}
		w.WriteByte('"')
	}
	if len(n.Children) == 0 {
		_, err := w.WriteString("/>")
		return err
	}
	w.WriteByte('>')
	for _, c := range n.Children {
		if err := c.encode(w); err != nil {
			return err
		}
	}
	w.WriteString("</")
	w.WriteString(n.Tag)
	_, err := w.WriteString(">")
	return err
}

// PathSVG returns a standalone document holding a single path. When outline
// is set the path is drawn as a red stroke without fill, which is how vector
// cut lines are previewed.
func PathSVG(d string, viewBox Rect, outline bool) []byte {
	path := NewElement("path", Attr{Name: "d", Value: d})
	if outline {
		path.SetAttr("stroke", "red")
		path.SetAttr("fill", "none")
	}
	return NewSVG(viewBox.String()).Append(path).Markup()
}
