package svgdoc

import (
	"strings"

	"github.com/matzehuels/mockup/pkg/transform"
)

// Style is a set of CSS declarations keyed by property name.
type Style map[string]string

// Get returns the first non-empty value among keys. Both the CSS name and
// its camel-case form can be passed ("font-size", "fontSize").
func (s Style) Get(keys ...string) string {
	for _, k := range keys {
		if v := s[k]; v != "" {
			return v
		}
	}
	return ""
}

// Length returns the numeric prefix of the first non-empty value among
// keys ("27px" -> 27).
func (s Style) Length(keys ...string) (float64, bool) {
	v := s.Get(keys...)
	if v == "" {
		return 0, false
	}
	return transform.Number(v)
}

// overlay copies every non-empty declaration of o into s.
func (s Style) overlay(o Style) {
	for k, v := range o {
		if v != "" {
			s[k] = v
		}
	}
}

// ParseInline parses a style attribute ("fill:#fff; font-size:12px").
func ParseInline(css string) Style {
	out := Style{}
	for _, decl := range strings.Split(css, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}

// Stylesheet maps class names to their declarations.
type Stylesheet map[string]Style

// ParseStylesheet parses the class rules of a <style> block. Selectors are
// split on commas and the leading '.' of each class selector is dropped;
// later rules for the same class extend earlier ones.
func ParseStylesheet(css string) Stylesheet {
	out := Stylesheet{}
	for _, block := range strings.Split(css, "}") {
		selector, body, ok := strings.Cut(block, "{")
		if !ok {
			continue
		}
		decls := ParseInline(body)
		for _, sel := range strings.Split(selector, ",") {
			sel = strings.TrimPrefix(strings.TrimSpace(sel), ".")
			if sel == "" {
				continue
			}
			if out[sel] == nil {
				out[sel] = Style{}
			}
			out[sel].overlay(decls)
		}
	}
	return out
}

func (ss Stylesheet) merge(o Stylesheet) {
	for class, decls := range o {
		if ss[class] == nil {
			ss[class] = Style{}
		}
		ss[class].overlay(decls)
	}
}

func (ss Stylesheet) classStyle(n *Node) Style {
	out := Style{}
	for _, class := range strings.Fields(n.Attr("class")) {
		if rule, ok := ss[class]; ok {
			out.overlay(rule)
		}
	}
	return out
}

// presentation attributes honoured as style declarations.
var presentationAttrs = []string{
	"fill", "stroke", "stroke-width", "font-size", "font-family", "opacity",
}

// Computed returns the style of n with presentation attributes lowest,
// then class rules, then the inline style attribute.
func (ss Stylesheet) Computed(n *Node) Style {
	out := Style{}
	for _, a := range presentationAttrs {
		if v := n.Attr(a); v != "" {
			out[a] = v
		}
	}
	out.overlay(ss.classStyle(n))
	out.overlay(ParseInline(n.Attr("style")))
	return out
}

// TextCascade returns the style used for text elements, where class rules
// override the inline style.
func (ss Stylesheet) TextCascade(n *Node) Style {
	out := Style{}
	for _, a := range presentationAttrs {
		if v := n.Attr(a); v != "" {
			out[a] = v
		}
	}
	out.overlay(ParseInline(n.Attr("style")))
	out.overlay(ss.classStyle(n))
	return out
}
