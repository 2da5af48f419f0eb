// Package naming classifies layer and group names by the mockup naming
// conventions.
//
// A name may carry several markers:
//
//		Choose Color#red@shirt
//		^^^^^^ ^^^^^ ^^^ ^^^^^
//		prefix base  tag link
//
//	  - a leading "choose" keyword, stripped before parsing
//	  - "@link": at-link id pairing a toggle with another leaf
//	  - "#tag": hashtag group id of interchangeable variants
//	  - "-vector" / "-size" suffixes on the base name
//	  - a leading "*" marking a radio option group
//
// Classification is purely lexical and never fails; absent markers yield
// empty strings.
package naming

import (
	"path"
	"strings"
)

// Name is the classified form of a raw layer or group name.
type Name struct {
	Base      string // lowercased name with all markers removed
	Hashtag   string // text after '#', lowercased
	AtLink    string // text after '@', lowercased
	VectorKey string // text before "-vector" when Base mentions vector
	SizeKey   string // text before "-size" when Base mentions size
	Option    bool   // raw name starts with '*'
}

// IsVector reports whether the name belongs to a vector group.
func (n Name) IsVector() bool { return strings.Contains(n.Base, "vector") }

// IsSize reports whether the name belongs to a size group.
func (n Name) IsSize() bool { return strings.Contains(n.Base, "size") }

// Classify parses raw according to the naming conventions.
func Classify(raw string) Name {
	n := Name{Option: strings.HasPrefix(raw, "*")}

	s := strings.ToLower(raw)
	if trimmed := strings.TrimLeft(s, " \t"); strings.HasPrefix(trimmed, "choose") {
		s = strings.TrimPrefix(trimmed, "choose")
	}

	parts := []string{s}
	if i := strings.Index(s, "@"); i >= 0 {
		parts = []string{s[:i], s[i:]}
	}

	var segments []string
	for _, p := range parts {
		if i := strings.Index(p, "#"); i >= 0 {
			segments = append(segments, p[:i], p[i:])
			continue
		}
		segments = append(segments, p)
	}

	for _, seg := range segments {
		switch {
		case strings.HasPrefix(seg, "@"):
			n.AtLink = strings.TrimSpace(seg[1:])
		case strings.HasPrefix(seg, "#"):
			n.Hashtag = strings.TrimSpace(seg[1:])
		default:
			n.Base = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(seg), "*"))
		}
	}

	if n.IsVector() {
		n.VectorKey = strings.TrimSpace(strings.SplitN(n.Base, "-vector", 2)[0])
	}
	if n.IsSize() {
		n.SizeKey = strings.TrimSpace(strings.SplitN(n.Base, "-size", 2)[0])
	}
	return n
}

// DisplayName returns the user-facing name for a group. Names that do not
// already mention text, background or choose get a "Choose " prefix.
func DisplayName(group string) string {
	lower := strings.ToLower(group)
	if strings.Contains(lower, "text") ||
		strings.Contains(lower, "background") ||
		strings.Contains(lower, "choose") {
		return group
	}
	return "Choose " + group
}

// FileHashtag returns the hashtag key of an asset file path: the text after
// the last '#', without extension. Paths without '#' map to "0".
func FileHashtag(p string) string {
	i := strings.LastIndex(p, "#")
	if i < 0 {
		return "0"
	}
	tag := p[i+1:]
	tag = strings.TrimSuffix(tag, path.Ext(tag))
	if tag == "" {
		return "0"
	}
	return tag
}

// LeafBase returns the part of a leaf name before any '@' marker.
func LeafBase(name string) string {
	if i := strings.Index(name, "@"); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return strings.TrimSpace(name)
}

// Role keywords recognised on group names.
const (
	RoleColor      = "color"
	RoleBackground = "background"
	RoleChoose     = "choose"
	RoleText       = "text"
	RoleSize       = "size"
	RoleCopy       = "copy"
	RoleBase       = "base"
	RoleFrame      = "frame"
	RoleVector     = "vector"

	// TextPathMarker is the escaped "*path" id Illustrator writes for
	// groups whose text follows a vector path.
	TextPathMarker = "x2a_path"
)

// Has reports whether name mentions keyword, ignoring case.
func Has(name, keyword string) bool {
	return strings.Contains(strings.ToLower(name), keyword)
}
