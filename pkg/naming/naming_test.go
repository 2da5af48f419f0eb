package naming

import (
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want Name
	}{
		{"Choose Color#red@shirt", Name{Base: "color", Hashtag: "red", AtLink: "shirt"}},
		{"*StyleA", Name{Base: "stylea", Option: true}},
		{"Logo@Front #2", Name{Base: "logo", AtLink: "front", Hashtag: "2"}},
		{"Logo#Front", Name{Base: "logo", Hashtag: "front"}},
		{"Logo @a#b", Name{Base: "logo", AtLink: "a", Hashtag: "b"}},
		{"Sleeve-Vector", Name{Base: "sleeve-vector", VectorKey: "sleeve"}},
		{"XL-size", Name{Base: "xl-size", SizeKey: "xl"}},
		{"  choose Text", Name{Base: "text"}},
		{"", Name{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Classify(tt.raw); got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyRoles(t *testing.T) {
	if !Classify("Back-Vector#1").IsVector() {
		t.Error("vector group not detected")
	}
	if !Classify("Size").IsSize() {
		t.Error("size group not detected")
	}
	if Classify("Logo").IsVector() || Classify("Logo").IsSize() {
		t.Error("plain name classified as vector or size")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"Logo":         "Choose Logo",
		"Color":        "Choose Color",
		"Background":   "Background",
		"Front Text":   "Front Text",
		"Choose Style": "Choose Style",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileHashtag(t *testing.T) {
	tests := map[string]string{
		"designs/shirt#front.svg": "front",
		"a#b#c.png":               "c",
		"plain.png":               "0",
		"trailing#.png":           "0",
	}
	for in, want := range tests {
		if got := FileHashtag(in); got != want {
			t.Errorf("FileHashtag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLeafBase(t *testing.T) {
	if got := LeafBase("Red @shirt"); got != "Red" {
		t.Errorf("LeafBase = %q", got)
	}
	if got := LeafBase(" Blue "); got != "Blue" {
		t.Errorf("LeafBase = %q", got)
	}
}

type item struct {
	name string
	z    int
}

func (i item) SortName() string { return i.name }
func (i item) SortZ() int       { return i.z }

func TestSort(t *testing.T) {
	items := []item{
		{"Front Text", 0},
		{"Choose Logo", 5},
		{"Misc", 0},
		{"Background", 0},
		{"Choose Style", 2},
		{"Choose Color", 0},
	}
	Sort(items)
	var names []string
	for _, it := range items {
		names = append(names, it.name)
	}
	want := "Choose Color,Background,Choose Style,Choose Logo,Front Text,Misc"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("Sort = %s, want %s", got, want)
	}
}

func TestSortChooseZIndex(t *testing.T) {
	want := "Choose Style,Choose Logo,Choose Size"
	inputs := [][]item{
		{{"Choose Logo", 5}, {"Choose Size", 0}, {"Choose Style", 2}},
		{{"Choose Size", 0}, {"Choose Style", 2}, {"Choose Logo", 5}},
		{{"Choose Style", 2}, {"Choose Logo", 5}, {"Choose Size", 0}},
		{{"Choose Logo", 5}, {"Choose Style", 2}, {"Choose Size", 0}},
	}
	for _, items := range inputs {
		Sort(items)
		var names []string
		for _, it := range items {
			names = append(names, it.name)
		}
		if got := strings.Join(names, ","); got != want {
			t.Errorf("Sort = %s, want %s", got, want)
		}
	}
}

func ExampleClassify() {
	n := Classify("Choose Color#red@shirt")
	fmt.Println(n.Base, n.Hashtag, n.AtLink)
	// Output: color red shirt
}
