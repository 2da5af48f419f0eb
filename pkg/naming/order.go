package naming

import (
	"sort"
	"strings"
)

// rankOrder is the sidebar order of top-level layers.
var rankOrder = []string{RoleColor, RoleBackground, RoleChoose, RoleText}

// Rank returns the position of name's first matching role keyword in the
// sidebar order. Names matching none rank last.
func Rank(name string) int {
	lower := strings.ToLower(name)
	for i, kw := range rankOrder {
		if strings.Contains(lower, kw) {
			return i
		}
	}
	return len(rankOrder)
}

// Sortable is implemented by anything that can be ordered as a top-level
// layer.
type Sortable interface {
	SortName() string
	SortZ() int
}

// Sort orders top-level layers by role rank. Ties among "choose" layers are
// broken by z-index, with unset (zero) z-indexes after all set ones; other
// ties keep their input order.
func Sort[S Sortable](items []S) {
	chooseRank := Rank(RoleChoose)
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := Rank(items[i].SortName()), Rank(items[j].SortName())
		if ri != rj {
			return ri < rj
		}
		if ri != chooseRank {
			return false
		}
		zi, zj := items[i].SortZ(), items[j].SortZ()
		if (zi == 0) != (zj == 0) {
			return zi != 0
		}
		return zi < zj
	})
}
