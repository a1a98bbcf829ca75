package page

import (
	"fmt"
	"slices"
	"strconv"
)

// EffectiveSubcode returns the 4 digit subcode of subpage at position index
// out of total. Explicit subcode wins, otherwise subpages are numbered from 1
// when there is more than one and from 0 otherwise. Explicit non numeric
// subcodes are returned as is.
func EffectiveSubcode(sp *Subpage, index, total int) string {
	if sp != nil && sp.Subcode != "" {
		if n, err := strconv.Atoi(sp.Subcode); err == nil && n >= 0 {
			return fmt.Sprintf("%04d", n)
		}
		return sp.Subcode
	}
	offset := 0
	if total > 1 {
		offset = 1
	}
	return fmt.Sprintf("%04d", index+offset)
}

// Compare reports whether two pages are structurally equal after inheritance
// resolution: same number of subpages and, per subpage, same effective
// subcode, same control and same packets in row order. Arguments are not
// modified.
func Compare(a, b *Page) bool {
	if a == nil || b == nil {
		return a == b
	}
	ra, rb := Resolve(a.Clone()), Resolve(b.Clone())

	if len(ra.Subpages) != len(rb.Subpages) {
		return false
	}
	total := len(ra.Subpages)
	for i := range ra.Subpages {
		sa, sb := ra.Subpages[i], rb.Subpages[i]
		if EffectiveSubcode(sa, i, total) != EffectiveSubcode(sb, i, total) {
			return false
		}
		if !sa.Control.Equal(sb.Control) {
			return false
		}
		pa, pb := slices.Clone(sa.Packets), slices.Clone(sb.Packets)
		SortPackets(pa)
		SortPackets(pb)
		if !PacketsEqual(pa, pb) {
			return false
		}
	}
	return true
}
