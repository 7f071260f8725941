package level

import (
	"fmt"
	"strconv"
	"strings"

	"dtt/internal/symbols"
)

// Format renders a level, e.g. `max u (v+1)`.
func (a *Arena) Format(l ID, syms *symbols.Table) string {
	var sb strings.Builder
	a.format(&sb, l, syms, false)
	return sb.String()
}

func (a *Arena) format(sb *strings.Builder, l ID, syms *symbols.Table, nested bool) {
	if n, ok := a.ToNat(l); ok {
		sb.WriteString(strconv.FormatUint(uint64(n), 10))
		return
	}
	lv := a.levels[l]
	switch lv.Kind {
	case KindParam:
		if syms != nil {
			if s, ok := syms.Lookup(lv.Param); ok {
				sb.WriteString(s)
				return
			}
		}
		fmt.Fprintf(sb, "u#%d", lv.Param)
	case KindSucc:
		base, k := a.offset(l)
		if nested {
			sb.WriteByte('(')
		}
		a.format(sb, base, syms, true)
		fmt.Fprintf(sb, "+%d", k)
		if nested {
			sb.WriteByte(')')
		}
	case KindMax, KindIMax:
		if nested {
			sb.WriteByte('(')
		}
		if lv.Kind == KindMax {
			sb.WriteString("max ")
		} else {
			sb.WriteString("imax ")
		}
		a.format(sb, lv.A, syms, true)
		sb.WriteByte(' ')
		a.format(sb, lv.B, syms, true)
		if nested {
			sb.WriteByte(')')
		}
	default:
		sb.WriteString("<invalid>")
	}
}
