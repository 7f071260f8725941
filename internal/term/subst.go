package term

import "fmt"

// Lift adds by to every loose Var of t whose index is >= from. It is used when
// a term from an outer context is moved under by additional binders.
func (a *Arena) Lift(t ID, from, by uint32) ID {
	if by == 0 || a.infos[t].loose <= from {
		return t
	}
	return a.Replace(t, func(x ID, d uint32) (ID, bool) {
		if a.infos[x].loose <= from+d {
			return x, true
		}
		if n := a.nodes[x]; n.Kind == KindVar {
			return a.Var(n.Index + by), true
		}
		return NoID, false
	})
}

// Lower subtracts by from every loose Var of t whose index is >= from+by.
// Vars in [from, from+by) must not occur; finding one is an invariant violation.
func (a *Arena) Lower(t ID, from, by uint32) ID {
	if by == 0 || a.infos[t].loose <= from {
		return t
	}
	return a.Replace(t, func(x ID, d uint32) (ID, bool) {
		if a.infos[x].loose <= from+d {
			return x, true
		}
		if n := a.nodes[x]; n.Kind == KindVar {
			if n.Index < from+d+by {
				panic(fmt.Sprintf("term: Lower would capture Var(%d)", n.Index))
			}
			return a.Var(n.Index - by), true
		}
		return NoID, false
	})
}

// HasLooseVarIn reports whether t mentions a loose Var with index in [lo, hi).
func (a *Arena) HasLooseVarIn(t ID, lo, hi uint32) bool {
	if a.infos[t].loose <= lo {
		return false
	}
	found := false
	a.Replace(t, func(x ID, d uint32) (ID, bool) {
		if found || a.infos[x].loose <= lo+d {
			return x, true
		}
		if n := a.nodes[x]; n.Kind == KindVar {
			if n.Index >= lo+d && n.Index < hi+d {
				found = true
			}
			return x, true
		}
		return NoID, false
	})
	return found
}

// Instantiate substitutes v for Var(0) in body and shifts the remaining loose
// Vars down by one: the result of opening a binder with v.
func (a *Arena) Instantiate(body, v ID) ID {
	return a.InstantiateRev(body, []ID{v})
}

// InstantiateRev substitutes vals for the innermost len(vals) loose Vars of
// body: Var(i) with i < n becomes vals[n-1-i], lifted to its depth; Vars >= n
// are shifted down by n. This is how a telescope of n binders is opened with
// arguments given in application order.
func (a *Arena) InstantiateRev(body ID, vals []ID) ID {
	n := uint32(len(vals))
	if n == 0 || a.infos[body].loose == 0 {
		return body
	}
	return a.Replace(body, func(x ID, d uint32) (ID, bool) {
		if a.infos[x].loose <= d {
			return x, true
		}
		nd := a.nodes[x]
		if nd.Kind != KindVar {
			return NoID, false
		}
		switch i := nd.Index; {
		case i < d:
			return x, true
		case i < d+n:
			return a.Lift(vals[n-1-(i-d)], 0, d), true
		default:
			return a.Var(i - n), true
		}
	})
}

// Beta reduces (fun x1 .. xk => b) a1 .. an as far as the lambdas and
// arguments allow and applies the rest.
func (a *Arena) Beta(f ID, args []ID) ID {
	body := f
	m := 0
	for m < len(args) && a.nodes[body].Kind == KindLam {
		body = a.nodes[body].B
		m++
	}
	if m == 0 {
		return a.Apps(f, args...)
	}
	return a.Apps(a.InstantiateRev(body, args[:m]), args[m:]...)
}
