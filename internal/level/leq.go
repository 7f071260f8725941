package level

// Leq reports whether x <= y holds for every value of the free parameters,
// after applying asg. The check is sound but incomplete: false may mean
// "not provable by these rules".
func (a *Arena) Leq(x, y ID, asg Assignment) bool {
	return a.leq(a.Instantiate(x, asg), a.Instantiate(y, asg))
}

// Equiv reports whether x and y denote the same level under asg.
func (a *Arena) Equiv(x, y ID, asg Assignment) bool {
	x, y = a.Instantiate(x, asg), a.Instantiate(y, asg)
	if x == y {
		return true
	}
	return a.leq(x, y) && a.leq(y, x)
}

func (a *Arena) leq(x, y ID) bool {
	if x == y || x == a.zero {
		return true
	}
	lx := a.levels[x]
	switch lx.Kind {
	case KindMax:
		return a.leq(lx.A, y) && a.leq(lx.B, y)
	case KindIMax:
		// imax(p, q) <= max(p, q)
		if a.leq(lx.B, y) && a.leq(lx.A, y) {
			return true
		}
	}
	ly := a.levels[y]
	switch ly.Kind {
	case KindMax:
		return a.leq(x, ly.A) || a.leq(x, ly.B)
	case KindIMax:
		return a.leq(x, ly.B)
	}

	bx, kx := a.offset(x)
	by, ky := a.offset(y)
	if bx == by || bx == a.zero {
		return kx <= ky
	}
	if kx > ky {
		return false
	}
	if a.levels[bx].Kind == KindIMax {
		// succ^k(imax(p, q)) <= succ^k(max(p, q))
		inner := a.levels[bx]
		return a.leq(a.addOffset(inner.A, kx), y) && a.leq(a.addOffset(inner.B, kx), y)
	}
	if kx == 0 {
		return false
	}
	return a.leq(bx, a.addOffset(by, ky-kx))
}
