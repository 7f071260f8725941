package term

// ReplaceFunc is consulted for every visited subterm t found under depth
// binders of the root. Returning (r, true) replaces t by r without visiting
// its children; returning false descends into t.
type ReplaceFunc func(t ID, depth uint32) (ID, bool)

type replaceKey struct {
	t     ID
	depth uint32
}

type replaceFrame struct {
	t        ID
	depth    uint32
	expanded bool
}

// Replace rebuilds root bottom-up, memoizing per (subterm, depth). The
// traversal uses an explicit stack, so term depth is not limited by the
// goroutine stack.
func (a *Arena) Replace(root ID, fn ReplaceFunc) ID {
	done := make(map[replaceKey]ID)
	stack := []replaceFrame{{t: root}}
	for len(stack) > 0 {
		top := len(stack) - 1
		fr := stack[top]
		k := replaceKey{fr.t, fr.depth}
		if _, ok := done[k]; ok {
			stack = stack[:top]
			continue
		}
		n := a.nodes[fr.t]
		if !fr.expanded {
			if r, ok := fn(fr.t, fr.depth); ok {
				done[k] = r
				stack = stack[:top]
				continue
			}
			switch n.Kind {
			case KindApp:
				stack[top].expanded = true
				stack = append(stack,
					replaceFrame{t: n.A, depth: fr.depth},
					replaceFrame{t: n.B, depth: fr.depth})
			case KindLam, KindPi:
				stack[top].expanded = true
				stack = append(stack,
					replaceFrame{t: n.A, depth: fr.depth},
					replaceFrame{t: n.B, depth: fr.depth + 1})
			case KindLet:
				stack[top].expanded = true
				stack = append(stack,
					replaceFrame{t: n.A, depth: fr.depth},
					replaceFrame{t: n.B, depth: fr.depth},
					replaceFrame{t: n.C, depth: fr.depth + 1})
			default:
				done[k] = fr.t
				stack = stack[:top]
			}
			continue
		}
		stack = stack[:top]
		switch n.Kind {
		case KindApp:
			x, y := done[replaceKey{n.A, fr.depth}], done[replaceKey{n.B, fr.depth}]
			if x == n.A && y == n.B {
				done[k] = fr.t
			} else {
				done[k] = a.App(x, y)
			}
		case KindLam, KindPi:
			ty, body := done[replaceKey{n.A, fr.depth}], done[replaceKey{n.B, fr.depth + 1}]
			switch {
			case ty == n.A && body == n.B:
				done[k] = fr.t
			case n.Kind == KindLam:
				done[k] = a.Lam(Binder{Name: n.Sym, Type: ty, Implicit: n.Implicit}, body)
			default:
				done[k] = a.Pi(Binder{Name: n.Sym, Type: ty, Implicit: n.Implicit}, body)
			}
		case KindLet:
			ty := done[replaceKey{n.A, fr.depth}]
			val := done[replaceKey{n.B, fr.depth}]
			body := done[replaceKey{n.C, fr.depth + 1}]
			if ty == n.A && val == n.B && body == n.C {
				done[k] = fr.t
			} else {
				done[k] = a.Let(Binder{Name: n.Sym, Type: ty}, val, body)
			}
		}
	}
	return done[replaceKey{root, 0}]
}

// Find reports whether pred holds for some subterm of t. Subterms for which
// prune returns true are skipped. Shared subterms are visited once.
func (a *Arena) Find(t ID, prune, pred func(ID) bool) bool {
	seen := make(map[ID]struct{})
	stack := []ID{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		if prune != nil && prune(cur) {
			continue
		}
		if pred(cur) {
			return true
		}
		n := a.nodes[cur]
		switch n.Kind {
		case KindApp, KindLam, KindPi:
			stack = append(stack, n.A, n.B)
		case KindLet:
			stack = append(stack, n.A, n.B, n.C)
		}
	}
	return false
}

// OccursMVar reports whether metavariable m occurs in t.
func (a *Arena) OccursMVar(m MetaID, t ID) bool {
	return a.Find(t,
		func(x ID) bool { return !a.HasMVar(x) },
		func(x ID) bool {
			n := a.nodes[x]
			return n.Kind == KindMVar && n.Meta() == m
		})
}

// MVars returns the distinct metavariables of t in first-seen order.
func (a *Arena) MVars(t ID) []MetaID {
	var out []MetaID
	seen := make(map[MetaID]struct{})
	a.Find(t,
		func(x ID) bool { return !a.HasMVar(x) },
		func(x ID) bool {
			n := a.nodes[x]
			if n.Kind == KindMVar {
				if _, ok := seen[n.Meta()]; !ok {
					seen[n.Meta()] = struct{}{}
					out = append(out, n.Meta())
				}
			}
			return false
		})
	return out
}
