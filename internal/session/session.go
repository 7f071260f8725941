// Package session owns the arenas and the environment of one checking run and
// guards insertion into the environment with an independent kernel re-check.
package session

import (
	"context"
	"errors"
	"strconv"

	"dtt/internal/ast"
	"dtt/internal/elab"
	"dtt/internal/env"
	"dtt/internal/kernel"
	"dtt/internal/level"
	"dtt/internal/symbols"
	"dtt/internal/term"
	"dtt/internal/trace"
)

// ErrForeignSnapshot is returned by Restore for an environment that is not an
// earlier state of the session.
var ErrForeignSnapshot = errors.New("environment is not an ancestor of the session state")

// Options configures a session.
type Options struct {
	Elab elab.Options
	// Iota is the recursor reduction hook shared by elaboration and commit.
	Iota kernel.IotaRule
}

// DefaultOptions returns the built-in configuration.
func DefaultOptions() Options {
	return Options{Elab: elab.DefaultOptions()}
}

// Session is single-threaded. Its Env snapshots may be read concurrently.
type Session struct {
	syms  *symbols.Table
	terms *term.Arena
	env   *env.Environment
	el    *elab.Elaborator
	opts  Options
}

// New creates an empty session.
func New(opts Options) *Session {
	syms := symbols.NewTable()
	terms := term.NewArena(level.NewArena())
	return assemble(syms, terms, env.New(), opts)
}

func assemble(syms *symbols.Table, terms *term.Arena, e *env.Environment, opts Options) *Session {
	if opts.Elab.Cache == nil {
		opts.Elab.Cache = kernel.NewCache()
	}
	opts.Elab.Iota = opts.Iota
	return &Session{
		syms:  syms,
		terms: terms,
		env:   e,
		el:    elab.New(syms, terms, e, opts.Elab),
		opts:  opts,
	}
}

func (s *Session) Symbols() *symbols.Table { return s.syms }

func (s *Session) Terms() *term.Arena { return s.terms }

// Env returns the current environment snapshot.
func (s *Session) Env() *env.Environment { return s.env }

// Elaborator returns the session's elaborator, bound to the current environment.
func (s *Session) Elaborator() *elab.Elaborator { return s.el }

// Options returns the options the session was created with.
func (s *Session) Options() Options { return s.opts }

// ElabDecl elaborates d against the current environment without committing it.
func (s *Session) ElabDecl(exprs *ast.Exprs, d *ast.Decl) (*elab.Result, error) {
	return s.el.ElabDecl(exprs, d)
}

// Commit re-checks d with a fresh kernel-mode checker against the environment
// as it is now and, only if that succeeds, inserts it under name. On any error
// the environment is unchanged.
func (s *Session) Commit(name symbols.ID, d env.Declaration) error {
	if s.env.Contains(name) {
		return &env.DuplicateError{Name: name}
	}
	for _, t := range []term.ID{d.Type, d.Value} {
		if t == term.NoID {
			continue
		}
		if s.terms.LooseBound(t) > 0 {
			return &kernel.Error{Kind: kernel.UnboundVariable, Term: t, Name: name}
		}
		if s.terms.HasMVar(t) {
			return &kernel.Error{Kind: kernel.UnresolvedMetavariable, Term: t, Name: name}
		}
	}
	eng := kernel.NewEngine(s.terms, s.env, kernel.Options{
		Fuel:  s.opts.Elab.Fuel,
		Iota:  s.opts.Iota,
		Cache: kernel.NewCache(),
	})
	if err := kernel.NewChecker(eng).CheckDeclaration(&d); err != nil {
		return err
	}
	d.Height = 0
	if d.Unfoldable() {
		d.Height = kernel.Height(s.terms, s.env, d.Value)
	}
	next, err := s.env.Declare(name, d)
	if err != nil {
		return err
	}
	s.setEnv(next)
	return nil
}

// Check elaborates and commits d. A declaration span with the outcome is
// emitted to the tracer on ctx.
func (s *Session) Check(ctx context.Context, exprs *ast.Exprs, d *ast.Decl) (*elab.Result, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDecl, "decl:"+d.Name, trace.CurrentSpan(ctx).SpanID)
	r, err := s.ElabDecl(exprs, d)
	if err != nil {
		span.WithExtra("stage", "elab").End(err.Error())
		return nil, err
	}
	span.WithExtra("metas", strconv.Itoa(r.Metas))
	if err := s.Commit(r.Name, r.Decl); err != nil {
		span.WithExtra("stage", "commit").End(err.Error())
		return nil, err
	}
	span.End("committed")
	if committed, ok := s.env.Lookup(r.Name); ok {
		r.Decl = *committed
	}
	return r, nil
}

// Fork returns an independent session starting from the current state. The
// environment snapshot is reused; the arenas are copied so that neither
// session observes the other's interning.
func (s *Session) Fork() *Session {
	syms, err := symbols.Restore(s.syms.Snapshot())
	if err != nil {
		panic(err) // a live table always round-trips
	}
	levels, err := level.Restore(s.terms.Levels().Snapshot())
	if err != nil {
		panic(err)
	}
	terms, err := term.Restore(levels, s.terms.Snapshot())
	if err != nil {
		panic(err)
	}
	opts := s.opts
	opts.Elab.Cache = nil
	return assemble(syms, terms, s.env, opts)
}

// Restore rolls the session back to e, which must be an earlier Env of this
// session (or the current one). Interned terms are kept.
func (s *Session) Restore(e *env.Environment) error {
	if !s.env.Descends(e) {
		return ErrForeignSnapshot
	}
	s.setEnv(e)
	return nil
}

func (s *Session) setEnv(e *env.Environment) {
	s.env = e
	s.el.SetEnv(e)
}
