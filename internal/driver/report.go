package driver

import (
	"errors"
	"fmt"

	"dtt/internal/ast"
	"dtt/internal/diag"
	"dtt/internal/elab"
	"dtt/internal/env"
	"dtt/internal/kernel"
	"dtt/internal/session"
	"dtt/internal/source"
	"dtt/internal/symbols"
	"dtt/internal/term"
	"dtt/internal/unify"
)

var elabCodes = map[elab.ErrorKind]diag.Code{
	elab.UnknownIdentifier:      diag.ElbUnknownIdentifier,
	elab.UnknownUniverse:        diag.ElbUnknownUniverse,
	elab.UniverseArity:          diag.ElbUniverseArity,
	elab.CannotInferHoleType:    diag.ElbCannotInferHoleType,
	elab.LiteralTooLarge:        diag.ElbLiteralTooLarge,
	elab.UnresolvedMetavariable: diag.ElbUnresolvedMetavariable,
	elab.InvalidDecl:            diag.ElbInvalidDecl,
	elab.TypeError:              diag.ElbTypeError,
}

var kernelCodes = map[kernel.ErrorKind]diag.Code{
	kernel.UnboundVariable:        diag.KrnUnboundVariable,
	kernel.UnknownConstant:        diag.KrnUnknownConstant,
	kernel.TypeMismatch:           diag.KrnTypeMismatch,
	kernel.NotAFunction:           diag.KrnNotAFunction,
	kernel.NotASort:               diag.KrnNotASort,
	kernel.UniverseArityMismatch:  diag.KrnUniverseArityMismatch,
	kernel.UnknownUniverseParam:   diag.KrnUnknownUniverseParam,
	kernel.UnresolvedMetavariable: diag.KrnUnresolvedMetavariable,
}

var unifyCodes = map[unify.ErrorKind]diag.Code{
	unify.OccursCheck:   diag.ElbOccursCheck,
	unify.ScopeEscape:   diag.ElbScopeEscape,
	unify.LevelMismatch: diag.ElbUniverseMismatch,
}

// reporter turns check failures into diagnostics, printing terms with the
// names of the session they came from.
type reporter struct {
	syms    *symbols.Table
	printer *term.Printer
}

func newReporter(s *session.Session) *reporter {
	return &reporter{syms: s.Symbols(), printer: term.NewPrinter(s.Terms(), s.Symbols())}
}

func (r *reporter) describe(d *ast.Decl, err error) diag.Diagnostic {
	var (
		ee *elab.Error
		ke *kernel.Error
		de *env.DuplicateError
	)
	switch {
	case errors.As(err, &ee):
		return r.elabDiagnostic(d, ee)
	case errors.Is(err, kernel.ErrFuelExhausted):
		return diag.NewError(diag.KrnFuelExhausted, d.Span, "reduction budget exhausted while checking "+d.Name)
	case errors.As(err, &de):
		return diag.NewError(diag.KrnDuplicateDeclaration, d.NameSpan, "duplicate declaration "+d.Name)
	case errors.As(err, &ke):
		return r.kernelDiagnostic(d, ke)
	default:
		return diag.NewError(diag.UnknownCode, d.Span, err.Error())
	}
}

func (r *reporter) elabDiagnostic(d *ast.Decl, ee *elab.Error) diag.Diagnostic {
	sp := ee.Span
	if sp == (source.Span{}) {
		sp = d.Span
	}
	if ee.Kind != elab.TypeError {
		return diag.NewError(elabCodes[ee.Kind], sp, ee.Error())
	}

	code, msg := diag.ElbTypeError, "type mismatch"
	var (
		ue *unify.Error
		ke *kernel.Error
	)
	switch {
	case errors.Is(ee, kernel.ErrFuelExhausted):
		code, msg = diag.KrnFuelExhausted, "reduction budget exhausted"
	case errors.As(ee.Cause, &ue):
		if c, ok := unifyCodes[ue.Kind]; ok {
			code = c
			msg = ue.Kind.String()
		}
	case errors.As(ee.Cause, &ke):
		msg = ke.Kind.String()
		if ke.Kind == kernel.UnknownConstant || ke.Kind == kernel.UnknownUniverseParam {
			msg += " " + r.syms.Resolve(ke.Name)
		}
	case ee.Msg != "":
		msg = ee.Msg
	}
	out := diag.NewError(code, sp, msg)
	switch {
	case ee.Expected != term.NoID || ee.Found != term.NoID:
		out = r.typeNotes(out, sp, ee.Expected, ee.Found, ee.Ctx)
	case ue != nil && ue.Kind != unify.LevelMismatch:
		left, right := ue.Left, ue.Right
		if ue.Kind != unify.Mismatch {
			left = term.NoID
		}
		out = r.typeNotes(out, sp, left, right, ue.Ctx.Names())
	}
	return out
}

func (r *reporter) kernelDiagnostic(d *ast.Decl, ke *kernel.Error) diag.Diagnostic {
	msg := fmt.Sprintf("kernel rejected %s: %s", d.Name, ke.Kind)
	switch ke.Kind {
	case kernel.UnknownConstant, kernel.UnknownUniverseParam:
		msg += " " + r.syms.Resolve(ke.Name)
	case kernel.UniverseArityMismatch:
		msg += fmt.Sprintf(" (%s expects %d, got %d)", r.syms.Resolve(ke.Name), ke.Want, ke.Got)
	}
	out := diag.NewError(kernelCodes[ke.Kind], d.Span, msg)
	if ke.Kind == kernel.TypeMismatch || ke.Kind == kernel.NotAFunction || ke.Kind == kernel.NotASort {
		out = r.typeNotes(out, d.Span, ke.Expected, ke.Found, ke.Ctx.Names())
	}
	return out
}

// typeNotes appends "expected" and "found" notes for whichever of the two
// terms is set.
func (r *reporter) typeNotes(out diag.Diagnostic, sp source.Span, expected, found term.ID, ctx []symbols.ID) diag.Diagnostic {
	if expected != term.NoID {
		out = out.WithNote(sp, "expected: "+r.printer.Format(expected, ctx))
	}
	if found != term.NoID {
		out = out.WithNote(sp, "found:    "+r.printer.Format(found, ctx))
	}
	return out
}
