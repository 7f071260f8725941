package driver

import (
	"dtt/internal/config"
	"dtt/internal/elab"
	"dtt/internal/session"
)

// Options controls one check run.
type Options struct {
	Session        session.Options
	MaxDiagnostics int
	Jobs           int
	// Timings appends an ObsTimings diagnostic with the phase report.
	Timings bool
	// Observer, when set, receives phase boundaries of every file.
	Observer PhaseObserver
	// Base, when set, is forked for every file instead of starting empty.
	Base *session.Session
}

// OptionsFromConfig maps dtt.toml values onto driver options.
func OptionsFromConfig(cfg config.Config) Options {
	eo := elab.DefaultOptions()
	eo.Fuel = cfg.Kernel.Fuel
	eo.MaxNatLiteral = cfg.Elab.MaxNatLiteral
	eo.Nat = cfg.Elab.Nat
	eo.NatZero = cfg.Elab.NatZero
	eo.NatSucc = cfg.Elab.NatSucc

	so := session.DefaultOptions()
	so.Elab = eo
	return Options{
		Session:        so,
		MaxDiagnostics: cfg.Check.MaxDiagnostics,
		Jobs:           cfg.Check.Jobs,
	}
}
