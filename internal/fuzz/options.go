package fuzztests

import "dtt/internal/session"

// sessionOptions keeps fuel and literal sizes small so one input stays cheap.
func sessionOptions() session.Options {
	so := session.DefaultOptions()
	so.Elab.Fuel = 2000
	so.Elab.MaxNatLiteral = 64
	return so
}
