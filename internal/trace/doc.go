// Package trace records what the checker is doing as a stream of span
// events.
//
// Enable it from the command line:
//
//	dtt check --trace=- --trace-level=detail prelude.dtt
//
// A StreamTracer writes events as they happen, a RingTracer keeps the newest
// ones for a dump at exit or after a panic, and New can combine both. Nop is
// used when tracing is off.
//
// Every event has a scope and the level decides which scopes pass:
// LevelPhase keeps files and passes, LevelDetail adds one span per
// declaration, LevelDebug adds unifier and kernel internals.
//
// The tracer and the enclosing span travel on the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "check", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
package trace
