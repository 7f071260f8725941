package symbols

// ID identifies an interned identifier.
type ID uint32

const (
	// NoID is the anonymous name (the empty string).
	NoID ID = 0
)

// IsValid reports whether the ID names a non-anonymous identifier.
func (id ID) IsValid() bool { return id != NoID }
