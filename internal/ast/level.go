package ast

import (
	"dtt/internal/source"
)

// LevelKind enumerates surface universe level forms.
type LevelKind uint8

const (
	LevelNum LevelKind = iota
	LevelParam
	LevelSucc
	LevelMax
	LevelIMax
	// LevelHole is `_`: a fresh level metavariable.
	LevelHole
)

// Level is a surface universe level. Levels are small, so they are values
// rather than arena entries.
type Level struct {
	Kind LevelKind
	N    uint32
	Name string
	Args []Level
	Span source.Span
}
