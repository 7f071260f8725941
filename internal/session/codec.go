package session

import (
	"io"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"dtt/internal/env"
	"dtt/internal/level"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// snapshotSchema is bumped whenever the payload layout changes.
const snapshotSchema uint16 = 1

// payload is the serialized form of a session. Arenas are stored in ID order
// without their sentinels so that decoding reproduces every ID.
type payload struct {
	Schema  uint16            `msgpack:"schema"`
	Symbols []string          `msgpack:"symbols"`
	Levels  []level.Level     `msgpack:"levels"`
	Seqs    [][]level.ID      `msgpack:"seqs"`
	Terms   []term.Node       `msgpack:"terms"`
	Decls   []env.Declaration `msgpack:"decls"`
}

// Encode writes the arenas and the environment to w.
func (s *Session) Encode(w io.Writer) error {
	levels, seqs := s.terms.Levels().Snapshot()
	p := payload{
		Schema:  snapshotSchema,
		Symbols: s.syms.Snapshot(),
		Levels:  levels,
		Seqs:    seqs,
		Terms:   s.terms.Snapshot(),
		Decls:   make([]env.Declaration, 0, s.env.Len()),
	}
	s.env.Each(func(d *env.Declaration) bool {
		p.Decls = append(p.Decls, *d)
		return true
	})
	if err := msgpack.NewEncoder(w).Encode(&p); err != nil {
		return errors.Wrap(err, "snapshot: encode")
	}
	return nil
}

// Decode reads a snapshot written by Encode. Every declaration is committed
// again, so a tampered snapshot is rejected by the kernel rather than trusted.
func Decode(r io.Reader, opts Options) (*Session, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "snapshot: decode")
	}
	if p.Schema != snapshotSchema {
		return nil, errors.Errorf("snapshot: schema %d, want %d", p.Schema, snapshotSchema)
	}
	syms, err := symbols.Restore(p.Symbols)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: symbols")
	}
	levels, err := level.Restore(p.Levels, p.Seqs)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: levels")
	}
	for i, lv := range p.Levels {
		if lv.Kind != level.KindParam {
			continue
		}
		if _, ok := syms.Lookup(lv.Param); !ok {
			return nil, errors.Errorf("snapshot: level %d names unknown symbol %d", i+1, lv.Param)
		}
	}
	terms, err := term.Restore(levels, p.Terms)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: terms")
	}
	for _, n := range p.Terms {
		if n.Sym != symbols.NoID {
			if _, ok := syms.Lookup(n.Sym); !ok {
				return nil, errors.Errorf("snapshot: unknown symbol %d", n.Sym)
			}
		}
	}

	s := assemble(syms, terms, env.New(), opts)
	nterms := terms.Len()
	for i, d := range p.Decls {
		if _, ok := syms.Lookup(d.Name); !ok || d.Name == symbols.NoID {
			return nil, errors.Errorf("snapshot: declaration %d has unknown name %d", i, d.Name)
		}
		for _, t := range []term.ID{d.Type, d.Value} {
			if int(t) > nterms {
				return nil, errors.Errorf("snapshot: declaration %s refers to term %d", syms.Resolve(d.Name), t)
			}
		}
		if d.Type == term.NoID {
			return nil, errors.Errorf("snapshot: declaration %s has no type", syms.Resolve(d.Name))
		}
		if err := s.Commit(d.Name, d); err != nil {
			return nil, errors.Wrapf(err, "snapshot: declaration %s", syms.Resolve(d.Name))
		}
		got, _ := s.env.Lookup(d.Name)
		if got.Seq != d.Seq || got.Height != d.Height {
			return nil, errors.Errorf("snapshot: declaration %s: seq/height %d/%d, recorded %d/%d",
				syms.Resolve(d.Name), got.Seq, got.Height, d.Seq, d.Height)
		}
	}
	return s, nil
}
