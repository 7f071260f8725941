// Package config loads dtt.toml, the per-project settings of the checker.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name looked up from the working directory upward.
const FileName = "dtt.toml"

// Config mirrors dtt.toml.
type Config struct {
	Kernel Kernel `toml:"kernel"`
	Elab   Elab   `toml:"elab"`
	Check  Check  `toml:"check"`
	Trace  Trace  `toml:"trace"`

	// Path is the file the values were read from, empty for the defaults.
	Path string `toml:"-"`
}

// Kernel configures the conversion engine.
type Kernel struct {
	Fuel uint64 `toml:"fuel"`
}

// Elab configures literal elaboration.
type Elab struct {
	MaxNatLiteral uint64 `toml:"max_nat_literal"`
	Nat           string `toml:"nat"`
	NatZero       string `toml:"nat_zero"`
	NatSucc       string `toml:"nat_succ"`
}

// Check configures the driver.
type Check struct {
	Jobs           int `toml:"jobs"`
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Trace configures the tracer.
type Trace struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Kernel: Kernel{Fuel: 100000},
		Elab: Elab{
			MaxNatLiteral: 4096,
			Nat:           "Nat",
			NatZero:       "Nat.zero",
			NatSucc:       "Nat.succ",
		},
		Check: Check{Jobs: 4, MaxDiagnostics: 100},
		Trace: Trace{Level: "off", Output: "-"},
	}
}

// Find walks up from startDir to locate dtt.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads path over the defaults. Keys the file sets override the
// defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalid, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest dtt.toml above startDir, or the defaults when
// there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	switch {
	case c.Kernel.Fuel == 0:
		return fmt.Errorf("%w: kernel.fuel must be positive", ErrInvalid)
	case c.Check.Jobs < 1:
		return fmt.Errorf("%w: check.jobs must be at least 1", ErrInvalid)
	case c.Check.MaxDiagnostics < 1:
		return fmt.Errorf("%w: check.max_diagnostics must be at least 1", ErrInvalid)
	case c.Elab.Nat == "" || c.Elab.NatZero == "" || c.Elab.NatSucc == "":
		return fmt.Errorf("%w: elab.nat, elab.nat_zero and elab.nat_succ must be set", ErrInvalid)
	}
	switch strings.ToLower(c.Trace.Level) {
	case "off", "error", "phase", "detail", "debug":
	default:
		return fmt.Errorf("%w: trace.level %q (expected: off|error|phase|detail|debug)", ErrInvalid, c.Trace.Level)
	}
	return nil
}

// Overrides holds values given on the command line. Nil fields keep the
// configured value.
type Overrides struct {
	Fuel           *uint64
	MaxNatLiteral  *uint64
	Jobs           *int
	MaxDiagnostics *int
	TraceLevel     *string
	TraceOutput    *string
}

// Apply returns c with the set overrides applied and validated.
func (c Config) Apply(o Overrides) (Config, error) {
	if o.Fuel != nil {
		c.Kernel.Fuel = *o.Fuel
	}
	if o.MaxNatLiteral != nil {
		c.Elab.MaxNatLiteral = *o.MaxNatLiteral
	}
	if o.Jobs != nil {
		c.Check.Jobs = *o.Jobs
	}
	if o.MaxDiagnostics != nil {
		c.Check.MaxDiagnostics = *o.MaxDiagnostics
	}
	if o.TraceLevel != nil {
		c.Trace.Level = *o.TraceLevel
	}
	if o.TraceOutput != nil {
		c.Trace.Output = *o.TraceOutput
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
