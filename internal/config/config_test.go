package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Kernel.Fuel != 100000 || cfg.Elab.MaxNatLiteral != 4096 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Elab.Nat != "Nat" || cfg.Elab.NatZero != "Nat.zero" || cfg.Elab.NatSucc != "Nat.succ" {
		t.Fatalf("unexpected literal names %+v", cfg.Elab)
	}
	if cfg.Check.Jobs != 4 || cfg.Check.MaxDiagnostics != 100 || cfg.Trace.Level != "off" || cfg.Trace.Output != "-" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[kernel]\nfuel = 500\n\n[elab]\nnat = \"N\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Path != filepath.Join(root, FileName) {
		t.Fatalf("unexpected path %q", cfg.Path)
	}
	if cfg.Kernel.Fuel != 500 || cfg.Elab.Nat != "N" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Elab.NatZero != "Nat.zero" || cfg.Check.Jobs != 4 {
		t.Fatalf("unset keys must keep their defaults: %+v", cfg)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Path != "" || cfg.Kernel.Fuel != Default().Kernel.Fuel {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key": "[kernel]\nfuels = 1\n",
		"zero fuel":   "[kernel]\nfuel = 0\n",
		"bad level":   "[trace]\nlevel = \"loud\"\n",
		"no jobs":     "[check]\njobs = 0\n",
		"empty nat":   "[elab]\nnat_succ = \"\"\n",
		"malformed":   "[kernel\n",
		"wrong type":  "[check]\njobs = \"four\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected an error for %q", content)
			}
		})
	}

	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, "[kernel]\nfuel = 0\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("validation errors must wrap ErrInvalid, got %v", err)
	}
}

func TestOverrides(t *testing.T) {
	fuel, jobs, level := uint64(7), 1, "detail"
	cfg, err := Default().Apply(Overrides{Fuel: &fuel, Jobs: &jobs, TraceLevel: &level})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Kernel.Fuel != 7 || cfg.Check.Jobs != 1 || cfg.Trace.Level != "detail" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Check.MaxDiagnostics != 100 {
		t.Fatalf("unset overrides must keep the configured value")
	}

	zero := 0
	if _, err := Default().Apply(Overrides{Jobs: &zero}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
