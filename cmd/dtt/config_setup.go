package main

import (
	"github.com/spf13/cobra"

	"dtt/internal/config"
	"dtt/internal/driver"
)

// loadConfig reads --config or the nearest dtt.toml and applies the flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	pf := cmd.Root().PersistentFlags()
	path, err := pf.GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return config.Config{}, err
	}

	var o config.Overrides
	if pf.Changed("fuel") {
		v, _ := pf.GetUint64("fuel")
		o.Fuel = &v
	}
	if pf.Changed("max-nat-literal") {
		v, _ := pf.GetUint64("max-nat-literal")
		o.MaxNatLiteral = &v
	}
	if pf.Changed("jobs") {
		v, _ := pf.GetInt("jobs")
		o.Jobs = &v
	}
	if pf.Changed("max-diagnostics") {
		v, _ := pf.GetInt("max-diagnostics")
		o.MaxDiagnostics = &v
	}
	if pf.Changed("trace-level") {
		v, _ := pf.GetString("trace-level")
		o.TraceLevel = &v
	}
	if pf.Changed("trace") {
		v, _ := pf.GetString("trace")
		o.TraceOutput = &v
	}
	return cfg.Apply(o)
}

// driverOptions builds the driver options for cmd from cfg and the flags.
func driverOptions(cmd *cobra.Command, cfg config.Config) (driver.Options, error) {
	opts := driver.OptionsFromConfig(cfg)
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return driver.Options{}, err
	}
	opts.Timings = timings
	return opts, nil
}
