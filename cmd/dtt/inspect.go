package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"dtt/internal/driver"
	"dtt/internal/env"
	"dtt/internal/session"
	"dtt/internal/term"
)

var (
	inspectTypes  bool
	inspectValues bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <snapshot>",
	Short: "List the declarations of a snapshot",
	Long:  `Load a snapshot, re-checking every declaration, and list what it contains.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := driver.OptionsFromConfig(cfg)
		s, err := driver.LoadSnapshot(args[0], opts.Session)
		if err != nil {
			return err
		}
		renderInspect(cmd.OutOrStdout(), args[0], s, inspectOptions{types: inspectTypes, values: inspectValues})
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectTypes, "types", true, "print declaration types")
	inspectCmd.Flags().BoolVar(&inspectValues, "values", false, "print definition bodies")
}

type inspectOptions struct {
	types, values bool
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
)

func kindStyle(k env.Kind) lipgloss.Style {
	switch k {
	case env.KindAxiom:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case env.KindTheorem:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case env.KindOpaque:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func renderInspect(w io.Writer, path string, s *session.Session, opts inspectOptions) {
	syms := s.Symbols()
	printer := term.NewPrinter(s.Terms(), syms)
	counts := map[env.Kind]int{}
	s.Env().Each(func(d *env.Declaration) bool {
		counts[d.Kind]++
		return true
	})

	fmt.Fprintln(w, headerStyle.Render("snapshot "+path))
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d declarations (%d def, %d theorem, %d axiom, %d opaque), %d terms",
		s.Env().Len(), counts[env.KindDef], counts[env.KindTheorem], counts[env.KindAxiom], counts[env.KindOpaque], s.Terms().Len())))

	s.Env().Each(func(d *env.Declaration) bool {
		var sb strings.Builder
		sb.WriteString(kindStyle(d.Kind).Render(fmt.Sprintf("%-7s", d.Kind)))
		sb.WriteByte(' ')
		sb.WriteString(nameStyle.Render(syms.Resolve(d.Name)))
		if len(d.UniverseParams) > 0 {
			us := make([]string, len(d.UniverseParams))
			for i, u := range d.UniverseParams {
				us[i] = syms.Resolve(u)
			}
			sb.WriteString(".{" + strings.Join(us, ", ") + "}")
		}
		if opts.types {
			sb.WriteString(" : " + printer.Format(d.Type, nil))
		}
		if d.Unfoldable() {
			fmt.Fprintf(&sb, "  [height %d]", d.Height)
		}
		fmt.Fprintln(w, sb.String())
		if opts.values && d.HasValue() {
			fmt.Fprintln(w, "    := "+printer.Format(d.Value, nil))
		}
		return true
	})
}
