package main

import (
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/gomlx/go-shapedir/pkg/ir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Color string // "auto" | "always" | "never"
}

// ValidColors defines the allowed values of the --color flag.
var ValidColors = []string{"auto", "always", "never"}

// NewRootCommand creates the root command of the shapedir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shapedir",
		Short: "Structured operations over shaped values with dynamic dimensions",
		Long: `Build, verify and print programs of structured operations (init_tensor, alloc, pad_tensor,
tiled_loop) over tensors and memrefs whose dimensions mix static and dynamic sizes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidColors, opts.Color) {
				return errors.Errorf("invalid color %q: must be one of %v", opts.Color, ValidColors)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "auto", "colorize the output (auto|always|never)")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewPadCommand(opts))
	return cmd
}

var (
	opNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#705090")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	tableBorder  = lipgloss.NewStyle().Foreground(lipgloss.Color("#705090"))
	normalStyle  = lipgloss.NewStyle().Padding(0, 1)
	rightAligned = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
)

// isTerminal returns whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// useColor returns whether the output to w should be styled.
func (opts *RootOptions) useColor(w io.Writer) bool {
	switch opts.Color {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(w)
	}
}

// printOptions returns the IR printing options for the output w.
func (opts *RootOptions) printOptions(w io.Writer, attributes bool) []ir.PrintOption {
	var options []ir.PrintOption
	if attributes {
		options = append(options, ir.WithAttributes())
	}
	if opts.useColor(w) {
		options = append(options, ir.WithOpNameStyle(func(name string) string { return opNameStyle.Render(name) }))
	}
	return options
}
