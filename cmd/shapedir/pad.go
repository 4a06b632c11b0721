package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/gomlx/go-shapedir/pkg/program"
	"github.com/gomlx/go-shapedir/pkg/types/shapes"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// PadOptions holds flags for the pad command.
type PadOptions struct {
	*RootOptions
	Source     string
	Low, High  string
	Hint       string
	NoFold     bool
	Attributes bool
}

// NewPadCommand creates the pad command.
func NewPadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pad",
		Short: "Infer the result type of padding a tensor",
		Long: `Build a function that pads a tensor with zeros, and print its result type and the function.

Padding amounts are comma-separated lists, with "?" for amounts only known at run time, e.g.:

  shapedir pad --source "tensor<1x2x2x?xf32>" --low "2,?,3,3" --high "3,3,?,2"

If some of the flags are missing and the standard input is a terminal, they are asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPad(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Source, "source", "", "type of the tensor to pad, e.g. \"tensor<1x2x?xf32>\"")
	cmd.Flags().StringVar(&opts.Low, "low", "", "padding added before each axis, e.g. \"1,?,0\"")
	cmd.Flags().StringVar(&opts.High, "high", "", "padding added after each axis, e.g. \"0,2,?\"")
	cmd.Flags().StringVar(&opts.Hint, "hint", "", "optional result shape hint, e.g. \"?,8,?\"")
	cmd.Flags().BoolVar(&opts.NoFold, "nofold", false, "don't fold the padding away if all amounts are zero")
	cmd.Flags().BoolVar(&opts.Attributes, "attrs", false, "print the attributes of every operation")
	return cmd
}

func (opts *PadOptions) missingFlags() []string {
	var missing []string
	if opts.Source == "" {
		missing = append(missing, "--source")
	}
	if opts.Low == "" {
		missing = append(missing, "--low")
	}
	if opts.High == "" {
		missing = append(missing, "--high")
	}
	return missing
}

func runPad(opts *PadOptions, cmd *cobra.Command) error {
	if missing := opts.missingFlags(); len(missing) > 0 {
		if !isTerminal(cmd.InOrStdin()) {
			return errors.Errorf("missing flags %s", strings.Join(missing, ", "))
		}
		if err := opts.ask(); err != nil {
			return err
		}
	}

	p, err := opts.program()
	if err != nil {
		return err
	}
	b, err := program.Build(p)
	if err != nil {
		return err
	}
	if err := b.Verify(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result := b.Main().Outputs[0]
	styled := opts.useColor(out)
	label := "result:"
	if styled {
		label = titleStyle.Render(label)
	}
	_, _ = fmt.Fprintf(out, "%s %s\n\n", label, result.Type().ToMLIR())
	return b.Write(out, opts.printOptions(out, opts.Attributes)...)
}

// ask for the missing flags in an interactive form.
func (opts *PadOptions) ask() error {
	keyMap := huh.NewDefaultKeyMap()
	keyMap.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit"))

	validateAmounts := func(s string) error {
		_, err := parseAmounts(s)
		return err
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Source type").
				Placeholder("tensor<1x2x2x?xf32>").
				Value(&opts.Source).
				Validate(func(s string) error {
					_, err := sourceType(s)
					return err
				}),
			huh.NewInput().
				Title("Low padding").
				Description(`Comma-separated amounts, "?" for runtime ones.`).
				Value(&opts.Low).
				Validate(validateAmounts),
			huh.NewInput().
				Title("High padding").
				Description(`Comma-separated amounts, "?" for runtime ones.`).
				Value(&opts.High).
				Validate(validateAmounts),
			huh.NewConfirm().
				Title("Keep the padding even if all amounts are zero?").
				Value(&opts.NoFold),
		),
	).
		WithKeyMap(keyMap).
		WithProgramOptions(tea.WithOutput(os.Stderr))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("aborted")
		}
		return errors.Wrap(err, "failed to run the interactive form")
	}
	return nil
}

// sourceType parses the type of the padded tensor.
func sourceType(text string) (shapes.ShapedType, error) {
	t, err := program.ParseType(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	st, ok := t.(shapes.ShapedType)
	if !ok {
		return nil, errors.Errorf("source must be a tensor type, got %s", t.ToMLIR())
	}
	return st, nil
}

// parseAmounts parses comma-separated padding amounts. Runtime amounts ("?") are returned as
// shapes.DimDynamic.
func parseAmounts(text string) ([]int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []int64{}, nil
	}
	parts := strings.Split(text, ",")
	amounts := make([]int64, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "?" {
			amounts[i] = shapes.DimDynamic
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid amount #%d %q: must be an integer or \"?\"", i, part)
		}
		amounts[i] = v
	}
	return amounts, nil
}

// program returns the single function program that pads an input of the source type with zeros.
// Each runtime amount becomes an index input of the function.
func (opts *PadOptions) program() (*program.Program, error) {
	st, err := sourceType(opts.Source)
	if err != nil {
		return nil, err
	}
	fn := &program.Function{
		Name:   "main",
		Inputs: []program.Input{{Name: "source", Type: st.ToMLIR()}},
		Return: []string{"padded"},
	}
	entries := func(side, text string) ([]any, error) {
		amounts, err := parseAmounts(text)
		if err != nil {
			return nil, errors.WithMessage(err, side)
		}
		items := make([]any, len(amounts))
		for i, amount := range amounts {
			if amount != shapes.DimDynamic {
				items[i] = int(amount)
				continue
			}
			name := fmt.Sprintf("%s%d", side, i)
			fn.Inputs = append(fn.Inputs, program.Input{Name: name, Type: "index"})
			items[i] = name
		}
		return items, nil
	}
	low, err := entries("low", opts.Low)
	if err != nil {
		return nil, err
	}
	high, err := entries("high", opts.High)
	if err != nil {
		return nil, err
	}
	pad := &program.Statement{
		ID:       "padded",
		Op:       "pad",
		Source:   "source",
		Low:      low,
		High:     high,
		PadValue: "zero",
		NoFold:   opts.NoFold,
	}
	if opts.Hint != "" {
		hint, err := parseAmounts(opts.Hint)
		if err != nil {
			return nil, errors.WithMessage(err, "hint")
		}
		for _, dim := range hint {
			if dim == shapes.DimDynamic {
				pad.Hint = append(pad.Hint, "?")
			} else {
				pad.Hint = append(pad.Hint, int(dim))
			}
		}
	}
	fn.Body = []*program.Statement{
		{ID: "zero", Op: "constant", Value: 0, DType: st.ElementType().ToMLIR()},
		pad,
	}
	p := &program.Program{Name: "pad", Functions: []*program.Function{fn}}
	klog.V(1).Infof("pad program: %d inputs", len(fn.Inputs))
	return p, p.Validate()
}
