package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/gomlx/go-shapedir/pkg/ir"
	"github.com/gomlx/go-shapedir/pkg/program"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Attributes  bool
	Allocations bool
	Output      string
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <program.yaml>",
		Short: "Build, verify and print a program",
		Long: `Build the program described in a YAML file, verify it and print it in textual format.

A summary of the tensors materialized and buffers allocated, with their static sizes, follows the program.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Attributes, "attrs", false, "print the attributes of every operation")
	cmd.Flags().BoolVar(&opts.Allocations, "allocations", true, "print the summary of allocations")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the program to this file instead of the standard output")
	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	p, err := program.Load(path)
	if err != nil {
		return err
	}
	b, err := program.Build(p)
	if err != nil {
		return err
	}
	if err := verify(b, isTerminal(cmd.OutOrStdout())); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		var buf bytes.Buffer
		if err := b.Write(&buf, opts.printOptions(&buf, opts.Attributes)...); err != nil {
			return err
		}
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write program to %q", opts.Output)
		}
		_, _ = fmt.Fprintf(out, "Program %q written to %s\n", b.Name(), opts.Output)
	} else if err := b.Write(out, opts.printOptions(out, opts.Attributes)...); err != nil {
		return err
	}
	if opts.Allocations {
		return writeAllocations(out, collectAllocations(b), opts.useColor(out))
	}
	return nil
}

// verify the program, with a spinner if interactive.
func verify(b *ir.Builder, interactive bool) error {
	if !interactive {
		return b.Verify()
	}
	var err error
	spinErr := spinner.New().
		Title(fmt.Sprintf("Verifying %q...", b.Name())).
		Action(func() { err = b.Verify() }).
		Run()
	if spinErr != nil {
		klog.Warningf("spinner failed: %v", spinErr)
	}
	return err
}
