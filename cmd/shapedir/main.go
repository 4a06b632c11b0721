// shapedir builds, verifies and prints programs of structured operations over shaped values with
// static and dynamic dimensions.
//
// Usage:
//
//	shapedir build program.yaml [--attrs]
//	shapedir pad --source "tensor<1x2x2x?xf32>" --low 2,?,3,3 --high 3,3,?,2
//
// Without the --source, --low or --high flags, and on a terminal, "shapedir pad" asks for them
// interactively.
package main

import (
	"flag"
	"os"

	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	cmd := NewRootCommand()
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	if err := cmd.Execute(); err != nil {
		klog.Errorf("%+v", err)
		klog.Flush()
		os.Exit(1)
	}
}
