// screenctl runs the deterministic screening classifier offline.
//
// Usage:
//
//	screenctl classify --age=<months> [--domain=<domain>] [--observations=<text>] [--image=<path>] [--hash=<hex>]
//	screenctl hash --age=<months> [--domain=<domain>] [--observations=<text>]
//	screenctl batch <cases.yaml>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "screenctl",
		Short:         "Deterministic developmental screening classifier",
		Long:          "screenctl computes input hashes and deterministic screening reports\nwithout a server, and checks fixture files of expected results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.Version = version
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newHashCmd())
	root.AddCommand(newBatchCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
