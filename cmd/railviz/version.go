package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"railviz/internal/ui"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the railviz version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s\n", ui.Brand.Sprint("railviz"), version,
				ui.Subtle.Sprintf("(%s %s/%s)", runtime.Version(), runtime.GOOS, runtime.GOARCH))
		},
	}
}
