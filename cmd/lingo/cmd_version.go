package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", lingo.Name, lingo.FullVersion())
			if lingo.GitCommit != "unknown" && lingo.GitCommit != "" {
				fmt.Fprintf(out, "  commit:  %s\n", lingo.GitCommit)
			}
			if lingo.BuildDate != "unknown" && lingo.BuildDate != "" {
				fmt.Fprintf(out, "  built:   %s\n", lingo.BuildDate)
			}
			fmt.Fprintf(out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
