package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"msgvault/internal/janitor"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "msgvault %s\n", buildVersion())
			fmt.Fprintf(out, "cleanup engine %s\n", janitor.ToolVersion)
			return nil
		},
	}
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}
