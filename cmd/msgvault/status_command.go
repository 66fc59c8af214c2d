package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"msgvault/internal/config"
	"msgvault/internal/janitor"
	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
	"msgvault/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vault health and cleanup history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Vault", colorize) {
					fmt.Fprintln(out, line)
				}
				health, healthErr := st.CheckHealth(cmd.Context())
				fmt.Fprintln(out, renderStatusLine("database", databaseStatus(health, healthErr), health.DBPath, colorize))
				if healthErr != nil {
					fmt.Fprintln(out, renderStatusLine("health check", statusError, healthErr.Error(), colorize))
				}

				if healthErr == nil && health.DatabaseReadable {
					rows := make([][2]string, 0, len(health.Counts))
					tables := make([]string, 0, len(health.Counts))
					for table := range health.Counts {
						tables = append(tables, table)
					}
					sort.Strings(tables)
					for _, table := range tables {
						rows = append(rows, [2]string{table, strconv.FormatInt(health.Counts[table], 10)})
					}
					fmt.Fprintln(out, renderCountTable("Records", rows))
				}

				for _, line := range renderSectionHeader("Cleanup", colorize) {
					fmt.Fprintln(out, line)
				}
				coordinator := janitor.NewCoordinator(cfg, st, lifecycle.Always(), logging.NewNop())
				last, ok, err := coordinator.LastCleaning(cmd.Context())
				switch {
				case err != nil:
					fmt.Fprintln(out, renderStatusLine("last cleanup", statusError, err.Error(), colorize))
				case !ok:
					fmt.Fprintln(out, renderStatusLine("last cleanup", statusInfo, "never completed", colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("last cleanup", statusOK,
						fmt.Sprintf("%s (engine version %s)", last.Date.Local().Format(time.RFC1123), last.Version),
						colorize))
				}
				return nil
			})
		},
	}
}

func databaseStatus(health store.DatabaseHealth, err error) statusKind {
	switch {
	case err != nil:
		return statusError
	case !health.DatabaseExists:
		return statusWarn
	case !health.DatabaseReadable:
		return statusError
	default:
		return statusOK
	}
}
