package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"msgvault/internal/config"
	"msgvault/internal/janitor"
	"msgvault/internal/lifecycle"
	"msgvault/internal/store"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete orphaned files and records",
		Long: `Clean reconciles the vault database against the blob directories and
deletes data nothing references anymore: files no record points at, messages
whose thread is gone, and the records hanging off them. Files that live
records reference but that are absent from disk are reported, never touched.

An interrupt aborts the run at the next safe point; an aborted run deletes
nothing it had not already deleted and can simply be re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(cfg *config.Config, st *store.Store) error {
				logger, err := fileLogger(cfg)
				if err != nil {
					return fmt.Errorf("initialize logging: %w", err)
				}

				// Signals flip the gate rather than killing the process:
				// in-flight batches finish, remaining work is abandoned.
				// A stop/continue pair pauses and resumes the run.
				gate := lifecycle.NewSwitch(true)
				signals := make(chan os.Signal, 4)
				signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGCONT)
				defer signal.Stop(signals)
				go func() {
					for sig := range signals {
						switch sig {
						case syscall.SIGTSTP:
							gate.SetActive(false)
						case syscall.SIGCONT:
							gate.SetActive(true)
						default:
							fmt.Fprintln(cmd.ErrOrStderr(), "interrupted; stopping at the next safe point")
							gate.SetActive(false)
							return
						}
					}
				}()

				coordinator := janitor.NewCoordinator(cfg, st, gate, logger)
				outcome, err := coordinator.Run(cmd.Context(), true)
				if err != nil {
					if errors.Is(err, janitor.ErrExhausted) {
						return fmt.Errorf("cleanup did not finish: %w", err)
					}
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderCountTable("Reclaimed", [][2]string{
					{"files", strconv.Itoa(outcome.FilesDeleted)},
					{"messages", strconv.FormatInt(outcome.MessagesDeleted, 10)},
					{"attachments", strconv.FormatInt(outcome.AttachmentsDeleted, 10)},
					{"reactions", strconv.FormatInt(outcome.ReactionsDeleted, 10)},
					{"mentions", strconv.FormatInt(outcome.MentionsDeleted, 10)},
					{"sticker rows", strconv.FormatInt(outcome.StickerRowsDeleted, 10)},
				}))

				colorize := shouldColorize(out)
				if outcome.FileDeleteFailures > 0 {
					fmt.Fprintln(out, renderStatusLine("file deletions", statusWarn,
						fmt.Sprintf("%d files could not be removed; see the log", outcome.FileDeleteFailures),
						colorize))
				}
				if outcome.MissingReferences > 0 {
					fmt.Fprintln(out, renderStatusLine("missing references", statusWarn,
						fmt.Sprintf("%d live records point at files absent from disk (preserved)", outcome.MissingReferences),
						colorize))
				}
				return nil
			})
		},
	}
	return cmd
}
