package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"msgvault/internal/config"
	"msgvault/internal/janitor"
	"msgvault/internal/lifecycle"
	"msgvault/internal/store"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var showPaths bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report orphaned data without deleting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(cfg *config.Config, st *store.Store) error {
				logger, err := fileLogger(cfg)
				if err != nil {
					return fmt.Errorf("initialize logging: %w", err)
				}

				coordinator := janitor.NewCoordinator(cfg, st, lifecycle.Always(), logger)
				snap, err := coordinator.Audit(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !snap.HasWork() && snap.Missing.Total() == 0 {
					fmt.Fprintln(out, "Vault is consistent; nothing to clean.")
					return nil
				}

				fmt.Fprintln(out, renderCountTable("Orphaned data", [][2]string{
					{"orphan files", strconv.Itoa(len(snap.OrphanFilePaths))},
					{"wholesale files", strconv.Itoa(len(snap.WholesalePaths))},
					{"reclaimable space", humanBytes(totalSize(snap.OrphanFilePaths.Values(), snap.WholesalePaths.Values()))},
					{"messages", strconv.Itoa(len(snap.OrphanMessageIDs))},
					{"attachments", strconv.Itoa(len(snap.OrphanAttachmentIDs))},
					{"reactions", strconv.Itoa(len(snap.OrphanReactionIDs))},
					{"mentions", strconv.Itoa(len(snap.OrphanMentionIDs))},
					{"sticker cleanup", yesNo(snap.HasOrphanedStickerData)},
				}))

				if snap.Missing.Total() > 0 {
					colorize := shouldColorize(out)
					fmt.Fprintln(out, renderStatusLine("missing references", statusWarn,
						fmt.Sprintf("%d live records point at files absent from disk (preserved)", snap.Missing.Total()),
						colorize))
					if showPaths {
						fmt.Fprintln(out, renderPathList("Missing files", sortedPaths(
							snap.Missing.AttachmentFiles.Values(),
							snap.Missing.AvatarFiles.Values(),
							snap.Missing.StickerFiles.Values(),
						)))
					}
				}

				if showPaths && len(snap.OrphanFilePaths)+len(snap.WholesalePaths) > 0 {
					fmt.Fprintln(out, renderPathList("Orphan files", sortedPaths(
						snap.OrphanFilePaths.Values(),
						snap.WholesalePaths.Values(),
					)))
				}

				fmt.Fprintln(out, "Run `msgvault clean` to reclaim this data.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showPaths, "paths", false, "List individual file paths")
	return cmd
}

// totalSize sums on-disk sizes; files that disappear between discovery and
// the stat are counted as zero.
func totalSize(groups ...[]string) int64 {
	var total int64
	for _, group := range groups {
		for _, path := range group {
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				total += info.Size()
			}
		}
	}
	return total
}

func humanBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func sortedPaths(groups ...[]string) []string {
	var merged []string
	for _, group := range groups {
		merged = append(merged, group...)
	}
	sort.Strings(merged)
	return merged
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
