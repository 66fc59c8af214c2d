package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"msgvault/internal/config"
	"msgvault/internal/store"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var threads int
	var messagesPerThread int

	cmd := &cobra.Command{
		Use:    "seed",
		Short:  "Populate the vault with sample data",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(cfg *config.Config, st *store.Store) error {
				cmdCtx := cmd.Context()
				for t := 0; t < threads; t++ {
					avatar, err := writeBlob(cfg.Paths.AvatarsDir, ".jpg")
					if err != nil {
						return err
					}
					threadID, err := st.AddThread(cmdCtx, fmt.Sprintf("contact-%03d", t), t%4 == 0, avatar)
					if err != nil {
						return err
					}
					for m := 0; m < messagesPerThread; m++ {
						messageID, err := st.AddMessage(cmdCtx, threadID, fmt.Sprintf("contact-%03d", t),
							fmt.Sprintf("sample message %d", m))
						if err != nil {
							return err
						}
						if m%3 != 0 {
							continue
						}
						blob, err := writeBlob(cfg.Paths.AttachmentsDir, ".bin")
						if err != nil {
							return err
						}
						if _, err := st.AddAttachment(cmdCtx, store.AttachmentSpec{
							MessageID:   &messageID,
							Kind:        store.AttachmentStream,
							ContentType: "application/octet-stream",
							BlobPath:    blob,
						}); err != nil {
							return err
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d threads with %d messages each.\n", threads, messagesPerThread)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&threads, "threads", 5, "Number of conversations to create")
	cmd.Flags().IntVar(&messagesPerThread, "messages", 10, "Messages per conversation")
	return cmd
}

func writeBlob(dir, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create blob directory %q: %w", dir, err)
	}
	payload := make([]byte, 256)
	if _, err := rand.Read(payload); err != nil {
		return "", fmt.Errorf("generate blob payload: %w", err)
	}
	path := filepath.Join(dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write blob %q: %w", path, err)
	}
	return path, nil
}
