package store

import (
	"context"
	"fmt"
	"strings"
)

// deleteBatched removes rows by ID in bounded IN clauses. Returns the number
// of rows removed.
func (s *Store) deleteBatched(ctx context.Context, table string, ids []int64, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	var total int64
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		placeholders := strings.Repeat("?,", len(chunk))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		res, err := s.execWithRetry(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, placeholders), args...)
		if err != nil {
			return total, fmt.Errorf("delete from %s: %w", table, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			total += affected
		}
	}
	return total, nil
}

// DeleteMessages removes message rows by ID in bounded batches.
func (s *Store) DeleteMessages(ctx context.Context, ids []int64, batchSize int) (int64, error) {
	return s.deleteBatched(ctx, "messages", ids, batchSize)
}

// DeleteAttachments removes attachment rows by ID in bounded batches.
func (s *Store) DeleteAttachments(ctx context.Context, ids []int64, batchSize int) (int64, error) {
	return s.deleteBatched(ctx, "attachments", ids, batchSize)
}

// DeleteReactions removes reaction rows by ID in bounded batches.
func (s *Store) DeleteReactions(ctx context.Context, ids []int64, batchSize int) (int64, error) {
	return s.deleteBatched(ctx, "reactions", ids, batchSize)
}

// DeleteMentions removes mention rows by ID in bounded batches.
func (s *Store) DeleteMentions(ctx context.Context, ids []int64, batchSize int) (int64, error) {
	return s.deleteBatched(ctx, "mentions", ids, batchSize)
}

// DeleteOrphanStickerData is the coarse sticker cleanup the reconciler
// delegates to: it drops sticker rows whose pack is missing or uninstalled,
// then the uninstalled packs themselves. Blob files those rows pointed at
// become unreferenced and are swept by the next cleanup run.
func (s *Store) DeleteOrphanStickerData(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM stickers WHERE pack_id NOT IN (SELECT id FROM sticker_packs WHERE installed = 1)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphan stickers: %w", err)
	}
	removed, _ := res.RowsAffected()

	res, err = s.execWithRetry(ctx, `DELETE FROM sticker_packs WHERE installed = 0`)
	if err != nil {
		return removed, fmt.Errorf("delete uninstalled sticker packs: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		removed += affected
	}
	return removed, nil
}
