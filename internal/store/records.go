package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// AddThread inserts a conversation and returns its assigned ID.
func (s *Store) AddThread(ctx context.Context, recipient string, isGroup bool, avatarPath string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO threads (recipient, is_group, avatar_path, created_at) VALUES (?, ?, ?, ?)`,
		recipient, boolToInt(isGroup), nullableString(avatarPath), timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert thread: %w", err)
	}
	return res.LastInsertId()
}

// AddProfile inserts a contact profile.
func (s *Store) AddProfile(ctx context.Context, address, displayName, avatarPath string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO profiles (address, display_name, avatar_path) VALUES (?, ?, ?)`,
		address, nullableString(displayName), nullableString(avatarPath),
	)
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	return res.LastInsertId()
}

// AddMessage inserts a message into a thread.
func (s *Store) AddMessage(ctx context.Context, threadID int64, sender, body string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO messages (thread_id, sender, body, sent_at) VALUES (?, ?, ?, ?)`,
		threadID, sender, nullableString(body), timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return res.LastInsertId()
}

// AttachmentSpec describes a new attachment record.
type AttachmentSpec struct {
	MessageID   *int64
	Kind        AttachmentKind
	ContentType string
	BlobPath    string
	ThumbPath   string
}

// AddAttachment inserts an attachment record.
func (s *Store) AddAttachment(ctx context.Context, spec AttachmentSpec) (int64, error) {
	kind := spec.Kind
	if kind == "" {
		kind = AttachmentStream
	}
	var messageID any
	if spec.MessageID != nil {
		messageID = *spec.MessageID
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO attachments (message_id, kind, content_type, blob_path, thumb_path, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		messageID, string(kind), nullableString(spec.ContentType),
		nullableString(spec.BlobPath), nullableString(spec.ThumbPath), timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert attachment: %w", err)
	}
	return res.LastInsertId()
}

// AddReaction inserts an emoji reaction owned by a message.
func (s *Store) AddReaction(ctx context.Context, messageID int64, author, emoji string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO reactions (message_id, author, emoji, created_at) VALUES (?, ?, ?, ?)`,
		messageID, author, emoji, timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert reaction: %w", err)
	}
	return res.LastInsertId()
}

// AddMention inserts an @-mention owned by a message.
func (s *Store) AddMention(ctx context.Context, messageID int64, address string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO mentions (message_id, address, created_at) VALUES (?, ?, ?)`,
		messageID, address, timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert mention: %w", err)
	}
	return res.LastInsertId()
}

// AddStoryPost inserts a story entry referencing an attachment.
func (s *Store) AddStoryPost(ctx context.Context, author string, attachmentID int64) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO story_posts (author, attachment_id, posted_at) VALUES (?, ?, ?)`,
		author, attachmentID, timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert story post: %w", err)
	}
	return res.LastInsertId()
}

// AddJob inserts an in-flight background job. Attachment references keep
// those attachments live during reconciliation.
func (s *Store) AddJob(ctx context.Context, kind, payload string, attachmentIDs []int64) (int64, error) {
	var encoded any
	if len(attachmentIDs) > 0 {
		data, err := json.Marshal(attachmentIDs)
		if err != nil {
			return 0, fmt.Errorf("marshal job attachment ids: %w", err)
		}
		encoded = string(data)
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (kind, payload, attachment_ids, created_at) VALUES (?, ?, ?, ?)`,
		kind, nullableString(payload), encoded, timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return res.LastInsertId()
}

// DeleteJob removes a finished background job.
func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// AddStickerPack inserts a sticker pack.
func (s *Store) AddStickerPack(ctx context.Context, packKey, title string, installed bool) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO sticker_packs (pack_key, title, installed) VALUES (?, ?, ?)`,
		packKey, nullableString(title), boolToInt(installed),
	)
	if err != nil {
		return 0, fmt.Errorf("insert sticker pack: %w", err)
	}
	return res.LastInsertId()
}

// AddSticker inserts a sticker blob record into a pack.
func (s *Store) AddSticker(ctx context.Context, packID int64, emoji, blobPath string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO stickers (pack_id, emoji, blob_path) VALUES (?, ?, ?)`,
		packID, nullableString(emoji), nullableString(blobPath),
	)
	if err != nil {
		return 0, fmt.Errorf("insert sticker: %w", err)
	}
	return res.LastInsertId()
}

// DeleteThread removes a conversation row. Child messages are left behind on
// purpose; the cleanup engine is what reconciles them later.
func (s *Store) DeleteThread(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM threads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

// DeleteMessage removes a single message row without cascading.
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func decodeAttachmentIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode job attachment ids: %w", err)
	}
	return ids, nil
}
