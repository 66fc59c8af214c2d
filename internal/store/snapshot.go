package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Snapshot is a read-only view of every table, scoped to one transaction so
// cross-referencing enumerations observe a single consistent universe. A row
// created after the transaction starts is visible in none of the
// enumerations, never in just some of them.
type Snapshot struct {
	tx  *sql.Tx
	ctx context.Context
}

// View runs fn against a snapshot taken in one read transaction. Any error
// from fn aborts the transaction and is returned unchanged, so callers can
// propagate sentinel errors through the enumeration callbacks.
func (s *Store) View(ctx context.Context, fn func(*Snapshot) error) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(&Snapshot{tx: tx, ctx: ctx})
}

func (sn *Snapshot) forEach(query string, scan func(*sql.Rows) error) error {
	rows, err := sn.tx.QueryContext(sn.ctx, query)
	if err != nil {
		return fmt.Errorf("snapshot query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ForEachThread enumerates every conversation.
func (sn *Snapshot) ForEachThread(fn func(Thread) error) error {
	return sn.forEach(`SELECT id, recipient, is_group, avatar_path, created_at FROM threads`, func(rows *sql.Rows) error {
		var (
			t       Thread
			isGroup int
			avatar  sql.NullString
			created string
		)
		if err := rows.Scan(&t.ID, &t.Recipient, &isGroup, &avatar, &created); err != nil {
			return fmt.Errorf("scan thread: %w", err)
		}
		t.IsGroup = isGroup != 0
		t.AvatarPath = avatar.String
		t.CreatedAt = parseTimestamp(created)
		return fn(t)
	})
}

// ForEachProfile enumerates every contact profile.
func (sn *Snapshot) ForEachProfile(fn func(Profile) error) error {
	return sn.forEach(`SELECT id, address, display_name, avatar_path FROM profiles`, func(rows *sql.Rows) error {
		var (
			p       Profile
			display sql.NullString
			avatar  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Address, &display, &avatar); err != nil {
			return fmt.Errorf("scan profile: %w", err)
		}
		p.DisplayName = display.String
		p.AvatarPath = avatar.String
		return fn(p)
	})
}

// ForEachMessage enumerates every message.
func (sn *Snapshot) ForEachMessage(fn func(Message) error) error {
	return sn.forEach(`SELECT id, thread_id, sender, body, sent_at FROM messages`, func(rows *sql.Rows) error {
		var (
			m    Message
			body sql.NullString
			sent string
		)
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Sender, &body, &sent); err != nil {
			return fmt.Errorf("scan message: %w", err)
		}
		m.Body = body.String
		m.SentAt = parseTimestamp(sent)
		return fn(m)
	})
}

// ForEachAttachment enumerates every attachment record.
func (sn *Snapshot) ForEachAttachment(fn func(Attachment) error) error {
	return sn.forEach(`SELECT id, message_id, kind, content_type, blob_path, thumb_path, created_at FROM attachments`, func(rows *sql.Rows) error {
		var (
			a           Attachment
			messageID   sql.NullInt64
			kind        string
			contentType sql.NullString
			blob        sql.NullString
			thumb       sql.NullString
			created     string
		)
		if err := rows.Scan(&a.ID, &messageID, &kind, &contentType, &blob, &thumb, &created); err != nil {
			return fmt.Errorf("scan attachment: %w", err)
		}
		if messageID.Valid {
			id := messageID.Int64
			a.MessageID = &id
		}
		a.Kind = AttachmentKind(kind)
		a.ContentType = contentType.String
		a.BlobPath = blob.String
		a.ThumbPath = thumb.String
		a.CreatedAt = parseTimestamp(created)
		return fn(a)
	})
}

// ForEachReaction enumerates every reaction.
func (sn *Snapshot) ForEachReaction(fn func(Reaction) error) error {
	return sn.forEach(`SELECT id, message_id, author, emoji, created_at FROM reactions`, func(rows *sql.Rows) error {
		var (
			r       Reaction
			created string
		)
		if err := rows.Scan(&r.ID, &r.MessageID, &r.Author, &r.Emoji, &created); err != nil {
			return fmt.Errorf("scan reaction: %w", err)
		}
		r.CreatedAt = parseTimestamp(created)
		return fn(r)
	})
}

// ForEachMention enumerates every mention.
func (sn *Snapshot) ForEachMention(fn func(Mention) error) error {
	return sn.forEach(`SELECT id, message_id, address, created_at FROM mentions`, func(rows *sql.Rows) error {
		var (
			m       Mention
			created string
		)
		if err := rows.Scan(&m.ID, &m.MessageID, &m.Address, &created); err != nil {
			return fmt.Errorf("scan mention: %w", err)
		}
		m.CreatedAt = parseTimestamp(created)
		return fn(m)
	})
}

// ForEachStoryPost enumerates every story post.
func (sn *Snapshot) ForEachStoryPost(fn func(StoryPost) error) error {
	return sn.forEach(`SELECT id, author, attachment_id, posted_at FROM story_posts`, func(rows *sql.Rows) error {
		var (
			p      StoryPost
			posted string
		)
		if err := rows.Scan(&p.ID, &p.Author, &p.AttachmentID, &posted); err != nil {
			return fmt.Errorf("scan story post: %w", err)
		}
		p.PostedAt = parseTimestamp(posted)
		return fn(p)
	})
}

// ForEachJob enumerates every in-flight background job.
func (sn *Snapshot) ForEachJob(fn func(Job) error) error {
	return sn.forEach(`SELECT id, kind, payload, attachment_ids, created_at FROM jobs`, func(rows *sql.Rows) error {
		var (
			j       Job
			payload sql.NullString
			encoded sql.NullString
			created string
		)
		if err := rows.Scan(&j.ID, &j.Kind, &payload, &encoded, &created); err != nil {
			return fmt.Errorf("scan job: %w", err)
		}
		j.Payload = payload.String
		ids, err := decodeAttachmentIDs(encoded.String)
		if err != nil {
			return err
		}
		j.AttachmentIDs = ids
		j.CreatedAt = parseTimestamp(created)
		return fn(j)
	})
}

// ForEachStickerPack enumerates every sticker pack.
func (sn *Snapshot) ForEachStickerPack(fn func(StickerPack) error) error {
	return sn.forEach(`SELECT id, pack_key, title, installed FROM sticker_packs`, func(rows *sql.Rows) error {
		var (
			p         StickerPack
			title     sql.NullString
			installed int
		)
		if err := rows.Scan(&p.ID, &p.PackKey, &title, &installed); err != nil {
			return fmt.Errorf("scan sticker pack: %w", err)
		}
		p.Title = title.String
		p.Installed = installed != 0
		return fn(p)
	})
}

// ForEachSticker enumerates every sticker.
func (sn *Snapshot) ForEachSticker(fn func(Sticker) error) error {
	return sn.forEach(`SELECT id, pack_id, emoji, blob_path FROM stickers`, func(rows *sql.Rows) error {
		var (
			s     Sticker
			emoji sql.NullString
			blob  sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.PackID, &emoji, &blob); err != nil {
			return fmt.Errorf("scan sticker: %w", err)
		}
		s.Emoji = emoji.String
		s.BlobPath = blob.String
		return fn(s)
	})
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
