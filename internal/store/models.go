package store

import "time"

// AttachmentKind distinguishes materialized payloads from remote pointers.
type AttachmentKind string

const (
	// AttachmentStream has its payload on disk; its blob and thumbnail paths
	// participate in file reconciliation.
	AttachmentStream AttachmentKind = "stream"
	// AttachmentPointer references a remote payload and contributes nothing
	// to the file universe.
	AttachmentPointer AttachmentKind = "pointer"
)

// Thread is a conversation. Group threads may carry a group avatar blob.
type Thread struct {
	ID         int64
	Recipient  string
	IsGroup    bool
	AvatarPath string
	CreatedAt  time.Time
}

// Profile is a known contact. Profiles may carry an avatar blob.
type Profile struct {
	ID          int64
	Address     string
	DisplayName string
	AvatarPath  string
}

// Message is a single event inside a thread.
type Message struct {
	ID       int64
	ThreadID int64
	Sender   string
	Body     string
	SentAt   time.Time
}

// Attachment is a typed payload record. MessageID is nil for attachments that
// are only reachable through a story post or an in-flight job.
type Attachment struct {
	ID          int64
	MessageID   *int64
	Kind        AttachmentKind
	ContentType string
	BlobPath    string
	ThumbPath   string
	CreatedAt   time.Time
}

// Reaction is an emoji response owned by a message.
type Reaction struct {
	ID        int64
	MessageID int64
	Author    string
	Emoji     string
	CreatedAt time.Time
}

// Mention is an @-mention owned by a message.
type Mention struct {
	ID        int64
	MessageID int64
	Address   string
	CreatedAt time.Time
}

// StoryPost is a story entry referencing exactly one attachment.
type StoryPost struct {
	ID           int64
	Author       string
	AttachmentID int64
	PostedAt     time.Time
}

// Job is an in-flight background operation. Attachments it references are
// live even when no message references them yet.
type Job struct {
	ID            int64
	Kind          string
	Payload       string
	AttachmentIDs []int64
	CreatedAt     time.Time
}

// StickerPack groups stickers; only installed packs keep their blobs live.
type StickerPack struct {
	ID        int64
	PackKey   string
	Title     string
	Installed bool
}

// Sticker is a single sticker blob within a pack.
type Sticker struct {
	ID       int64
	PackID   int64
	Emoji    string
	BlobPath string
}
