package janitor_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"msgvault/internal/config"
	"msgvault/internal/janitor"
	"msgvault/internal/layout"
	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
	"msgvault/internal/reconcile"
	"msgvault/internal/store"
	"msgvault/internal/testsupport"
)

// fixture is a vault seeded with one of everything: live records with their
// files, each orphan variety, a missing reference, and wholesale droppings.
type fixture struct {
	cfg   *config.Config
	store *store.Store

	threadID   int64
	messageID  int64
	keptAttID  int64
	storyAttID int64
	jobAttID   int64
	missAttID  int64

	orphanMsgID      int64
	orphanAttID      int64
	orphanReactionID int64
	orphanMentionID  int64

	keptAvatar  string
	keptBlob    string
	keptThumb   string
	storyBlob   string
	jobBlob     string
	keptSticker string

	orphanBlob    string
	strayFile     string
	orphanSticker string
	draftFile     string
	missingBlob   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{cfg: testsupport.NewConfig(t)}
	f.store = testsupport.MustOpenStore(t, f.cfg)

	must := func(id int64, err error) int64 {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		return id
	}

	// Live thread with a message carrying an attachment, a reaction, and a
	// mention. Everything here must survive cleanup.
	f.keptAvatar = testsupport.NewBlob(t, f.cfg.Paths.AvatarsDir, ".jpg")
	f.threadID = must(f.store.AddThread(ctx, "alice", false, f.keptAvatar))
	f.messageID = must(f.store.AddMessage(ctx, f.threadID, "alice", "hello"))
	f.keptBlob = testsupport.NewBlob(t, f.cfg.Paths.AttachmentsDir, ".bin")
	f.keptThumb = testsupport.NewBlob(t, f.cfg.Paths.AttachmentsDir, ".thumb")
	f.keptAttID = must(f.store.AddAttachment(ctx, store.AttachmentSpec{
		MessageID:   &f.messageID,
		Kind:        store.AttachmentStream,
		ContentType: "image/png",
		BlobPath:    f.keptBlob,
		ThumbPath:   f.keptThumb,
	}))
	must(f.store.AddReaction(ctx, f.messageID, "bob", "+1"))
	must(f.store.AddMention(ctx, f.messageID, "bob"))

	// A message whose thread is gone, dragging its attachment with it.
	ghostThread := must(f.store.AddThread(ctx, "bob", false, ""))
	f.orphanMsgID = must(f.store.AddMessage(ctx, ghostThread, "bob", "gone"))
	f.orphanBlob = testsupport.NewBlob(t, f.cfg.Paths.AttachmentsDir, ".bin")
	f.orphanAttID = must(f.store.AddAttachment(ctx, store.AttachmentSpec{
		MessageID: &f.orphanMsgID,
		Kind:      store.AttachmentStream,
		BlobPath:  f.orphanBlob,
	}))
	if err := f.store.DeleteThread(ctx, ghostThread); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// A reaction and a mention whose owning message is gone.
	deadMsg := must(f.store.AddMessage(ctx, f.threadID, "alice", "short-lived"))
	f.orphanReactionID = must(f.store.AddReaction(ctx, deadMsg, "bob", "-1"))
	f.orphanMentionID = must(f.store.AddMention(ctx, deadMsg, "carol"))
	if err := f.store.DeleteMessage(ctx, deadMsg); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// A file no record has ever heard of.
	f.strayFile = testsupport.NewBlob(t, f.cfg.Paths.AttachmentsDir, ".bin")

	// Voice-note drafts are reclaimed wholesale.
	f.draftFile = testsupport.NewBlob(t, f.cfg.Paths.VoiceNoteDraftsDir, ".m4a")

	// Attachments kept alive only through a story post or a pending job.
	f.storyBlob = testsupport.NewBlob(t, f.cfg.Paths.AttachmentsDir, ".bin")
	f.storyAttID = must(f.store.AddAttachment(ctx, store.AttachmentSpec{
		Kind:     store.AttachmentStream,
		BlobPath: f.storyBlob,
	}))
	must(f.store.AddStoryPost(ctx, "alice", f.storyAttID))

	f.jobBlob = testsupport.NewBlob(t, f.cfg.Paths.AttachmentsDir, ".bin")
	f.jobAttID = must(f.store.AddAttachment(ctx, store.AttachmentSpec{
		Kind:     store.AttachmentStream,
		BlobPath: f.jobBlob,
	}))
	must(f.store.AddJob(ctx, "upload", "", []int64{f.jobAttID}))

	// One installed pack whose sticker survives, one uninstalled pack whose
	// sticker file and rows are fair game.
	installedPack := must(f.store.AddStickerPack(ctx, "pack-keep", "fun", true))
	f.keptSticker = testsupport.NewBlob(t, f.cfg.Paths.StickersDir, ".webp")
	must(f.store.AddSticker(ctx, installedPack, "grin", f.keptSticker))

	oldPack := must(f.store.AddStickerPack(ctx, "pack-drop", "stale", false))
	f.orphanSticker = testsupport.NewBlob(t, f.cfg.Paths.StickersDir, ".webp")
	must(f.store.AddSticker(ctx, oldPack, "frown", f.orphanSticker))

	// A live record pointing at a file that does not exist. Reported, never
	// repaired.
	f.missingBlob = filepath.Join(f.cfg.Paths.AttachmentsDir, "vanished.bin")
	f.missAttID = must(f.store.AddAttachment(ctx, store.AttachmentSpec{
		MessageID: &f.messageID,
		Kind:      store.AttachmentStream,
		BlobPath:  f.missingBlob,
	}))

	return f
}

func (f *fixture) collector() *janitor.Collector {
	return f.collectorAt(time.Time{})
}

// collectorAt builds a collector with a fixed in-flight-write cutoff.
func (f *fixture) collectorAt(cutoff time.Time) *janitor.Collector {
	return janitor.NewCollector(f.store, layout.New(f.cfg), lifecycle.Always(), logging.NewNop(), 10, cutoff)
}

func (f *fixture) collect(t *testing.T) *janitor.Snapshot {
	t.Helper()
	snap, err := f.collector().Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return snap
}

// countdownGate is active for a fixed number of Active calls, then drops.
type countdownGate struct {
	mu        sync.Mutex
	remaining int
}

func (g *countdownGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.remaining <= 0 {
		return false
	}
	g.remaining--
	return true
}

func (g *countdownGate) RunWhenActive(fn func()) { go fn() }

func wantIDSet(t *testing.T, name string, got reconcile.Set[int64], want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d entries %v, want %d", name, len(got), got.Values(), len(want))
	}
	for _, id := range want {
		if !got.Contains(id) {
			t.Errorf("%s: missing id %d", name, id)
		}
	}
}

func wantPathSet(t *testing.T, name string, got reconcile.Set[string], want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d entries %v, want %d", name, len(got), got.Values(), len(want))
	}
	for _, path := range want {
		if !got.Contains(path) {
			t.Errorf("%s: missing path %s", name, path)
		}
	}
}

// backdate pushes a file's timestamps into the past.
func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("backdate %s: %v", path, err)
	}
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("stat %s: %v", path, err)
	return false
}
