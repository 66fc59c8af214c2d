package store_test

import (
	"context"
	"testing"

	"msgvault/internal/store"
	"msgvault/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	threadID, err := st.AddThread(ctx, "+15550001111", false, "")
	if err != nil {
		t.Fatalf("AddThread failed: %v", err)
	}
	if threadID == 0 {
		t.Fatal("expected thread ID to be assigned")
	}

	msgID, err := st.AddMessage(ctx, threadID, "+15550001111", "hello")
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if msgID == 0 {
		t.Fatal("expected message ID to be assigned")
	}
}

func TestOpenExistingDatabaseKeepsVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
}

func TestSnapshotSeesAllKinds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	threadID, _ := st.AddThread(ctx, "group", true, "/avatars/g.jpg")
	msgID, _ := st.AddMessage(ctx, threadID, "alice", "hi")
	attID, err := st.AddAttachment(ctx, store.AttachmentSpec{
		MessageID: &msgID,
		Kind:      store.AttachmentStream,
		BlobPath:  "/att/a.bin",
		ThumbPath: "/att/a.thumb",
	})
	if err != nil {
		t.Fatalf("AddAttachment failed: %v", err)
	}
	if _, err := st.AddReaction(ctx, msgID, "bob", "+1"); err != nil {
		t.Fatalf("AddReaction failed: %v", err)
	}
	if _, err := st.AddMention(ctx, msgID, "bob"); err != nil {
		t.Fatalf("AddMention failed: %v", err)
	}
	if _, err := st.AddStoryPost(ctx, "alice", attID); err != nil {
		t.Fatalf("AddStoryPost failed: %v", err)
	}
	if _, err := st.AddJob(ctx, "attachment-upload", "", []int64{attID}); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}
	packID, _ := st.AddStickerPack(ctx, "pack-1", "Cats", true)
	if _, err := st.AddSticker(ctx, packID, ":cat:", "/stickers/cat.webp"); err != nil {
		t.Fatalf("AddSticker failed: %v", err)
	}

	counts := map[string]int{}
	err = st.View(ctx, func(sn *store.Snapshot) error {
		if err := sn.ForEachThread(func(store.Thread) error { counts["threads"]++; return nil }); err != nil {
			return err
		}
		if err := sn.ForEachMessage(func(store.Message) error { counts["messages"]++; return nil }); err != nil {
			return err
		}
		if err := sn.ForEachAttachment(func(a store.Attachment) error {
			if a.MessageID == nil || *a.MessageID != msgID {
				t.Errorf("attachment message id not preserved: %+v", a)
			}
			counts["attachments"]++
			return nil
		}); err != nil {
			return err
		}
		if err := sn.ForEachReaction(func(store.Reaction) error { counts["reactions"]++; return nil }); err != nil {
			return err
		}
		if err := sn.ForEachMention(func(store.Mention) error { counts["mentions"]++; return nil }); err != nil {
			return err
		}
		if err := sn.ForEachStoryPost(func(store.StoryPost) error { counts["stories"]++; return nil }); err != nil {
			return err
		}
		if err := sn.ForEachJob(func(j store.Job) error {
			if len(j.AttachmentIDs) != 1 || j.AttachmentIDs[0] != attID {
				t.Errorf("job attachment ids not preserved: %+v", j)
			}
			counts["jobs"]++
			return nil
		}); err != nil {
			return err
		}
		return sn.ForEachSticker(func(store.Sticker) error { counts["stickers"]++; return nil })
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	for kind, want := range map[string]int{
		"threads": 1, "messages": 1, "attachments": 1, "reactions": 1,
		"mentions": 1, "stories": 1, "jobs": 1, "stickers": 1,
	} {
		if counts[kind] != want {
			t.Errorf("expected %d %s, got %d", want, kind, counts[kind])
		}
	}
}

func TestDeleteBatches(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	threadID, _ := st.AddThread(ctx, "t", false, "")
	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := st.AddMessage(ctx, threadID, "alice", "m")
		if err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
		ids = append(ids, id)
	}

	removed, err := st.DeleteMessages(ctx, ids, 2)
	if err != nil {
		t.Fatalf("DeleteMessages failed: %v", err)
	}
	if removed != 5 {
		t.Fatalf("expected 5 rows removed, got %d", removed)
	}

	var remaining int
	err = st.View(ctx, func(sn *store.Snapshot) error {
		return sn.ForEachMessage(func(store.Message) error { remaining++; return nil })
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected no messages left, got %d", remaining)
	}
}

func TestDeleteOrphanStickerData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	installed, _ := st.AddStickerPack(ctx, "keep", "Keep", true)
	if _, err := st.AddSticker(ctx, installed, ":a:", "/stickers/a.webp"); err != nil {
		t.Fatalf("AddSticker failed: %v", err)
	}
	// Sticker pointing at a pack that was deleted without cascade.
	if _, err := st.AddSticker(ctx, installed+100, ":b:", "/stickers/b.webp"); err != nil {
		t.Fatalf("AddSticker failed: %v", err)
	}
	if _, err := st.AddStickerPack(ctx, "empty", "Empty", false); err != nil {
		t.Fatalf("AddStickerPack failed: %v", err)
	}

	removed, err := st.DeleteOrphanStickerData(ctx)
	if err != nil {
		t.Fatalf("DeleteOrphanStickerData failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows removed, got %d", removed)
	}

	var stickers int
	err = st.View(ctx, func(sn *store.Snapshot) error {
		return sn.ForEachSticker(func(store.Sticker) error { stickers++; return nil })
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if stickers != 1 {
		t.Fatalf("expected surviving installed sticker, got %d rows", stickers)
	}
}

func TestKVRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, ok, err := st.GetValue(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := st.SetValues(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("SetValues failed: %v", err)
	}
	value, ok, err := st.GetValue(ctx, "a")
	if err != nil || !ok || value != "1" {
		t.Fatalf("unexpected read: %q ok=%v err=%v", value, ok, err)
	}

	if err := st.SetValue(ctx, "a", "3"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	value, _, _ = st.GetValue(ctx, "a")
	if value != "3" {
		t.Fatalf("expected overwritten value, got %q", value)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	health, err := st.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable {
		t.Fatalf("unexpected health: %+v", health)
	}
	if _, ok := health.Counts["messages"]; !ok {
		t.Fatal("expected message count in health output")
	}
}
