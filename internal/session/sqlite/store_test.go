package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quiz-client/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "sessions.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-journal")
	})
	return store
}

func TestStoreGetSetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || value != "v2" {
		t.Fatalf("Get(k) = %q, %v, %v", value, ok, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected key to be deleted")
	}
}

func TestStoreKeysTreatsUnderscoreLiterally(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"quiz_preview_1_state_v1", "quiz_preview_2_state_v1", "quizXpreviewX3", "other"} {
		if err := store.Set(ctx, key, "{}"); err != nil {
			t.Fatalf("Set(%s) failed: %v", key, err)
		}
	}

	keys, err := store.Keys(ctx, session.KeyPrefix)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "quiz_preview_1_state_v1" || keys[1] != "quiz_preview_2_state_v1" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestStoreBacksRepositoryAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	record := session.NewRecord()
	record.Answers[10] = []int64{100}
	record.CurrentPage = 3
	session.NewRepository(store, nil).Save(ctx, 9, record)
	_ = store.Close()

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, ok := session.NewRepository(reopened, nil).Load(ctx, 9)
	if !ok {
		t.Fatalf("expected record to survive reopen")
	}
	if got.SessionID != record.SessionID || got.CurrentPage != 3 || len(got.Answers[10]) != 1 {
		t.Fatalf("unexpected record: %+v", got)
	}
}
