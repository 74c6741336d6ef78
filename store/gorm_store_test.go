package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"godrive/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Folder{}, &models.File{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s := NewGormStore(db, nil, Options{OpTimeout: 5 * time.Second})
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateFile(t *testing.T, s *GormStore, file models.File) models.File {
	t.Helper()
	id, err := s.CreateFile(context.Background(), &file)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	file.ID = id
	return file
}

func mustCreateFolder(t *testing.T, s *GormStore, folder models.Folder) models.Folder {
	t.Helper()
	id, err := s.CreateFolder(context.Background(), &folder)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	folder.ID = id
	return folder
}

// waitForSnapshot receives deliveries until the predicate holds; coalescing
// may skip intermediate snapshots, so tests assert on the converged state.
func waitForSnapshot(t *testing.T, sub *Subscription, ok func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap, open := <-sub.Updates():
			if !open {
				t.Fatalf("subscription closed while waiting")
			}
			if ok(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for matching snapshot")
		}
	}
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	file := mustCreateFile(t, s, models.File{FileName: "a.txt", Size: 100, OwnerID: "u1"})
	if file.ID == "" {
		t.Fatalf("expected store-assigned id")
	}

	got, err := s.GetFile(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if got.FileName != "a.txt" || got.Size != 100 || got.OwnerID != "u1" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be set")
	}
	if got.Deleted || got.DeletedAt != nil {
		t.Fatalf("new file must not be deleted")
	}
}

func TestGetFileNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetFile(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := newTestStore(t)
	file := mustCreateFile(t, s, models.File{FileName: "a.txt", Size: 1, OwnerID: "u1"})

	now := time.Now()
	err := s.Update(context.Background(), KindFile, file.ID, map[string]any{
		"deleted":    true,
		"deleted_at": now,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetFile(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if !got.Deleted || got.DeletedAt == nil {
		t.Fatalf("expected deleted with timestamp, got %+v", got)
	}
	if got.FileName != "a.txt" {
		t.Fatalf("untouched field changed: %+v", got)
	}

	err = s.Update(context.Background(), KindFile, file.ID, map[string]any{
		"deleted":    false,
		"deleted_at": nil,
	})
	if err != nil {
		t.Fatalf("restore update: %v", err)
	}
	got, _ = s.GetFile(context.Background(), file.ID)
	if got.Deleted || got.DeletedAt != nil {
		t.Fatalf("expected restore to clear both fields, got %+v", got)
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), KindFile, "missing", map[string]any{"highlighted": true})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	s := newTestStore(t)
	folder := mustCreateFolder(t, s, models.Folder{Name: "Work", OwnerID: "u1"})

	if err := s.Delete(context.Background(), KindFolder, folder.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetFolder(context.Background(), folder.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
	if err := s.Delete(context.Background(), KindFolder, folder.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	folder := mustCreateFolder(t, s, models.Folder{Name: "Work", OwnerID: "u1"})
	inFolder := mustCreateFile(t, s, models.File{FileName: "in.txt", OwnerID: "u1", FolderID: &folder.ID})
	atRoot := mustCreateFile(t, s, models.File{FileName: "root.txt", OwnerID: "u1"})
	mustCreateFile(t, s, models.File{FileName: "other.txt", OwnerID: "u2"})

	mustCreateFile(t, s, models.File{FileName: "gone.txt", OwnerID: "u1", Deleted: true})

	active := false
	snap, err := s.List(ctx, Query{Kind: KindFile, Owner: "u1", Deleted: &active})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snap.Files) != 2 {
		t.Fatalf("expected 2 active u1 files, got %d", len(snap.Files))
	}

	root := ""
	snap, err = s.List(ctx, Query{Kind: KindFile, Owner: "u1", Deleted: &active, FolderID: &root})
	if err != nil {
		t.Fatalf("list root: %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].ID != atRoot.ID {
		t.Fatalf("expected only the root file, got %+v", snap.Files)
	}

	snap, err = s.List(ctx, Query{Kind: KindFile, Owner: "u1", FolderID: &folder.ID})
	if err != nil {
		t.Fatalf("list folder: %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].ID != inFolder.ID {
		t.Fatalf("expected only the folder file, got %+v", snap.Files)
	}
}

func TestListSharedWithMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	shared := mustCreateFile(t, s, models.File{FileName: "shared.txt", OwnerID: "u1", ShareWith: []string{"bob@example.com"}})
	mustCreateFile(t, s, models.File{FileName: "private.txt", OwnerID: "u1"})

	snap, err := s.List(ctx, Query{Kind: KindFile, SharedWith: "bob@example.com"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].ID != shared.ID {
		t.Fatalf("expected only the shared file, got %+v", snap.Files)
	}
}

func TestListOrderWithIDTiebreak(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := ts.Add(-time.Hour)
	mustCreateFile(t, s, models.File{ID: "b", FileName: "b.txt", OwnerID: "u1", Deleted: true, DeletedAt: &ts})
	mustCreateFile(t, s, models.File{ID: "a", FileName: "a.txt", OwnerID: "u1", Deleted: true, DeletedAt: &ts})
	mustCreateFile(t, s, models.File{ID: "c", FileName: "c.txt", OwnerID: "u1", Deleted: true, DeletedAt: &older})

	deleted := true
	snap, err := s.List(ctx, Query{Kind: KindFile, Owner: "u1", Deleted: &deleted, OrderBy: "deleted_at", Desc: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{snap.Files[0].ID, snap.Files[1].ID, snap.Files[2].ID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}
}

func TestArrayUnionAddsWithoutDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	file := mustCreateFile(t, s, models.File{FileName: "a.txt", OwnerID: "u1", ShareWith: []string{"bob@example.com"}})

	for i := 0; i < 2; i++ {
		err := s.Update(ctx, KindFile, file.ID, map[string]any{
			"share_with": ArrayUnion("carol@example.com"),
		})
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	got, err := s.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := []string{"bob@example.com", "carol@example.com"}
	if len(got.ShareWith) != len(want) {
		t.Fatalf("expected %v, got %v", want, got.ShareWith)
	}
	for i := range want {
		if got.ShareWith[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got.ShareWith)
		}
	}
}

func TestBatchAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	file := mustCreateFile(t, s, models.File{FileName: "a.txt", OwnerID: "u1"})

	now := time.Now()
	err := s.Batch(ctx, []BatchOp{
		BatchUpdate(KindFile, file.ID, map[string]any{"deleted": true, "deleted_at": now}),
		BatchUpdate(KindFile, "missing", map[string]any{"deleted": true, "deleted_at": now}),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from batch, got %v", err)
	}

	got, err := s.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Deleted || got.DeletedAt != nil {
		t.Fatalf("failed batch must not leave partial writes: %+v", got)
	}
}

func TestBatchAppliesAllOps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	folder := mustCreateFolder(t, s, models.Folder{Name: "Work", OwnerID: "u1"})
	x := mustCreateFile(t, s, models.File{FileName: "x.txt", OwnerID: "u1", FolderID: &folder.ID})
	y := mustCreateFile(t, s, models.File{FileName: "y.txt", OwnerID: "u1", FolderID: &folder.ID})

	now := time.Now()
	deletion := map[string]any{"deleted": true, "deleted_at": now}
	err := s.Batch(ctx, []BatchOp{
		BatchUpdate(KindFile, x.ID, deletion),
		BatchUpdate(KindFile, y.ID, deletion),
		BatchUpdate(KindFolder, folder.ID, deletion),
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	gotFolder, _ := s.GetFolder(ctx, folder.ID)
	gotX, _ := s.GetFile(ctx, x.ID)
	gotY, _ := s.GetFile(ctx, y.ID)
	for _, deleted := range []bool{gotFolder.Deleted, gotX.Deleted, gotY.Deleted} {
		if !deleted {
			t.Fatalf("expected every record deleted")
		}
	}
	if !gotX.DeletedAt.Equal(*gotY.DeletedAt) || !gotX.DeletedAt.Equal(*gotFolder.DeletedAt) {
		t.Fatalf("cascade must share one deletion timestamp")
	}
}

func TestWatchDeliversInitialAndUpdatedSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateFile(t, s, models.File{FileName: "first.txt", OwnerID: "u1"})

	sub := s.Watch(Query{Kind: KindFile, Owner: "u1"})
	defer sub.Cancel()

	waitForSnapshot(t, sub, func(snap Snapshot) bool { return len(snap.Files) == 1 })

	mustCreateFile(t, s, models.File{FileName: "second.txt", OwnerID: "u1"})
	waitForSnapshot(t, sub, func(snap Snapshot) bool { return len(snap.Files) == 2 })

	if _, err := s.CreateFile(ctx, &models.File{FileName: "other.txt", OwnerID: "u2"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// other-owner records never enter this subscription's result set
	waitForSnapshot(t, sub, func(snap Snapshot) bool { return len(snap.Files) == 2 })
}

func TestCancelStopsDeliveryAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	sub := s.Watch(Query{Kind: KindFile, Owner: "u1"})
	waitForSnapshot(t, sub, func(snap Snapshot) bool { return true })

	sub.Cancel()
	sub.Cancel()

	// drain whatever was in flight; the channel must close
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-sub.Updates():
			if !open {
				return
			}
		case <-deadline:
			t.Fatalf("subscription channel not closed after cancel")
		}
	}
}
