package engine

import (
	"context"
	"testing"
	"time"

	"godrive/models"
	"godrive/views"
)

func waitState(t *testing.T, e *Engine, ok func(views.State) bool) views.State {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		st := e.State()
		if ok(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session state never converged")
	return views.State{}
}

// Walks one file through its whole life against the live session state:
// upload to root, move into a folder, soft-delete, restore.
func TestSessionLifecycleWalkthrough(t *testing.T) {
	fs := newFakeStore()
	e, _ := newTestEngine(t, fs)
	ctx := context.Background()

	file, err := e.UploadComplete(ctx, UploadMeta{FileName: "a.txt", Size: 10}, nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	st := waitState(t, e, func(st views.State) bool { return len(st.OwnedFiles) == 1 })

	_, rootFiles := views.ActiveTree(st, "", "")
	if len(rootFiles) != 1 || rootFiles[0].FileName != "a.txt" {
		t.Fatalf("expected a.txt at root, got %+v", rootFiles)
	}

	folder, err := e.CreateFolder(ctx, "Work")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if err := e.MoveFile(ctx, file.ID, &folder.ID); err != nil {
		t.Fatalf("move: %v", err)
	}
	st = waitState(t, e, func(st views.State) bool {
		return len(st.OwnedFolders) == 1 &&
			len(st.OwnedFiles) == 1 && st.OwnedFiles[0].FolderID != nil
	})

	_, rootFiles = views.ActiveTree(st, "", "")
	if len(rootFiles) != 0 {
		t.Fatalf("root must be empty after the move, got %+v", rootFiles)
	}
	_, folderFiles := views.ActiveTree(st, folder.ID, "")
	if len(folderFiles) != 1 || folderFiles[0].ID != file.ID {
		t.Fatalf("expected the file inside the folder, got %+v", folderFiles)
	}

	if err := e.SoftDeleteFile(ctx, file.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	st = waitState(t, e, func(st views.State) bool {
		return len(st.OwnedFiles) == 1 && st.OwnedFiles[0].Deleted
	})

	_, folderFiles = views.ActiveTree(st, folder.ID, "")
	if len(folderFiles) != 0 {
		t.Fatalf("deleted file must leave the active tree")
	}
	trash := views.Trash(st, "")
	if len(trash) != 1 || trash[0].ID != file.ID {
		t.Fatalf("expected the file in the trash, got %+v", trash)
	}

	if err := e.RestoreFile(ctx, file.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	st = waitState(t, e, func(st views.State) bool {
		return len(st.OwnedFiles) == 1 && !st.OwnedFiles[0].Deleted
	})

	// the file reappears where it was deleted from
	_, folderFiles = views.ActiveTree(st, folder.ID, "")
	if len(folderFiles) != 1 || folderFiles[0].ID != file.ID {
		t.Fatalf("restored file must reappear in its folder, got %+v", folderFiles)
	}
	if len(views.Trash(st, "")) != 0 {
		t.Fatalf("trash must be empty after restore")
	}
}

func TestSessionSeesRecordsSharedWithIt(t *testing.T) {
	fs := newFakeStore()
	e, _ := newTestEngine(t, fs)

	shared := fs.addFile(models.File{FileName: "report.pdf", OwnerID: "u2", ShareWith: []string{"u1@example.com"}})
	fs.addFile(models.File{FileName: "private.txt", OwnerID: "u2"})
	fs.broadcast()

	st := waitState(t, e, func(st views.State) bool { return len(st.SharedFiles) == 1 })
	if st.SharedFiles[0].ID != shared.ID {
		t.Fatalf("expected the shared file, got %+v", st.SharedFiles)
	}
	if len(st.OwnedFiles) != 0 {
		t.Fatalf("another user's records must not appear as owned")
	}

	entries := views.SharedWithMe(st, "")
	if len(entries) != 1 || entries[0].Name != "report.pdf" {
		t.Fatalf("unexpected shared-with-me view: %+v", entries)
	}
}

func TestCloseStopsSnapshotInstalls(t *testing.T) {
	fs := newFakeStore()
	tr := &fakeTransport{}
	e := New(fs, tr, "u1", "u1@example.com", "token-1")

	fs.addFile(models.File{FileName: "a.txt", OwnerID: "u1"})
	fs.broadcast()
	waitState(t, e, func(st views.State) bool { return len(st.OwnedFiles) == 1 })

	e.Close()
	e.Close()

	fs.addFile(models.File{FileName: "b.txt", OwnerID: "u1"})
	fs.broadcast()

	time.Sleep(50 * time.Millisecond)
	if n := len(e.State().OwnedFiles); n != 1 {
		t.Fatalf("closed session must stop installing snapshots, got %d files", n)
	}
}
