// Package engine applies the file/folder lifecycle rules against the record
// store and keeps a per-session live view of the user's records.
package engine

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"godrive/logger"
	"godrive/models"
	"godrive/store"
	"godrive/transport"
	"godrive/views"
)

// UploadMeta is the storage metadata handed over after the transport adapter
// has stored the bytes.
type UploadMeta struct {
	FileName         string
	Size             int64
	ReplicaLocations []string
}

// Engine is one user session's lifecycle engine. It holds four live
// subscriptions (owned/shared files and folders) and replaces the matching
// slice of its state wholesale on every delivered snapshot: the last snapshot
// wins, there is no incremental merge.
type Engine struct {
	store     store.Client
	transport transport.Adapter

	userID string
	email  string
	token  string

	mu            sync.RWMutex
	ownedFiles    []models.File
	ownedFolders  []models.Folder
	sharedFiles   []models.File
	sharedFolders []models.Folder

	subOwnedFiles    *store.Subscription
	subOwnedFolders  *store.Subscription
	subSharedFiles   *store.Subscription
	subSharedFolders *store.Subscription

	done      chan struct{}
	closeOnce sync.Once
}

// New builds the session engine and starts its subscriptions. Close must be
// called when the session ends.
func New(st store.Client, tr transport.Adapter, userID, email, token string) *Engine {
	e := &Engine{
		store:  st,
		transport: tr,
		userID: userID,
		email:  email,
		token:  token,
		done:   make(chan struct{}),
	}

	e.subOwnedFiles = st.Watch(store.Query{
		Kind: store.KindFile, Owner: userID, OrderBy: "created_at", Desc: true,
	})
	e.subOwnedFolders = st.Watch(store.Query{
		Kind: store.KindFolder, Owner: userID, OrderBy: "created_at", Desc: true,
	})
	e.subSharedFiles = st.Watch(store.Query{
		Kind: store.KindFile, SharedWith: email, OrderBy: "created_at", Desc: true,
	})
	e.subSharedFolders = st.Watch(store.Query{
		Kind: store.KindFolder, SharedWith: email, OrderBy: "created_at", Desc: true,
	})

	go e.run()
	return e
}

// Close cancels the session's subscriptions. Idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.subOwnedFiles.Cancel()
		e.subOwnedFolders.Cancel()
		e.subSharedFiles.Cancel()
		e.subSharedFolders.Cancel()
	})
}

func (e *Engine) UserID() string { return e.userID }
func (e *Engine) Email() string  { return e.email }

func (e *Engine) run() {
	ownedFiles := e.subOwnedFiles.Updates()
	ownedFolders := e.subOwnedFolders.Updates()
	sharedFiles := e.subSharedFiles.Updates()
	sharedFolders := e.subSharedFolders.Updates()

	for {
		select {
		case <-e.done:
			return
		case snap, ok := <-ownedFiles:
			if !ok {
				ownedFiles = nil
				continue
			}
			e.apply(func() { e.ownedFiles = snap.Files })
		case snap, ok := <-ownedFolders:
			if !ok {
				ownedFolders = nil
				continue
			}
			e.apply(func() { e.ownedFolders = snap.Folders })
		case snap, ok := <-sharedFiles:
			if !ok {
				sharedFiles = nil
				continue
			}
			e.apply(func() { e.sharedFiles = snap.Files })
		case snap, ok := <-sharedFolders:
			if !ok {
				sharedFolders = nil
				continue
			}
			e.apply(func() { e.sharedFolders = snap.Folders })
		}
	}
}

// apply installs a snapshot unless the session was torn down while the
// delivery was in flight.
func (e *Engine) apply(install func()) {
	select {
	case <-e.done:
		return
	default:
	}
	e.mu.Lock()
	install()
	e.mu.Unlock()
}

// State copies the current projection input for the view functions.
func (e *Engine) State() views.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return views.State{
		OwnedFiles:    append([]models.File(nil), e.ownedFiles...),
		OwnedFolders:  append([]models.Folder(nil), e.ownedFolders...),
		SharedFiles:   append([]models.File(nil), e.sharedFiles...),
		SharedFolders: append([]models.Folder(nil), e.sharedFolders...),
	}
}

// CreateFolder creates an active folder owned by the session user.
func (e *Engine) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Folder{}, newAppError(http.StatusBadRequest, "folder name is required", nil)
	}

	folder := models.Folder{
		Name:    name,
		OwnerID: e.userID,
	}
	id, err := e.store.CreateFolder(ctx, &folder)
	if err != nil {
		return models.Folder{}, wrapStoreErr("create folder", err)
	}
	folder.ID = id
	return folder, nil
}

// UploadComplete registers the metadata record for bytes the transport
// adapter already stored.
func (e *Engine) UploadComplete(ctx context.Context, meta UploadMeta, folderID *string) (models.File, error) {
	if strings.TrimSpace(meta.FileName) == "" {
		return models.File{}, newAppError(http.StatusBadRequest, "upload metadata is missing a file name", nil)
	}
	if meta.Size < 0 {
		return models.File{}, newAppError(http.StatusBadRequest, "upload metadata has a negative size", nil)
	}

	file := models.File{
		FileName:         meta.FileName,
		Size:             meta.Size,
		OwnerID:          e.userID,
		FolderID:         folderID,
		ReplicaLocations: meta.ReplicaLocations,
	}
	id, err := e.store.CreateFile(ctx, &file)
	if err != nil {
		return models.File{}, wrapStoreErr("register uploaded file", err)
	}
	file.ID = id
	return file, nil
}

// MoveFile points the file at a new folder; nil moves it to the root. The
// operation is idempotent: moving to the current folder rewrites the same
// value.
func (e *Engine) MoveFile(ctx context.Context, fileID string, newFolderID *string) error {
	var target any
	if newFolderID != nil && *newFolderID != "" {
		target = *newFolderID
	}
	if err := e.store.Update(ctx, store.KindFile, fileID, map[string]any{"folder_id": target}); err != nil {
		return wrapStoreErr("move file", err)
	}
	return nil
}

// SoftDeleteFile marks the file deleted. Deleting an already-deleted file is
// a no-op so the original deletion timestamp survives.
func (e *Engine) SoftDeleteFile(ctx context.Context, fileID string) error {
	file, err := e.store.GetFile(ctx, fileID)
	if err != nil {
		return wrapStoreErr("soft-delete file", err)
	}
	if file.Deleted {
		return nil
	}

	now := time.Now()
	err = e.store.Update(ctx, store.KindFile, fileID, map[string]any{
		"deleted":    true,
		"deleted_at": now,
	})
	if err != nil {
		return wrapStoreErr("soft-delete file", err)
	}
	return nil
}

// SoftDeleteFolder soft-deletes every non-deleted file inside the folder and
// then the folder itself, as one atomic batch sharing one deletion timestamp.
// A failure anywhere leaves all records unchanged.
func (e *Engine) SoftDeleteFolder(ctx context.Context, folderID string) error {
	folder, err := e.store.GetFolder(ctx, folderID)
	if err != nil {
		return wrapStoreErr("soft-delete folder", err)
	}
	if folder.Deleted {
		return nil
	}

	active := false
	children, err := e.store.List(ctx, store.Query{
		Kind:     store.KindFile,
		Owner:    folder.OwnerID,
		Deleted:  &active,
		FolderID: &folderID,
	})
	if err != nil {
		return wrapStoreErr("soft-delete folder", err)
	}

	now := time.Now()
	deletion := map[string]any{"deleted": true, "deleted_at": now}

	ops := make([]store.BatchOp, 0, len(children.Files)+1)
	for _, child := range children.Files {
		ops = append(ops, store.BatchUpdate(store.KindFile, child.ID, deletion))
	}
	ops = append(ops, store.BatchUpdate(store.KindFolder, folderID, deletion))

	if err := e.store.Batch(ctx, ops); err != nil {
		return wrapStoreErr("soft-delete folder", err)
	}
	return nil
}

// RestoreFile clears the deletion mark. Restoring an active file is a no-op.
// Share list, star and folder reference are untouched, so the file reappears
// where it was deleted from.
func (e *Engine) RestoreFile(ctx context.Context, fileID string) error {
	file, err := e.store.GetFile(ctx, fileID)
	if err != nil {
		return wrapStoreErr("restore file", err)
	}
	if !file.Deleted {
		return nil
	}

	err = e.store.Update(ctx, store.KindFile, fileID, map[string]any{
		"deleted":    false,
		"deleted_at": nil,
	})
	if err != nil {
		return wrapStoreErr("restore file", err)
	}
	return nil
}

// RestoreFolder clears the folder's deletion mark. Files deleted with the
// folder stay in the trash until restored individually.
func (e *Engine) RestoreFolder(ctx context.Context, folderID string) error {
	folder, err := e.store.GetFolder(ctx, folderID)
	if err != nil {
		return wrapStoreErr("restore folder", err)
	}
	if !folder.Deleted {
		return nil
	}

	err = e.store.Update(ctx, store.KindFolder, folderID, map[string]any{
		"deleted":    false,
		"deleted_at": nil,
	})
	if err != nil {
		return wrapStoreErr("restore folder", err)
	}
	return nil
}

// PermanentDeleteFile destroys the file. The physical delete must succeed
// before the metadata record is removed: metadata pointing at missing bytes
// is a rare logged inconsistency, bytes surviving without metadata must never
// happen.
func (e *Engine) PermanentDeleteFile(ctx context.Context, fileID string, fileName string) error {
	if _, err := e.store.GetFile(ctx, fileID); err != nil {
		return wrapStoreErr("permanently delete file", err)
	}

	if err := e.transport.PhysicalDelete(ctx, fileName, e.token); err != nil {
		return newAppError(http.StatusBadGateway, "physical delete failed, file kept", err)
	}

	if err := e.store.Delete(ctx, store.KindFile, fileID); err != nil {
		logger.Errorf("inconsistency: bytes for %q removed but metadata %s remains: %v", fileName, fileID, err)
		return wrapStoreErr("permanently delete file", err)
	}
	return nil
}

// PermanentDeleteFolder removes the folder record only. Files soft-deleted
// with the folder are intentionally not cascaded; they stay restorable from
// the trash.
func (e *Engine) PermanentDeleteFolder(ctx context.Context, folderID string) error {
	if err := e.store.Delete(ctx, store.KindFolder, folderID); err != nil {
		return wrapStoreErr("permanently delete folder", err)
	}
	return nil
}

// ToggleHighlight sets the star flag on a file or folder.
func (e *Engine) ToggleHighlight(ctx context.Context, kind store.Kind, id string, highlighted bool) error {
	if err := e.store.Update(ctx, kind, id, map[string]any{"highlighted": highlighted}); err != nil {
		return wrapStoreErr("toggle highlight", err)
	}
	return nil
}

// ShareEntity adds the recipient to the record's share list. Sharing a folder
// also shares every non-deleted file currently inside it, captured as one
// atomic batch; files added later do not inherit the recipient.
func (e *Engine) ShareEntity(ctx context.Context, kind store.Kind, id string, recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return newAppError(http.StatusBadRequest, "share recipient is required", nil)
	}
	if !strings.Contains(recipient, "@") {
		return newAppError(http.StatusBadRequest, "share recipient must be an email address", nil)
	}

	share := map[string]any{"share_with": store.ArrayUnion(recipient)}

	if kind != store.KindFolder {
		if err := e.store.Update(ctx, store.KindFile, id, share); err != nil {
			return wrapStoreErr("share file", err)
		}
		return nil
	}

	folder, err := e.store.GetFolder(ctx, id)
	if err != nil {
		return wrapStoreErr("share folder", err)
	}

	active := false
	children, err := e.store.List(ctx, store.Query{
		Kind:     store.KindFile,
		Owner:    folder.OwnerID,
		Deleted:  &active,
		FolderID: &id,
	})
	if err != nil {
		return wrapStoreErr("share folder", err)
	}

	ops := make([]store.BatchOp, 0, len(children.Files)+1)
	ops = append(ops, store.BatchUpdate(store.KindFolder, id, share))
	for _, child := range children.Files {
		ops = append(ops, store.BatchUpdate(store.KindFile, child.ID, share))
	}

	if err := e.store.Batch(ctx, ops); err != nil {
		return wrapStoreErr("share folder", err)
	}
	return nil
}
