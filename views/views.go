// Package views derives filtered, sorted projections from the live record
// set. Everything here is a pure function of its inputs: the projector never
// mutates state and never talks to the store, so transiently inconsistent
// snapshot combinations (files and folders update independently) resolve by
// filtering each side on its own.
package views

import (
	"sort"
	"strings"
	"time"

	"godrive/models"
)

// State is one consistent-enough view of a session's records: everything the
// user owns plus everything shared with them, each side replaced wholesale
// whenever its subscription delivers.
type State struct {
	OwnedFiles    []models.File
	OwnedFolders  []models.Folder
	SharedFiles   []models.File
	SharedFolders []models.Folder
}

type EntryKind string

const (
	EntryFile   EntryKind = "file"
	EntryFolder EntryKind = "folder"
)

// Entry flattens a file or folder record for the combined views.
type Entry struct {
	Kind        EntryKind  `json:"kind"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Size        int64      `json:"size,omitempty"`
	OwnerID     string     `json:"ownerId"`
	Highlighted bool       `json:"highlighted"`
	CreatedAt   time.Time  `json:"createdAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

func fileEntry(f models.File) Entry {
	return Entry{
		Kind:        EntryFile,
		ID:          f.ID,
		Name:        f.FileName,
		Size:        f.Size,
		OwnerID:     f.OwnerID,
		Highlighted: f.Highlighted,
		CreatedAt:   f.CreatedAt,
		DeletedAt:   f.DeletedAt,
	}
}

func folderEntry(f models.Folder) Entry {
	return Entry{
		Kind:        EntryFolder,
		ID:          f.ID,
		Name:        f.Name,
		OwnerID:     f.OwnerID,
		Highlighted: f.Highlighted,
		CreatedAt:   f.CreatedAt,
		DeletedAt:   f.DeletedAt,
	}
}

// matches is case-insensitive substring containment; the empty term matches
// everything.
func matches(name, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(term))
}

// ActiveTree returns the non-deleted folders matching the term and the
// non-deleted files of the current folder matching the term. The empty
// currentFolderID addresses the root; a file whose folder reference points at
// no known folder is shown at root rather than hidden.
func ActiveTree(st State, currentFolderID, term string) ([]models.Folder, []models.File) {
	known := map[string]bool{}
	for _, folder := range st.OwnedFolders {
		known[folder.ID] = true
	}

	folders := make([]models.Folder, 0)
	for _, folder := range st.OwnedFolders {
		if folder.Deleted {
			continue
		}
		if matches(folder.Name, term) {
			folders = append(folders, folder)
		}
	}

	files := make([]models.File, 0)
	for _, file := range st.OwnedFiles {
		if file.Deleted {
			continue
		}
		effective := ""
		if file.FolderID != nil && known[*file.FolderID] {
			effective = *file.FolderID
		}
		if effective != currentFolderID {
			continue
		}
		if matches(file.FileName, term) {
			files = append(files, file)
		}
	}

	return folders, files
}

// Trash returns the user's deleted folders and files combined, newest
// deletion first, ids breaking ties for determinism.
func Trash(st State, term string) []Entry {
	entries := make([]Entry, 0)
	for _, folder := range st.OwnedFolders {
		if folder.Deleted && matches(folder.Name, term) {
			entries = append(entries, folderEntry(folder))
		}
	}
	for _, file := range st.OwnedFiles {
		if file.Deleted && matches(file.FileName, term) {
			entries = append(entries, fileEntry(file))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := deletedAtOrZero(entries[i]), deletedAtOrZero(entries[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func deletedAtOrZero(e Entry) time.Time {
	if e.DeletedAt == nil {
		return time.Time{}
	}
	return *e.DeletedAt
}

// Recents returns owned and shared-with-me records as one list, deduplicated
// by id, newest first.
func Recents(st State, term string) []Entry {
	entries := collectUnique(st, term, func(Entry) bool { return true })
	sortByCreatedAt(entries)
	return entries
}

// Starred returns highlighted, non-deleted records across the owned and
// shared-with-me sets.
func Starred(st State, term string) []Entry {
	entries := collectUnique(st, term, func(e Entry) bool {
		return e.Highlighted && e.DeletedAt == nil
	})
	sortByCreatedAt(entries)
	return entries
}

// SharedWithMe returns the non-deleted records other users shared with this
// session's identity.
func SharedWithMe(st State, term string) []Entry {
	entries := make([]Entry, 0)
	seen := map[string]bool{}
	for _, folder := range st.SharedFolders {
		if folder.Deleted || !matches(folder.Name, term) {
			continue
		}
		if key := string(EntryFolder) + folder.ID; !seen[key] {
			seen[key] = true
			entries = append(entries, folderEntry(folder))
		}
	}
	for _, file := range st.SharedFiles {
		if file.Deleted || !matches(file.FileName, term) {
			continue
		}
		if key := string(EntryFile) + file.ID; !seen[key] {
			seen[key] = true
			entries = append(entries, fileEntry(file))
		}
	}
	sortByCreatedAt(entries)
	return entries
}

func collectUnique(st State, term string, keep func(Entry) bool) []Entry {
	entries := make([]Entry, 0)
	seen := map[string]bool{}

	addFolder := func(folder models.Folder) {
		if !matches(folder.Name, term) {
			return
		}
		e := folderEntry(folder)
		if !keep(e) {
			return
		}
		if key := string(EntryFolder) + e.ID; !seen[key] {
			seen[key] = true
			entries = append(entries, e)
		}
	}
	addFile := func(file models.File) {
		if !matches(file.FileName, term) {
			return
		}
		e := fileEntry(file)
		if !keep(e) {
			return
		}
		if key := string(EntryFile) + e.ID; !seen[key] {
			seen[key] = true
			entries = append(entries, e)
		}
	}

	for _, folder := range st.OwnedFolders {
		addFolder(folder)
	}
	for _, folder := range st.SharedFolders {
		addFolder(folder)
	}
	for _, file := range st.OwnedFiles {
		addFile(file)
	}
	for _, file := range st.SharedFiles {
		addFile(file)
	}
	return entries
}

func sortByCreatedAt(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}
