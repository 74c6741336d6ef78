package store

import (
	"context"
	"errors"

	"godrive/models"
)

// Kind names a record collection.
type Kind string

const (
	KindFile   Kind = "files"
	KindFolder Kind = "folders"
)

var (
	// ErrNotFound is returned when a mutation targets a record that no
	// longer exists.
	ErrNotFound = errors.New("store: record not found")
	// ErrUnavailable is returned on connectivity loss or mutation timeout.
	ErrUnavailable = errors.New("store: unavailable")
)

// Query is a conjunction of equality predicates over the indexed record
// fields. Zero-valued predicates are skipped.
type Query struct {
	Kind Kind

	// Owner matches owner_id equality when non-empty.
	Owner string
	// Deleted matches the deleted flag when non-nil.
	Deleted *bool
	// FolderID matches folder_id equality when non-nil; a pointer to the
	// empty string selects root-level files.
	FolderID *string
	// SharedWith matches share_with membership when non-empty.
	SharedWith string

	// OrderBy is a column name; results always carry an id tiebreak so the
	// order is deterministic.
	OrderBy string
	Desc    bool
}

// Snapshot is the full current result set of a query. Exactly one of Files
// and Folders is populated, according to Kind.
type Snapshot struct {
	Kind    Kind
	Files   []models.File
	Folders []models.Folder
}

// Len reports the result count regardless of kind.
func (s Snapshot) Len() int {
	if s.Kind == KindFolder {
		return len(s.Folders)
	}
	return len(s.Files)
}

type arrayUnion struct {
	values []string
}

// ArrayUnion is a field value that merges the given elements into the current
// set-valued column without duplicates, atomically with respect to the record.
func ArrayUnion(values ...string) any {
	return arrayUnion{values: values}
}

// UnionValues reports whether v is an ArrayUnion value and returns its
// elements. Client implementations use it when resolving field merges.
func UnionValues(v any) ([]string, bool) {
	u, ok := v.(arrayUnion)
	if !ok {
		return nil, false
	}
	return u.values, true
}

// BatchOp is a single update or delete inside an atomic batch.
type BatchOp struct {
	Kind   Kind
	ID     string
	Fields map[string]any
	Remove bool
}

func BatchUpdate(kind Kind, id string, fields map[string]any) BatchOp {
	return BatchOp{Kind: kind, ID: id, Fields: fields}
}

func BatchDelete(kind Kind, id string) BatchOp {
	return BatchOp{Kind: kind, ID: id, Remove: true}
}

// Client abstracts the remote document store holding file and folder records.
//
// Mutations are applied with per-record atomicity and last-write-wins field
// merge semantics; Batch is the only multi-record atomic primitive. Watch
// returns a live subscription that delivers the full current result set on
// every relevant change, starting with an initial snapshot.
type Client interface {
	List(ctx context.Context, q Query) (Snapshot, error)
	Watch(q Query) *Subscription

	GetFile(ctx context.Context, id string) (models.File, error)
	GetFolder(ctx context.Context, id string) (models.Folder, error)
	CreateFile(ctx context.Context, file *models.File) (string, error)
	CreateFolder(ctx context.Context, folder *models.Folder) (string, error)
	Update(ctx context.Context, kind Kind, id string, fields map[string]any) error
	Delete(ctx context.Context, kind Kind, id string) error
	Batch(ctx context.Context, ops []BatchOp) error

	Close() error
}
