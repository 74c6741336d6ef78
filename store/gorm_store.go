package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"godrive/logger"
	"godrive/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options tune mutation behavior. Subscriptions are long-lived and unaffected.
type Options struct {
	// OpTimeout bounds every mutation; expiry surfaces as ErrUnavailable.
	OpTimeout time.Duration
	// ChangeChannel is the Redis pub/sub channel used to propagate change
	// notifications across sessions. Ignored when no Redis client is given.
	ChangeChannel string
}

// GormStore implements Client over a gorm-managed database. Every local
// mutation re-queries matching live subscriptions; when a Redis client is
// configured, mutations also publish a change notification so subscriptions
// held by other processes converge.
type GormStore struct {
	db        *gorm.DB
	rdb       *redis.Client
	channel   string
	opTimeout time.Duration

	mu        sync.Mutex
	subs      map[uint64]*Subscription
	nextSubID uint64

	pubsub *redis.PubSub
	ctx    context.Context
	stop   context.CancelFunc
}

func NewGormStore(db *gorm.DB, rdb *redis.Client, opts Options) *GormStore {
	ctx, stop := context.WithCancel(context.Background())
	s := &GormStore{
		db:        db,
		rdb:       rdb,
		channel:   opts.ChangeChannel,
		opTimeout: opts.OpTimeout,
		subs:      map[uint64]*Subscription{},
		ctx:       ctx,
		stop:      stop,
	}
	if s.channel == "" {
		s.channel = "godrive:records:changed"
	}
	if rdb != nil {
		s.pubsub = rdb.Subscribe(ctx, s.channel)
		go s.listenRemote()
	}
	return s
}

func (s *GormStore) Close() error {
	s.stop()
	if s.pubsub != nil {
		s.pubsub.Close()
	}

	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, q Query) (Snapshot, error) {
	switch q.Kind {
	case KindFolder:
		var folders []models.Folder
		err := s.applyFilters(s.db.WithContext(ctx).Model(&models.Folder{}), q).
			Order(orderClause(q)).Find(&folders).Error
		if err != nil {
			return Snapshot{}, translate(err)
		}
		if q.SharedWith != "" {
			kept := folders[:0]
			for _, f := range folders {
				if f.SharedWith(q.SharedWith) {
					kept = append(kept, f)
				}
			}
			folders = kept
		}
		return Snapshot{Kind: KindFolder, Folders: folders}, nil
	default:
		var files []models.File
		err := s.applyFilters(s.db.WithContext(ctx).Model(&models.File{}), q).
			Order(orderClause(q)).Find(&files).Error
		if err != nil {
			return Snapshot{}, translate(err)
		}
		if q.SharedWith != "" {
			kept := files[:0]
			for _, f := range files {
				if f.SharedWith(q.SharedWith) {
					kept = append(kept, f)
				}
			}
			files = kept
		}
		return Snapshot{Kind: KindFile, Files: files}, nil
	}
}

// applyFilters translates the equality predicates to WHERE clauses. ShareWith
// membership is filtered in Go after the query: the set lives in a JSON column
// and membership predicates on it are dialect specific.
func (s *GormStore) applyFilters(db *gorm.DB, q Query) *gorm.DB {
	if q.Owner != "" {
		db = db.Where("owner_id = ?", q.Owner)
	}
	if q.Deleted != nil {
		db = db.Where("deleted = ?", *q.Deleted)
	}
	if q.Kind == KindFile && q.FolderID != nil {
		if *q.FolderID == "" {
			db = db.Where("folder_id IS NULL OR folder_id = ''")
		} else {
			db = db.Where("folder_id = ?", *q.FolderID)
		}
	}
	return db
}

var orderColumns = map[string]bool{
	"created_at": true,
	"deleted_at": true,
	"file_name":  true,
	"name":       true,
	"size":       true,
}

func orderClause(q Query) string {
	col := q.OrderBy
	if !orderColumns[col] {
		col = "created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id ASC", col, dir)
}

func (s *GormStore) Watch(q Query) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	sub := NewSubscription(q, s.List, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	})
	s.subs[id] = sub
	return sub
}

func (s *GormStore) GetFile(ctx context.Context, id string) (models.File, error) {
	var file models.File
	if err := s.db.WithContext(ctx).Take(&file, "id = ?", id).Error; err != nil {
		return models.File{}, translate(err)
	}
	return file, nil
}

func (s *GormStore) GetFolder(ctx context.Context, id string) (models.Folder, error) {
	var folder models.Folder
	if err := s.db.WithContext(ctx).Take(&folder, "id = ?", id).Error; err != nil {
		return models.Folder{}, translate(err)
	}
	return folder, nil
}

func (s *GormStore) CreateFile(ctx context.Context, file *models.File) (string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		return "", translate(err)
	}
	s.broadcast(KindFile)
	return file.ID, nil
}

func (s *GormStore) CreateFolder(ctx context.Context, folder *models.Folder) (string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(folder).Error; err != nil {
		return "", translate(err)
	}
	s.broadcast(KindFolder)
	return folder.ID, nil
}

func (s *GormStore) Update(ctx context.Context, kind Kind, id string, fields map[string]any) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyUpdate(tx, kind, id, fields)
	})
	if err != nil {
		return translate(err)
	}
	s.broadcast(kind)
	return nil
}

func (s *GormStore) Delete(ctx context.Context, kind Kind, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyDelete(tx, kind, id)
	})
	if err != nil {
		return translate(err)
	}
	s.broadcast(kind)
	return nil
}

func (s *GormStore) Batch(ctx context.Context, ops []BatchOp) error {
	if len(ops) == 0 {
		return nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if op.Remove {
				if err := applyDelete(tx, op.Kind, op.ID); err != nil {
					return err
				}
				continue
			}
			if err := applyUpdate(tx, op.Kind, op.ID, op.Fields); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}
	for _, kind := range batchKinds(ops) {
		s.broadcast(kind)
	}
	return nil
}

func batchKinds(ops []BatchOp) []Kind {
	var kinds []Kind
	seen := map[Kind]bool{}
	for _, op := range ops {
		if !seen[op.Kind] {
			seen[op.Kind] = true
			kinds = append(kinds, op.Kind)
		}
	}
	return kinds
}

// setColumns are stored as JSON text; map-based updates bypass the model
// serializer, so values are marshalled here.
var setColumns = map[string]bool{
	"share_with":        true,
	"replica_locations": true,
}

func applyUpdate(tx *gorm.DB, kind Kind, id string, fields map[string]any) error {
	current, err := loadSetColumns(tx, kind, id)
	if err != nil {
		return err
	}

	normalized := make(map[string]any, len(fields))
	for col, val := range fields {
		if add, ok := UnionValues(val); ok {
			val = unionSet(current[col], add)
		}
		if setColumns[col] {
			b, err := json.Marshal(val)
			if err != nil {
				return err
			}
			val = string(b)
		}
		normalized[col] = val
	}

	return tx.Table(string(kind)).Where("id = ?", id).Updates(normalized).Error
}

func applyDelete(tx *gorm.DB, kind Kind, id string) error {
	var res *gorm.DB
	switch kind {
	case KindFolder:
		res = tx.Where("id = ?", id).Delete(&models.Folder{})
	default:
		res = tx.Where("id = ?", id).Delete(&models.File{})
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// loadSetColumns fetches the record's current set-valued columns so that
// ArrayUnion merges read-modify-write inside the surrounding transaction. It
// doubles as the existence check for the update.
func loadSetColumns(tx *gorm.DB, kind Kind, id string) (map[string][]string, error) {
	switch kind {
	case KindFolder:
		var folder models.Folder
		if err := tx.Take(&folder, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return map[string][]string{"share_with": folder.ShareWith}, nil
	default:
		var file models.File
		if err := tx.Take(&file, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return map[string][]string{
			"share_with":        file.ShareWith,
			"replica_locations": file.ReplicaLocations,
		}, nil
	}
}

func unionSet(current []string, add []string) []string {
	out := make([]string, 0, len(current)+len(add))
	seen := map[string]bool{}
	for _, v := range current {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (s *GormStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *GormStore) broadcast(kind Kind) {
	s.notifyLocal(kind)
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Publish(context.Background(), s.channel, string(kind)).Err(); err != nil {
		logger.Debugf("publish change notification: %v", err)
	}
}

func (s *GormStore) notifyLocal(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.query.Kind == kind {
			sub.Notify()
		}
	}
}

func (s *GormStore) listenRemote() {
	for msg := range s.pubsub.Channel() {
		s.notifyLocal(Kind(msg.Payload))
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
