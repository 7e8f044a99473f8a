package store

import (
	"context"
	"time"

	"lexiface/pkg/db"
	"lexiface/pkg/model"
)

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	UtteranceStore
	EventStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Utterances ---

func (s *SQLiteStore) SaveUtterance(ctx context.Context, u *model.Utterance) error {
	query := `INSERT OR REPLACE INTO utterances (
		id, text, backend, sync, success, created_at
	) VALUES (?, ?, ?, ?, ?, ?)`

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Text, u.Backend, u.Sync, u.Success, createdAt,
	)
	return err
}

func (s *SQLiteStore) GetRecentUtterances(ctx context.Context, limit int) ([]*model.Utterance, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, text, backend, sync, success, created_at
			  FROM utterances ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.Utterance
	for rows.Next() {
		var u model.Utterance
		if err := rows.Scan(&u.ID, &u.Text, &u.Backend, &u.Sync, &u.Success, &u.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &u)
	}
	return results, rows.Err()
}

// --- Face Events ---

func (s *SQLiteStore) SaveFaceEvent(ctx context.Context, e *model.FaceEvent) error {
	query := `INSERT INTO face_events (kind, detail, success, created_at) VALUES (?, ?, ?, ?)`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query, e.Kind, e.Detail, e.Success, createdAt)
	return err
}

func (s *SQLiteStore) GetRecentFaceEvents(ctx context.Context, limit int) ([]*model.FaceEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, kind, detail, success, created_at
			  FROM face_events ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.FaceEvent
	for rows.Next() {
		var e model.FaceEvent
		if err := rows.Scan(&e.ID, &e.Kind, &e.Detail, &e.Success, &e.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &e)
	}
	return results, rows.Err()
}
