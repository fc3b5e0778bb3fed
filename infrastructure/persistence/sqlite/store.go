// Package sqlite persists documents in a single SQLite table.
// Uses ncruces/go-sqlite3/driver, which provides a database/sql interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"diary-backend/application/ports"
	"diary-backend/infrastructure/persistence/subscription"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"
)

// schema keeps one row per document. Upserts keep the rowid so that
// rowid order is insertion order.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    fields TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`

// Store is a ports.DocumentStore on SQLite.
// Writes are serialized so that snapshots are published in commit order.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	hub    *subscription.Hub
	logger *zap.Logger
}

// NewStore opens the database at dsn. Use ":memory:" for a throwaway store.
func NewStore(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, hub: subscription.NewHub(), logger: logger}, nil
}

// Close ends subscriptions and closes the database connection.
func (s *Store) Close() error {
	s.hub.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Create(ctx context.Context, coll ports.CollectionRef, id string, fields ports.Fields) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	err := s.Batch(ctx, []ports.BatchOp{{Kind: ports.BatchSet, Ref: coll.Doc(id), Fields: fields}})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, ref ports.DocumentRef) (ports.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok, err := readFields(ctx, s.db, ref)
	if err != nil {
		return ports.Document{}, pkgerrors.NewDatabaseError("get", err)
	}
	if !ok {
		return ports.Document{}, pkgerrors.NewNotFoundError("document").WithDetail("path", ref.Path())
	}
	return ports.Document{ID: ref.ID, Fields: fields}, nil
}

func (s *Store) Update(ctx context.Context, ref ports.DocumentRef, fields ports.Fields) error {
	return s.Batch(ctx, []ports.BatchOp{{Kind: ports.BatchUpdate, Ref: ref, Fields: fields}})
}

func (s *Store) Delete(ctx context.Context, ref ports.DocumentRef) error {
	return s.Batch(ctx, []ports.BatchOp{{Kind: ports.BatchDelete, Ref: ref}})
}

// Batch runs every operation in one transaction.
func (s *Store) Batch(ctx context.Context, ops []ports.BatchOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.NewDatabaseError("begin", err)
	}

	touched, err := applyOps(ctx, tx, ops)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return pkgerrors.NewDatabaseError("commit", err)
	}

	for _, coll := range touched {
		if !s.hub.Watching(coll) {
			continue
		}
		docs, err := fetch(ctx, s.db, coll)
		if err != nil {
			s.logger.Warn("Failed to load snapshot for subscribers",
				zap.String("collection", coll.Path()),
				zap.Error(err),
			)
			continue
		}
		s.hub.Publish(coll, docs)
	}
	return nil
}

func applyOps(ctx context.Context, tx *sql.Tx, ops []ports.BatchOp) ([]ports.CollectionRef, error) {
	var touched []ports.CollectionRef
	seen := make(map[string]struct{})
	mark := func(c ports.CollectionRef) {
		if _, ok := seen[c.Path()]; !ok {
			seen[c.Path()] = struct{}{}
			touched = append(touched, c)
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case ports.BatchSet:
			if err := upsert(ctx, tx, op.Ref, op.Fields); err != nil {
				return nil, err
			}
		case ports.BatchUpdate:
			existing, ok, err := readFields(ctx, tx, op.Ref)
			if err != nil {
				return nil, pkgerrors.NewDatabaseError("update", err)
			}
			if !ok {
				return nil, pkgerrors.NewNotFoundError("document").WithDetail("path", op.Ref.Path())
			}
			if err := upsert(ctx, tx, op.Ref, existing.Merge(op.Fields)); err != nil {
				return nil, err
			}
		case ports.BatchDelete:
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = ? AND id = ?`,
				op.Ref.Collection.Path(), op.Ref.ID); err != nil {
				return nil, pkgerrors.NewDatabaseError("delete", err)
			}
		default:
			return nil, pkgerrors.NewValidationError("unknown batch operation").WithDetail("kind", string(op.Kind))
		}
		mark(op.Ref.Collection)
	}
	return touched, nil
}

func upsert(ctx context.Context, q querier, ref ports.DocumentRef, fields ports.Fields) error {
	if fields == nil {
		fields = ports.Fields{}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return pkgerrors.NewValidationError("document fields are not JSON-encodable").WithCause(err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET fields = excluded.fields`,
		ref.Collection.Path(), ref.ID, string(body))
	if err != nil {
		return pkgerrors.NewDatabaseError("upsert", err)
	}
	return nil
}

func readFields(ctx context.Context, q querier, ref ports.DocumentRef) (ports.Fields, bool, error) {
	var body string
	err := q.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
		ref.Collection.Path(), ref.ID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	fields, err := decode(body)
	if err != nil {
		return nil, false, err
	}
	return fields, true, nil
}

func decode(body string) (ports.Fields, error) {
	var fields ports.Fields
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return fields, nil
}

func fetch(ctx context.Context, q querier, coll ports.CollectionRef) ([]ports.Document, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = ? ORDER BY rowid`,
		coll.Path())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []ports.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		fields, err := decode(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, ports.Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

func (s *Store) Fetch(ctx context.Context, coll ports.CollectionRef) ([]ports.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := fetch(ctx, s.db, coll)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("fetch", err)
	}
	return docs, nil
}

func (s *Store) Subscribe(ctx context.Context, coll ports.CollectionRef) (ports.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := fetch(ctx, s.db, coll)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("subscribe", err)
	}
	return s.hub.Subscribe(ctx, coll, docs), nil
}
