package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the embedded schema. It is safe to run more than once.
func (db *DB) RunMigrations() error {
	data, err := migrations.FS.ReadFile("001_initial_schema.up.sql")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if _, err := db.Exec(string(data)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// RollbackMigrations drops every table created by RunMigrations.
func (db *DB) RollbackMigrations() error {
	data, err := migrations.FS.ReadFile("001_initial_schema.down.sql")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if _, err := db.Exec(string(data)); err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements activity.Storage for SQLite
type Store struct {
	db *DB
}

// NewStore creates a new Store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Begin starts a database transaction
func (s *Store) Begin(ctx context.Context) (activity.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{
		tx:            tx,
		conversations: NewConversationRepository(tx),
		records:       NewRecordRepository(tx),
	}, nil
}

// Tx implements activity.Tx over a *sql.Tx
type Tx struct {
	tx            *sql.Tx
	conversations *ConversationRepository
	records       *RecordRepository
}

func (t *Tx) Conversations() activity.ConversationRepository { return t.conversations }

func (t *Tx) Records() activity.RecordRepository { return t.records }

func (t *Tx) Commit() error { return t.tx.Commit() }

func (t *Tx) Rollback() error { return t.tx.Rollback() }
