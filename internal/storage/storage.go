package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("state conflict")
	ErrMemoExhausted = errors.New("could not allocate a unique memo code")
)

// Storage handles all database operations
type Storage struct {
	db      *sql.DB
	path    string
	timeout time.Duration
	now     func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new Storage instance and initializes the database.
// timeout bounds every store call whose context has no deadline of its own.
func New(dbPath string, timeout time.Duration) (*Storage, error) {
	// _txlock=immediate makes every transaction take the write lock at BEGIN,
	// so concurrent read-check-write units are serialized by SQLite itself.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db, path: dbPath, timeout: timeout, now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'ru',
			ton_wallet TEXT,
			card_details TEXT,
			referral_count INTEGER NOT NULL DEFAULT 0,
			earned_from_referrals TEXT NOT NULL DEFAULT '0',
			successful_deals INTEGER NOT NULL DEFAULT 0,
			registered_at INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS deals (
			deal_id TEXT PRIMARY KEY,
			memo_code TEXT NOT NULL UNIQUE,
			creator_id INTEGER NOT NULL,
			buyer_id INTEGER,
			payment_method TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at INTEGER NOT NULL,
			completed_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_creator_id ON deals(creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals(created_at)`,

		`CREATE TABLE IF NOT EXISTS referrals (
			referral_id INTEGER PRIMARY KEY AUTOINCREMENT,
			referrer_id INTEGER NOT NULL,
			referred_id INTEGER NOT NULL UNIQUE,
			bonus_paid INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_referrals_referrer_id ON referrals(referrer_id)`,

		`CREATE TABLE IF NOT EXISTS logs (
			log_id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS chats (
			chat_id INTEGER PRIMARY KEY,
			type TEXT NOT NULL DEFAULT 'private',
			title TEXT NOT NULL DEFAULT '',
			last_active INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS admins (
			user_id INTEGER PRIMARY KEY
		)`,

		`CREATE TABLE IF NOT EXISTS special_users (
			user_id INTEGER PRIMARY KEY
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	// Columns added after the first release. New columns must default so
	// that existing rows stay valid.
	migrations := []struct{ table, column, ddl string }{
		{"users", "banned", "INTEGER NOT NULL DEFAULT 0"},
		{"users", "last_active", "INTEGER NOT NULL DEFAULT 0"},
	}
	for _, m := range migrations {
		if err := s.ensureColumn(m.table, m.column, m.ddl); err != nil {
			return fmt.Errorf("migrate %s.%s: %w", m.table, m.column, err)
		}
	}

	return nil
}

func (s *Storage) ensureColumn(table, column, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl))
	return err
}

// bound applies the store timeout when ctx carries no deadline
func (s *Storage) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// withTx runs fn inside a single transaction, rolling back on any error
func (s *Storage) withTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func appendLog(ctx context.Context, q querier, actorID int64, action, details string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO logs (actor_id, action, details, created_at) VALUES (?, ?, ?, ?)",
		actorID, action, details, at.Unix(),
	)
	return err
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
