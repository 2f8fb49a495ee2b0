package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AllowList names one of the delegated permission tables
type AllowList string

const (
	Admins       AllowList = "admins"
	SpecialUsers AllowList = "special_users"
)

// --- Allow-lists ---

// Grant adds userID to the list and audits it. It returns false when the user
// was already present.
func (s *Storage) Grant(ctx context.Context, list AllowList, userID, actorID int64) (bool, error) {
	return s.changeList(ctx, list, userID, actorID,
		"INSERT OR IGNORE INTO "+string(list)+" (user_id) VALUES (?)", "grant_"+string(list))
}

// Revoke removes userID from the list and audits it. It returns false when
// the user was not present.
func (s *Storage) Revoke(ctx context.Context, list AllowList, userID, actorID int64) (bool, error) {
	return s.changeList(ctx, list, userID, actorID,
		"DELETE FROM "+string(list)+" WHERE user_id = ?", "revoke_"+string(list))
}

func (s *Storage) changeList(ctx context.Context, list AllowList, userID, actorID int64, query, action string) (bool, error) {
	if list != Admins && list != SpecialUsers {
		return false, fmt.Errorf("unknown allow-list %q", list)
	}

	changed := false
	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, userID)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return nil
		}
		changed = true
		return appendLog(ctx, tx, actorID, action, fmt.Sprintf("user_id=%d", userID), s.now())
	})
	return changed, err
}

// InList reports whether userID is in the list
func (s *Storage) InList(ctx context.Context, list AllowList, userID int64) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT 1 FROM "+string(list)+" WHERE user_id = ? LIMIT 1", userID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// List returns all user IDs in the list
func (s *Storage) List(ctx context.Context, list AllowList) ([]int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM "+string(list)+" ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// --- Audit log ---

// AppendLog records a privileged action
func (s *Storage) AppendLog(ctx context.Context, actorID int64, action, details string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return appendLog(ctx, s.db, actorID, action, details, s.now())
}

// RecentLogs returns the last n audit entries, newest first
func (s *Storage) RecentLogs(ctx context.Context, n int) ([]AuditEntry, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT log_id, actor_id, action, details, created_at FROM logs ORDER BY log_id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			e         AuditEntry
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Details, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = unixOrZero(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Chats ---

// SaveChat registers a chat as a broadcast target and refreshes its metadata
func (s *Storage) SaveChat(ctx context.Context, c Chat) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if c.Type == "" {
		c.Type = "private"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (chat_id, type, title, last_active) VALUES (?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			last_active = excluded.last_active`,
		c.ID, c.Type, c.Title, s.now().Unix(),
	)
	return err
}

// ChatIDs returns up to limit registered chat IDs
func (s *Storage) ChatIDs(ctx context.Context, limit int) ([]int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT chat_id FROM chats ORDER BY chat_id LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// --- Stats & backup ---

// Stats aggregates user activity and deal counters
func (s *Storage) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	now := s.now()
	dayAgo := now.Add(-24 * time.Hour).Unix()
	weekAgo := now.Add(-7 * 24 * time.Hour).Unix()

	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users WHERE last_active > 0),
			(SELECT COUNT(*) FROM users WHERE last_active >= ?),
			(SELECT COUNT(*) FROM users WHERE last_active >= ?),
			(SELECT COUNT(*) FROM deals),
			(SELECT COUNT(*) FROM deals WHERE status = ?),
			(SELECT COUNT(*) FROM deals WHERE status = ?)`,
		dayAgo, weekAgo, string(DealActive), string(DealCompleted),
	).Scan(&st.TotalUsers, &st.ActiveDay, &st.ActiveWeek, &st.TotalDeals, &st.ActiveDeals, &st.CompletedDeals)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Backup writes a consistent snapshot of the database into dir and returns
// its path. VACUUM INTO reads under a normal read transaction, so concurrent
// handlers keep working while the copy is taken.
func (s *Storage) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := s.now().UTC().Format("20060102_150405")
	dst := filepath.Join(dir, "otc_backup_"+stamp+".db")
	for i := 1; fileExists(dst); i++ {
		// several backups within one second
		dst = filepath.Join(dir, fmt.Sprintf("otc_backup_%s_%d.db", stamp, i))
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", dst, err)
	}
	return dst, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
