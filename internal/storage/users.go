package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const userColumns = `user_id, username, first_name, last_name, language, ton_wallet, card_details,
	referral_count, earned_from_referrals, successful_deals, banned, registered_at, last_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u            User
		wallet, card sql.NullString
		earned       string
		banned       int
		registered   int64
		lastActive   int64
	)

	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Language, &wallet, &card,
		&u.ReferralCount, &earned, &u.SuccessfulDeals, &banned, &registered, &lastActive)
	if err != nil {
		return nil, err
	}

	u.TonWallet = wallet.String
	u.CardDetails = card.String
	u.Banned = banned != 0
	u.RegisteredAt = unixOrZero(registered)
	u.LastActive = unixOrZero(lastActive)
	u.ReferralEarned, err = decimal.NewFromString(earned)
	if err != nil {
		return nil, fmt.Errorf("parse earned_from_referrals for user %d: %w", u.ID, err)
	}

	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// --- Users ---

// UpsertUser creates the user on first contact and refreshes the display name
// fields and last-active timestamp on every later call. Requisites, counters
// and language are never touched.
func (s *Storage) UpsertUser(ctx context.Context, id int64, username, firstName, lastName string) (*User, error) {
	var user *User
	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		now := s.now().Unix()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (user_id, username, first_name, last_name, registered_at, last_active)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
				username = excluded.username,
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				last_active = excluded.last_active`,
			id, username, firstName, lastName, now, now,
		)
		if err != nil {
			return err
		}

		user, err = scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = ?", id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// TouchUser updates the last-active timestamp
func (s *Storage) TouchUser(ctx context.Context, id int64) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "UPDATE users SET last_active = ? WHERE user_id = ?", s.now().Unix(), id)
	return err
}

// GetUser returns a user by ID
func (s *Storage) GetUser(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// SetWallet stores the user's TON wallet
func (s *Storage) SetWallet(ctx context.Context, id int64, wallet string) error {
	return s.updateUserField(ctx, id, "ton_wallet", wallet)
}

// SetCard stores the user's bank card descriptor
func (s *Storage) SetCard(ctx context.Context, id int64, card string) error {
	return s.updateUserField(ctx, id, "card_details", card)
}

// SetLanguage stores the user's preferred language
func (s *Storage) SetLanguage(ctx context.Context, id int64, lang string) error {
	return s.updateUserField(ctx, id, "language", lang)
}

func (s *Storage) updateUserField(ctx context.Context, id int64, column string, value any) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "UPDATE users SET "+column+" = ? WHERE user_id = ?", value, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBanned toggles the ban flag and records the action in the audit log in
// the same transaction. Unknown users get a placeholder row so the ban
// survives their first contact.
func (s *Storage) SetBanned(ctx context.Context, id int64, banned bool, actorID int64, reason string) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		now := s.now()
		flag := 0
		if banned {
			flag = 1
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (user_id, registered_at, last_active, banned) VALUES (?, ?, 0, ?)
			 ON CONFLICT(user_id) DO UPDATE SET banned = excluded.banned`,
			id, now.Unix(), flag,
		)
		if err != nil {
			return err
		}

		action := "unban"
		if banned {
			action = "ban"
		}
		return appendLog(ctx, tx, actorID, action, fmt.Sprintf("user_id=%d; reason=%s", id, reason), now)
	})
}

// BannedIDs returns the IDs of all banned users
func (s *Storage) BannedIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM users WHERE banned = 1")
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// SetSuccessfulDeals overwrites the success counter and audits the override
func (s *Storage) SetSuccessfulDeals(ctx context.Context, id int64, count int, actorID int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "UPDATE users SET successful_deals = ? WHERE user_id = ?", count, id)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrNotFound
		}
		return appendLog(ctx, tx, actorID, "set_deals", fmt.Sprintf("user_id=%d; count=%d", id, count), s.now())
	})
}

// ListUsers returns users, newest first. Ban placeholders for users the
// bot has never seen are left out; SearchUsers still finds them by ID.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE last_active > 0 ORDER BY registered_at DESC, user_id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// SearchUsers finds users by exact ID or by a fuzzy match on name fields
func (s *Storage) SearchUsers(ctx context.Context, query string, limit int) ([]User, error) {
	query = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), "@"))
	if query == "" {
		return nil, nil
	}

	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		u, err := s.GetUser(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []User{*u}, nil
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	like := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE username LIKE ? OR first_name LIKE ? OR last_name LIKE ?
		 ORDER BY registered_at DESC LIMIT ?`,
		like, like, like, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// TopUsers returns users with the most successful deals
func (s *Storage) TopUsers(ctx context.Context, limit int) ([]User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE successful_deals > 0
		 ORDER BY successful_deals DESC, registered_at ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UserIDs returns the IDs of users that are not banned and have talked to
// the bot at least once
func (s *Storage) UserIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM users WHERE banned = 0 AND last_active > 0 ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}
