package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dealColumns = `deal_id, memo_code, creator_id, buyer_id, payment_method, amount, currency,
	description, status, created_at, completed_at`

func scanDeal(row rowScanner) (*Deal, error) {
	var (
		d           Deal
		buyerID     sql.NullInt64
		amount      string
		status      string
		createdAt   int64
		completedAt sql.NullInt64
	)

	err := row.Scan(&d.ID, &d.MemoCode, &d.CreatorID, &buyerID, &d.PaymentMethod, &amount,
		&d.Currency, &d.Description, &status, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if buyerID.Valid {
		id := buyerID.Int64
		d.BuyerID = &id
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		d.CompletedAt = &t
	}
	d.Status = DealStatus(status)
	d.CreatedAt = time.Unix(createdAt, 0)
	d.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount of deal %s: %w", d.ID, err)
	}

	return &d, nil
}

func getDeal(ctx context.Context, q querier, where string, arg any) (*Deal, error) {
	d, err := scanDeal(q.QueryRowContext(ctx, "SELECT "+dealColumns+" FROM deals WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// --- Deals ---

// InsertDeal stores a new deal under a memo code produced by nextMemo. The
// uniqueness check and the insert share one transaction, so two concurrent
// creations can never alias the same memo code.
func (s *Storage) InsertDeal(ctx context.Context, d *Deal, nextMemo func() string, attempts int) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for i := 0; i < attempts; i++ {
			memo := nextMemo()

			var exists int
			err := tx.QueryRowContext(ctx, "SELECT 1 FROM deals WHERE memo_code = ?", memo).Scan(&exists)
			if err == nil {
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}

			now := s.now()
			_, err = tx.ExecContext(ctx,
				`INSERT INTO deals (deal_id, memo_code, creator_id, payment_method, amount, currency, description, status, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				d.ID, memo, d.CreatorID, d.PaymentMethod, d.Amount.String(), d.Currency, d.Description, string(DealActive), now.Unix(),
			)
			if err != nil {
				return err
			}

			d.MemoCode = memo
			d.Status = DealActive
			d.CreatedAt = time.Unix(now.Unix(), 0)
			d.BuyerID = nil
			d.CompletedAt = nil
			return nil
		}
		return ErrMemoExhausted
	})
}

// GetDealByMemo returns a deal by its memo code
func (s *Storage) GetDealByMemo(ctx context.Context, memo string) (*Deal, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return getDeal(ctx, s.db, "memo_code = ?", memo)
}

// GetDeal returns a deal by ID
func (s *Storage) GetDeal(ctx context.Context, dealID string) (*Deal, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return getDeal(ctx, s.db, "deal_id = ?", dealID)
}

// BindBuyer sets the buyer of an active deal that has none yet. It returns
// the deal as stored after the attempt and whether this call bound the buyer.
func (s *Storage) BindBuyer(ctx context.Context, dealID string, buyerID int64) (*Deal, bool, error) {
	var (
		deal  *Deal
		bound bool
	)

	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE deals SET buyer_id = ? WHERE deal_id = ? AND buyer_id IS NULL AND status = ?",
			buyerID, dealID, string(DealActive),
		)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		bound = rows == 1

		deal, err = getDeal(ctx, tx, "deal_id = ?", dealID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return deal, bound, nil
}

// CompleteDeal marks an active deal completed on behalf of its bound buyer
// and bumps both participants' success counters, all in one transaction.
// ErrConflict is returned when the deal is not active or buyerID is not the
// bound buyer; nothing is written in that case.
func (s *Storage) CompleteDeal(ctx context.Context, dealID string, buyerID int64) (deal *Deal, sellerCount, buyerCount int, err error) {
	err = s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE deals SET status = ?, completed_at = ?
			 WHERE deal_id = ? AND status = ? AND buyer_id = ? AND creator_id <> buyer_id`,
			string(DealCompleted), s.now().Unix(), dealID, string(DealActive), buyerID,
		)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		if rows != 1 {
			return ErrConflict
		}

		deal, err = getDeal(ctx, tx, "deal_id = ?", dealID)
		if err != nil {
			return err
		}

		now := s.now().Unix()
		sellerCount, err = incrementDeals(ctx, tx, deal.CreatorID, now)
		if err != nil {
			return err
		}
		buyerCount, err = incrementDeals(ctx, tx, buyerID, now)
		return err
	})
	if err != nil {
		return nil, 0, 0, err
	}
	return deal, sellerCount, buyerCount, nil
}

func incrementDeals(ctx context.Context, tx *sql.Tx, userID, at int64) (int, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (user_id, successful_deals, registered_at) VALUES (?, 1, ?)
		 ON CONFLICT(user_id) DO UPDATE SET successful_deals = successful_deals + 1`,
		userID, at,
	)
	if err != nil {
		return 0, err
	}

	var count int
	err = tx.QueryRowContext(ctx, "SELECT successful_deals FROM users WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// SetDealStatus unconditionally overwrites a deal's status and audits it
func (s *Storage) SetDealStatus(ctx context.Context, dealID string, status DealStatus, actorID int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "UPDATE deals SET status = ? WHERE deal_id = ?", string(status), dealID)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrNotFound
		}
		return appendLog(ctx, tx, actorID, "deal_status", fmt.Sprintf("deal_id=%s; status=%s", dealID, status), s.now())
	})
}

// ListDeals returns deals, newest first
func (s *Storage) ListDeals(ctx context.Context, limit, offset int) ([]Deal, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+dealColumns+" FROM deals ORDER BY created_at DESC, deal_id LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}
