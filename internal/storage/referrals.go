package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

// --- Referrals ---

// AddReferral records referredID as referred by referrerID and credits the
// referrer with bonus. It returns false without writing anything when the
// pair is a self-referral, referredID was already referred, referredID has
// completed a deal before, or the referrer is unknown.
func (s *Storage) AddReferral(ctx context.Context, referrerID, referredID int64, bonus decimal.Decimal) (bool, error) {
	if referrerID == referredID {
		return false, nil
	}

	accepted := false
	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM referrals WHERE referred_id = ?", referredID).Scan(&exists)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		var deals int
		err = tx.QueryRowContext(ctx, "SELECT successful_deals FROM users WHERE user_id = ?", referredID).Scan(&deals)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if deals > 0 {
			return nil
		}

		var earnedRaw string
		err = tx.QueryRowContext(ctx, "SELECT earned_from_referrals FROM users WHERE user_id = ?", referrerID).Scan(&earnedRaw)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		earned, err := decimal.NewFromString(earnedRaw)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO referrals (referrer_id, referred_id, created_at) VALUES (?, ?, ?)",
			referrerID, referredID, s.now().Unix(),
		)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET referral_count = referral_count + 1, earned_from_referrals = ?
			 WHERE user_id = ?`,
			earned.Add(bonus).String(), referrerID,
		)
		if err != nil {
			return err
		}

		accepted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return accepted, nil
}

// ReferralStats returns the referral count and accrued bonus of a user
func (s *Storage) ReferralStats(ctx context.Context, userID int64) (int, decimal.Decimal, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return u.ReferralCount, u.ReferralEarned, nil
}

// GetReferral returns the referral record of a referred user
func (s *Storage) GetReferral(ctx context.Context, referredID int64) (*Referral, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		r         Referral
		paid      int
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT referral_id, referrer_id, referred_id, bonus_paid, created_at FROM referrals WHERE referred_id = ?",
		referredID,
	).Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &paid, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.BonusPaid = paid != 0
	r.CreatedAt = unixOrZero(createdAt)
	return &r, nil
}

// MarkReferralPaid flips the paid flag of a referral
func (s *Storage) MarkReferralPaid(ctx context.Context, referredID int64) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "UPDATE referrals SET bonus_paid = 1 WHERE referred_id = ?", referredID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
