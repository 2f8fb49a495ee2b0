package referral

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/suspectuso/otc-escrow/internal/storage"
)

const linkPrefix = "ref_"

// Bonus is credited to a referrer per accepted referral. It is a ledger
// figure in TON and never moves funds.
var Bonus = decimal.RequireFromString("0.4")

// Ledger tracks referrer to referred links
type Ledger struct {
	store *storage.Storage
	log   *slog.Logger
}

func NewLedger(store *storage.Storage, log *slog.Logger) *Ledger {
	return &Ledger{store: store, log: log}
}

// Register attributes referredID to referrerID. Rejections (self-referral,
// already referred, referred user already traded) return false and change
// nothing. On top of those three rules, a referrer with no user row is
// rejected too: only known users can be credited.
func (l *Ledger) Register(ctx context.Context, referrerID, referredID int64) (bool, error) {
	accepted, err := l.store.AddReferral(ctx, referrerID, referredID, Bonus)
	if err != nil {
		return false, err
	}

	if accepted {
		l.log.Info("referral registered", "referrer_id", referrerID, "referred_id", referredID, "bonus", Bonus.String())
	} else {
		l.log.Debug("referral rejected", "referrer_id", referrerID, "referred_id", referredID)
	}
	return accepted, nil
}

// Stats returns the referral count and accrued bonus, (0, 0) for unknown users
func (l *Ledger) Stats(ctx context.Context, userID int64) (int, decimal.Decimal, error) {
	count, earned, err := l.store.ReferralStats(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, decimal.Zero, nil
	}
	return count, earned, err
}

// MarkPaid records that the bonus for referredID was settled off-system
func (l *Ledger) MarkPaid(ctx context.Context, referredID int64) error {
	return l.store.MarkReferralPaid(ctx, referredID)
}

// Link builds the deep-link parameter for a referrer
func Link(referrerID int64) string {
	return linkPrefix + strconv.FormatInt(referrerID, 10)
}

// ParseLink extracts the referrer ID from a "ref_<id>" parameter
func ParseLink(param string) (int64, bool) {
	rest, ok := strings.CutPrefix(param, linkPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
