package deal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/suspectuso/otc-escrow/internal/auth"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

// Notifier receives the side effects of deal transitions. Implementations
// must not block: delivery is best effort.
type Notifier interface {
	BuyerJoined(d *storage.Deal, buyer *storage.User)
	PaymentConfirmed(d *storage.Deal, sellerCount, buyerCount int)
}

// Engine drives the deal lifecycle: active -> completed, plus the
// administrative status override
type Engine struct {
	store  *storage.Storage
	auth   *auth.Service
	notify Notifier
	log    *slog.Logger

	newID   func() string
	newMemo func() string
}

func NewEngine(store *storage.Storage, authz *auth.Service, notify Notifier, log *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		auth:    authz,
		notify:  notify,
		log:     log,
		newID:   uuid.NewString,
		newMemo: NewMemo,
	}
}

// CreateDeal validates the draft and stores a new active deal under a fresh
// memo code. The creator must have saved requisites for the method.
func (e *Engine) CreateDeal(ctx context.Context, creatorID int64, method, amount, currency, description string) (*storage.Deal, error) {
	if !ValidMethod(method) {
		return nil, ErrInvalidMethod
	}
	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, ErrInvalidCurrency
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	creator, err := e.store.GetUser(ctx, creatorID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMissingRequisites
	}
	if err != nil {
		return nil, fmt.Errorf("get creator: %w", err)
	}
	if !HasRequisites(creator.TonWallet, creator.CardDetails, method) {
		return nil, ErrMissingRequisites
	}

	d := &storage.Deal{
		ID:            e.newID(),
		CreatorID:     creatorID,
		PaymentMethod: method,
		Amount:        value,
		Currency:      currency,
		Description:   description,
	}
	if err := e.store.InsertDeal(ctx, d, e.newMemo, memoAttempts); err != nil {
		return nil, fmt.Errorf("insert deal: %w", err)
	}

	e.log.Info("deal created", "deal_id", d.ID, "memo", d.MemoCode, "creator_id", creatorID,
		"method", method, "amount", d.Amount.String(), "currency", currency)
	return d, nil
}

// BindBuyer attaches buyerID to the deal behind memo. A repeat visit by the
// bound buyer returns the deal unchanged and notifies nobody.
func (e *Engine) BindBuyer(ctx context.Context, memo string, buyerID int64) (*storage.Deal, error) {
	d, err := e.store.GetDealByMemo(ctx, memo)
	if err != nil {
		return nil, err
	}

	if d.CreatorID == buyerID {
		return nil, ErrSelfDeal
	}
	if d.HasBuyer() {
		if *d.BuyerID == buyerID {
			return d, nil
		}
		return nil, ErrBuyerConflict
	}
	if d.Status != storage.DealActive {
		return nil, ErrNotActive
	}

	d, bound, err := e.store.BindBuyer(ctx, d.ID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("bind buyer: %w", err)
	}
	if !bound {
		// lost a race with another bind or a status override
		switch {
		case d.HasBuyer() && *d.BuyerID == buyerID:
			return d, nil
		case d.HasBuyer():
			return nil, ErrBuyerConflict
		default:
			return nil, ErrNotActive
		}
	}

	e.log.Info("buyer joined deal", "deal_id", d.ID, "memo", d.MemoCode, "buyer_id", buyerID)

	buyer, err := e.store.GetUser(ctx, buyerID)
	if err != nil {
		buyer = &storage.User{ID: buyerID}
	}
	e.notify.BuyerJoined(d, buyer)

	return d, nil
}

// ConfirmPayment completes the deal on behalf of its bound buyer. Status and
// both success counters change in one transaction; a second confirmation
// fails with ErrNotActive and changes nothing.
func (e *Engine) ConfirmPayment(ctx context.Context, memo string, confirmerID int64) (*storage.Deal, int, int, error) {
	d, err := e.store.GetDealByMemo(ctx, memo)
	if err != nil {
		return nil, 0, 0, err
	}

	if d.CreatorID == confirmerID {
		return nil, 0, 0, ErrNotBuyer
	}
	if d.Status != storage.DealActive {
		return nil, 0, 0, ErrNotActive
	}
	if !d.HasBuyer() || *d.BuyerID != confirmerID {
		return nil, 0, 0, ErrNotBuyer
	}

	d, sellerCount, buyerCount, err := e.store.CompleteDeal(ctx, d.ID, confirmerID)
	if errors.Is(err, storage.ErrConflict) {
		// a concurrent confirmation or override committed first
		return nil, 0, 0, ErrNotActive
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("complete deal: %w", err)
	}

	e.log.Info("deal completed", "deal_id", d.ID, "memo", d.MemoCode,
		"seller_id", d.CreatorID, "buyer_id", confirmerID,
		"seller_deals", sellerCount, "buyer_deals", buyerCount)
	e.notify.PaymentConfirmed(d, sellerCount, buyerCount)

	return d, sellerCount, buyerCount, nil
}

// SetSuccessfulDealsCount overwrites a user's success counter. Only special
// deal setters may do this.
func (e *Engine) SetSuccessfulDealsCount(ctx context.Context, userID int64, count int, actorID int64) error {
	if !e.auth.IsSpecialDealSetter(ctx, actorID) {
		return ErrForbidden
	}
	if count < 0 {
		return fmt.Errorf("negative deal count %d", count)
	}

	if err := e.store.SetSuccessfulDeals(ctx, userID, count, actorID); err != nil {
		return err
	}

	e.log.Info("successful deals overwritten", "user_id", userID, "count", count, "actor_id", actorID)
	return nil
}

// AdminOverrideStatus writes status without transition checks and audits
// it. Counters are not touched.
func (e *Engine) AdminOverrideStatus(ctx context.Context, dealID string, status storage.DealStatus, actorID int64) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if err := e.store.SetDealStatus(ctx, dealID, status, actorID); err != nil {
		return err
	}

	e.log.Info("deal status overridden", "deal_id", dealID, "status", status, "actor_id", actorID)
	return nil
}

// Get returns a deal by ID
func (e *Engine) Get(ctx context.Context, dealID string) (*storage.Deal, error) {
	return e.store.GetDeal(ctx, dealID)
}

// GetByMemo returns a deal by memo code
func (e *Engine) GetByMemo(ctx context.Context, memo string) (*storage.Deal, error) {
	return e.store.GetDealByMemo(ctx, memo)
}
