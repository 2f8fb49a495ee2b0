package notifier

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suspectuso/otc-escrow/internal/i18n"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

const (
	sendTimeout = 10 * time.Second

	// Telegram allows about 30 messages per second to distinct chats
	broadcastInterval = 40 * time.Millisecond
)

// Sender delivers rendered HTML to a chat
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Notifier sends the side effects of deal and referral transitions to the
// users involved, each in their own language. Sends never block the caller.
type Notifier struct {
	ctx    context.Context
	store  *storage.Storage
	sender Sender
	log    *slog.Logger

	interval time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Notifier. Pending sends are abandoned when ctx is cancelled.
func New(ctx context.Context, store *storage.Storage, sender Sender, log *slog.Logger) *Notifier {
	return &Notifier{
		ctx:      ctx,
		store:    store,
		sender:   sender,
		log:      log,
		interval: broadcastInterval,
	}
}

// BuyerJoined tells the seller who joined their deal
func (n *Notifier) BuyerJoined(d *storage.Deal, buyer *storage.User) {
	n.notify(d.CreatorID, "buyer_joined_seller", i18n.Vars{
		"username":  buyer.DisplayName(),
		"memo_code": d.MemoCode,
	})
}

// PaymentConfirmed tells the seller that the buyer paid. The buyer sees the
// confirmation as the reply to their own command.
func (n *Notifier) PaymentConfirmed(d *storage.Deal, sellerCount, _ int) {
	if !d.HasBuyer() {
		return
	}

	buyerName := "user"
	if n.store != nil {
		if u, err := n.store.GetUser(n.ctx, *d.BuyerID); err == nil {
			buyerName = u.DisplayName()
		}
	}

	n.notify(d.CreatorID, "payment_confirmed_seller", i18n.Vars{
		"username":         buyerName,
		"amount":           d.Amount.String(),
		"currency":         d.Currency,
		"description":      d.Description,
		"successful_deals": strconv.Itoa(sellerCount),
	})
}

// ReferralCredited tells the referrer that a new user joined through their link
func (n *Notifier) ReferralCredited(referrerID int64, referred *storage.User, bonus decimal.Decimal) {
	n.notify(referrerID, "referral_bonus_notification", i18n.Vars{
		"username": referred.DisplayName(),
		"bonus":    bonus.String(),
	})
}

// Broadcast sends text to every chat in turn, paced to stay under the
// platform's rate limit. It stops early when ctx is cancelled.
func (n *Notifier) Broadcast(ctx context.Context, chatIDs []int64, text string) (sent, failed int) {
	var ticker *time.Ticker
	if n.interval > 0 {
		ticker = time.NewTicker(n.interval)
		defer ticker.Stop()
	}

	for i, chatID := range chatIDs {
		if i > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				return sent, failed + len(chatIDs) - i
			case <-ticker.C:
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		_, err := n.sender.Send(sendCtx, chatID, text)
		cancel()

		if err != nil {
			failed++
			n.log.Debug("broadcast send failed", "chat_id", chatID, "error", err)
			if errors.Is(err, context.Canceled) {
				return sent, failed + len(chatIDs) - i - 1
			}
			continue
		}
		sent++
	}

	n.log.Info("broadcast finished", "sent", sent, "failed", failed)
	return sent, failed
}

// Wait blocks until every pending notification has been attempted.
// Notifications requested after Wait has been called are dropped.
func (n *Notifier) Wait() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	n.wg.Wait()
}

func (n *Notifier) notify(userID int64, key string, vars i18n.Vars) {
	n.mu.Lock()
	if n.closed || n.ctx.Err() != nil {
		n.mu.Unlock()
		n.log.Debug("notification dropped on shutdown", "user_id", userID, "key", key)
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(n.ctx, sendTimeout)
		defer cancel()

		text := i18n.T(n.language(ctx, userID), key, vars)
		if _, err := n.sender.Send(ctx, userID, text); err != nil {
			n.log.Error("send notification", "user_id", userID, "key", key, "error", err)
		}
	}()
}

func (n *Notifier) language(ctx context.Context, userID int64) string {
	if n.store == nil {
		return i18n.DefaultLang
	}
	u, err := n.store.GetUser(ctx, userID)
	if err != nil || u.Language == "" {
		return i18n.DefaultLang
	}
	return u.Language
}
