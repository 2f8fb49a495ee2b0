package referral

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suspectuso/otc-escrow/internal/storage"
)

func newTestLedger(t *testing.T) (*Ledger, *storage.Storage) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "ref.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewLedger(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestRegisterTwice(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	store.UpsertUser(ctx, 1, "r", "", "")
	store.UpsertUser(ctx, 2, "n", "", "")

	ok, err := l.Register(ctx, 1, 2)
	if err != nil || !ok {
		t.Fatalf("first register: ok=%v err=%v", ok, err)
	}
	ok, err = l.Register(ctx, 1, 2)
	if err != nil || ok {
		t.Fatalf("second register must be rejected: ok=%v err=%v", ok, err)
	}

	count, earned, err := l.Stats(ctx, 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 || !earned.Equal(decimal.RequireFromString("0.4")) {
		t.Errorf("stats = %d, %s", count, earned)
	}
}

func TestSelfReferralAlwaysRejected(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	if ok, _ := l.Register(ctx, 5, 5); ok {
		t.Errorf("self-referral of unknown user accepted")
	}
	store.UpsertUser(ctx, 5, "", "", "")
	if ok, _ := l.Register(ctx, 5, 5); ok {
		t.Errorf("self-referral of known user accepted")
	}
}

func TestTradedUserCannotBeReferred(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	store.UpsertUser(ctx, 1, "first", "", "")
	store.UpsertUser(ctx, 2, "second", "", "")
	store.UpsertUser(ctx, 3, "trader", "", "")
	store.SetSuccessfulDeals(ctx, 3, 1, 0)

	if ok, _ := l.Register(ctx, 1, 3); ok {
		t.Errorf("user with a completed deal accepted as referral")
	}
	if _, err := store.GetReferral(ctx, 3); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("rejected referral left a row: %v", err)
	}

	count, earned, _ := l.Stats(ctx, 1)
	if count != 0 || !earned.IsZero() {
		t.Errorf("referrer credited for rejected referral: %d, %s", count, earned)
	}
}

func TestStatsDefaultForUnknownUser(t *testing.T) {
	l, _ := newTestLedger(t)

	count, earned, err := l.Stats(context.Background(), 404)
	if err != nil || count != 0 || !earned.IsZero() {
		t.Errorf("Stats(unknown) = %d, %s, %v", count, earned, err)
	}
}

func TestParseLink(t *testing.T) {
	tests := []struct {
		in     string
		wantID int64
		wantOK bool
	}{
		{"ref_123", 123, true},
		{Link(42), 42, true},
		{"ref_", 0, false},
		{"ref_-1", 0, false},
		{"ref_abc", 0, false},
		{"deal_ABC", 0, false},
	}

	for _, tt := range tests {
		id, ok := ParseLink(tt.in)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ParseLink(%q) = %d, %v; want %d, %v", tt.in, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
