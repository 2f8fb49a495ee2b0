package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/suspectuso/otc-escrow/internal/auth"
	"github.com/suspectuso/otc-escrow/internal/deal"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

const (
	root    int64 = 1
	special int64 = 2
	user    int64 = 10
)

type fakeBroadcaster struct {
	chats []int64
	text  string
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, chatIDs []int64, text string) (int, int) {
	f.chats = chatIDs
	f.text = text
	return len(chatIDs), 0
}

type nopNotifier struct{}

func (nopNotifier) BuyerJoined(*storage.Deal, *storage.User) {}
func (nopNotifier) PaymentConfirmed(*storage.Deal, int, int) {}

func newTestService(t *testing.T) (*Service, *storage.Storage, *fakeBroadcaster) {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.New(filepath.Join(dir, "admin.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authz, err := auth.New(context.Background(), store, []int64{root}, []int64{special}, log)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	engine := deal.NewEngine(store, authz, nopNotifier{}, log)
	b := &fakeBroadcaster{}
	return New(store, authz, engine, b, filepath.Join(dir, "backups"), log), store, b
}

func TestNonAdminIsRejectedEverywhere(t *testing.T) {
	s, store, b := newTestService(t)
	ctx := context.Background()
	store.UpsertUser(ctx, user, "u", "", "")

	calls := map[string]func() error{
		"users":     func() error { _, err := s.Users(ctx, user, 0); return err },
		"search":    func() error { _, err := s.SearchUsers(ctx, user, "u"); return err },
		"deals":     func() error { _, err := s.Deals(ctx, user, 0); return err },
		"stats":     func() error { _, err := s.Stats(ctx, user); return err },
		"logs":      func() error { _, err := s.Logs(ctx, user, 5); return err },
		"backup":    func() error { _, err := s.Backup(ctx, user); return err },
		"ban":       func() error { return s.Ban(ctx, user, root, "") },
		"unban":     func() error { return s.Unban(ctx, user, root) },
		"grant":     func() error { _, err := s.GrantAdmin(ctx, user, user); return err },
		"revoke":    func() error { _, err := s.RevokeAdmin(ctx, user, root); return err },
		"admins":    func() error { _, err := s.Admins(ctx, user); return err },
		"special":   func() error { _, err := s.GrantSpecial(ctx, user, user); return err },
		"status":    func() error { return s.SetDealStatus(ctx, user, "x", storage.DealCancelled) },
		"setdeals":  func() error { return s.SetSuccessfulDeals(ctx, user, user, 99) },
		"broadcast": func() error { _, _, err := s.Broadcast(ctx, user, ScopeUsers, "hi"); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}

	if b.text != "" {
		t.Errorf("broadcast sent by non-admin")
	}
	logs, _ := store.RecentLogs(ctx, 10)
	if len(logs) != 0 {
		t.Errorf("rejected calls left audit entries: %+v", logs)
	}
	u, _ := store.GetUser(ctx, user)
	if u.SuccessfulDeals != 0 {
		t.Errorf("counter changed by non-special caller")
	}
}

func TestBanThroughAdmin(t *testing.T) {
	s, store, _ := newTestService(t)
	ctx := context.Background()

	if err := s.Ban(ctx, root, user, "scam"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	u, err := store.GetUser(ctx, user)
	if err != nil || !u.Banned {
		t.Fatalf("ban not persisted: %+v, %v", u, err)
	}
	if err := s.Unban(ctx, root, user); err != nil {
		t.Fatalf("unban: %v", err)
	}
	u, _ = store.GetUser(ctx, user)
	if u.Banned {
		t.Errorf("unban not persisted")
	}
}

func TestDelegatedAdminCanOperate(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	if changed, err := s.GrantAdmin(ctx, root, user); err != nil || !changed {
		t.Fatalf("grant: %v, %v", changed, err)
	}
	if _, err := s.Stats(ctx, user); err != nil {
		t.Errorf("delegated admin rejected: %v", err)
	}
	if changed, _ := s.RevokeAdmin(ctx, user, root); changed {
		t.Errorf("delegated admin removed a base admin")
	}
	admins, _ := s.Admins(ctx, root)
	if len(admins) != 2 {
		t.Errorf("Admins = %v", admins)
	}
}

func TestSpecialSetterWithoutAdminRights(t *testing.T) {
	s, store, _ := newTestService(t)
	ctx := context.Background()
	store.UpsertUser(ctx, user, "u", "", "")

	if err := s.SetSuccessfulDeals(ctx, special, user, 7); err != nil {
		t.Fatalf("special setter: %v", err)
	}
	u, _ := store.GetUser(ctx, user)
	if u.SuccessfulDeals != 7 {
		t.Errorf("counter = %d, want 7", u.SuccessfulDeals)
	}
	if _, err := s.Stats(ctx, special); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("special rights must not grant admin access: %v", err)
	}
}

func TestBroadcastScopes(t *testing.T) {
	s, store, b := newTestService(t)
	ctx := context.Background()

	store.UpsertUser(ctx, 10, "a", "", "")
	store.UpsertUser(ctx, 11, "b", "", "")
	store.SetBanned(ctx, 11, true, root, "")
	store.SaveChat(ctx, storage.Chat{ID: 10, Type: "private"})
	store.SaveChat(ctx, storage.Chat{ID: -5, Type: "group", Title: "g"})

	sent, failed, err := s.Broadcast(ctx, root, ScopeUsers, "hello")
	if err != nil || sent != 1 || failed != 0 {
		t.Fatalf("user broadcast: %d/%d %v", sent, failed, err)
	}
	if b.text != "hello" || len(b.chats) != 1 || b.chats[0] != 10 {
		t.Errorf("user broadcast recipients = %v", b.chats)
	}

	sent, _, _ = s.Broadcast(ctx, root, ScopeAllChats, "all")
	if sent != 2 {
		t.Errorf("chat broadcast sent to %d, want 2", sent)
	}

	logs, _ := s.Logs(ctx, root, 0)
	if len(logs) == 0 || logs[0].Action != "broadcast" {
		t.Errorf("broadcast not audited: %+v", logs)
	}
}

func TestBackupAndOverride(t *testing.T) {
	s, store, _ := newTestService(t)
	ctx := context.Background()

	store.UpsertUser(ctx, user, "u", "", "")
	store.SetWallet(ctx, user, "UQx")
	d := &storage.Deal{ID: "d1", CreatorID: user, PaymentMethod: deal.MethodTonWallet, Currency: "TON", Description: "x"}
	d.Amount, _ = deal.ParseAmount("1")
	store.InsertDeal(ctx, d, func() string { return "memo" }, 1)

	if err := s.SetDealStatus(ctx, root, "d1", storage.DealDisputed); err != nil {
		t.Fatalf("override: %v", err)
	}
	got, _ := store.GetDeal(ctx, "d1")
	if got.Status != storage.DealDisputed {
		t.Errorf("status = %s", got.Status)
	}

	path, err := s.Backup(ctx, root)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("backup missing: %v", err)
	}

	deals, _ := s.Deals(ctx, root, 0)
	if len(deals) != 1 {
		t.Errorf("Deals = %d", len(deals))
	}
	if deals, _ := s.Deals(ctx, root, 1); len(deals) != 0 {
		t.Errorf("page 1 should be empty, got %d", len(deals))
	}
}
