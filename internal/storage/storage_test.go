package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedMemos(memos ...string) func() string {
	i := 0
	return func() string {
		m := memos[i%len(memos)]
		i++
		return m
	}
}

func TestMigrationAddsColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE users (
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
	)`)
	if err != nil {
		t.Fatalf("create old schema: %v", err)
	}
	if _, err := db.Exec("INSERT INTO users (user_id, username, successful_deals) VALUES (7, 'old', 3)"); err != nil {
		t.Fatalf("insert old row: %v", err)
	}
	db.Close()

	s, err := New(path, time.Second)
	if err != nil {
		t.Fatalf("open migrated storage: %v", err)
	}
	defer s.Close()

	u, err := s.GetUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("get migrated user: %v", err)
	}
	if u.Banned || u.SuccessfulDeals != 3 || u.Username != "old" {
		t.Errorf("unexpected migrated user: %+v", u)
	}
}

func TestUpsertUserKeepsProfile(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.UpsertUser(ctx, 1, "alice", "Alice", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SetWallet(ctx, 1, "UQwallet"); err != nil {
		t.Fatalf("set wallet: %v", err)
	}
	if err := s.SetLanguage(ctx, 1, "en"); err != nil {
		t.Fatalf("set language: %v", err)
	}

	u, err := s.UpsertUser(ctx, 1, "alice2", "Alice", "Smith")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if u.Username != "alice2" || u.LastName != "Smith" {
		t.Errorf("display name not refreshed: %+v", u)
	}
	if u.TonWallet != "UQwallet" || u.Language != "en" {
		t.Errorf("profile overwritten: %+v", u)
	}

	if err := s.SetCard(ctx, 99, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestInsertDealRegeneratesDuplicateMemo(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := &Deal{ID: "d1", CreatorID: 1, PaymentMethod: "ton_wallet", Amount: decimal.RequireFromString("10"), Currency: "TON", Description: "a"}
	if err := s.InsertDeal(ctx, first, fixedMemos("AAAA"), 3); err != nil {
		t.Fatalf("insert first: %v", err)
	}

	second := &Deal{ID: "d2", CreatorID: 1, PaymentMethod: "ton_wallet", Amount: decimal.RequireFromString("10"), Currency: "TON", Description: "b"}
	if err := s.InsertDeal(ctx, second, fixedMemos("AAAA", "BBBB"), 3); err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if second.MemoCode != "BBBB" {
		t.Errorf("expected regenerated memo BBBB, got %s", second.MemoCode)
	}

	third := &Deal{ID: "d3", CreatorID: 1, PaymentMethod: "ton_wallet", Amount: decimal.RequireFromString("10"), Currency: "TON", Description: "c"}
	if err := s.InsertDeal(ctx, third, fixedMemos("AAAA"), 3); !errors.Is(err, ErrMemoExhausted) {
		t.Errorf("expected ErrMemoExhausted, got %v", err)
	}
	if _, err := s.GetDeal(ctx, "d3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed insert left a row behind: %v", err)
	}
}

func TestCompleteDealIsOneShot(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	s.UpsertUser(ctx, 1, "seller", "", "")
	s.UpsertUser(ctx, 2, "buyer", "", "")

	d := &Deal{ID: "d1", CreatorID: 1, PaymentMethod: "bank_card", Amount: decimal.RequireFromString("100.5"), Currency: "USD", Description: "gift"}
	if err := s.InsertDeal(ctx, d, fixedMemos("MEMO1"), 1); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, _, _, err := s.CompleteDeal(ctx, d.ID, 2); !errors.Is(err, ErrConflict) {
		t.Fatalf("completing without bound buyer: expected ErrConflict, got %v", err)
	}

	if _, bound, err := s.BindBuyer(ctx, d.ID, 2); err != nil || !bound {
		t.Fatalf("bind buyer: bound=%v err=%v", bound, err)
	}
	if _, bound, _ := s.BindBuyer(ctx, d.ID, 3); bound {
		t.Fatalf("rebinding to another buyer must not succeed")
	}

	done, sellerCount, buyerCount, err := s.CompleteDeal(ctx, d.ID, 2)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != DealCompleted || done.CompletedAt == nil {
		t.Errorf("deal not completed: %+v", done)
	}
	if sellerCount != 1 || buyerCount != 1 {
		t.Errorf("expected counters 1/1, got %d/%d", sellerCount, buyerCount)
	}

	if _, _, _, err := s.CompleteDeal(ctx, d.ID, 2); !errors.Is(err, ErrConflict) {
		t.Errorf("second completion: expected ErrConflict, got %v", err)
	}

	seller, _ := s.GetUser(ctx, 1)
	buyer, _ := s.GetUser(ctx, 2)
	if seller.SuccessfulDeals != 1 || buyer.SuccessfulDeals != 1 {
		t.Errorf("counters changed by failed completion: %d/%d", seller.SuccessfulDeals, buyer.SuccessfulDeals)
	}
}

func TestConcurrentCompletion(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	s.UpsertUser(ctx, 1, "seller", "", "")
	s.UpsertUser(ctx, 2, "buyer", "", "")
	d := &Deal{ID: "race", CreatorID: 1, PaymentMethod: "ton_wallet", Amount: decimal.NewFromInt(1), Currency: "TON", Description: "x"}
	if err := s.InsertDeal(ctx, d, fixedMemos("RACE"), 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := s.BindBuyer(ctx, d.ID, 2); err != nil {
		t.Fatalf("bind: %v", err)
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, err := s.CompleteDeal(ctx, d.ID, 2)
			if err == nil {
				succeeded.Add(1)
			} else if !errors.Is(err, ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := succeeded.Load(); got != 1 {
		t.Fatalf("expected exactly one completion, got %d", got)
	}
	seller, _ := s.GetUser(ctx, 1)
	if seller.SuccessfulDeals != 1 {
		t.Errorf("seller counter = %d, want 1", seller.SuccessfulDeals)
	}
}

func TestAddReferral(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	bonus := decimal.RequireFromString("0.4")

	s.UpsertUser(ctx, 1, "referrer", "", "")
	s.UpsertUser(ctx, 2, "new", "", "")
	s.UpsertUser(ctx, 3, "veteran", "", "")
	s.SetSuccessfulDeals(ctx, 3, 2, 0)

	tests := []struct {
		name     string
		referrer int64
		referred int64
		want     bool
	}{
		{"self referral", 1, 1, false},
		{"fresh user", 1, 2, true},
		{"already referred", 1, 2, false},
		{"user with deals", 1, 3, false},
		{"unknown referrer", 42, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AddReferral(ctx, tt.referrer, tt.referred, bonus)
			if err != nil {
				t.Fatalf("add referral: %v", err)
			}
			if got != tt.want {
				t.Errorf("AddReferral(%d, %d) = %v, want %v", tt.referrer, tt.referred, got, tt.want)
			}
		})
	}

	count, earned, err := s.ReferralStats(ctx, 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 || !earned.Equal(bonus) {
		t.Errorf("expected 1 referral and %s earned, got %d and %s", bonus, count, earned)
	}

	r, err := s.GetReferral(ctx, 2)
	if err != nil {
		t.Fatalf("get referral: %v", err)
	}
	if r.ReferrerID != 1 || r.BonusPaid {
		t.Errorf("unexpected referral: %+v", r)
	}
	if err := s.MarkReferralPaid(ctx, 2); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if r, _ := s.GetReferral(ctx, 2); !r.BonusPaid {
		t.Errorf("paid flag not set")
	}
}

func TestAllowListsAndAudit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if changed, err := s.Grant(ctx, Admins, 5, 1); err != nil || !changed {
		t.Fatalf("grant: changed=%v err=%v", changed, err)
	}
	if changed, _ := s.Grant(ctx, Admins, 5, 1); changed {
		t.Errorf("second grant reported a change")
	}
	if ok, _ := s.InList(ctx, Admins, 5); !ok {
		t.Errorf("granted admin not found")
	}
	if ok, _ := s.InList(ctx, SpecialUsers, 5); ok {
		t.Errorf("lists are not independent")
	}
	if changed, _ := s.Revoke(ctx, Admins, 5, 1); !changed {
		t.Errorf("revoke reported no change")
	}
	if changed, _ := s.Revoke(ctx, Admins, 5, 1); changed {
		t.Errorf("second revoke reported a change")
	}

	logs, err := s.RecentLogs(ctx, 10)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "revoke_admins" || logs[1].Action != "grant_admins" {
		t.Errorf("unexpected audit trail: %+v", logs)
	}
}

func TestBannedAndSearch(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	s.UpsertUser(ctx, 10, "bob_trader", "Bob", "Stone")
	s.UpsertUser(ctx, 11, "carol", "Carol", "")

	if err := s.SetBanned(ctx, 10, true, 1, "spam"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if err := s.SetBanned(ctx, 12, true, 1, "preemptive"); err != nil {
		t.Fatalf("ban unknown: %v", err)
	}

	ids, err := s.BannedIDs(ctx)
	if err != nil {
		t.Fatalf("banned ids: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 banned users, got %v", ids)
	}

	active, _ := s.UserIDs(ctx)
	if len(active) != 1 || active[0] != 11 {
		t.Errorf("UserIDs must skip banned users: %v", active)
	}

	found, _ := s.SearchUsers(ctx, "trader", 20)
	if len(found) != 1 || found[0].ID != 10 {
		t.Errorf("fuzzy search: %+v", found)
	}
	found, _ = s.SearchUsers(ctx, "11", 20)
	if len(found) != 1 || found[0].Username != "carol" {
		t.Errorf("id search: %+v", found)
	}
	found, _ = s.SearchUsers(ctx, "404", 20)
	if len(found) != 0 {
		t.Errorf("expected empty result, got %+v", found)
	}
}

func TestStatsAndBackup(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	s.UpsertUser(ctx, 1, "a", "", "")
	s.UpsertUser(ctx, 2, "b", "", "")
	d := &Deal{ID: "d1", CreatorID: 1, PaymentMethod: "stars", Amount: decimal.NewFromInt(5), Currency: "TON", Description: "x"}
	s.InsertDeal(ctx, d, fixedMemos("M1"), 1)
	s.SaveChat(ctx, Chat{ID: 1, Type: "private", Title: "a"})
	s.SaveChat(ctx, Chat{ID: -100, Type: "supergroup", Title: "group"})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := Stats{TotalUsers: 2, ActiveDay: 2, ActiveWeek: 2, TotalDeals: 1, ActiveDeals: 1}
	if *st != want {
		t.Errorf("stats = %+v, want %+v", *st, want)
	}

	chats, _ := s.ChatIDs(ctx, 100)
	if len(chats) != 2 {
		t.Errorf("expected 2 chats, got %v", chats)
	}

	dir := filepath.Join(t.TempDir(), "backups")
	path, err := s.Backup(ctx, dir)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	snap, err := New(path, time.Second)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer snap.Close()
	if _, err := snap.GetDealByMemo(ctx, "M1"); err != nil {
		t.Errorf("snapshot misses deal: %v", err)
	}
}

func TestBanPlaceholderIsHidden(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	s.UpsertUser(ctx, 10, "alice", "Alice", "")
	if err := s.SetBanned(ctx, 12, true, 1, "preemptive"); err != nil {
		t.Fatalf("ban unknown: %v", err)
	}

	st, _ := s.Stats(ctx)
	if st.TotalUsers != 1 {
		t.Errorf("TotalUsers = %d, placeholder must not count", st.TotalUsers)
	}
	users, _ := s.ListUsers(ctx, 10, 0)
	if len(users) != 1 || users[0].ID != 10 {
		t.Errorf("ListUsers = %+v, want only user 10", users)
	}
	if found, _ := s.SearchUsers(ctx, "12", 10); len(found) != 1 || !found[0].Banned {
		t.Errorf("placeholder must stay reachable by id: %+v", found)
	}

	s.SetBanned(ctx, 12, false, 1, "")
	if ids, _ := s.UserIDs(ctx); len(ids) != 1 || ids[0] != 10 {
		t.Errorf("UserIDs = %v, unbanned placeholder must not receive broadcasts", ids)
	}

	// first contact turns the placeholder into a regular user
	s.UpsertUser(ctx, 12, "late", "", "")
	st, _ = s.Stats(ctx)
	if st.TotalUsers != 2 {
		t.Errorf("TotalUsers after first contact = %d, want 2", st.TotalUsers)
	}
}

func TestBackupsWithinOneSecond(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	dir := t.TempDir()
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		path, err := s.Backup(ctx, dir)
		if err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
		if seen[path] {
			t.Fatalf("backup %d reused path %s", i, path)
		}
		seen[path] = true
		if _, err := os.Stat(path); err != nil {
			t.Errorf("backup file missing: %v", err)
		}
	}
	if !seen[filepath.Join(dir, "otc_backup_20260301_120000_1.db")] {
		t.Errorf("unexpected backup names: %v", seen)
	}
}
