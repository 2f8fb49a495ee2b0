package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/suspectuso/otc-escrow/internal/admin"
	"github.com/suspectuso/otc-escrow/internal/auth"
	"github.com/suspectuso/otc-escrow/internal/deal"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

const (
	secret         = "test-secret"
	adminID  int64 = 1
	memberID int64 = 50
)

type nopNotifier struct{}

func (nopNotifier) BuyerJoined(*storage.Deal, *storage.User) {}
func (nopNotifier) PaymentConfirmed(*storage.Deal, int, int) {}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, []int64, string) (int, int) { return 0, 0 }

func newTestServer(t *testing.T, opts Options, webhook http.Handler) (http.Handler, *storage.Storage) {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.New(filepath.Join(dir, "http.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	authz, err := auth.New(ctx, store, []int64{adminID}, nil, log)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	for _, id := range []int64{adminID, memberID} {
		if _, err := authz.ResolveOrCreateUser(ctx, id, "user", "", ""); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	engine := deal.NewEngine(store, authz, nopNotifier{}, log)
	adm := admin.New(store, authz, engine, nopBroadcaster{}, filepath.Join(dir, "backups"), log)

	return New(opts, store, adm, webhook, log).Handler(), store
}

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func mustToken(t *testing.T, secret string, id int64, ttl time.Duration) string {
	t.Helper()

	token, err := IssueToken(secret, id, ttl)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t, Options{}, nil)

	for _, path := range []string{"/", "/healthz", "/readyz"} {
		rr := do(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
			t.Errorf("GET %s = %d %q, want 200 OK", path, rr.Code, rr.Body.String())
		}
	}

	if rr := do(t, h, http.MethodGet, "/api/stats", ""); rr.Code != http.StatusNotFound {
		t.Errorf("api without secret = %d, want 404", rr.Code)
	}
}

func TestWebhookRoute(t *testing.T) {
	called := 0
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	})
	h, _ := newTestServer(t, Options{WebhookPath: "/webhook"}, webhook)

	if rr := do(t, h, http.MethodPost, "/webhook", ""); rr.Code != http.StatusOK || called != 1 {
		t.Errorf("POST /webhook = %d, called %d times", rr.Code, called)
	}
	if rr := do(t, h, http.MethodGet, "/webhook", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /webhook = %d, want 405", rr.Code)
	}
}

func TestWebhookSecret(t *testing.T) {
	var updates []string
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		updates = append(updates, string(body))
		w.WriteHeader(http.StatusOK)
	})
	h, _ := newTestServer(t, Options{WebhookPath: "/webhook", WebhookSecret: "s3cret"}, webhook)

	// an update claiming to come from the base admin
	update := `{"update_id":1,"message":{"message_id":1,"from":{"id":1},"chat":{"id":1,"type":"private"},"text":"/admin"}}`

	tests := []struct {
		name   string
		secret string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong secret", "guess", http.StatusUnauthorized},
		{"prefix of secret", "s3c", http.StatusUnauthorized},
		{"correct secret", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates = nil

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(update))
			if tt.secret != "" {
				req.Header.Set("X-Telegram-Bot-Api-Secret-Token", tt.secret)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			delivered := len(updates) == 1
			if delivered != (tt.want == http.StatusOK) {
				t.Errorf("update delivered = %v with status %d", delivered, rr.Code)
			}
		})
	}
}

func TestAPIAuthentication(t *testing.T) {
	h, _ := newTestServer(t, Options{APISecret: secret}, nil)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + mustToken(t, "other", adminID, time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + mustToken(t, secret, adminID, -time.Minute), http.StatusUnauthorized},
		{"not an admin", "Bearer " + mustToken(t, secret, memberID, time.Hour), http.StatusForbidden},
		{"admin", "Bearer " + mustToken(t, secret, adminID, time.Hour), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAPIReadsAndBackup(t *testing.T) {
	h, store := newTestServer(t, Options{APISecret: secret}, nil)
	token := mustToken(t, secret, adminID, time.Hour)

	rr := do(t, h, http.MethodGet, "/api/stats", token)
	var stats storage.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("total_users = %d, want 2", stats.TotalUsers)
	}

	rr = do(t, h, http.MethodGet, "/api/users?q=50", token)
	var users []userJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 || users[0].ID != memberID {
		t.Errorf("search users = %+v", users)
	}

	rr = do(t, h, http.MethodGet, "/api/deals?page=0", token)
	if rr.Code != http.StatusOK || rr.Body.String() != "[]\n" {
		t.Errorf("deals = %d %q", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/api/backup", token)
	var backup map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &backup); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if _, err := os.Stat(backup["path"]); err != nil {
		t.Errorf("backup file: %v", err)
	}

	rr = do(t, h, http.MethodGet, "/api/logs?limit=5", token)
	var logs []logJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &logs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(logs) == 0 || logs[0].Action != "backup" || logs[0].ActorID != adminID {
		t.Errorf("logs = %+v", logs)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	if rr := do(t, h, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with closed store = %d, want 503", rr.Code)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token := mustToken(t, secret, 42, time.Hour)

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AdminID != 42 || claims.Subject != "42" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := IssueToken("", 42, time.Hour); err == nil {
		t.Error("issuing without a secret must fail")
	}
}
