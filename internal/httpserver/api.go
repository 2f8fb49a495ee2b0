package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/suspectuso/otc-escrow/internal/admin"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

type userJSON struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username,omitempty"`
	FirstName       string    `json:"first_name,omitempty"`
	LastName        string    `json:"last_name,omitempty"`
	Language        string    `json:"language"`
	HasWallet       bool      `json:"has_wallet"`
	HasCard         bool      `json:"has_card"`
	ReferralCount   int       `json:"referral_count"`
	ReferralEarned  string    `json:"referral_earned"`
	SuccessfulDeals int       `json:"successful_deals"`
	Banned          bool      `json:"banned"`
	RegisteredAt    time.Time `json:"registered_at"`
	LastActive      time.Time `json:"last_active"`
}

type dealJSON struct {
	ID            string     `json:"id"`
	MemoCode      string     `json:"memo_code"`
	CreatorID     int64      `json:"creator_id"`
	BuyerID       *int64     `json:"buyer_id"`
	PaymentMethod string     `json:"payment_method"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type logJSON struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actor_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserJSON(users []storage.User) []userJSON {
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON{
			ID:              u.ID,
			Username:        u.Username,
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			Language:        u.Language,
			HasWallet:       u.TonWallet != "",
			HasCard:         u.CardDetails != "",
			ReferralCount:   u.ReferralCount,
			ReferralEarned:  u.ReferralEarned.String(),
			SuccessfulDeals: u.SuccessfulDeals,
			Banned:          u.Banned,
			RegisteredAt:    u.RegisteredAt,
			LastActive:      u.LastActive,
		})
	}
	return out
}

func toDealJSON(deals []storage.Deal) []dealJSON {
	out := make([]dealJSON, 0, len(deals))
	for _, d := range deals {
		out = append(out, dealJSON{
			ID:            d.ID,
			MemoCode:      d.MemoCode,
			CreatorID:     d.CreatorID,
			BuyerID:       d.BuyerID,
			PaymentMethod: d.PaymentMethod,
			Amount:        d.Amount.String(),
			Currency:      d.Currency,
			Description:   d.Description,
			Status:        string(d.Status),
			CreatedAt:     d.CreatedAt,
			CompletedAt:   d.CompletedAt,
		})
	}
	return out
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context(), adminFromContext(r.Context()))
	if err != nil {
		s.writeError(w, "load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := adminFromContext(ctx)

	var (
		users []storage.User
		err   error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		users, err = s.admin.SearchUsers(ctx, actor, q)
	} else {
		users, err = s.admin.Users(ctx, actor, queryInt(r, "page", 0))
	}
	if err != nil {
		s.writeError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(users))
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.admin.Deals(r.Context(), adminFromContext(r.Context()), queryInt(r, "page", 0))
	if err != nil {
		s.writeError(w, "list deals", err)
		return
	}
	writeJSON(w, http.StatusOK, toDealJSON(deals))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.admin.Logs(r.Context(), adminFromContext(r.Context()), queryInt(r, "limit", admin.LogsPageSize))
	if err != nil {
		s.writeError(w, "load logs", err)
		return
	}

	out := make([]logJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, logJSON{ID: e.ID, ActorID: e.ActorID, Action: e.Action, Details: e.Details, CreatedAt: e.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	path, err := s.admin.Backup(r.Context(), adminFromContext(r.Context()))
	if err != nil {
		s.writeError(w, "backup", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// writeError hides everything but the status from the client. A valid
// token whose admin rights were revoked gets 403.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, admin.ErrUnauthorized) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	s.log.Error(op, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
