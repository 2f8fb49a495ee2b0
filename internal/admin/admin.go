package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/suspectuso/otc-escrow/internal/auth"
	"github.com/suspectuso/otc-escrow/internal/deal"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

// ErrUnauthorized is returned for every operation the caller may not run.
// Callers at the chat boundary must not reveal it.
var ErrUnauthorized = errors.New("unauthorized")

const (
	PageSize     = 10
	LogsPageSize = 20
	maxChats     = 10000
)

// Scope selects the recipients of a broadcast
type Scope int

const (
	ScopeUsers Scope = iota
	ScopeAllChats
)

// Broadcaster delivers one text to many chats
type Broadcaster interface {
	Broadcast(ctx context.Context, chatIDs []int64, text string) (sent, failed int)
}

// Service exposes the operator console. Every method checks the caller first.
type Service struct {
	store       *storage.Storage
	auth        *auth.Service
	deals       *deal.Engine
	broadcaster Broadcaster
	backupDir   string
	log         *slog.Logger
}

func New(store *storage.Storage, authz *auth.Service, deals *deal.Engine, broadcaster Broadcaster, backupDir string, log *slog.Logger) *Service {
	return &Service{
		store:       store,
		auth:        authz,
		deals:       deals,
		broadcaster: broadcaster,
		backupDir:   backupDir,
		log:         log,
	}
}

func (s *Service) require(ctx context.Context, actorID int64) error {
	if !s.auth.IsAdmin(ctx, actorID) {
		s.log.Warn("unauthorized admin call", "actor_id", actorID)
		return ErrUnauthorized
	}
	return nil
}

// IsAdmin reports whether actorID may use this service
func (s *Service) IsAdmin(ctx context.Context, actorID int64) bool {
	return s.auth.IsAdmin(ctx, actorID)
}

// --- Listing ---

func (s *Service) Users(ctx context.Context, actorID int64, page int) ([]storage.User, error) {
	if err := s.require(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, PageSize, offset(page))
}

func (s *Service) SearchUsers(ctx context.Context, actorID int64, query string) ([]storage.User, error) {
	if err := s.require(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.SearchUsers(ctx, query, PageSize*2)
}

func (s *Service) Deals(ctx context.Context, actorID int64, page int) ([]storage.Deal, error) {
	if err := s.require(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.ListDeals(ctx, PageSize, offset(page))
}

func (s *Service) Stats(ctx context.Context, actorID int64) (*storage.Stats, error) {
	if err := s.require(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx)
}

func (s *Service) Logs(ctx context.Context, actorID int64, n int) ([]storage.AuditEntry, error) {
	if err := s.require(ctx, actorID); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = LogsPageSize
	}
	return s.store.RecentLogs(ctx, n)
}

func offset(page int) int {
	if page < 0 {
		page = 0
	}
	return page * PageSize
}

// --- Broadcast & backup ---

// Broadcast sends text to every registered user or chat and audits the run
func (s *Service) Broadcast(ctx context.Context, actorID int64, scope Scope, text string) (sent, failed int, err error) {
	if err := s.require(ctx, actorID); err != nil {
		return 0, 0, err
	}

	var ids []int64
	switch scope {
	case ScopeAllChats:
		ids, err = s.store.ChatIDs(ctx, maxChats)
	default:
		ids, err = s.store.UserIDs(ctx)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("load recipients: %w", err)
	}

	sent, failed = s.broadcaster.Broadcast(ctx, ids, text)

	s.log.Info("broadcast finished", "actor_id", actorID, "scope", scope, "sent", sent, "failed", failed)
	details := fmt.Sprintf("scope=%d; sent=%d; failed=%d", scope, sent, failed)
	if err := s.store.AppendLog(ctx, actorID, "broadcast", details); err != nil {
		s.log.Error("audit broadcast", "error", err)
	}
	return sent, failed, nil
}

// Backup snapshots the database into the backup directory
func (s *Service) Backup(ctx context.Context, actorID int64) (string, error) {
	if err := s.require(ctx, actorID); err != nil {
		return "", err
	}

	path, err := s.store.Backup(ctx, s.backupDir)
	if err != nil {
		return "", err
	}

	s.log.Info("database backup created", "actor_id", actorID, "path", path)
	if err := s.store.AppendLog(ctx, actorID, "backup", path); err != nil {
		s.log.Error("audit backup", "error", err)
	}
	return path, nil
}

// --- Bans ---

func (s *Service) Ban(ctx context.Context, actorID, userID int64, reason string) error {
	if err := s.require(ctx, actorID); err != nil {
		return err
	}
	return s.auth.SetBan(ctx, userID, true, actorID, reason)
}

func (s *Service) Unban(ctx context.Context, actorID, userID int64) error {
	if err := s.require(ctx, actorID); err != nil {
		return err
	}
	return s.auth.SetBan(ctx, userID, false, actorID, "")
}

// --- Roles ---

func (s *Service) GrantAdmin(ctx context.Context, actorID, userID int64) (bool, error) {
	if err := s.require(ctx, actorID); err != nil {
		return false, err
	}
	return s.auth.AddAdmin(ctx, userID, actorID)
}

func (s *Service) RevokeAdmin(ctx context.Context, actorID, userID int64) (bool, error) {
	if err := s.require(ctx, actorID); err != nil {
		return false, err
	}
	return s.auth.RemoveAdmin(ctx, userID, actorID)
}

func (s *Service) Admins(ctx context.Context, actorID int64) ([]int64, error) {
	if err := s.require(ctx, actorID); err != nil {
		return nil, err
	}
	return s.auth.Admins(ctx)
}

func (s *Service) GrantSpecial(ctx context.Context, actorID, userID int64) (bool, error) {
	if err := s.require(ctx, actorID); err != nil {
		return false, err
	}
	return s.auth.AddSpecialUser(ctx, userID, actorID)
}

func (s *Service) RevokeSpecial(ctx context.Context, actorID, userID int64) (bool, error) {
	if err := s.require(ctx, actorID); err != nil {
		return false, err
	}
	return s.auth.RemoveSpecialUser(ctx, userID, actorID)
}

func (s *Service) SpecialUsers(ctx context.Context, actorID int64) ([]int64, error) {
	if err := s.require(ctx, actorID); err != nil {
		return nil, err
	}
	return s.auth.SpecialUsers(ctx)
}

// --- Overrides ---

// SetDealStatus forces a deal into status, bypassing the state machine
func (s *Service) SetDealStatus(ctx context.Context, actorID int64, dealID string, status storage.DealStatus) error {
	if err := s.require(ctx, actorID); err != nil {
		return err
	}
	return s.deals.AdminOverrideStatus(ctx, dealID, status, actorID)
}

// SetSuccessfulDeals is open to special deal setters, admin or not
func (s *Service) SetSuccessfulDeals(ctx context.Context, actorID, userID int64, count int) error {
	err := s.deals.SetSuccessfulDealsCount(ctx, userID, count, actorID)
	if errors.Is(err, deal.ErrForbidden) {
		return ErrUnauthorized
	}
	return err
}

// --- Helpers ---

// ParseUserID parses a numeric user ID argument
func ParseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
