package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/suspectuso/otc-escrow/internal/storage"
)

// Service resolves callers and answers authorization questions. Base admin
// and special sets come from configuration and cannot be changed at runtime;
// the delegated sets live in the store.
type Service struct {
	store       *storage.Storage
	bans        *BanSet
	baseAdmins  map[int64]bool
	baseSpecial map[int64]bool
	log         *slog.Logger
}

// New creates the service and loads the ban set from the store
func New(ctx context.Context, store *storage.Storage, adminIDs, specialIDs []int64, log *slog.Logger) (*Service, error) {
	s := &Service{
		store:       store,
		bans:        NewBanSet(),
		baseAdmins:  toSet(adminIDs),
		baseSpecial: toSet(specialIDs),
		log:         log,
	}

	if err := s.ReloadBans(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func toSet(ids []int64) map[int64]bool {
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// ReloadBans rebuilds the ban cache from the store
func (s *Service) ReloadBans(ctx context.Context) error {
	ids, err := s.store.BannedIDs(ctx)
	if err != nil {
		return fmt.Errorf("load banned users: %w", err)
	}
	s.bans.Replace(ids)
	s.log.Info("ban list loaded", "count", len(ids))
	return nil
}

// --- Identity ---

// ResolveOrCreateUser upserts the caller and returns the stored record
func (s *Service) ResolveOrCreateUser(ctx context.Context, id int64, username, firstName, lastName string) (*storage.User, error) {
	return s.store.UpsertUser(ctx, id, username, firstName, lastName)
}

// Touch refreshes the caller's last-active timestamp
func (s *Service) Touch(ctx context.Context, id int64) error {
	return s.store.TouchUser(ctx, id)
}

// --- Bans ---

// IsBanned answers from the in-memory set only
func (s *Service) IsBanned(id int64) bool {
	return s.bans.Contains(id)
}

// SetBan persists the flag with its audit entry, then updates the cache
func (s *Service) SetBan(ctx context.Context, id int64, banned bool, actorID int64, reason string) error {
	if err := s.store.SetBanned(ctx, id, banned, actorID, reason); err != nil {
		return err
	}

	if banned {
		s.bans.Add(id)
	} else {
		s.bans.Remove(id)
	}

	s.log.Info("ban flag changed", "user_id", id, "banned", banned, "actor_id", actorID)
	return nil
}

// --- Roles ---

// inEitherSet is the one evaluation rule for both roles: a base member, or a
// member of the delegated list. Store failures count as "not a member".
func (s *Service) inEitherSet(ctx context.Context, base map[int64]bool, list storage.AllowList, id int64) bool {
	if base[id] {
		return true
	}

	ok, err := s.store.InList(ctx, list, id)
	if err != nil {
		s.log.Error("check allow-list", "list", list, "user_id", id, "error", err)
		return false
	}
	return ok
}

func (s *Service) IsAdmin(ctx context.Context, id int64) bool {
	return s.inEitherSet(ctx, s.baseAdmins, storage.Admins, id)
}

func (s *Service) IsSpecialDealSetter(ctx context.Context, id int64) bool {
	return s.inEitherSet(ctx, s.baseSpecial, storage.SpecialUsers, id)
}

// IsBaseAdmin reports whether id is in the configured admin set
func (s *Service) IsBaseAdmin(id int64) bool {
	return s.baseAdmins[id]
}

// AddAdmin delegates admin rights. It returns false when nothing changed.
func (s *Service) AddAdmin(ctx context.Context, id, actorID int64) (bool, error) {
	return s.grant(ctx, s.baseAdmins, storage.Admins, id, actorID)
}

// RemoveAdmin revokes delegated admin rights. Base admins are left untouched
// and the call reports false.
func (s *Service) RemoveAdmin(ctx context.Context, id, actorID int64) (bool, error) {
	return s.revoke(ctx, s.baseAdmins, storage.Admins, id, actorID)
}

func (s *Service) AddSpecialUser(ctx context.Context, id, actorID int64) (bool, error) {
	return s.grant(ctx, s.baseSpecial, storage.SpecialUsers, id, actorID)
}

func (s *Service) RemoveSpecialUser(ctx context.Context, id, actorID int64) (bool, error) {
	return s.revoke(ctx, s.baseSpecial, storage.SpecialUsers, id, actorID)
}

func (s *Service) grant(ctx context.Context, base map[int64]bool, list storage.AllowList, id, actorID int64) (bool, error) {
	if base[id] {
		return false, nil
	}

	changed, err := s.store.Grant(ctx, list, id, actorID)
	if err != nil {
		return false, err
	}
	if changed {
		s.log.Info("role granted", "list", list, "user_id", id, "actor_id", actorID)
	}
	return changed, nil
}

func (s *Service) revoke(ctx context.Context, base map[int64]bool, list storage.AllowList, id, actorID int64) (bool, error) {
	if base[id] {
		return false, nil
	}

	changed, err := s.store.Revoke(ctx, list, id, actorID)
	if err != nil {
		return false, err
	}
	if changed {
		s.log.Info("role revoked", "list", list, "user_id", id, "actor_id", actorID)
	}
	return changed, nil
}

// Admins returns base and delegated admins, sorted
func (s *Service) Admins(ctx context.Context) ([]int64, error) {
	return s.members(ctx, s.baseAdmins, storage.Admins)
}

// SpecialUsers returns base and delegated special deal setters, sorted
func (s *Service) SpecialUsers(ctx context.Context) ([]int64, error) {
	return s.members(ctx, s.baseSpecial, storage.SpecialUsers)
}

func (s *Service) members(ctx context.Context, base map[int64]bool, list storage.AllowList) ([]int64, error) {
	delegated, err := s.store.List(ctx, list)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(base)+len(delegated))
	ids := make([]int64, 0, len(base)+len(delegated))
	for id := range base {
		seen[id] = true
		ids = append(ids, id)
	}
	for _, id := range delegated {
		if !seen[id] {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
