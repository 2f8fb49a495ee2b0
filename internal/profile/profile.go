package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EClaesson/go-luhn"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/otc-escrow/internal/storage"
)

var (
	ErrInvalidWallet   = errors.New("invalid TON wallet address")
	ErrInvalidCard     = errors.New("invalid card details")
	ErrInvalidLanguage = errors.New("unsupported language")
)

// Languages the bot speaks
var Languages = []string{"ru", "en"}

// Service manages a user's payout requisites and preferences
type Service struct {
	store *storage.Storage
	log   *slog.Logger
}

func New(store *storage.Storage, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// SetWallet validates and stores a user-friendly TON address
func (s *Service) SetWallet(ctx context.Context, userID int64, raw string) (string, error) {
	wallet, err := ParseWallet(raw)
	if err != nil {
		return "", err
	}
	if err := s.store.SetWallet(ctx, userID, wallet); err != nil {
		return "", fmt.Errorf("save wallet: %w", err)
	}

	s.log.Info("wallet saved", "user_id", userID, "wallet", ShortAddr(wallet, 6))
	return wallet, nil
}

// SetCard validates and stores a "Bank - Number" card descriptor
func (s *Service) SetCard(ctx context.Context, userID int64, raw string) (string, error) {
	card, err := ParseCard(raw)
	if err != nil {
		return "", err
	}
	if err := s.store.SetCard(ctx, userID, card); err != nil {
		return "", fmt.Errorf("save card: %w", err)
	}

	s.log.Info("card saved", "user_id", userID)
	return card, nil
}

func (s *Service) SetLanguage(ctx context.Context, userID int64, lang string) error {
	if !SupportedLanguage(lang) {
		return ErrInvalidLanguage
	}
	return s.store.SetLanguage(ctx, userID, lang)
}

// Requisites returns the saved wallet and card; empty strings when unset
func (s *Service) Requisites(ctx context.Context, userID int64) (wallet, card string, err error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return u.TonWallet, u.CardDetails, nil
}

func SupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ParseWallet accepts a user-friendly address (UQ... or EQ...) that tongo can
// decode, including its checksum
func ParseWallet(raw string) (string, error) {
	wallet := strings.TrimSpace(raw)
	if !strings.HasPrefix(wallet, "UQ") && !strings.HasPrefix(wallet, "EQ") {
		return "", ErrInvalidWallet
	}
	if _, err := ton.ParseAccountID(wallet); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}
	return wallet, nil
}

// ParseCard accepts "Bank - Number" where the number has 12 to 19 digits,
// optionally space separated, and passes the Luhn check. The result is
// normalised to "Bank - digits".
func ParseCard(raw string) (string, error) {
	idx := strings.LastIndex(raw, "-")
	if idx < 0 {
		return "", ErrInvalidCard
	}

	bank := strings.TrimSpace(raw[:idx])
	number := strings.ReplaceAll(strings.TrimSpace(raw[idx+1:]), " ", "")
	if bank == "" || len(number) < 12 || len(number) > 19 {
		return "", ErrInvalidCard
	}

	valid, err := luhn.IsValid(number)
	if err != nil || !valid {
		return "", ErrInvalidCard
	}

	return bank + " - " + number, nil
}
