package deal

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suspectuso/otc-escrow/internal/storage"
)

// Payment methods
const (
	MethodTonWallet = "ton_wallet"
	MethodBankCard  = "bank_card"
	MethodStars     = "stars"
)

var Methods = []string{MethodTonWallet, MethodBankCard, MethodStars}

var Currencies = []string{"RUB", "UAH", "KZT", "BYN", "CNY", "KGS", "USD", "TON"}

const (
	memoLength   = 8
	memoAttempts = 10
	linkPrefix   = "deal_"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInvalidMethod     = errors.New("unknown payment method")
	ErrInvalidCurrency   = errors.New("unknown currency")
	ErrEmptyDescription  = errors.New("description is empty")
	ErrInvalidStatus     = errors.New("unknown deal status")
	ErrMissingRequisites = errors.New("requisites for the payment method are not set")
	ErrSelfDeal          = errors.New("creator cannot join own deal")
	ErrBuyerConflict     = errors.New("deal already has another buyer")
	ErrNotBuyer          = errors.New("only the bound buyer can confirm payment")
	ErrNotActive         = errors.New("deal is not active")
	ErrNotFound          = storage.ErrNotFound
	ErrForbidden         = errors.New("caller may not overwrite deal counters")
)

// ValidMethod reports whether m is a known payment method
func ValidMethod(m string) bool {
	for _, method := range Methods {
		if method == m {
			return true
		}
	}
	return false
}

// ValidCurrency reports whether c is one of the offered currency codes
func ValidCurrency(c string) bool {
	for _, cur := range Currencies {
		if cur == c {
			return true
		}
	}
	return false
}

// ParseAmount parses a positive amount, accepting a comma as the decimal
// separator
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// HasRequisites reports whether the saved requisites cover the method.
// Stars deals settle through the bot, so any saved requisite will do.
func HasRequisites(wallet, card, method string) bool {
	switch method {
	case MethodTonWallet:
		return wallet != ""
	case MethodBankCard:
		return card != ""
	case MethodStars:
		return wallet != "" || card != ""
	}
	return false
}

// NewMemo returns a short code cut from a random UUID
func NewMemo() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:memoLength]
}

// NormalizeMemo strips the decorations users paste along with a memo code
func NormalizeMemo(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, linkPrefix)
	return strings.TrimPrefix(s, "#")
}

// Link builds the shareable deep link of a deal
func Link(botUsername, memo string) string {
	return "https://t.me/" + botUsername + "?start=" + linkPrefix + memo
}

// ParseLink extracts the memo code from a "deal_<memo>" parameter
func ParseLink(param string) (string, bool) {
	memo, ok := strings.CutPrefix(param, linkPrefix)
	if !ok || memo == "" {
		return "", false
	}
	return memo, true
}
