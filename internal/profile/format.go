package profile

import (
	"strings"

	"github.com/tonkeeper/tongo/ton"
)

// FriendlyAddr converts any parseable address to the non-bounceable
// user-friendly form (UQ...). Unparseable input is returned unchanged.
func FriendlyAddr(addr string) string {
	if addr == "" {
		return ""
	}

	acc, err := ton.ParseAccountID(addr)
	if err != nil {
		return addr
	}
	return acc.ToHuman(false, false)
}

// ShortAddr returns a shortened address for display
func ShortAddr(addr string, n int) string {
	if addr == "" {
		return "unknown"
	}
	if len(addr) < n*2+3 {
		return addr
	}
	return addr[:n] + "..." + addr[len(addr)-n:]
}

// MaskCard hides all but the last four digits of a stored card descriptor
func MaskCard(card string) string {
	idx := strings.LastIndex(card, " - ")
	if idx < 0 {
		return card
	}

	bank, number := card[:idx], card[idx+3:]
	if len(number) <= 4 {
		return card
	}
	return bank + " - **** " + number[len(number)-4:]
}
