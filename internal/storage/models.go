package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus is the lifecycle state of a deal
type DealStatus string

const (
	DealActive    DealStatus = "active"
	DealCompleted DealStatus = "completed"
	DealCancelled DealStatus = "cancelled"
	DealDisputed  DealStatus = "disputed"
)

// Valid reports whether s is a status the store knows about
func (s DealStatus) Valid() bool {
	switch s {
	case DealActive, DealCompleted, DealCancelled, DealDisputed:
		return true
	}
	return false
}

// User is a chat participant known to the bot
type User struct {
	ID              int64
	Username        string
	FirstName       string
	LastName        string
	Language        string
	TonWallet       string // empty when not set
	CardDetails     string // empty when not set
	ReferralCount   int
	ReferralEarned  decimal.Decimal
	SuccessfulDeals int
	Banned          bool
	RegisteredAt    time.Time
	LastActive      time.Time
}

// DisplayName returns the best human-readable name for the user
func (u *User) DisplayName() string {
	switch {
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return "user"
}

// Deal is an escrow agreement between a seller (creator) and a buyer
type Deal struct {
	ID            string
	MemoCode      string
	CreatorID     int64
	BuyerID       *int64 // nil until a buyer is bound
	PaymentMethod string
	Amount        decimal.Decimal
	Currency      string
	Description   string
	Status        DealStatus
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// HasBuyer reports whether a buyer is bound to the deal
func (d *Deal) HasBuyer() bool {
	return d.BuyerID != nil
}

// Referral links a referred user to the user whose link they opened
type Referral struct {
	ID         int64
	ReferrerID int64
	ReferredID int64
	BonusPaid  bool
	CreatedAt  time.Time
}

// AuditEntry is one append-only record of a privileged action
type AuditEntry struct {
	ID        int64
	ActorID   int64
	Action    string
	Details   string
	CreatedAt time.Time
}

// Chat is a broadcast target
type Chat struct {
	ID         int64
	Type       string
	Title      string
	LastActive time.Time
}

// Stats holds aggregate counters for the admin panel
type Stats struct {
	TotalUsers     int `json:"total_users"`
	ActiveDay      int `json:"active_day"`
	ActiveWeek     int `json:"active_week"`
	TotalDeals     int `json:"total_deals"`
	ActiveDeals    int `json:"active_deals"`
	CompletedDeals int `json:"completed_deals"`
}
