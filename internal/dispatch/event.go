package dispatch

import (
	"time"

	"github.com/suspectuso/otc-escrow/internal/i18n"
)

// Kind tells how an inbound event was produced
type Kind int

const (
	KindCommand Kind = iota
	KindButton
	KindText
)

// Event is one inbound interaction, stripped of transport details
type Event struct {
	Kind      Kind
	CallerID  int64
	ChatID    int64
	ChatType  string
	ChatTitle string

	Username  string
	FirstName string
	LastName  string

	Name string   // command without the slash, or callback data
	Args []string // command arguments
	Text string   // free text reply
}

// ResultKind tells the transport how to deliver a Result
type ResultKind int

const (
	// Reply sends a new message
	Reply ResultKind = iota
	// Edit replaces the message whose button was pressed
	Edit
)

// Button is one inline button. Key names a catalog label; Label is used
// verbatim when Key is empty.
type Button struct {
	Key      string
	Label    string
	Callback string
	URL      string
}

// Keyboard is a grid of buttons, one slice per row
type Keyboard [][]Button

// Result is a localisable response. The transport renders Key in Lang
// with Vars. A zero ChatID means the chat the event came from.
type Result struct {
	Kind     ResultKind
	ChatID   int64
	Lang     string
	Key      string
	Vars     i18n.Vars
	Keyboard Keyboard

	// TTL deletes the delivered message after the delay when positive
	TTL time.Duration
}
