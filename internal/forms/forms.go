package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/suspectuso/otc-escrow/internal/deal"
)

// Step is the field a user is expected to answer next
type Step string

const (
	StepIdle Step = ""

	StepWallet Step = "wallet"
	StepCard   Step = "card"

	StepDealMethod      Step = "deal_method"
	StepDealAmount      Step = "deal_amount"
	StepDealCurrency    Step = "deal_currency"
	StepDealDescription Step = "deal_description"
	StepDealReady       Step = "deal_ready"

	StepAdminBroadcast    Step = "admin_broadcast"
	StepAdminBroadcastAll Step = "admin_broadcast_all"
	StepAdminSearch       Step = "admin_search"
	StepAdminBan          Step = "admin_ban"
	StepAdminUnban        Step = "admin_unban"
)

var ErrWrongStep = errors.New("input does not match the current step")

// DealDraft collects the fields of a deal before it is created
type DealDraft struct {
	Method      string `json:"method,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

// State is a user's parked conversation
type State struct {
	Step  Step      `json:"step"`
	Draft DealDraft `json:"draft"`
}

// Store keeps one State per user. Get returns nil for idle users.
type Store interface {
	Get(ctx context.Context, userID int64) (*State, error)
	Set(ctx context.Context, userID int64, state *State) error
	Clear(ctx context.Context, userID int64) error
}

// Await parks a single-answer step such as a wallet prompt
func Await(step Step) *State {
	return &State{Step: step}
}

// StartDeal opens the deal form at the payment method step
func StartDeal() *State {
	return &State{Step: StepDealMethod}
}

// InDealForm reports whether the state belongs to the deal form
func (s *State) InDealForm() bool {
	switch s.Step {
	case StepDealMethod, StepDealAmount, StepDealCurrency, StepDealDescription, StepDealReady:
		return true
	}
	return false
}

// ChooseMethod records the payment method and moves on to the amount
func (s *State) ChooseMethod(method string) error {
	if s.Step != StepDealMethod {
		return ErrWrongStep
	}
	if !deal.ValidMethod(method) {
		return deal.ErrInvalidMethod
	}

	s.Draft.Method = method
	s.Step = StepDealAmount
	return nil
}

// EnterAmount records a positive amount and moves on to the currency
func (s *State) EnterAmount(text string) error {
	if s.Step != StepDealAmount {
		return ErrWrongStep
	}
	amount, err := deal.ParseAmount(text)
	if err != nil {
		return err
	}

	s.Draft.Amount = amount.String()
	s.Step = StepDealCurrency
	return nil
}

// ChooseCurrency records one of the offered currencies and moves on to the
// description
func (s *State) ChooseCurrency(code string) error {
	if s.Step != StepDealCurrency {
		return ErrWrongStep
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if !deal.ValidCurrency(code) {
		return deal.ErrInvalidCurrency
	}

	s.Draft.Currency = code
	s.Step = StepDealDescription
	return nil
}

// EnterDescription records a non-empty description; the draft is then ready
func (s *State) EnterDescription(text string) error {
	if s.Step != StepDealDescription {
		return ErrWrongStep
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return deal.ErrEmptyDescription
	}

	s.Draft.Description = text
	s.Step = StepDealReady
	return nil
}
