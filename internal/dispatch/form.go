package dispatch

import (
	"context"
	"errors"

	"github.com/suspectuso/otc-escrow/internal/deal"
	"github.com/suspectuso/otc-escrow/internal/forms"
	"github.com/suspectuso/otc-escrow/internal/i18n"
	"github.com/suspectuso/otc-escrow/internal/profile"
)

// createDeal opens the deal form once the caller has saved any requisite
func (r *Router) createDeal(ctx context.Context, c *call) []Result {
	wallet, card, err := r.svc.Profile.Requisites(ctx, c.CallerID)
	if err != nil {
		return r.fail(c, "load requisites", err)
	}
	if wallet == "" && card == "" {
		return []Result{c.screen("need_requisites", nil, RequisitesKeyboard())}
	}

	if err := r.svc.Forms.Set(ctx, c.CallerID, forms.StartDeal()); err != nil {
		return r.fail(c, "start deal form", err)
	}
	return []Result{c.screen("choose_payment", nil, MethodKeyboard())}
}

// loadDealForm returns the caller's deal form, or nil when there is none
func (r *Router) loadDealForm(ctx context.Context, c *call) (*forms.State, error) {
	st, err := r.svc.Forms.Get(ctx, c.CallerID)
	if err != nil || st == nil || !st.InDealForm() {
		return nil, err
	}
	return st, nil
}

func (r *Router) chooseMethod(ctx context.Context, c *call, method string) []Result {
	st, err := r.loadDealForm(ctx, c)
	if err != nil {
		return r.fail(c, "load form", err)
	}
	if st == nil || st.Step != forms.StepDealMethod {
		// a stale keyboard from an abandoned form
		return []Result{r.mainMenu(ctx, c)}
	}

	wallet, card, err := r.svc.Profile.Requisites(ctx, c.CallerID)
	if err != nil {
		return r.fail(c, "load requisites", err)
	}
	if !deal.HasRequisites(wallet, card, method) {
		key := "need_requisites"
		switch method {
		case deal.MethodTonWallet:
			key = "no_wallet"
		case deal.MethodBankCard:
			key = "no_card"
		}
		return []Result{c.result(key, nil, RequisitesKeyboard())}
	}

	if err := st.ChooseMethod(method); err != nil {
		return nil
	}
	if err := r.svc.Forms.Set(ctx, c.CallerID, st); err != nil {
		return r.fail(c, "save form", err)
	}
	return []Result{c.screen("enter_amount", nil, BackKeyboard())}
}

func (r *Router) chooseCurrency(ctx context.Context, c *call, code string) []Result {
	st, err := r.loadDealForm(ctx, c)
	if err != nil {
		return r.fail(c, "load form", err)
	}
	if st == nil || st.Step != forms.StepDealCurrency {
		return []Result{r.mainMenu(ctx, c)}
	}
	return r.applyCurrency(ctx, c, st, code)
}

func (r *Router) applyCurrency(ctx context.Context, c *call, st *forms.State, code string) []Result {
	if err := st.ChooseCurrency(code); err != nil {
		return []Result{c.result("invalid_currency", nil, CurrencyKeyboard())}
	}
	if err := r.svc.Forms.Set(ctx, c.CallerID, st); err != nil {
		return r.fail(c, "save form", err)
	}
	return []Result{c.screen("enter_description", i18n.Vars{
		"amount":   st.Draft.Amount,
		"currency": st.Draft.Currency,
	}, BackKeyboard())}
}

// text answers the step the caller is parked on. Text outside a form is
// ignored.
func (r *Router) text(ctx context.Context, c *call) []Result {
	st, err := r.svc.Forms.Get(ctx, c.CallerID)
	if err != nil {
		return r.fail(c, "load form", err)
	}
	if st == nil {
		return nil
	}

	switch st.Step {
	case forms.StepWallet:
		return r.saveWallet(ctx, c)
	case forms.StepCard:
		return r.saveCard(ctx, c)
	case forms.StepDealMethod:
		return []Result{c.result("choose_payment", nil, MethodKeyboard())}
	case forms.StepDealAmount:
		if err := st.EnterAmount(c.Text); err != nil {
			return []Result{c.result("invalid_amount", nil, BackKeyboard())}
		}
		if err := r.svc.Forms.Set(ctx, c.CallerID, st); err != nil {
			return r.fail(c, "save form", err)
		}
		return []Result{c.result("choose_currency", nil, CurrencyKeyboard())}
	case forms.StepDealCurrency:
		return r.applyCurrency(ctx, c, st, c.Text)
	case forms.StepDealDescription:
		return r.finishDeal(ctx, c, st)
	}
	return r.adminText(ctx, c, st)
}

func (r *Router) saveWallet(ctx context.Context, c *call) []Result {
	if _, err := r.svc.Profile.SetWallet(ctx, c.CallerID, c.Text); err != nil {
		if errors.Is(err, profile.ErrInvalidWallet) {
			return []Result{c.result("wallet_invalid", nil, BackKeyboard())}
		}
		return r.fail(c, "save wallet", err)
	}
	return r.requisiteSaved(ctx, c, "wallet_saved")
}

func (r *Router) saveCard(ctx context.Context, c *call) []Result {
	if _, err := r.svc.Profile.SetCard(ctx, c.CallerID, c.Text); err != nil {
		if errors.Is(err, profile.ErrInvalidCard) {
			return []Result{c.result("card_invalid", nil, BackKeyboard())}
		}
		return r.fail(c, "save card", err)
	}
	return r.requisiteSaved(ctx, c, "card_saved")
}

func (r *Router) requisiteSaved(ctx context.Context, c *call, key string) []Result {
	if err := r.svc.Forms.Clear(ctx, c.CallerID); err != nil {
		r.log.Warn("clear form", "user_id", c.CallerID, "error", err)
	}
	return append([]Result{r.temp(c, key)}, r.requisitesMenu(ctx, c)...)
}

func (r *Router) finishDeal(ctx context.Context, c *call, st *forms.State) []Result {
	if err := st.EnterDescription(c.Text); err != nil {
		return []Result{c.result("empty_description", nil, BackKeyboard())}
	}

	draft := st.Draft
	if err := r.svc.Forms.Clear(ctx, c.CallerID); err != nil {
		r.log.Warn("clear form", "user_id", c.CallerID, "error", err)
	}

	d, err := r.svc.Deals.CreateDeal(ctx, c.CallerID, draft.Method, draft.Amount, draft.Currency, draft.Description)
	switch {
	case errors.Is(err, deal.ErrMissingRequisites):
		return []Result{c.result("need_requisites", nil, RequisitesKeyboard())}
	case err != nil:
		return r.fail(c, "create deal", err)
	}

	return []Result{c.result("deal_created", i18n.Vars{
		"amount":      d.Amount.String(),
		"currency":    d.Currency,
		"description": d.Description,
		"deal_link":   deal.Link(r.opts.BotUsername, d.MemoCode),
		"memo_code":   d.MemoCode,
	}, BackKeyboard())}
}
