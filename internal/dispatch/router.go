package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suspectuso/otc-escrow/internal/admin"
	"github.com/suspectuso/otc-escrow/internal/auth"
	"github.com/suspectuso/otc-escrow/internal/deal"
	"github.com/suspectuso/otc-escrow/internal/forms"
	"github.com/suspectuso/otc-escrow/internal/i18n"
	"github.com/suspectuso/otc-escrow/internal/profile"
	"github.com/suspectuso/otc-escrow/internal/referral"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

const topLimit = 10

// ReferralNotifier is told about every accepted referral
type ReferralNotifier interface {
	ReferralCredited(referrerID int64, referred *storage.User, bonus decimal.Decimal)
}

// Options holds the presentation settings of the router
type Options struct {
	BotUsername    string
	PaymentDetails string
	SupportContact string
	TempMessageTTL time.Duration
}

// Services are the collaborators the router drives
type Services struct {
	Store     *storage.Storage
	Auth      *auth.Service
	Profile   *profile.Service
	Referrals *referral.Ledger
	Deals     *deal.Engine
	Admin     *admin.Service
	Forms     forms.Store
	Notifier  ReferralNotifier
}

// Router turns inbound events into state changes and localisable results.
// An empty result means the event is ignored, which is also how
// unauthorized admin calls are answered.
type Router struct {
	opts Options
	svc  Services
	log  *slog.Logger
}

func New(opts Options, svc Services, log *slog.Logger) *Router {
	return &Router{opts: opts, svc: svc, log: log}
}

// call carries one event together with its resolved caller
type call struct {
	Event
	user *storage.User
	lang string
}

func (c *call) result(key string, vars i18n.Vars, kb Keyboard) Result {
	return Result{Kind: Reply, Lang: c.lang, Key: key, Vars: vars, Keyboard: kb}
}

// screen edits the pressed message for buttons and replies otherwise
func (c *call) screen(key string, vars i18n.Vars, kb Keyboard) Result {
	r := c.result(key, vars, kb)
	if c.Kind == KindButton {
		r.Kind = Edit
	}
	return r
}

// Handle routes one event. Banned callers are rejected before anything
// else is looked at.
func (r *Router) Handle(ctx context.Context, ev Event) []Result {
	if r.svc.Auth.IsBanned(ev.CallerID) {
		r.log.Debug("banned caller rejected", "user_id", ev.CallerID)
		return []Result{{Kind: Reply, Lang: i18n.DefaultLang, Key: "banned"}}
	}

	user, err := r.svc.Auth.ResolveOrCreateUser(ctx, ev.CallerID, ev.Username, ev.FirstName, ev.LastName)
	if err != nil {
		r.log.Error("resolve user", "user_id", ev.CallerID, "error", err)
		return []Result{{Kind: Reply, Lang: i18n.DefaultLang, Key: "command_error"}}
	}
	r.saveChat(ctx, ev)

	c := &call{Event: ev, user: user, lang: language(user)}
	switch ev.Kind {
	case KindCommand:
		return r.command(ctx, c)
	case KindButton:
		return r.button(ctx, c)
	default:
		return r.text(ctx, c)
	}
}

func (r *Router) saveChat(ctx context.Context, ev Event) {
	if ev.ChatID == 0 {
		return
	}

	title := ev.ChatTitle
	if title == "" {
		title = ev.Username
	}
	if title == "" {
		title = ev.FirstName
	}

	chat := storage.Chat{ID: ev.ChatID, Type: ev.ChatType, Title: title}
	if err := r.svc.Store.SaveChat(ctx, chat); err != nil {
		r.log.Warn("save chat", "chat_id", ev.ChatID, "error", err)
	}
}

func language(u *storage.User) string {
	if u == nil || u.Language == "" {
		return i18n.DefaultLang
	}
	return u.Language
}

// fail logs an infrastructure error and shows the generic error message
func (r *Router) fail(c *call, op string, err error) []Result {
	r.log.Error(op, "user_id", c.CallerID, "error", err)
	return []Result{c.result("command_error", nil, BackKeyboard())}
}

// --- Commands ---

func (r *Router) command(ctx context.Context, c *call) []Result {
	switch c.Name {
	case "start":
		return r.start(ctx, c)
	case "buy":
		if len(c.Args) == 0 {
			return []Result{c.result("buy_usage", nil, nil)}
		}
		return r.confirm(ctx, c, deal.NormalizeMemo(c.Args[0]))
	case "top":
		return r.top(ctx, c)
	case "setdeals":
		return r.setDeals(ctx, c)
	}
	return r.adminCommand(ctx, c)
}

func (r *Router) start(ctx context.Context, c *call) []Result {
	if err := r.svc.Forms.Clear(ctx, c.CallerID); err != nil {
		r.log.Warn("clear form", "user_id", c.CallerID, "error", err)
	}

	var out []Result
	if len(c.Args) > 0 {
		param := c.Args[0]
		if memo, ok := deal.ParseLink(param); ok {
			return r.openDeal(ctx, c, memo)
		}
		if referrerID, ok := referral.ParseLink(param); ok {
			out = append(out, r.joinReferral(ctx, c, referrerID)...)
		}
	}

	return append(out, r.mainMenu(ctx, c))
}

func (r *Router) mainMenu(ctx context.Context, c *call) Result {
	return c.screen("welcome", nil, MainKeyboard(r.svc.Auth.IsAdmin(ctx, c.CallerID)))
}

func (r *Router) temp(c *call, key string) Result {
	res := c.result(key, nil, nil)
	res.TTL = r.opts.TempMessageTTL
	return res
}

func (r *Router) joinReferral(ctx context.Context, c *call, referrerID int64) []Result {
	if referrerID == c.CallerID {
		return []Result{r.temp(c, "self_referral")}
	}

	accepted, err := r.svc.Referrals.Register(ctx, referrerID, c.CallerID)
	if err != nil {
		r.log.Error("register referral", "referrer_id", referrerID, "referred_id", c.CallerID, "error", err)
		return nil
	}
	if !accepted {
		return nil
	}

	r.svc.Notifier.ReferralCredited(referrerID, c.user, referral.Bonus)
	return []Result{r.temp(c, "ref_joined")}
}

// openDeal binds the caller as buyer and shows the payment instructions
func (r *Router) openDeal(ctx context.Context, c *call, memo string) []Result {
	d, err := r.svc.Deals.BindBuyer(ctx, memo, c.CallerID)
	switch {
	case errors.Is(err, deal.ErrNotFound):
		return []Result{c.result("deal_not_found", nil, BackKeyboard())}
	case errors.Is(err, deal.ErrSelfDeal):
		return []Result{c.result("self_deal", nil, BackKeyboard())}
	case errors.Is(err, deal.ErrBuyerConflict):
		return []Result{c.result("deal_taken", nil, BackKeyboard())}
	case errors.Is(err, deal.ErrNotActive):
		return []Result{c.result("deal_not_active", nil, BackKeyboard())}
	case err != nil:
		return r.fail(c, "bind buyer", err)
	}

	seller, err := r.svc.Store.GetUser(ctx, d.CreatorID)
	if err != nil {
		seller = &storage.User{ID: d.CreatorID}
	}

	details := r.opts.PaymentDetails
	if details == "" {
		details = i18n.T(c.lang, "not_set", nil)
	}

	return []Result{c.result("deal_info", i18n.Vars{
		"memo_code":        d.MemoCode,
		"creator_name":     seller.DisplayName(),
		"creator_id":       strconv.FormatInt(d.CreatorID, 10),
		"successful_deals": strconv.Itoa(seller.SuccessfulDeals),
		"description":      d.Description,
		"payment_details":  details,
		"amount":           d.Amount.String(),
		"currency":         d.Currency,
	}, DealKeyboard(d.MemoCode))}
}

// confirm completes the deal on behalf of the caller
func (r *Router) confirm(ctx context.Context, c *call, memo string) []Result {
	d, _, buyerCount, err := r.svc.Deals.ConfirmPayment(ctx, memo, c.CallerID)
	switch {
	case errors.Is(err, deal.ErrNotFound):
		return []Result{c.result("deal_not_found", nil, BackKeyboard())}
	case errors.Is(err, deal.ErrNotActive):
		return []Result{c.result("deal_not_active", nil, BackKeyboard())}
	case errors.Is(err, deal.ErrNotBuyer):
		key := "not_buyer"
		if existing, gerr := r.svc.Deals.GetByMemo(ctx, memo); gerr == nil && existing.CreatorID == c.CallerID {
			key = "own_deal_payment"
		}
		return []Result{c.result(key, nil, BackKeyboard())}
	case err != nil:
		return r.fail(c, "confirm payment", err)
	}

	return []Result{c.result("payment_confirmed_buyer", i18n.Vars{
		"amount":           d.Amount.String(),
		"currency":         d.Currency,
		"description":      d.Description,
		"successful_deals": strconv.Itoa(buyerCount),
	}, BackKeyboard())}
}

func (r *Router) top(ctx context.Context, c *call) []Result {
	users, err := r.svc.Store.TopUsers(ctx, topLimit)
	if err != nil {
		return r.fail(c, "top users", err)
	}
	if len(users) == 0 {
		return []Result{c.result("top_empty", nil, nil)}
	}

	lines := make([]string, 0, len(users))
	for i, u := range users {
		lines = append(lines, strconv.Itoa(i+1)+". "+u.DisplayName()+": "+strconv.Itoa(u.SuccessfulDeals))
	}
	return []Result{c.result("top_users", i18n.Vars{"list": strings.Join(lines, "\n")}, nil)}
}

// setDeals is open to special deal setters only, admin or not
func (r *Router) setDeals(ctx context.Context, c *call) []Result {
	if !r.svc.Auth.IsSpecialDealSetter(ctx, c.CallerID) {
		return nil
	}

	usage := []Result{c.result("admin_usage", i18n.Vars{"usage": "/setdeals <user_id> <count>"}, nil)}
	if len(c.Args) < 2 {
		return usage
	}
	userID, ok := admin.ParseUserID(c.Args[0])
	count, err := strconv.Atoi(c.Args[1])
	if !ok || err != nil || count < 0 {
		return usage
	}

	err = r.svc.Admin.SetSuccessfulDeals(ctx, c.CallerID, userID, count)
	switch {
	case errors.Is(err, admin.ErrUnauthorized):
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return []Result{c.result("admin_user_not_found", nil, nil)}
	case err != nil:
		return r.fail(c, "set successful deals", err)
	}

	return []Result{c.result("admin_setdeals_done", i18n.Vars{
		"user_id": strconv.FormatInt(userID, 10),
		"count":   strconv.Itoa(count),
	}, nil)}
}

// --- Buttons ---

func (r *Router) button(ctx context.Context, c *call) []Result {
	data := c.Name
	switch data {
	case cbMenu:
		if err := r.svc.Forms.Clear(ctx, c.CallerID); err != nil {
			r.log.Warn("clear form", "user_id", c.CallerID, "error", err)
		}
		return []Result{r.mainMenu(ctx, c)}
	case cbRequisites:
		return r.requisitesMenu(ctx, c)
	case cbCreateDeal:
		return r.createDeal(ctx, c)
	case cbReferral:
		return r.referralMenu(ctx, c)
	case cbLanguage:
		return []Result{c.screen("choose_language", nil, LanguageKeyboard())}
	case cbSupport:
		return []Result{c.screen("support_text", i18n.Vars{"support": r.opts.SupportContact}, BackKeyboard())}
	case cbWallet:
		return r.await(ctx, c, forms.StepWallet, "add_wallet", BackKeyboard())
	case cbCard:
		return r.await(ctx, c, forms.StepCard, "add_card", BackKeyboard())
	}

	switch {
	case strings.HasPrefix(data, prefixMethod):
		return r.chooseMethod(ctx, c, strings.TrimPrefix(data, prefixMethod))
	case strings.HasPrefix(data, prefixCurrency):
		return r.chooseCurrency(ctx, c, strings.TrimPrefix(data, prefixCurrency))
	case strings.HasPrefix(data, prefixLang):
		return r.setLanguage(ctx, c, strings.TrimPrefix(data, prefixLang))
	case strings.HasPrefix(data, prefixPay):
		return r.confirm(ctx, c, strings.TrimPrefix(data, prefixPay))
	case strings.HasPrefix(data, prefixAdmin):
		return r.adminButton(ctx, c, strings.TrimPrefix(data, prefixAdmin))
	}

	r.log.Debug("unknown callback", "user_id", c.CallerID, "data", data)
	return nil
}

// await parks the caller on a single-answer step and shows its prompt
func (r *Router) await(ctx context.Context, c *call, step forms.Step, key string, kb Keyboard) []Result {
	if err := r.svc.Forms.Set(ctx, c.CallerID, forms.Await(step)); err != nil {
		return r.fail(c, "park form", err)
	}
	return []Result{c.screen(key, nil, kb)}
}

func (r *Router) requisitesMenu(ctx context.Context, c *call) []Result {
	wallet, card, err := r.svc.Profile.Requisites(ctx, c.CallerID)
	if err != nil {
		return r.fail(c, "load requisites", err)
	}

	notSet := i18n.T(c.lang, "not_set", nil)
	if wallet == "" {
		wallet = notSet
	}
	if card == "" {
		card = notSet
	}

	return []Result{c.screen("requisites_menu", i18n.Vars{
		"ton_wallet":   wallet,
		"card_details": card,
	}, RequisitesKeyboard())}
}

func (r *Router) referralMenu(ctx context.Context, c *call) []Result {
	count, earned, err := r.svc.Referrals.Stats(ctx, c.CallerID)
	if err != nil {
		return r.fail(c, "referral stats", err)
	}

	link := "https://t.me/" + r.opts.BotUsername + "?start=" + referral.Link(c.CallerID)
	return []Result{c.screen("referral_text", i18n.Vars{
		"referral_link":  link,
		"referral_count": strconv.Itoa(count),
		"earned":         earned.String(),
	}, BackKeyboard())}
}

func (r *Router) setLanguage(ctx context.Context, c *call, lang string) []Result {
	if err := r.svc.Profile.SetLanguage(ctx, c.CallerID, lang); err != nil {
		if errors.Is(err, profile.ErrInvalidLanguage) {
			return nil
		}
		return r.fail(c, "set language", err)
	}

	c.lang = lang
	return []Result{r.temp(c, "language_changed"), r.mainMenu(ctx, c)}
}
