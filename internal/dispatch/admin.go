package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/suspectuso/otc-escrow/internal/admin"
	"github.com/suspectuso/otc-escrow/internal/deal"
	"github.com/suspectuso/otc-escrow/internal/forms"
	"github.com/suspectuso/otc-escrow/internal/i18n"
	"github.com/suspectuso/otc-escrow/internal/profile"
	"github.com/suspectuso/otc-escrow/internal/storage"
)

// adminCommand handles the operator commands. Non-admins get no answer at
// all, exactly as for a command that does not exist.
func (r *Router) adminCommand(ctx context.Context, c *call) []Result {
	if !r.svc.Admin.IsAdmin(ctx, c.CallerID) {
		return nil
	}

	switch c.Name {
	case "admin":
		if err := r.svc.Forms.Clear(ctx, c.CallerID); err != nil {
			r.log.Warn("clear form", "user_id", c.CallerID, "error", err)
		}
		return []Result{c.result("admin_panel", nil, AdminKeyboard())}
	case "ban":
		if len(c.Args) == 0 {
			return r.usage(c, "/ban <user_id> [reason]")
		}
		return r.ban(ctx, c, c.Args[0], strings.Join(c.Args[1:], " "))
	case "unban":
		if len(c.Args) == 0 {
			return r.usage(c, "/unban <user_id>")
		}
		return r.unban(ctx, c, c.Args[0])
	case "addadmin":
		return r.changeRole(ctx, c, "/addadmin <user_id>", "role_admins", true, r.svc.Admin.GrantAdmin)
	case "deladmin":
		return r.changeRole(ctx, c, "/deladmin <user_id>", "role_admins", false, r.svc.Admin.RevokeAdmin)
	case "addspecial":
		return r.changeRole(ctx, c, "/addspecial <user_id>", "role_special_users", true, r.svc.Admin.GrantSpecial)
	case "delspecial":
		return r.changeRole(ctx, c, "/delspecial <user_id>", "role_special_users", false, r.svc.Admin.RevokeSpecial)
	case "admins":
		return r.listRole(ctx, c, "role_admins", r.svc.Admin.Admins)
	case "specials":
		return r.listRole(ctx, c, "role_special_users", r.svc.Admin.SpecialUsers)
	case "dealstatus":
		return r.dealStatus(ctx, c)
	}
	return nil
}

func (r *Router) usage(c *call, usage string) []Result {
	return []Result{c.result("admin_usage", i18n.Vars{"usage": usage}, nil)}
}

// silent maps an authorization failure to no answer and anything else to
// the generic error
func (r *Router) silent(c *call, op string, err error) []Result {
	if errors.Is(err, admin.ErrUnauthorized) {
		return nil
	}
	return r.fail(c, op, err)
}

func (r *Router) ban(ctx context.Context, c *call, arg, reason string) []Result {
	userID, ok := admin.ParseUserID(arg)
	if !ok {
		return r.usage(c, "/ban <user_id> [reason]")
	}
	if err := r.svc.Admin.Ban(ctx, c.CallerID, userID, reason); err != nil {
		return r.silent(c, "ban user", err)
	}

	lang := i18n.DefaultLang
	if u, err := r.svc.Store.GetUser(ctx, userID); err == nil {
		lang = language(u)
	}
	return []Result{
		c.result("admin_banned", i18n.Vars{"user_id": arg}, AdminBackKeyboard()),
		{Kind: Reply, ChatID: userID, Lang: lang, Key: "banned"},
	}
}

func (r *Router) unban(ctx context.Context, c *call, arg string) []Result {
	userID, ok := admin.ParseUserID(arg)
	if !ok {
		return r.usage(c, "/unban <user_id>")
	}
	if err := r.svc.Admin.Unban(ctx, c.CallerID, userID); err != nil {
		return r.silent(c, "unban user", err)
	}
	return []Result{c.result("admin_unbanned", i18n.Vars{"user_id": arg}, AdminBackKeyboard())}
}

func (r *Router) changeRole(ctx context.Context, c *call, usage, roleKey string, grant bool,
	change func(ctx context.Context, actorID, userID int64) (bool, error)) []Result {
	if len(c.Args) == 0 {
		return r.usage(c, usage)
	}
	userID, ok := admin.ParseUserID(c.Args[0])
	if !ok {
		return r.usage(c, usage)
	}

	changed, err := change(ctx, c.CallerID, userID)
	if err != nil {
		return r.silent(c, "change role", err)
	}

	key := "admin_role_unchanged"
	switch {
	case changed && grant:
		key = "admin_role_granted"
	case changed:
		key = "admin_role_revoked"
	}
	return []Result{c.result(key, i18n.Vars{
		"user_id": c.Args[0],
		"role":    i18n.T(c.lang, roleKey, nil),
	}, nil)}
}

func (r *Router) listRole(ctx context.Context, c *call, roleKey string,
	list func(ctx context.Context, actorID int64) ([]int64, error)) []Result {
	ids, err := list(ctx, c.CallerID)
	if err != nil {
		return r.silent(c, "list role", err)
	}

	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, strconv.FormatInt(id, 10))
	}
	text := strings.Join(items, ", ")
	if text == "" {
		text = i18n.T(c.lang, "admin_empty", nil)
	}
	return []Result{c.result("admin_list", i18n.Vars{
		"role": i18n.T(c.lang, roleKey, nil),
		"list": text,
	}, nil)}
}

// dealStatus accepts either a deal ID or its memo code
func (r *Router) dealStatus(ctx context.Context, c *call) []Result {
	if len(c.Args) < 2 {
		return r.usage(c, "/dealstatus <deal_id|memo> <status>")
	}

	d, err := r.svc.Deals.Get(ctx, c.Args[0])
	if errors.Is(err, deal.ErrNotFound) {
		d, err = r.svc.Deals.GetByMemo(ctx, deal.NormalizeMemo(c.Args[0]))
	}
	if errors.Is(err, deal.ErrNotFound) {
		return []Result{c.result("deal_not_found", nil, nil)}
	}
	if err != nil {
		return r.fail(c, "load deal", err)
	}

	status := storage.DealStatus(strings.ToLower(c.Args[1]))
	err = r.svc.Admin.SetDealStatus(ctx, c.CallerID, d.ID, status)
	switch {
	case errors.Is(err, deal.ErrInvalidStatus):
		return []Result{c.result("admin_dealstatus_invalid", nil, nil)}
	case err != nil:
		return r.silent(c, "override deal status", err)
	}

	return []Result{c.result("admin_dealstatus_done", i18n.Vars{
		"deal_id": d.ID,
		"status":  string(status),
	}, nil)}
}

// adminButton handles "admin:<section>:<action>:<arg>" callbacks
func (r *Router) adminButton(ctx context.Context, c *call, data string) []Result {
	if !r.svc.Admin.IsAdmin(ctx, c.CallerID) {
		return nil
	}

	parts := strings.SplitN(data, ":", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	section, action := parts[0], parts[1]
	page, _ := strconv.Atoi(parts[2])

	switch section {
	case "panel":
		if err := r.svc.Forms.Clear(ctx, c.CallerID); err != nil {
			r.log.Warn("clear form", "user_id", c.CallerID, "error", err)
		}
		return []Result{c.screen("admin_panel", nil, AdminKeyboard())}
	case "users":
		return r.usersPage(ctx, c, page)
	case "deals":
		return r.dealsPage(ctx, c, page)
	case "stats":
		return r.stats(ctx, c)
	case "logs":
		return r.logs(ctx, c)
	case "system":
		if action == "backup" {
			return r.backup(ctx, c)
		}
	case "broadcast":
		if action == "allchats" {
			return r.await(ctx, c, forms.StepAdminBroadcastAll, "admin_broadcast_prompt", AdminBackKeyboard())
		}
		return r.await(ctx, c, forms.StepAdminBroadcast, "admin_broadcast_prompt", AdminBackKeyboard())
	case "search":
		return r.await(ctx, c, forms.StepAdminSearch, "admin_search_prompt", AdminBackKeyboard())
	case "ban":
		return r.await(ctx, c, forms.StepAdminBan, "admin_ban_prompt", AdminBackKeyboard())
	case "unban":
		return r.await(ctx, c, forms.StepAdminUnban, "admin_unban_prompt", AdminBackKeyboard())
	}

	r.log.Debug("unknown admin callback", "user_id", c.CallerID, "data", data)
	return nil
}

func (r *Router) usersPage(ctx context.Context, c *call, page int) []Result {
	users, err := r.svc.Admin.Users(ctx, c.CallerID, page)
	if err != nil {
		return r.silent(c, "list users", err)
	}
	return []Result{c.screen("admin_users", i18n.Vars{
		"page": strconv.Itoa(page + 1),
		"list": r.userLines(c, users),
	}, PagerKeyboard("users", page, len(users) == admin.PageSize))}
}

func (r *Router) dealsPage(ctx context.Context, c *call, page int) []Result {
	deals, err := r.svc.Admin.Deals(ctx, c.CallerID, page)
	if err != nil {
		return r.silent(c, "list deals", err)
	}

	lines := make([]string, 0, len(deals))
	for _, d := range deals {
		line := fmt.Sprintf("#%s · %s %s · %s · %d", d.MemoCode, d.Amount.String(), d.Currency, d.Status, d.CreatorID)
		if d.HasBuyer() {
			line += fmt.Sprintf(" → %d", *d.BuyerID)
		}
		lines = append(lines, line)
	}

	return []Result{c.screen("admin_deals", i18n.Vars{
		"page": strconv.Itoa(page + 1),
		"list": r.orEmpty(c, lines),
	}, PagerKeyboard("deals", page, len(deals) == admin.PageSize))}
}

func (r *Router) userLines(c *call, users []storage.User) string {
	lines := make([]string, 0, len(users))
	for _, u := range users {
		line := fmt.Sprintf("%d · %s · ✅ %d", u.ID, u.DisplayName(), u.SuccessfulDeals)
		if u.TonWallet != "" {
			line += " · " + profile.ShortAddr(profile.FriendlyAddr(u.TonWallet), 4)
		}
		if u.CardDetails != "" {
			line += " · " + profile.MaskCard(u.CardDetails)
		}
		if u.Banned {
			line += " · ⛔"
		}
		lines = append(lines, line)
	}
	return r.orEmpty(c, lines)
}

func (r *Router) orEmpty(c *call, lines []string) string {
	if len(lines) == 0 {
		return i18n.T(c.lang, "admin_empty", nil)
	}
	return strings.Join(lines, "\n")
}

func (r *Router) stats(ctx context.Context, c *call) []Result {
	st, err := r.svc.Admin.Stats(ctx, c.CallerID)
	if err != nil {
		return r.silent(c, "load stats", err)
	}
	return []Result{c.screen("admin_stats", i18n.Vars{
		"total_users":     strconv.Itoa(st.TotalUsers),
		"active_day":      strconv.Itoa(st.ActiveDay),
		"active_week":     strconv.Itoa(st.ActiveWeek),
		"total_deals":     strconv.Itoa(st.TotalDeals),
		"active_deals":    strconv.Itoa(st.ActiveDeals),
		"completed_deals": strconv.Itoa(st.CompletedDeals),
	}, AdminBackKeyboard())}
}

func (r *Router) logs(ctx context.Context, c *call) []Result {
	entries, err := r.svc.Admin.Logs(ctx, c.CallerID, admin.LogsPageSize)
	if err != nil {
		return r.silent(c, "load logs", err)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s · %d · %s · %s",
			e.CreatedAt.UTC().Format("2006-01-02 15:04"), e.ActorID, e.Action, e.Details))
	}
	return []Result{c.screen("admin_logs", i18n.Vars{"list": r.orEmpty(c, lines)}, AdminBackKeyboard())}
}

func (r *Router) backup(ctx context.Context, c *call) []Result {
	path, err := r.svc.Admin.Backup(ctx, c.CallerID)
	if err != nil {
		return r.silent(c, "backup database", err)
	}
	return []Result{c.result("admin_backup_done", i18n.Vars{"path": path}, AdminBackKeyboard())}
}

// adminText answers the admin prompts. A caller who lost admin rights while
// parked is dropped silently.
func (r *Router) adminText(ctx context.Context, c *call, st *forms.State) []Result {
	if err := r.svc.Forms.Clear(ctx, c.CallerID); err != nil {
		r.log.Warn("clear form", "user_id", c.CallerID, "error", err)
	}
	if !r.svc.Admin.IsAdmin(ctx, c.CallerID) {
		return nil
	}

	switch st.Step {
	case forms.StepAdminBroadcast, forms.StepAdminBroadcastAll:
		scope := admin.ScopeUsers
		if st.Step == forms.StepAdminBroadcastAll {
			scope = admin.ScopeAllChats
		}
		sent, failed, err := r.svc.Admin.Broadcast(ctx, c.CallerID, scope, c.Text)
		if err != nil {
			return r.silent(c, "broadcast", err)
		}
		return []Result{c.result("admin_broadcast_done", i18n.Vars{
			"sent":   strconv.Itoa(sent),
			"failed": strconv.Itoa(failed),
		}, AdminBackKeyboard())}
	case forms.StepAdminSearch:
		users, err := r.svc.Admin.SearchUsers(ctx, c.CallerID, strings.TrimSpace(c.Text))
		if err != nil {
			return r.silent(c, "search users", err)
		}
		return []Result{c.result("admin_search_result", i18n.Vars{"list": r.userLines(c, users)}, AdminBackKeyboard())}
	case forms.StepAdminBan:
		fields := strings.Fields(c.Text)
		if len(fields) == 0 {
			return r.usage(c, "<user_id> [reason]")
		}
		return r.ban(ctx, c, fields[0], strings.Join(fields[1:], " "))
	case forms.StepAdminUnban:
		fields := strings.Fields(c.Text)
		if len(fields) == 0 {
			return r.usage(c, "<user_id>")
		}
		return r.unban(ctx, c, fields[0])
	}
	return nil
}
