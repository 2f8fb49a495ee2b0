package dispatch

import (
	"fmt"

	"github.com/suspectuso/otc-escrow/internal/deal"
)

// Callback data
const (
	cbMenu       = "menu:main"
	cbRequisites = "menu:requisites"
	cbCreateDeal = "menu:create_deal"
	cbReferral   = "menu:referral"
	cbLanguage   = "menu:language"
	cbSupport    = "menu:support"
	cbWallet     = "req:wallet"
	cbCard       = "req:card"

	prefixMethod   = "method:"
	prefixCurrency = "currency:"
	prefixLang     = "lang:"
	prefixPay      = "pay:"
	prefixAdmin    = "admin:"
)

var currencyLabels = map[string]string{
	"RUB": "₽ RUB",
	"UAH": "₴ UAH",
	"KZT": "₸ KZT",
	"BYN": "Br BYN",
	"CNY": "¥ CNY",
	"KGS": "сом KGS",
	"USD": "$ USD",
	"TON": "💎 TON",
}

func adminCallback(section, action string, arg int) string {
	return fmt.Sprintf("%s%s:%s:%d", prefixAdmin, section, action, arg)
}

// MainKeyboard returns the main menu keyboard
func MainKeyboard(isAdmin bool) Keyboard {
	kb := Keyboard{
		{{Key: "btn_requisites", Callback: cbRequisites}},
		{{Key: "btn_create_deal", Callback: cbCreateDeal}},
		{{Key: "btn_referral", Callback: cbReferral}},
		{
			{Key: "btn_language", Callback: cbLanguage},
			{Key: "btn_support", Callback: cbSupport},
		},
	}
	if isAdmin {
		kb = append(kb, []Button{{Key: "btn_admin_panel", Callback: adminCallback("panel", "show", 0)}})
	}
	return kb
}

// BackKeyboard returns a single "back to menu" button
func BackKeyboard() Keyboard {
	return Keyboard{
		{{Key: "btn_back", Callback: cbMenu}},
	}
}

// RequisitesKeyboard returns the requisites management keyboard
func RequisitesKeyboard() Keyboard {
	return Keyboard{
		{{Key: "btn_wallet", Callback: cbWallet}},
		{{Key: "btn_card", Callback: cbCard}},
		{{Key: "btn_back", Callback: cbMenu}},
	}
}

// MethodKeyboard returns one button per payment method
func MethodKeyboard() Keyboard {
	kb := make(Keyboard, 0, len(deal.Methods)+1)
	for _, m := range deal.Methods {
		kb = append(kb, []Button{{Key: "btn_method_" + m, Callback: prefixMethod + m}})
	}
	return append(kb, []Button{{Key: "btn_back", Callback: cbMenu}})
}

// CurrencyKeyboard lays the offered currencies out three per row
func CurrencyKeyboard() Keyboard {
	var kb Keyboard
	var row []Button
	for _, code := range deal.Currencies {
		row = append(row, Button{Label: currencyLabels[code], Callback: prefixCurrency + code})
		if len(row) == 3 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return append(kb, []Button{{Key: "btn_back", Callback: cbMenu}})
}

// LanguageKeyboard returns the language picker
func LanguageKeyboard() Keyboard {
	return Keyboard{
		{
			{Label: "🇷🇺 Русский", Callback: prefixLang + "ru"},
			{Label: "🇺🇸 English", Callback: prefixLang + "en"},
		},
		{{Key: "btn_back", Callback: cbMenu}},
	}
}

// DealKeyboard is shown to the buyer under the deal details
func DealKeyboard(memo string) Keyboard {
	return Keyboard{
		{{Key: "btn_pay", Callback: prefixPay + memo}},
		{{Key: "btn_back", Callback: cbMenu}},
	}
}

// AdminKeyboard returns the admin panel
func AdminKeyboard() Keyboard {
	return Keyboard{
		{
			{Key: "btn_admin_users", Callback: adminCallback("users", "list", 0)},
			{Key: "btn_admin_deals", Callback: adminCallback("deals", "list", 0)},
		},
		{
			{Key: "btn_admin_stats", Callback: adminCallback("stats", "show", 0)},
			{Key: "btn_admin_broadcast", Callback: adminCallback("broadcast", "start", 0)},
		},
		{{Key: "btn_admin_broadcast_all", Callback: adminCallback("broadcast", "allchats", 0)}},
		{
			{Key: "btn_admin_backup", Callback: adminCallback("system", "backup", 0)},
			{Key: "btn_admin_logs", Callback: adminCallback("logs", "list", 0)},
		},
		{
			{Key: "btn_admin_search", Callback: adminCallback("search", "start", 0)},
			{Key: "btn_admin_ban", Callback: adminCallback("ban", "start", 0)},
			{Key: "btn_admin_unban", Callback: adminCallback("unban", "start", 0)},
		},
		{{Key: "btn_back", Callback: cbMenu}},
	}
}

// PagerKeyboard returns prev/next buttons for a paginated admin section
func PagerKeyboard(section string, page int, hasNext bool) Keyboard {
	var row []Button
	if page > 0 {
		row = append(row, Button{Key: "btn_prev", Callback: adminCallback(section, "list", page-1)})
	}
	if hasNext {
		row = append(row, Button{Key: "btn_next", Callback: adminCallback(section, "list", page+1)})
	}

	kb := Keyboard{}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return append(kb, []Button{{Key: "btn_admin_panel", Callback: adminCallback("panel", "show", 0)}})
}

// AdminBackKeyboard returns to the admin panel
func AdminBackKeyboard() Keyboard {
	return Keyboard{
		{{Key: "btn_admin_panel", Callback: adminCallback("panel", "show", 0)}},
	}
}
