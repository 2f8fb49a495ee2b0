package i18n

var catalog = map[string]map[string]string{
	"ru": {
		// Buttons
		"btn_requisites":        "💰 Управление реквизитами",
		"btn_create_deal":       "🤝 Создать сделку",
		"btn_referral":          "👥 Реферальная система",
		"btn_language":          "🌍 Изменить язык",
		"btn_support":           "🛟 Поддержка",
		"btn_back":              "↩️ Вернуться в меню",
		"btn_wallet":            "💼 Добавить/изменить TON-кошелек",
		"btn_card":              "💳 Добавить/изменить карту",
		"btn_method_ton_wallet": "💎 На TON-кошелек",
		"btn_method_bank_card":  "💳 На карту",
		"btn_method_stars":      "⭐ Звезды",
		"btn_pay":               "✅ Я оплатил",
		"btn_prev":              "⬅️",
		"btn_next":              "➡️",

		"btn_admin_users":         "👥 Пользователи",
		"btn_admin_deals":         "🤝 Сделки",
		"btn_admin_stats":         "📊 Статистика",
		"btn_admin_broadcast":     "📢 Рассылка",
		"btn_admin_broadcast_all": "📡 Рассылка по всем чатам",
		"btn_admin_backup":        "🧰 Бэкап БД",
		"btn_admin_logs":          "📜 Логи (последние 20)",
		"btn_admin_search":        "🔎 Поиск пользователя",
		"btn_admin_ban":           "⛔ Забанить",
		"btn_admin_unban":         "♻️ Разбанить",
		"btn_admin_panel":         "🛡️ Админ-панель",

		// Messages
		"welcome": "🚀 <b>Добро пожаловать в OTC Escrow – надежный P2P-гарант</b>\n\n" +
			"💼 <b>Покупайте и продавайте что угодно – безопасно!</b>\n" +
			"От Telegram-подарков и NFT до токенов и фиата.\n\n" +
			"🔹 Удобное управление реквизитами\n" +
			"🔹 Реферальная система\n" +
			"🔹 Безопасные сделки с гарантией\n\n" +
			"Выберите нужный раздел ниже:",
		"banned":  "⛔ Вы заблокированы. Обратитесь в поддержку.",
		"not_set": "не указано",
		"requisites_menu": "📋 <b>Управление реквизитами</b>\n\n" +
			"💼 <b>TON-кошелек:</b> <code>{ton_wallet}</code>\n" +
			"💳 <b>Банковская карта:</b> <code>{card_details}</code>\n\n" +
			"👇 <b>Выберите действие:</b>",
		"add_wallet":      "💼 <b>Добавьте ваш TON-кошелек</b>\n\nОтправьте адрес кошелька (начинается с <code>UQ</code> или <code>EQ</code>):",
		"add_card":        "💳 <b>Добавьте ваши реквизиты</b>\n\nОтправьте реквизиты в формате:\n<code>Банк - Номер карты</code>",
		"wallet_saved":    "✅ <b>TON-кошелек успешно сохранен!</b>",
		"wallet_invalid":  "❌ <b>Неверный адрес!</b> TON-кошелек должен начинаться с <code>UQ</code> или <code>EQ</code>",
		"card_saved":      "✅ <b>Данные карты успешно сохранены!</b>",
		"card_invalid":    "❌ <b>Неверный формат!</b>\n\nИспользуйте: <code>Банк - Номер карты</code>",
		"need_requisites": "❌ <b>Сначала добавьте реквизиты перед созданием сделки!</b>",
		"no_wallet":       "❌ Сначала добавьте TON-кошелек в разделе «Управление реквизитами»!",
		"no_card":         "❌ Сначала добавьте данные карты в разделе «Управление реквизитами»!",

		"choose_payment":    "💸 <b>Выберите метод получения оплаты:</b>",
		"enter_amount":      "💰 <b>Введите сумму сделки:</b>\n\nПример: <code>100.5</code>",
		"invalid_amount":    "❌ <b>Неверная сумма!</b>\n\nВведите корректную сумму:",
		"choose_currency":   "🌍 <b>Выберите валюту для сделки:</b>",
		"invalid_currency":  "❌ <b>Выберите валюту кнопкой ниже.</b>",
		"enter_description": "📝 <b>Укажите, что вы предлагаете в этой сделке за {amount} {currency}:</b>\nПример: 10 Кепок и Пепе...",
		"empty_description": "❌ <b>Описание не может быть пустым.</b>",
		"deal_created": "✅ <b>Сделка создана!</b>\n\n" +
			"💰 <b>Сумма:</b> {amount} {currency}\n" +
			"📝 <b>Описание:</b> {description}\n\n" +
			"🔗 <b>Ссылка для покупателя:</b>\n{deal_link}\n\n" +
			"🔐 <b>Код мемо:</b> <code>#{memo_code}</code>\n\n" +
			"📤 <b>Поделитесь ссылкой с покупателем.</b>",

		"self_referral": "❌ <b>Вы не можете переходить по своей же реферальной ссылке!</b>",
		"ref_joined":    "✅ <b>Вы присоединились по реферальной ссылке!</b>",
		"referral_text": "👥 <b>Реферальная система</b>\n\n" +
			"🔗 <b>Ваша реферальная ссылка:</b>\n{referral_link}\n\n" +
			"📊 <b>Статистика:</b>\n" +
			"• 👥 Рефералов: {referral_count}\n" +
			"• 💰 Заработано: {earned} TON",
		"referral_bonus_notification": "🎉 Пользователь {username} присоединился по вашей реферальной ссылке! Вы получили +{bonus} TON",

		"self_deal":       "⛔ <b>Вы не можете участвовать в своей же сделке!</b>",
		"deal_taken":      "⛔ <b>У этой сделки уже есть покупатель.</b>",
		"deal_not_active": "❌ <b>Сделка уже закрыта.</b>",
		"deal_not_found":  "❌ <b>Сделка не найдена!</b>",
		"deal_info": "💳 <b>Информация о сделке #{memo_code}</b>\n\n" +
			"👤 <b>Вы покупатель в сделке.</b>\n" +
			"📌 <b>Продавец:</b> {creator_name} ({creator_id})\n" +
			"• <b>Успешные сделки:</b> {successful_deals}\n\n" +
			"• <b>Вы покупаете:</b>\n{description}\n\n" +
			"🏦 <b>Реквизиты для оплаты:</b>\n<code>{payment_details}</code>\n\n" +
			"💰 <b>Сумма к оплате:</b> {amount} {currency}\n" +
			"📝 <b>Комментарий к платежу (мемо):</b>\n<code>{memo_code}</code>\n\n" +
			"⚠️ <b>Проверьте данные перед оплатой. Комментарий (мемо) обязателен!</b>\n\n" +
			"После оплаты отправьте <code>/buy {memo_code}</code> или нажмите кнопку ниже.",
		"buyer_joined_seller": "👤 <b>Пользователь {username} присоединился к сделке #{memo_code}</b>",
		"buy_usage":           "❌ <b>Использование:</b> <code>/buy код_мемо</code>",
		"own_deal_payment":    "❌ <b>Вы не можете оплачивать свою сделку!</b>",
		"not_buyer":           "❌ <b>Подтвердить оплату может только покупатель этой сделки.</b>",
		"payment_confirmed_seller": "✅ <b>Оплата прошла успешно! Отправьте покупателю товар, и мы переведем вам деньги! 💰</b>\n\n" +
			"👤 <b>Покупатель:</b> {username}\n" +
			"💰 <b>Сумма:</b> {amount} {currency}\n" +
			"📝 <b>Товар:</b> {description}\n\n" +
			"📊 <b>Ваши успешные сделки:</b> {successful_deals}",
		"payment_confirmed_buyer": "✅ <b>Оплата по сделке прошла!</b>\n\n" +
			"<b>Ожидайте, пока продавец отправит товар/услугу.</b>\n\n" +
			"💰 <b>Сумма:</b> {amount} {currency}\n" +
			"📝 <b>Товар:</b> {description}\n\n" +
			"📊 <b>Ваши успешные сделки:</b> {successful_deals}",

		"choose_language":  "🌍 <b>Выбор языка</b>",
		"language_changed": "✅ <b>Язык успешно изменен!</b>",
		"support_text":     "🛟 <b>Поддержка</b>\n\nПо всем вопросам обращайтесь:\n👤 {support}\n\n⏰ <b>Мы доступны 24/7</b>",
		"top_users":        "🏆 <b>Лучшие продавцы</b>\n\n{list}",
		"top_empty":        "🏆 Пока нет завершенных сделок.",
		"command_error":    "❌ <b>Ошибка обработки команды</b>",

		// Admin
		"admin_panel":              "🛡️ <b>Админ-панель</b>",
		"admin_users":              "👥 <b>Пользователи</b> (стр. {page})\n\n{list}",
		"admin_deals":              "🤝 <b>Сделки</b> (стр. {page})\n\n{list}",
		"admin_empty":              "Пусто.",
		"admin_stats":              "📊 <b>Статистика</b>\n\n👥 Всего пользователей: {total_users}\n🟢 Активны за сутки: {active_day}\n📅 Активны за неделю: {active_week}\n\n🤝 Всего сделок: {total_deals}\n⏳ Активных: {active_deals}\n✅ Завершенных: {completed_deals}",
		"admin_broadcast_prompt":   "📢 Отправьте текст рассылки:",
		"admin_broadcast_done":     "📢 Рассылка завершена. Доставлено: {sent}, ошибок: {failed}",
		"admin_backup_done":        "🧰 Бэкап создан: <code>{path}</code>",
		"admin_logs":               "📜 <b>Последние действия</b>\n\n{list}",
		"admin_search_prompt":      "🔎 Отправьте ID, username или имя пользователя:",
		"admin_search_result":      "🔎 <b>Результаты поиска</b>\n\n{list}",
		"admin_ban_prompt":         "⛔ Отправьте ID пользователя и, при желании, причину:",
		"admin_unban_prompt":       "♻️ Отправьте ID пользователя для разбана:",
		"admin_banned":             "⛔ Пользователь {user_id} заблокирован.",
		"admin_unbanned":           "♻️ Пользователь {user_id} разблокирован.",
		"admin_usage":              "❌ Использование: <code>{usage}</code>",
		"admin_role_granted":       "✅ {user_id} добавлен в список «{role}».",
		"admin_role_revoked":       "✅ {user_id} удален из списка «{role}».",
		"admin_role_unchanged":     "ℹ️ Для {user_id} в списке «{role}» ничего не изменилось.",
		"admin_list":               "🛡️ <b>{role}</b>:\n{list}",
		"admin_setdeals_done":      "✅ У пользователя {user_id} теперь {count} успешных сделок.",
		"admin_dealstatus_done":    "✅ Статус сделки {deal_id}: {status}",
		"admin_dealstatus_invalid": "❌ Статус должен быть одним из: active, completed, cancelled, disputed",
		"admin_user_not_found":     "❌ Пользователь не найден.",
		"role_admins":              "Админы",
		"role_special_users":       "Спец-пользователи",
	},

	"en": {
		// Buttons
		"btn_requisites":        "💰 Manage requisites",
		"btn_create_deal":       "🤝 Create deal",
		"btn_referral":          "👥 Referral system",
		"btn_language":          "🌍 Change language",
		"btn_support":           "🛟 Support",
		"btn_back":              "↩️ Back to menu",
		"btn_wallet":            "💼 Add/change TON wallet",
		"btn_card":              "💳 Add/change card",
		"btn_method_ton_wallet": "💎 To TON wallet",
		"btn_method_bank_card":  "💳 To card",
		"btn_method_stars":      "⭐ Stars",
		"btn_pay":               "✅ I have paid",
		"btn_prev":              "⬅️",
		"btn_next":              "➡️",

		"btn_admin_users":         "👥 Users",
		"btn_admin_deals":         "🤝 Deals",
		"btn_admin_stats":         "📊 Statistics",
		"btn_admin_broadcast":     "📢 Broadcast",
		"btn_admin_broadcast_all": "📡 Broadcast to all chats",
		"btn_admin_backup":        "🧰 DB backup",
		"btn_admin_logs":          "📜 Logs (last 20)",
		"btn_admin_search":        "🔎 Find user",
		"btn_admin_ban":           "⛔ Ban",
		"btn_admin_unban":         "♻️ Unban",
		"btn_admin_panel":         "🛡️ Admin panel",

		// Messages
		"welcome": "🚀 <b>Welcome to OTC Escrow – a reliable P2P guarantor</b>\n\n" +
			"💼 <b>Buy and sell anything – safely!</b>\n" +
			"From Telegram gifts and NFTs to tokens and fiat.\n\n" +
			"🔹 Convenient requisites management\n" +
			"🔹 Referral system\n" +
			"🔹 Secure deals with a guarantee\n\n" +
			"Choose a section below:",
		"banned":  "⛔ You are banned. Please contact support.",
		"not_set": "not set",
		"requisites_menu": "📋 <b>Requisites</b>\n\n" +
			"💼 <b>TON wallet:</b> <code>{ton_wallet}</code>\n" +
			"💳 <b>Bank card:</b> <code>{card_details}</code>\n\n" +
			"👇 <b>Choose an action:</b>",
		"add_wallet":      "💼 <b>Add your TON wallet</b>\n\nSend your wallet address (starts with <code>UQ</code> or <code>EQ</code>):",
		"add_card":        "💳 <b>Add your card</b>\n\nSend the details as:\n<code>Bank - Card number</code>",
		"wallet_saved":    "✅ <b>TON wallet saved!</b>",
		"wallet_invalid":  "❌ <b>Invalid address!</b> A TON wallet must start with <code>UQ</code> or <code>EQ</code>",
		"card_saved":      "✅ <b>Card details saved!</b>",
		"card_invalid":    "❌ <b>Invalid format!</b>\n\nUse: <code>Bank - Card number</code>",
		"need_requisites": "❌ <b>Add your requisites before creating a deal!</b>",
		"no_wallet":       "❌ First add a TON wallet in the 'Manage requisites' section!",
		"no_card":         "❌ First add card details in the 'Manage requisites' section!",

		"choose_payment":    "💸 <b>Choose how you want to be paid:</b>",
		"enter_amount":      "💰 <b>Enter the deal amount:</b>\n\nExample: <code>100.5</code>",
		"invalid_amount":    "❌ <b>Invalid amount!</b>\n\nEnter a valid amount:",
		"choose_currency":   "🌍 <b>Choose the deal currency:</b>",
		"invalid_currency":  "❌ <b>Pick a currency with the buttons below.</b>",
		"enter_description": "📝 <b>Describe what you offer in this deal for {amount} {currency}:</b>\nExample: 10 Caps and Pepe...",
		"empty_description": "❌ <b>The description cannot be empty.</b>",
		"deal_created": "✅ <b>Deal created!</b>\n\n" +
			"💰 <b>Amount:</b> {amount} {currency}\n" +
			"📝 <b>Description:</b> {description}\n\n" +
			"🔗 <b>Link for the buyer:</b>\n{deal_link}\n\n" +
			"🔐 <b>Memo code:</b> <code>#{memo_code}</code>\n\n" +
			"📤 <b>Share the link with the buyer.</b>",

		"self_referral": "❌ <b>You cannot use your own referral link!</b>",
		"ref_joined":    "✅ <b>You joined via a referral link!</b>",
		"referral_text": "👥 <b>Referral system</b>\n\n" +
			"🔗 <b>Your referral link:</b>\n{referral_link}\n\n" +
			"📊 <b>Statistics:</b>\n" +
			"• 👥 Referrals: {referral_count}\n" +
			"• 💰 Earned: {earned} TON",
		"referral_bonus_notification": "🎉 User {username} joined via your referral link! You earned +{bonus} TON",

		"self_deal":       "⛔ <b>You cannot take part in your own deal!</b>",
		"deal_taken":      "⛔ <b>This deal already has a buyer.</b>",
		"deal_not_active": "❌ <b>The deal is already closed.</b>",
		"deal_not_found":  "❌ <b>Deal not found!</b>",
		"deal_info": "💳 <b>Deal #{memo_code}</b>\n\n" +
			"👤 <b>You are the buyer in this deal.</b>\n" +
			"📌 <b>Seller:</b> {creator_name} ({creator_id})\n" +
			"• <b>Successful deals:</b> {successful_deals}\n\n" +
			"• <b>You are buying:</b>\n{description}\n\n" +
			"🏦 <b>Payment details:</b>\n<code>{payment_details}</code>\n\n" +
			"💰 <b>Amount to pay:</b> {amount} {currency}\n" +
			"📝 <b>Payment comment (memo):</b>\n<code>{memo_code}</code>\n\n" +
			"⚠️ <b>Check the details before paying. The memo comment is mandatory!</b>\n\n" +
			"After paying send <code>/buy {memo_code}</code> or press the button below.",
		"buyer_joined_seller": "👤 <b>User {username} joined deal #{memo_code}</b>",
		"buy_usage":           "❌ <b>Usage:</b> <code>/buy memo_code</code>",
		"own_deal_payment":    "❌ <b>You cannot pay for your own deal!</b>",
		"not_buyer":           "❌ <b>Only the buyer of this deal can confirm the payment.</b>",
		"payment_confirmed_seller": "✅ <b>Payment received! Send the item to the buyer and we will transfer your money! 💰</b>\n\n" +
			"👤 <b>Buyer:</b> {username}\n" +
			"💰 <b>Amount:</b> {amount} {currency}\n" +
			"📝 <b>Item:</b> {description}\n\n" +
			"📊 <b>Your successful deals:</b> {successful_deals}",
		"payment_confirmed_buyer": "✅ <b>Payment for the deal went through!</b>\n\n" +
			"<b>Wait while the seller sends the item/service.</b>\n\n" +
			"💰 <b>Amount:</b> {amount} {currency}\n" +
			"📝 <b>Item:</b> {description}\n\n" +
			"📊 <b>Your successful deals:</b> {successful_deals}",

		"choose_language":  "🌍 <b>Language</b>",
		"language_changed": "✅ <b>Language changed!</b>",
		"support_text":     "🛟 <b>Support</b>\n\nFor any questions contact:\n👤 {support}\n\n⏰ <b>We are available 24/7</b>",
		"top_users":        "🏆 <b>Top sellers</b>\n\n{list}",
		"top_empty":        "🏆 No completed deals yet.",
		"command_error":    "❌ <b>Command processing error</b>",

		// Admin
		"admin_panel":              "🛡️ <b>Admin panel</b>",
		"admin_users":              "👥 <b>Users</b> (page {page})\n\n{list}",
		"admin_deals":              "🤝 <b>Deals</b> (page {page})\n\n{list}",
		"admin_empty":              "Empty.",
		"admin_stats":              "📊 <b>Statistics</b>\n\n👥 Total users: {total_users}\n🟢 Active today: {active_day}\n📅 Active this week: {active_week}\n\n🤝 Total deals: {total_deals}\n⏳ Active: {active_deals}\n✅ Completed: {completed_deals}",
		"admin_broadcast_prompt":   "📢 Send the broadcast text:",
		"admin_broadcast_done":     "📢 Broadcast finished. Delivered: {sent}, failed: {failed}",
		"admin_backup_done":        "🧰 Backup created: <code>{path}</code>",
		"admin_logs":               "📜 <b>Recent actions</b>\n\n{list}",
		"admin_search_prompt":      "🔎 Send a user ID, username or name:",
		"admin_search_result":      "🔎 <b>Search results</b>\n\n{list}",
		"admin_ban_prompt":         "⛔ Send the user ID and optionally a reason:",
		"admin_unban_prompt":       "♻️ Send the user ID to unban:",
		"admin_banned":             "⛔ User {user_id} banned.",
		"admin_unbanned":           "♻️ User {user_id} unbanned.",
		"admin_usage":              "❌ Usage: <code>{usage}</code>",
		"admin_role_granted":       "✅ {user_id} added to «{role}».",
		"admin_role_revoked":       "✅ {user_id} removed from «{role}».",
		"admin_role_unchanged":     "ℹ️ Nothing changed for {user_id} in «{role}».",
		"admin_list":               "🛡️ <b>{role}</b>:\n{list}",
		"admin_setdeals_done":      "✅ User {user_id} now has {count} successful deals.",
		"admin_dealstatus_done":    "✅ Deal {deal_id} status: {status}",
		"admin_dealstatus_invalid": "❌ Status must be one of: active, completed, cancelled, disputed",
		"admin_user_not_found":     "❌ User not found.",
		"role_admins":              "Admins",
		"role_special_users":       "Special users",
	},
}
