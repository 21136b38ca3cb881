package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"github.com/diamondsy/diamond-store/internal/catalog"
	"github.com/diamondsy/diamond-store/internal/config"
	"github.com/diamondsy/diamond-store/internal/notifier"
	"github.com/diamondsy/diamond-store/internal/storage"
)

// Payment methods offered for deposits
const (
	MethodSyriatel    = "syriatel_cash"
	MethodUSDTCoinex  = "usdt_coinex"
	MethodUSDTCWallet = "usdt_cwallet"
	MethodUSDPayeer   = "usd_payeer"
	MethodUSDTPEB20   = "usdt_peb20"
)

// Bot wraps the telegram bot with handlers
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	settings *config.Settings
	storage  *storage.Storage
	catalog  *catalog.Catalog
	states   *StateManager
	notify   *notifier.Notifier
	log      *slog.Logger
}

// New creates a new telegram bot
func New(cfg *config.Config, settings *config.Settings, store *storage.Storage, cat *catalog.Catalog, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		cfg:      cfg,
		settings: settings,
		storage:  store,
		catalog:  cat,
		states:   NewStateManager(),
		log:      log,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot
	b.notify = notifier.New(cfg, log, b.SendNotification)

	// Register command handlers
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start ", bot.MatchTypePrefix, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, b.helpHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, b.cancelHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypeExact, b.adminHandler)

	return b, nil
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// --- Commands ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := update.Message.From
	if err := b.storage.UpsertUser(user.ID, user.Username, user.FirstName); err != nil {
		b.log.Error("upsert user", "user_id", user.ID, "error", err)
		b.notify.ReportError(ctx, err, user.ID)
		b.sendMessage(ctx, update.Message.Chat.ID, "❌ Something went wrong. Please try again later.", nil)
		return
	}

	if !b.ensureActive(ctx, user.ID, update.Message.Chat.ID) {
		return
	}

	name := user.FirstName
	if name == "" {
		name = user.Username
	}

	text := fmt.Sprintf(
		"👋 Welcome, <b>%s</b>!\n\n"+
			"💎 Diamond Store — top-up credit for games and apps at the best rates.\n\n"+
			"💱 Current rates:\n"+
			"• USD: <b>%s</b> SYP\n"+
			"• USDT: <b>%s</b> SYP\n\n"+
			"Pick an option 👇",
		name,
		b.settings.Get(config.KeyUSDRate),
		b.settings.Get(config.KeyUSDTRate),
	)

	b.sendMessage(ctx, update.Message.Chat.ID, text, MainKeyboard(b.cfg.IsAdmin(user.ID)))
}

func (b *Bot) helpHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "💎 <b>Diamond Store</b>\n\n" +
		"/start — main menu\n" +
		"/help — this message\n" +
		"/cancel — abort the current operation"
	if b.cfg.SupportUsername != "" {
		text += fmt.Sprintf("\n\n💬 Support: @%s", b.cfg.SupportUsername)
	}

	b.sendMessage(ctx, update.Message.Chat.ID, text, nil)
}

func (b *Bot) cancelHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	b.states.Clear(update.Message.Chat.ID)
	b.sendMessage(ctx, update.Message.Chat.ID,
		"✅ Operation cancelled.",
		MainKeyboard(b.cfg.IsAdmin(update.Message.From.ID)),
	)
}

func (b *Bot) adminHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	if !b.cfg.IsAdmin(update.Message.From.ID) {
		b.sendMessage(ctx, update.Message.Chat.ID, "🚫 You are not an administrator.", nil)
		return
	}

	b.sendMessage(ctx, update.Message.Chat.ID, "⚙️ <b>Admin panel</b>", AdminKeyboard())
}

// --- Free-text dispatch ---

// defaultHandler routes a free-text message under the chat's pending flow.
// The flow is cleared before handling: one message resolves or abandons it,
// success or not.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	flow := b.states.Get(chatID)
	if flow == nil {
		return
	}
	b.states.Clear(chatID)

	if err := b.storage.TouchUser(update.Message.From.ID); err != nil {
		b.log.Warn("touch user", "user_id", update.Message.From.ID, "error", err)
	}

	switch f := flow.(type) {
	case BanUserFlow:
		b.handleBanInput(ctx, update.Message, text, storage.UserBanned)
	case UnbanUserFlow:
		b.handleBanInput(ctx, update.Message, text, storage.UserActive)
	case ModifyBalanceFlow:
		b.handleModifyBalanceInput(ctx, update.Message, text)
	case EditRateFlow:
		b.handleRateInput(ctx, update.Message, text, f)
	case EditSyriatelFlow:
		b.handleSyriatelInput(ctx, update.Message, text)
	case EditWalletsFlow:
		b.handleWalletsInput(ctx, update.Message, text)
	case EditPriceFlow:
		b.handlePriceInput(ctx, update.Message, text, f)
	case DepositAmountFlow:
		b.handleDepositAmount(ctx, update.Message, text, f)
	case DepositProofFlow:
		b.handleDepositProof(ctx, update.Message, text, f)
	case RejectReasonFlow:
		b.handleRejectReason(ctx, update.Message, text, f)
	case GameAccountFlow:
		b.handleGameAccount(ctx, update.Message, text, f)
	default:
		b.log.Warn("unknown flow", "flow", flow.flowName(), "chat_id", chatID)
	}
}

// --- Callbacks ---

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	userID := cb.From.ID
	data := cb.Data

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	// Admin-only surfaces
	if strings.HasPrefix(data, "admin") || strings.HasPrefix(data, "tx_") || strings.HasPrefix(data, "order_") {
		if !b.cfg.IsAdmin(userID) {
			b.log.Warn("admin callback from non-admin", "data", data, "user_id", userID)
			return
		}
		b.adminCallback(ctx, cb, data)
		return
	}

	switch {
	case data == "back":
		b.states.Clear(chatOf(cb))
		b.editMessage(ctx, cb.Message, "Pick an option 👇", MainKeyboard(b.cfg.IsAdmin(userID)))
	case data == "cancel":
		b.states.Clear(chatOf(cb))
		b.editMessage(ctx, cb.Message, "✅ Operation cancelled.", MainKeyboard(b.cfg.IsAdmin(userID)))
	case data == "shop":
		b.editMessage(ctx, cb.Message, "🏪 <b>Shop</b>\n\nPick a section:", ShopKeyboard())
	case data == "games":
		b.showProducts(ctx, cb, storage.ProductGame)
	case data == "apps":
		b.showProducts(ctx, cb, storage.ProductApp)
	case strings.HasPrefix(data, "product:"):
		b.showPackages(ctx, cb, data)
	case strings.HasPrefix(data, "buy:"):
		b.handleBuy(ctx, cb, data)
	case data == "charge":
		b.editMessage(ctx, cb.Message, "💳 <b>Add funds</b>\n\nPick a payment method:", PaymentMethodsKeyboard())
	case strings.HasPrefix(data, "pay:"):
		b.handlePayMethod(ctx, cb, strings.TrimPrefix(data, "pay:"))
	case data == "balance":
		b.showBalance(ctx, cb)
	case data == "orders":
		b.showOrders(ctx, cb)
	default:
		b.log.Warn("unknown callback", "data", data, "user_id", userID)
	}
}

func (b *Bot) showProducts(ctx context.Context, cb *models.CallbackQuery, kind storage.ProductKind) {
	products := b.catalog.List(kind)
	if len(products) == 0 {
		b.editMessage(ctx, cb.Message, "❌ Nothing here yet.", ShopKeyboard())
		return
	}

	title := "🎮 <b>Games</b>"
	if kind == storage.ProductApp {
		title = "📱 <b>Apps</b>"
	}
	b.editMessage(ctx, cb.Message, title+"\n\nPick a product:", ProductsKeyboard(kind, products))
}

func (b *Bot) showPackages(ctx context.Context, cb *models.CallbackQuery, data string) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 {
		return
	}
	kind := storage.ProductKind(parts[1])

	product, ok := b.catalog.Product(kind, parts[2])
	if !ok {
		b.editMessage(ctx, cb.Message, "❌ Product not found.", ShopKeyboard())
		return
	}

	text := fmt.Sprintf("%s <b>%s</b>\n\nPick a package:", product.Icon, product.Name)
	b.editMessage(ctx, cb.Message, text, PackagesKeyboard(kind, product))
}

func (b *Bot) handleBuy(ctx context.Context, cb *models.CallbackQuery, data string) {
	if !b.ensureActive(ctx, cb.From.ID, chatOf(cb)) {
		return
	}

	parts := strings.SplitN(data, ":", 4)
	if len(parts) != 4 {
		return
	}
	kind := storage.ProductKind(parts[1])

	pkg, ok := b.catalog.Package(kind, parts[2], parts[3])
	if !ok {
		b.editMessage(ctx, cb.Message, "❌ Package not found.", ShopKeyboard())
		return
	}

	b.states.Begin(chatOf(cb), GameAccountFlow{Kind: kind, ProductID: parts[2], PackageID: parts[3]})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("🆔 Send the account ID to top up with <b>%s</b> (%s SYP):", pkg.Label, pkg.Price.String()),
		CancelKeyboard(),
	)
}

func (b *Bot) handlePayMethod(ctx context.Context, cb *models.CallbackQuery, method string) {
	if !b.ensureActive(ctx, cb.From.ID, chatOf(cb)) {
		return
	}

	currency, _ := methodCurrency(method)
	if currency == "" {
		b.log.Warn("unknown payment method", "method", method)
		return
	}

	b.states.Begin(chatOf(cb), DepositAmountFlow{Method: method})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("💵 Enter the amount in <b>%s</b> you want to deposit:", currency),
		CancelKeyboard(),
	)
}

func (b *Bot) showBalance(ctx context.Context, cb *models.CallbackQuery) {
	user, err := b.storage.GetUser(cb.From.ID)
	if err != nil {
		b.log.Error("get user", "user_id", cb.From.ID, "error", err)
		b.editMessage(ctx, cb.Message, "❌ Could not load your balance.", BackKeyboard())
		return
	}

	text := fmt.Sprintf("💰 Your balance: <b>%s SYP</b>", user.Balance.String())
	b.editMessage(ctx, cb.Message, text, BackKeyboard())
}

func (b *Bot) showOrders(ctx context.Context, cb *models.CallbackQuery) {
	orders, err := b.storage.ListOrders(cb.From.ID)
	if err != nil {
		b.log.Error("list orders", "user_id", cb.From.ID, "error", err)
		b.editMessage(ctx, cb.Message, "❌ Could not load your orders.", BackKeyboard())
		return
	}

	if len(orders) == 0 {
		b.editMessage(ctx, cb.Message, "📦 You have no orders yet.", BackKeyboard())
		return
	}

	var lines []string
	lines = append(lines, "📦 <b>Your orders:</b>\n")
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("• #%d %s %s — %s SYP (%s)",
			o.ID, o.ProductID, o.Amount, o.Price.String(), o.Status))
	}

	b.editMessage(ctx, cb.Message, strings.Join(lines, "\n"), BackKeyboard())
}

// --- User flows ---

func (b *Bot) handleDepositAmount(ctx context.Context, msg *models.Message, text string, flow DepositAmountFlow) {
	original, err := decimal.NewFromString(strings.Replace(text, ",", ".", 1))
	if err != nil || !original.IsPositive() {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Enter a positive number, e.g. <code>25</code> or <code>10.5</code>.", MainKeyboard(b.cfg.IsAdmin(msg.From.ID)))
		return
	}

	currency, rateKey := methodCurrency(flow.Method)

	amount := original
	if rateKey != "" {
		rate, err := b.settings.Rate(rateKey)
		if err != nil {
			b.log.Error("parse rate", "key", rateKey, "error", err)
			b.notify.ReportError(ctx, err, msg.From.ID)
			b.sendMessage(ctx, msg.Chat.ID, "❌ Something went wrong. Please try again later.", MainKeyboard(b.cfg.IsAdmin(msg.From.ID)))
			return
		}
		amount = original.Mul(rate)
	}

	b.states.Begin(msg.Chat.ID, DepositProofFlow{
		Method:         flow.Method,
		Amount:         amount,
		OriginalAmount: original,
		Currency:       currency,
	})

	text = fmt.Sprintf(
		"💳 Send <b>%s %s</b> to:\n\n<code>%s</code>\n\n"+
			"You will be credited <b>%s SYP</b>.\n\n"+
			"Then reply with the transfer reference (TXID or operation number):",
		original.String(), currency, b.methodDestination(flow.Method),
		amount.String(),
	)
	b.sendMessage(ctx, msg.Chat.ID, text, CancelKeyboard())
}

func (b *Bot) handleDepositProof(ctx context.Context, msg *models.Message, proof string, flow DepositProofFlow) {
	userID := msg.From.ID

	txID, err := b.storage.CreateTransaction(userID, flow.Amount, storage.TxDeposit,
		flow.Method, proof, flow.OriginalAmount, flow.Currency)
	if err != nil {
		b.log.Error("create transaction", "user_id", userID, "error", err)
		b.notify.ReportError(ctx, err, userID)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Could not submit your deposit. Please try again.", MainKeyboard(b.cfg.IsAdmin(msg.From.ID)))
		return
	}

	b.log.Info("deposit submitted",
		"tx_id", txID,
		"user_id", userID,
		"method", flow.Method,
		"amount", flow.Amount.String(),
	)

	user, err := b.storage.GetUser(userID)
	if err == nil {
		tx, err := b.storage.GetTransaction(txID)
		if err == nil {
			b.notify.DepositSubmitted(ctx, user, tx)
		}
	}

	b.sendMessage(ctx, msg.Chat.ID,
		"✅ Deposit submitted!\n\nAn administrator will review it shortly. "+
			"Pending deposits expire after 24 hours.",
		MainKeyboard(b.cfg.IsAdmin(userID)),
	)
}

func (b *Bot) handleGameAccount(ctx context.Context, msg *models.Message, account string, flow GameAccountFlow) {
	userID := msg.From.ID

	product, ok := b.catalog.Product(flow.Kind, flow.ProductID)
	if !ok {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Product not found.", MainKeyboard(b.cfg.IsAdmin(msg.From.ID)))
		return
	}
	pkg, ok := b.catalog.Package(flow.Kind, flow.ProductID, flow.PackageID)
	if !ok {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Package not found.", MainKeyboard(b.cfg.IsAdmin(msg.From.ID)))
		return
	}

	orderID, err := b.storage.CreateOrder(userID, flow.Kind, flow.ProductID, pkg.Label, pkg.Price)
	if err != nil {
		b.log.Error("create order", "user_id", userID, "error", err)
		b.notify.ReportError(ctx, err, userID)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Could not place your order. Please try again.", MainKeyboard(b.cfg.IsAdmin(msg.From.ID)))
		return
	}

	b.log.Info("order placed",
		"order_id", orderID,
		"user_id", userID,
		"product", flow.ProductID,
		"package", flow.PackageID,
	)

	if user, err := b.storage.GetUser(userID); err == nil {
		if order, err := b.storage.GetOrder(orderID); err == nil {
			b.notify.OrderSubmitted(ctx, user, order, product.Name, account)
		}
	}

	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ Order <b>#%d</b> placed!\n\n%s will be delivered to <code>%s</code> after review. "+
			"Your balance is charged only when the order is completed.",
			orderID, pkg.Label, account),
		MainKeyboard(b.cfg.IsAdmin(userID)),
	)
}

// --- Helpers ---

// ensureActive refuses banned and suspended users
func (b *Bot) ensureActive(ctx context.Context, userID, chatID int64) bool {
	user, err := b.storage.GetUser(userID)
	if err != nil {
		b.log.Error("get user", "user_id", userID, "error", err)
		return false
	}
	if user.Status != storage.UserActive {
		b.sendMessage(ctx, chatID, "🚫 Your account is blocked. Contact support.", nil)
		return false
	}
	return true
}

func methodCurrency(method string) (currency, rateKey string) {
	switch method {
	case MethodSyriatel:
		return "SYP", ""
	case MethodUSDPayeer:
		return "USD", config.KeyUSDRate
	case MethodUSDTCoinex, MethodUSDTCWallet, MethodUSDTPEB20:
		return "USDT", config.KeyUSDTRate
	}
	return "", ""
}

func (b *Bot) methodDestination(method string) string {
	switch method {
	case MethodSyriatel:
		return strings.Join(b.settings.SyriatelNumbers(), "\n")
	case MethodUSDTCoinex:
		return b.settings.Get(config.KeyWalletCoinex)
	case MethodUSDTCWallet:
		return b.settings.Get(config.KeyWalletCWallet)
	case MethodUSDPayeer:
		return b.settings.Get(config.KeyWalletPayeer)
	case MethodUSDTPEB20:
		return b.settings.Get(config.KeyWalletPEB20)
	}
	return ""
}

func chatOf(cb *models.CallbackQuery) int64 {
	if cb.Message.Message != nil {
		return cb.Message.Message.Chat.ID
	}
	return cb.From.ID
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}

// SendNotification sends a message to an arbitrary chat
func (b *Bot) SendNotification(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	return err
}
