package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"github.com/diamondsy/diamond-store/internal/config"
	"github.com/diamondsy/diamond-store/internal/storage"
)

// adminCallback routes admin panel buttons and deposit/order review actions.
// The caller has already verified the principal is an administrator.
func (b *Bot) adminCallback(ctx context.Context, cb *models.CallbackQuery, data string) {
	chatID := chatOf(cb)

	switch {
	case data == "admin":
		b.states.Clear(chatID)
		b.editMessage(ctx, cb.Message, "⚙️ <b>Admin panel</b>", AdminKeyboard())
	case data == "admin:ban":
		b.states.Begin(chatID, BanUserFlow{})
		b.editMessage(ctx, cb.Message, "🚫 Send the ID of the user to ban:", CancelKeyboard())
	case data == "admin:unban":
		b.states.Begin(chatID, UnbanUserFlow{})
		b.editMessage(ctx, cb.Message, "✅ Send the ID of the user to unban:", CancelKeyboard())
	case data == "admin:balance":
		b.states.Begin(chatID, ModifyBalanceFlow{})
		b.editMessage(ctx, cb.Message,
			"💰 Send <code>&lt;user_id&gt; &lt;amount&gt;</code>.\nUse a negative amount to deduct.",
			CancelKeyboard(),
		)
	case data == "admin:rate:usd":
		b.states.Begin(chatID, EditRateFlow{RateKey: config.KeyUSDRate})
		b.editMessage(ctx, cb.Message, "💱 Send the new USD rate in SYP:", CancelKeyboard())
	case data == "admin:rate:usdt":
		b.states.Begin(chatID, EditRateFlow{RateKey: config.KeyUSDTRate})
		b.editMessage(ctx, cb.Message, "💱 Send the new USDT rate in SYP:", CancelKeyboard())
	case data == "admin:syriatel":
		b.states.Begin(chatID, EditSyriatelFlow{})
		b.editMessage(ctx, cb.Message, "📱 Send the new Syriatel Cash numbers, comma-separated:", CancelKeyboard())
	case data == "admin:wallets":
		b.states.Begin(chatID, EditWalletsFlow{})
		b.editMessage(ctx, cb.Message,
			"💼 Send the 4 wallets, comma-separated, in order: Coinex, CWallet, Payeer, BEP20.",
			CancelKeyboard(),
		)
	case data == "admin:prices":
		b.editMessage(ctx, cb.Message, "💲 <b>Edit prices</b>\n\nPick a section:", PriceSectionKeyboard())
	case data == "admin:prices:game":
		b.showPriceProducts(ctx, cb, storage.ProductGame)
	case data == "admin:prices:app":
		b.showPriceProducts(ctx, cb, storage.ProductApp)
	case strings.HasPrefix(data, "admin:product:"):
		b.showPricePackages(ctx, cb, data)
	case strings.HasPrefix(data, "admin:price:"):
		b.beginPriceEdit(ctx, cb, data)
	case strings.HasPrefix(data, "tx_ok:"):
		b.approveDeposit(ctx, cb, strings.TrimPrefix(data, "tx_ok:"))
	case strings.HasPrefix(data, "tx_no:"):
		b.states.Begin(chatID, RejectReasonFlow{TxID: strings.TrimPrefix(data, "tx_no:")})
		b.sendMessage(ctx, chatID, "📝 Send the rejection reason:", CancelKeyboard())
	case strings.HasPrefix(data, "order_ok:"):
		b.resolveOrder(ctx, cb, strings.TrimPrefix(data, "order_ok:"), storage.StatusCompleted)
	case strings.HasPrefix(data, "order_no:"):
		b.resolveOrder(ctx, cb, strings.TrimPrefix(data, "order_no:"), storage.StatusRejected)
	default:
		b.log.Warn("unknown admin callback", "data", data)
	}
}

func (b *Bot) showPriceProducts(ctx context.Context, cb *models.CallbackQuery, kind storage.ProductKind) {
	products := b.catalog.List(kind)
	if len(products) == 0 {
		b.editMessage(ctx, cb.Message, "❌ Nothing here yet.", PriceSectionKeyboard())
		return
	}
	b.editMessage(ctx, cb.Message, "💲 Pick a product:", PriceProductsKeyboard(kind, products))
}

func (b *Bot) showPricePackages(ctx context.Context, cb *models.CallbackQuery, data string) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) != 4 {
		return
	}
	kind := storage.ProductKind(parts[2])

	product, ok := b.catalog.Product(kind, parts[3])
	if !ok {
		b.editMessage(ctx, cb.Message, "❌ Product not found.", PriceSectionKeyboard())
		return
	}
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("💲 <b>%s</b>\n\nPick a package:", product.Name),
		PricePackagesKeyboard(kind, product),
	)
}

func (b *Bot) beginPriceEdit(ctx context.Context, cb *models.CallbackQuery, data string) {
	parts := strings.SplitN(data, ":", 5)
	if len(parts) != 5 {
		return
	}
	kind := storage.ProductKind(parts[2])

	pkg, ok := b.catalog.Package(kind, parts[3], parts[4])
	if !ok {
		b.editMessage(ctx, cb.Message, "❌ Package not found.", PriceSectionKeyboard())
		return
	}

	b.states.Begin(chatOf(cb), EditPriceFlow{Kind: kind, ProductID: parts[3], PackageID: parts[4]})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("✏️ <b>%s</b> currently costs <b>%s SYP</b>.\n\nSend the new price:", pkg.Label, pkg.Price.String()),
		CancelKeyboard(),
	)
}

// --- Admin flow input handlers ---

func (b *Bot) handleBanInput(ctx context.Context, msg *models.Message, text string, status storage.UserStatus) {
	adminID := msg.From.ID

	targetID, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Invalid user ID.", AdminKeyboard())
		return
	}

	if err := b.storage.SetUserStatus(targetID, status); err != nil {
		if errors.Is(err, storage.ErrUnknownUser) {
			b.sendMessage(ctx, msg.Chat.ID, "❌ No such user.", AdminKeyboard())
			return
		}
		b.log.Error("set user status", "user_id", targetID, "error", err)
		b.notify.ReportError(ctx, err, adminID)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Update failed.", AdminKeyboard())
		return
	}

	action, reply := "ban_user", fmt.Sprintf("✅ User <code>%d</code> banned.", targetID)
	if status == storage.UserActive {
		action, reply = "unban_user", fmt.Sprintf("✅ User <code>%d</code> unbanned.", targetID)
	}
	b.storage.AppendAdminLog(adminID, action, fmt.Sprintf("user_id=%d", targetID))
	b.sendMessage(ctx, msg.Chat.ID, reply, AdminKeyboard())
}

func (b *Bot) handleModifyBalanceInput(ctx context.Context, msg *models.Message, text string) {
	adminID := msg.From.ID

	fields := strings.Fields(text)
	if len(fields) != 2 {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Expected <code>&lt;user_id&gt; &lt;amount&gt;</code>.", AdminKeyboard())
		return
	}

	targetID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Invalid user ID.", AdminKeyboard())
		return
	}
	delta, err := decimal.NewFromString(fields[1])
	if err != nil || delta.IsZero() {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Invalid amount.", AdminKeyboard())
		return
	}

	newBalance, err := b.storage.AdjustBalance(targetID, delta, "admin_adjustment")
	switch {
	case errors.Is(err, storage.ErrUnknownUser):
		b.sendMessage(ctx, msg.Chat.ID, "❌ No such user.", AdminKeyboard())
		return
	case errors.Is(err, storage.ErrInsufficientFunds):
		b.sendMessage(ctx, msg.Chat.ID, "❌ That would make the balance negative.", AdminKeyboard())
		return
	case err != nil:
		b.log.Error("adjust balance", "user_id", targetID, "error", err)
		b.notify.ReportError(ctx, err, adminID)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Update failed.", AdminKeyboard())
		return
	}

	b.storage.AppendAdminLog(adminID, "modify_balance",
		fmt.Sprintf("user_id=%d delta=%s new_balance=%s", targetID, delta.String(), newBalance.String()))
	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ Balance of <code>%d</code> is now <b>%s SYP</b>.", targetID, newBalance.String()),
		AdminKeyboard(),
	)
}

func (b *Bot) handleRateInput(ctx context.Context, msg *models.Message, text string, flow EditRateFlow) {
	adminID := msg.From.ID

	if err := b.settings.SetRate(flow.RateKey, text); err != nil {
		b.log.Warn("set rate", "key", flow.RateKey, "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Rate must be a positive number.", AdminKeyboard())
		return
	}

	b.storage.AppendAdminLog(adminID, "edit_rate", fmt.Sprintf("%s=%s", flow.RateKey, text))
	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ %s updated to <b>%s</b>.", flow.RateKey, text),
		AdminKeyboard(),
	)
}

func (b *Bot) handleSyriatelInput(ctx context.Context, msg *models.Message, text string) {
	adminID := msg.From.ID

	numbers := splitTrimmed(text)
	if err := b.settings.SetSyriatelNumbers(numbers); err != nil {
		b.log.Warn("set syriatel numbers", "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Send at least one number, comma-separated.", AdminKeyboard())
		return
	}

	b.storage.AppendAdminLog(adminID, "edit_syriatel_numbers", strings.Join(numbers, ","))
	b.sendMessage(ctx, msg.Chat.ID, "✅ Syriatel Cash numbers updated.", AdminKeyboard())
}

func (b *Bot) handleWalletsInput(ctx context.Context, msg *models.Message, text string) {
	adminID := msg.From.ID

	wallets := splitTrimmed(text)
	if err := b.settings.SetWallets(wallets); err != nil {
		b.log.Warn("set wallets", "error", err)
		b.sendMessage(ctx, msg.Chat.ID,
			"❌ Send exactly 4 wallets in order: Coinex, CWallet, Payeer, BEP20.",
			AdminKeyboard(),
		)
		return
	}

	b.storage.AppendAdminLog(adminID, "edit_wallets", fmt.Sprintf("%d wallets updated", len(wallets)))
	b.sendMessage(ctx, msg.Chat.ID, "✅ Payment wallets updated.", AdminKeyboard())
}

func (b *Bot) handlePriceInput(ctx context.Context, msg *models.Message, text string, flow EditPriceFlow) {
	adminID := msg.From.ID

	price, err := decimal.NewFromString(strings.Replace(text, ",", ".", 1))
	if err != nil || !price.IsPositive() {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Price must be a positive number.", AdminKeyboard())
		return
	}

	if err := b.catalog.UpdatePrice(flow.Kind, flow.ProductID, flow.PackageID, price); err != nil {
		b.log.Error("update price", "product", flow.ProductID, "package", flow.PackageID, "error", err)
		b.notify.ReportError(ctx, err, adminID)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Price update failed.", AdminKeyboard())
		return
	}

	b.storage.AppendAdminLog(adminID, "edit_price",
		fmt.Sprintf("%s/%s/%s=%s", flow.Kind, flow.ProductID, flow.PackageID, price.String()))
	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ Price of %s/%s set to <b>%s SYP</b>.", flow.ProductID, flow.PackageID, price.String()),
		AdminKeyboard(),
	)
}

// --- Deposit / order resolution ---

func (b *Bot) approveDeposit(ctx context.Context, cb *models.CallbackQuery, txID string) {
	adminID := cb.From.ID

	err := b.storage.ResolveTransaction(txID, storage.StatusCompleted, "")
	switch {
	case errors.Is(err, storage.ErrAlreadyTerminal):
		b.sendMessage(ctx, chatOf(cb), "⚠️ This deposit was already resolved.", nil)
		return
	case errors.Is(err, storage.ErrNotFound):
		b.sendMessage(ctx, chatOf(cb), "❌ Deposit not found.", nil)
		return
	case err != nil:
		b.log.Error("resolve transaction", "tx_id", txID, "error", err)
		b.notify.ReportError(ctx, err, adminID)
		b.sendMessage(ctx, chatOf(cb), "❌ Approval failed.", nil)
		return
	}

	tx, err := b.storage.GetTransaction(txID)
	if err != nil {
		b.log.Error("get transaction", "tx_id", txID, "error", err)
		return
	}

	b.storage.AppendAdminLog(adminID, "approve_deposit",
		fmt.Sprintf("tx_id=%s user_id=%d amount=%s", txID, tx.UserID, tx.Amount.String()))
	b.log.Info("deposit approved", "tx_id", txID, "admin_id", adminID)

	b.notify.DepositApproved(ctx, tx)
	b.editMessage(ctx, cb.Message, fmt.Sprintf("✅ Deposit <code>%s</code> approved.", txID), nil)
}

func (b *Bot) handleRejectReason(ctx context.Context, msg *models.Message, reason string, flow RejectReasonFlow) {
	adminID := msg.From.ID

	err := b.storage.ResolveTransaction(flow.TxID, storage.StatusRejected, reason)
	switch {
	case errors.Is(err, storage.ErrAlreadyTerminal):
		b.sendMessage(ctx, msg.Chat.ID, "⚠️ This deposit was already resolved.", AdminKeyboard())
		return
	case errors.Is(err, storage.ErrNotFound):
		b.sendMessage(ctx, msg.Chat.ID, "❌ Deposit not found.", AdminKeyboard())
		return
	case err != nil:
		b.log.Error("reject transaction", "tx_id", flow.TxID, "error", err)
		b.notify.ReportError(ctx, err, adminID)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Rejection failed.", AdminKeyboard())
		return
	}

	b.storage.AppendAdminLog(adminID, "reject_deposit",
		fmt.Sprintf("tx_id=%s reason=%s", flow.TxID, reason))
	b.log.Info("deposit rejected", "tx_id", flow.TxID, "admin_id", adminID)

	if tx, err := b.storage.GetTransaction(flow.TxID); err == nil {
		b.notify.DepositRejected(ctx, tx)
	}
	b.sendMessage(ctx, msg.Chat.ID, fmt.Sprintf("✅ Deposit <code>%s</code> rejected.", flow.TxID), AdminKeyboard())
}

func (b *Bot) resolveOrder(ctx context.Context, cb *models.CallbackQuery, idStr string, outcome storage.Status) {
	adminID := cb.From.ID

	orderID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}

	err = b.storage.ResolveOrder(orderID, outcome)
	switch {
	case errors.Is(err, storage.ErrAlreadyTerminal):
		b.sendMessage(ctx, chatOf(cb), "⚠️ This order was already resolved.", nil)
		return
	case errors.Is(err, storage.ErrNotFound):
		b.sendMessage(ctx, chatOf(cb), "❌ Order not found.", nil)
		return
	case errors.Is(err, storage.ErrInsufficientFunds):
		b.sendMessage(ctx, chatOf(cb),
			fmt.Sprintf("❌ Order #%d cannot be completed: the user's balance does not cover the price.", orderID),
			nil,
		)
		return
	case err != nil:
		b.log.Error("resolve order", "order_id", orderID, "error", err)
		b.notify.ReportError(ctx, err, adminID)
		b.sendMessage(ctx, chatOf(cb), "❌ Resolution failed.", nil)
		return
	}

	action := "complete_order"
	if outcome == storage.StatusRejected {
		action = "reject_order"
	}
	b.storage.AppendAdminLog(adminID, action, fmt.Sprintf("order_id=%d", orderID))
	b.log.Info("order resolved", "order_id", orderID, "outcome", outcome, "admin_id", adminID)

	if order, err := b.storage.GetOrder(orderID); err == nil {
		b.notify.OrderResolved(ctx, order)
	}
	b.editMessage(ctx, cb.Message, fmt.Sprintf("✅ Order #%d %s.", orderID, outcome), nil)
}

func splitTrimmed(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
