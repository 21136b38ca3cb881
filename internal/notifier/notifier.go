// Package notifier formats and delivers out-of-band messages: deposit and
// order review requests to the admin groups, decision receipts to users,
// and diagnostic reports to the owner.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/diamondsy/diamond-store/internal/config"
	"github.com/diamondsy/diamond-store/internal/storage"
)

// SendFunc delivers one message to a chat
type SendFunc func(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error

// Notifier sends notifications outside the request/reply exchange
type Notifier struct {
	cfg  *config.Config
	log  *slog.Logger
	send SendFunc
}

// New creates a new Notifier
func New(cfg *config.Config, log *slog.Logger, send SendFunc) *Notifier {
	return &Notifier{
		cfg:  cfg,
		log:  log,
		send: send,
	}
}

// DepositSubmitted asks the recharge group to review a new deposit
func (n *Notifier) DepositSubmitted(ctx context.Context, user *storage.User, tx *storage.Transaction) {
	if n.cfg.RechargeGroupID == 0 {
		return
	}

	text := fmt.Sprintf(
		"💳 <b>New deposit</b>\n\n"+
			"User: <a href='tg://user?id=%d'>%s</a> (<code>%d</code>)\n"+
			"Method: %s\n"+
			"Paid: %s %s\n"+
			"Credit: <b>%s SYP</b>\n"+
			"Reference: <code>%s</code>",
		user.ID, displayName(user), user.ID,
		tx.PaymentMethod,
		tx.OriginalAmount.String(), tx.OriginalCurrency,
		tx.Amount.String(),
		tx.PaymentDetails,
	)

	kb := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Approve", CallbackData: "tx_ok:" + tx.ID},
				{Text: "❌ Reject", CallbackData: "tx_no:" + tx.ID},
			},
		},
	}

	if err := n.send(ctx, n.cfg.RechargeGroupID, text, kb); err != nil {
		n.log.Error("notify recharge group", "tx_id", tx.ID, "error", err)
	}
}

// DepositApproved tells the user their balance was credited
func (n *Notifier) DepositApproved(ctx context.Context, tx *storage.Transaction) {
	text := fmt.Sprintf(
		"✅ <b>Deposit approved!</b>\n\n<b>%s SYP</b> has been added to your balance.",
		tx.Amount.String(),
	)
	if err := n.send(ctx, tx.UserID, text, nil); err != nil {
		n.log.Error("notify deposit approved", "tx_id", tx.ID, "error", err)
	}
}

// DepositRejected tells the user their deposit was declined
func (n *Notifier) DepositRejected(ctx context.Context, tx *storage.Transaction) {
	text := "❌ <b>Deposit rejected.</b>"
	if tx.RejectReason != "" {
		text += fmt.Sprintf("\n\nReason: %s", tx.RejectReason)
	}
	if n.cfg.SupportUsername != "" {
		text += fmt.Sprintf("\n\n💬 Questions? Contact @%s", n.cfg.SupportUsername)
	}
	if err := n.send(ctx, tx.UserID, text, nil); err != nil {
		n.log.Error("notify deposit rejected", "tx_id", tx.ID, "error", err)
	}
}

// OrderSubmitted asks the purchase group to fulfil a new order
func (n *Notifier) OrderSubmitted(ctx context.Context, user *storage.User, order *storage.Order, productName, account string) {
	if n.cfg.PurchaseGroupID == 0 {
		return
	}

	text := fmt.Sprintf(
		"📦 <b>New order #%d</b>\n\n"+
			"User: <a href='tg://user?id=%d'>%s</a> (<code>%d</code>)\n"+
			"Product: %s — %s\n"+
			"Account: <code>%s</code>\n"+
			"Price: <b>%s SYP</b>\n"+
			"User balance: %s SYP",
		order.ID,
		user.ID, displayName(user), user.ID,
		productName, order.Amount,
		account,
		order.Price.String(),
		user.Balance.String(),
	)

	kb := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Complete", CallbackData: fmt.Sprintf("order_ok:%d", order.ID)},
				{Text: "❌ Reject", CallbackData: fmt.Sprintf("order_no:%d", order.ID)},
			},
		},
	}

	if err := n.send(ctx, n.cfg.PurchaseGroupID, text, kb); err != nil {
		n.log.Error("notify purchase group", "order_id", order.ID, "error", err)
	}
}

// OrderResolved tells the user the outcome of their order
func (n *Notifier) OrderResolved(ctx context.Context, order *storage.Order) {
	var text string
	switch order.Status {
	case storage.StatusCompleted:
		text = fmt.Sprintf(
			"✅ <b>Order #%d delivered!</b>\n\n<b>%s SYP</b> was charged from your balance.",
			order.ID, order.Price.String(),
		)
	case storage.StatusRejected:
		text = fmt.Sprintf("❌ <b>Order #%d was rejected.</b>\nYour balance was not charged.", order.ID)
	default:
		return
	}

	if err := n.send(ctx, order.UserID, text, nil); err != nil {
		n.log.Error("notify order resolved", "order_id", order.ID, "error", err)
	}
}

// ReportError sends a diagnostic message to the owner. Failures here are
// logged only; error reporting must never cascade.
func (n *Notifier) ReportError(ctx context.Context, cause error, userID int64) {
	if n.cfg.OwnerID == 0 {
		return
	}

	text := fmt.Sprintf(
		"⚠️ <b>Bot error</b>\n\n"+
			"Error: <code>%s</code>\n"+
			"User: <code>%d</code>\n"+
			"Time: %s",
		cause, userID, time.Now().Format("2006-01-02 15:04:05"),
	)

	if err := n.send(ctx, n.cfg.OwnerID, text, nil); err != nil {
		n.log.Error("report error to owner", "error", err)
	}
}

func displayName(user *storage.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return user.Username
	}
	return fmt.Sprintf("user %d", user.ID)
}
