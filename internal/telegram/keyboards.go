package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/diamondsy/diamond-store/internal/catalog"
	"github.com/diamondsy/diamond-store/internal/storage"
)

// MainKeyboard returns the main menu keyboard
func MainKeyboard(isAdmin bool) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{
			{Text: "🏪 Shop", CallbackData: "shop"},
			{Text: "💳 Add funds", CallbackData: "charge"},
		},
		{
			{Text: "💰 My balance", CallbackData: "balance"},
			{Text: "📦 My orders", CallbackData: "orders"},
		},
	}
	if isAdmin {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "⚙️ Admin panel", CallbackData: "admin"},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ShopKeyboard returns the catalog section keyboard
func ShopKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🎮 Games", CallbackData: "games"},
				{Text: "📱 Apps", CallbackData: "apps"},
			},
			{
				{Text: "⬅️ Back", CallbackData: "back"},
			},
		},
	}
}

// ProductsKeyboard lists the products of one catalog section
func ProductsKeyboard(kind storage.ProductKind, products []*catalog.Product) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, p := range products {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: fmt.Sprintf("%s %s", p.Icon, p.Name), CallbackData: fmt.Sprintf("product:%s:%s", kind, p.ID)},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: "shop"},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// PackagesKeyboard lists the priced packages of one product
func PackagesKeyboard(kind storage.ProductKind, product *catalog.Product) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, pkg := range product.Packages {
		rows = append(rows, []models.InlineKeyboardButton{
			{
				Text:         fmt.Sprintf("%s — %s SYP", pkg.Label, pkg.Price.String()),
				CallbackData: fmt.Sprintf("buy:%s:%s:%s", kind, product.ID, pkg.ID),
			},
		})
	}
	back := "games"
	if kind == storage.ProductApp {
		back = "apps"
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: back},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// PaymentMethodsKeyboard returns the deposit method keyboard
func PaymentMethodsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📱 Syriatel Cash", CallbackData: "pay:" + MethodSyriatel},
			},
			{
				{Text: "💰 USDT (Coinex)", CallbackData: "pay:" + MethodUSDTCoinex},
				{Text: "💰 USDT (CWallet)", CallbackData: "pay:" + MethodUSDTCWallet},
			},
			{
				{Text: "💵 USD (Payeer)", CallbackData: "pay:" + MethodUSDPayeer},
				{Text: "💰 USDT (BEP20)", CallbackData: "pay:" + MethodUSDTPEB20},
			},
			{
				{Text: "⬅️ Back", CallbackData: "back"},
			},
		},
	}
}

// AdminKeyboard returns the admin panel keyboard
func AdminKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🚫 Ban user", CallbackData: "admin:ban"},
				{Text: "✅ Unban user", CallbackData: "admin:unban"},
			},
			{
				{Text: "💰 Modify balance", CallbackData: "admin:balance"},
			},
			{
				{Text: "💱 USD rate", CallbackData: "admin:rate:usd"},
				{Text: "💱 USDT rate", CallbackData: "admin:rate:usdt"},
			},
			{
				{Text: "📱 Syriatel numbers", CallbackData: "admin:syriatel"},
				{Text: "💼 USDT wallets", CallbackData: "admin:wallets"},
			},
			{
				{Text: "💲 Edit prices", CallbackData: "admin:prices"},
			},
			{
				{Text: "⬅️ Back", CallbackData: "back"},
			},
		},
	}
}

// PriceSectionKeyboard returns the price-edit section keyboard
func PriceSectionKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🎮 Games", CallbackData: "admin:prices:game"},
				{Text: "📱 Apps", CallbackData: "admin:prices:app"},
			},
			{
				{Text: "⬅️ Back", CallbackData: "admin"},
			},
		},
	}
}

// PriceProductsKeyboard lists products for price editing
func PriceProductsKeyboard(kind storage.ProductKind, products []*catalog.Product) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, p := range products {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: fmt.Sprintf("%s %s", p.Icon, p.Name), CallbackData: fmt.Sprintf("admin:product:%s:%s", kind, p.ID)},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: "admin:prices"},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// PricePackagesKeyboard lists packages for price editing
func PricePackagesKeyboard(kind storage.ProductKind, product *catalog.Product) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, pkg := range product.Packages {
		rows = append(rows, []models.InlineKeyboardButton{
			{
				Text:         fmt.Sprintf("%s — %s SYP", pkg.Label, pkg.Price.String()),
				CallbackData: fmt.Sprintf("admin:price:%s:%s:%s", kind, product.ID, pkg.ID),
			},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: fmt.Sprintf("admin:prices:%s", kind)},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// CancelKeyboard returns a single cancel button
func CancelKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🚫 Cancel", CallbackData: "cancel"},
			},
		},
	}
}

// BackKeyboard returns a simple back button
func BackKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⬅️ Back", CallbackData: "back"},
			},
		},
	}
}
