package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/diamondsy/diamond-store/internal/storage"
)

const testCatalog = `{
  "games": {
    "pubg": {
      "name": "PUBG Mobile",
      "icon": "🔫",
      "packages": [
        {"id": "uc60", "label": "60 UC", "price": "4000"},
        {"id": "uc325", "label": "325 UC", "price": "19000"}
      ]
    },
    "freefire": {
      "name": "Free Fire",
      "icon": "🔥",
      "packages": [
        {"id": "d100", "label": "100 Diamonds", "price": "3500"}
      ]
    }
  },
  "apps": {
    "telegram": {
      "name": "Telegram Premium",
      "icon": "✈️",
      "packages": [
        {"id": "m3", "label": "3 months", "price": "45000"}
      ]
    }
  }
}`

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	return c, path
}

func TestLoadAndLookup(t *testing.T) {
	c, _ := newTestCatalog(t)

	p, ok := c.Product(storage.ProductGame, "pubg")
	require.True(t, ok)
	require.Equal(t, "PUBG Mobile", p.Name)
	require.Equal(t, "pubg", p.ID)

	pkg, ok := c.Package(storage.ProductGame, "pubg", "uc325")
	require.True(t, ok)
	require.Equal(t, "325 UC", pkg.Label)
	require.True(t, pkg.Price.Equal(decimal.NewFromInt(19000)))

	_, ok = c.Product(storage.ProductApp, "pubg")
	require.False(t, ok)
	_, ok = c.Package(storage.ProductGame, "pubg", "nope")
	require.False(t, ok)
}

func TestListSortedByID(t *testing.T) {
	c, _ := newTestCatalog(t)

	games := c.List(storage.ProductGame)
	require.Len(t, games, 2)
	require.Equal(t, "freefire", games[0].ID)
	require.Equal(t, "pubg", games[1].ID)

	apps := c.List(storage.ProductApp)
	require.Len(t, apps, 1)
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, err)
	require.Empty(t, c.List(storage.ProductGame))
	require.Empty(t, c.List(storage.ProductApp))
}

func TestUpdatePricePersists(t *testing.T) {
	c, path := newTestCatalog(t)

	require.NoError(t, c.UpdatePrice(storage.ProductGame, "pubg", "uc60", decimal.NewFromInt(4500)))

	pkg, ok := c.Package(storage.ProductGame, "pubg", "uc60")
	require.True(t, ok)
	require.True(t, pkg.Price.Equal(decimal.NewFromInt(4500)))

	// A fresh load sees the new price
	reloaded, err := Load(path)
	require.NoError(t, err)
	pkg, ok = reloaded.Package(storage.ProductGame, "pubg", "uc60")
	require.True(t, ok)
	require.True(t, pkg.Price.Equal(decimal.NewFromInt(4500)))
}

func TestUpdatePriceValidation(t *testing.T) {
	c, _ := newTestCatalog(t)

	require.Error(t, c.UpdatePrice(storage.ProductGame, "pubg", "uc60", decimal.Zero))
	require.Error(t, c.UpdatePrice(storage.ProductGame, "nope", "uc60", decimal.NewFromInt(100)))
	require.Error(t, c.UpdatePrice(storage.ProductGame, "pubg", "nope", decimal.NewFromInt(100)))

	// Failed updates leave the old price in place
	pkg, ok := c.Package(storage.ProductGame, "pubg", "uc60")
	require.True(t, ok)
	require.True(t, pkg.Price.Equal(decimal.NewFromInt(4000)))
}
