// Package catalog holds the product catalog loaded from a JSON file.
// The catalog is read-only after load; the only mutations are an explicit
// price update (persisted atomically) and a full reload.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/diamondsy/diamond-store/internal/storage"
)

// Package is one purchasable denomination of a product
type Package struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Product is a game or app with its priced packages
type Product struct {
	ID       string    `json:"-"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	Packages []Package `json:"packages"`
}

type catalogFile struct {
	Games map[string]*Product `json:"games"`
	Apps  map[string]*Product `json:"apps"`
}

// Catalog is the in-memory product repository
type Catalog struct {
	mu    sync.RWMutex
	path  string
	games map[string]*Product
	apps  map[string]*Product
}

// Load reads the catalog file. A missing file yields an empty catalog.
func Load(path string) (*Catalog, error) {
	c := &Catalog{
		path:  path,
		games: make(map[string]*Product),
		apps:  make(map[string]*Product),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file, replacing the in-memory tables
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.games = normalize(file.Games)
	c.apps = normalize(file.Apps)
	return nil
}

func normalize(products map[string]*Product) map[string]*Product {
	if products == nil {
		return make(map[string]*Product)
	}
	for id, p := range products {
		p.ID = id
	}
	return products
}

// Product looks up a product by kind and ID
func (c *Catalog) Product(kind storage.ProductKind, id string) (*Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.section(kind)[id]
	return p, ok
}

// Package looks up a package within a product
func (c *Catalog) Package(kind storage.ProductKind, productID, packageID string) (*Package, bool) {
	p, ok := c.Product(kind, productID)
	if !ok {
		return nil, false
	}
	for i := range p.Packages {
		if p.Packages[i].ID == packageID {
			return &p.Packages[i], true
		}
	}
	return nil, false
}

// List returns the products of one section, sorted by ID for stable menus
func (c *Catalog) List(kind storage.ProductKind) []*Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	section := c.section(kind)
	products := make([]*Product, 0, len(section))
	for _, p := range section {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

// UpdatePrice sets a new price for one package and persists the catalog
func (c *Catalog) UpdatePrice(kind storage.ProductKind, productID, packageID string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", price)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.section(kind)[productID]
	if !ok {
		return fmt.Errorf("product %s/%s not found", kind, productID)
	}

	for i := range p.Packages {
		if p.Packages[i].ID == packageID {
			old := p.Packages[i].Price
			p.Packages[i].Price = price
			if err := c.save(); err != nil {
				p.Packages[i].Price = old
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("package %s not found in %s/%s", packageID, kind, productID)
}

func (c *Catalog) section(kind storage.ProductKind) map[string]*Product {
	if kind == storage.ProductApp {
		return c.apps
	}
	return c.games
}

// save writes the catalog with a temp-file-and-rename so a crash mid-write
// never leaves a truncated file behind. Caller holds the lock.
func (c *Catalog) save() error {
	data, err := json.MarshalIndent(catalogFile{Games: c.games, Apps: c.apps}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "products-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
