// Package shop holds the per-town shop inventories: item prices in knuts and
// remaining stock, with nil stock meaning unlimited.
package shop

import (
	"log/slog"
	"sort"
	"strings"

	"gringotts/internal/currency"
	"gringotts/internal/kvstore"
)

// Item is one catalog entry. Qty nil means unlimited stock.
type Item struct {
	PriceKnuts int64  `json:"price_knuts"`
	Qty        *int64 `json:"qty"`
}

type shelf struct {
	Items map[string]Item `json:"items"`
}

// town maps shop name → shelf.
type town map[string]shelf

// Listing is a read-model row for displaying a shop's stock.
type Listing struct {
	Name  string
	Price currency.Money
	Qty   *int64
}

type Inventory struct {
	store *kvstore.Store[town]
	log   *slog.Logger
}

func New(path string, logger *slog.Logger) *Inventory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inventory{store: kvstore.New[town](path, logger), log: logger}
}

func (inv *Inventory) Towns() []string {
	var names []string
	inv.store.View(func(data map[string]town) {
		for name := range data {
			names = append(names, name)
		}
	})
	sort.Strings(names)
	return names
}

func (inv *Inventory) Shops(townName string) []string {
	var names []string
	inv.store.View(func(data map[string]town) {
		for name := range data[townName] {
			names = append(names, name)
		}
	})
	sort.Strings(names)
	return names
}

// Items lists a shop's stock sorted by item name.
func (inv *Inventory) Items(townName, shopName string) []Listing {
	var out []Listing
	inv.store.View(func(data map[string]town) {
		for name, item := range data[townName][shopName].Items {
			out = append(out, Listing{
				Name:  name,
				Price: currency.FromKnuts(item.PriceKnuts),
				Qty:   item.Qty,
			})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Price looks up an item's unit price.
func (inv *Inventory) Price(townName, shopName, itemName string) (currency.Money, bool) {
	var price currency.Money
	found := false
	inv.store.View(func(data map[string]town) {
		if item, ok := data[townName][shopName].Items[itemName]; ok {
			price = currency.FromKnuts(item.PriceKnuts)
			found = true
		}
	})
	return price, found
}

// SetItem creates or replaces an item. qty nil means unlimited stock.
func (inv *Inventory) SetItem(townName, shopName, itemName string, price currency.Money, qty *int64) error {
	err := inv.store.Update(func(data map[string]town) (bool, error) {
		t, ok := data[townName]
		if !ok {
			t = make(town)
			data[townName] = t
		}
		s, ok := t[shopName]
		if !ok || s.Items == nil {
			s = shelf{Items: make(map[string]Item)}
			t[shopName] = s
		}
		s.Items[itemName] = Item{PriceKnuts: price.Knuts, Qty: qty}
		return true, nil
	})
	if err != nil {
		return err
	}
	inv.log.Info("shop item set", "town", townName, "shop", shopName, "item", itemName, "knuts", price.Knuts)
	return nil
}

// Restock adjusts stock by delta, flooring at zero. Unlimited items report
// success without change. False when the item does not exist.
func (inv *Inventory) Restock(townName, shopName, itemName string, delta int64) (bool, error) {
	found := false
	err := inv.store.Update(func(data map[string]town) (bool, error) {
		items := data[townName][shopName].Items
		item, ok := items[itemName]
		if !ok {
			return false, nil
		}
		found = true
		if item.Qty == nil {
			return false, nil
		}
		qty := *item.Qty + delta
		if qty < 0 {
			qty = 0
		}
		item.Qty = &qty
		items[itemName] = item
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// SetPrice changes an item's price. False when the item does not exist.
func (inv *Inventory) SetPrice(townName, shopName, itemName string, price currency.Money) (bool, error) {
	found := false
	err := inv.store.Update(func(data map[string]town) (bool, error) {
		items := data[townName][shopName].Items
		item, ok := items[itemName]
		if !ok {
			return false, nil
		}
		item.PriceKnuts = price.Knuts
		items[itemName] = item
		found = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Remove deletes an item. False when it did not exist.
func (inv *Inventory) Remove(townName, shopName, itemName string) (bool, error) {
	found := false
	err := inv.store.Update(func(data map[string]town) (bool, error) {
		items := data[townName][shopName].Items
		if _, ok := items[itemName]; !ok {
			return false, nil
		}
		delete(items, itemName)
		found = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Buy decrements stock for qty units if available and returns the total
// price. ok is false when the item is missing or stock is short; the caller
// charges the wallet separately and refunds on a false return.
func (inv *Inventory) Buy(townName, shopName, itemName string, qty int64) (currency.Money, bool, error) {
	if qty < 1 {
		qty = 1
	}
	var total currency.Money
	ok := false
	err := inv.store.Update(func(data map[string]town) (bool, error) {
		items := data[townName][shopName].Items
		item, exists := items[itemName]
		if !exists {
			return false, nil
		}
		if item.Qty != nil {
			if *item.Qty < qty {
				return false, nil
			}
			left := *item.Qty - qty
			item.Qty = &left
			items[itemName] = item
		}
		total = currency.FromKnuts(item.PriceKnuts).Mul(qty)
		ok = true
		return true, nil
	})
	if err != nil {
		return currency.Zero(), false, err
	}
	if ok {
		inv.log.Info("shop purchase", "town", townName, "shop", shopName, "item", itemName, "qty", qty, "knuts", total.Knuts)
	}
	return total, ok, nil
}

// SeedExample loads a small demo catalog. Meant for new servers; running it
// twice just overwrites the same items.
func (inv *Inventory) SeedExample() error {
	five, ten, one := int64(5), int64(10), int64(1)
	seed := []struct {
		town, shop, item string
		price            string
		qty              *int64
	}{
		{"Diagon Alley", "Ollivanders", "Wand (phoenix feather)", "7g", &five},
		{"Diagon Alley", "Flourish & Blotts", "2nd-year Potions Textbook", "2g 5s", &ten},
		{"Knockturn Alley", "Borgin and Burkes", "Cursed Locket", "15g", &one},
		{"Hogsmeade", "Honeydukes", "Chocolate Frog", "15s", nil},
	}
	for _, row := range seed {
		if err := inv.SetItem(row.town, row.shop, row.item, currency.Parse(row.price), row.qty); err != nil {
			return err
		}
	}
	return nil
}
