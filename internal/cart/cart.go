// Package cart keeps a visitor's shopping cart inside their session.
//
// The cart is a mapping from product id to quantity and unit price. The
// price is captured when a product first enters the cart and never follows
// later catalog changes. Quantities are always overwritten, never summed.
package cart

import (
	"context"
	"iter"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"BigCorp/internal/catalog"
)

// SessionKey is the session slot holding the cart.
const SessionKey = "cart"

// Session is the slot storage the cart lives in. Set must mark the session
// modified so the caller knows to persist it.
type Session interface {
	Get(key string, dst any) (bool, error)
	Set(key string, v any)
}

type Line struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Item is a line enriched for display. Product is nil when the catalog no
// longer returns the product; the stored line is kept either way.
type Item struct {
	ProductID string
	Product   *catalog.Product
	Quantity  int
	Price     decimal.Decimal
	Total     decimal.Decimal
}

type Cart struct {
	session Session
	lookup  ProductLookup
	lines   map[string]Line
}

// New binds a cart to sess. A session without a cart, or with one that no
// longer decodes, gets an empty cart.
func New(sess Session, lookup ProductLookup) *Cart {
	lines := map[string]Line{}
	ok, err := sess.Get(SessionKey, &lines)
	if !ok || err != nil || lines == nil {
		lines = map[string]Line{}
		sess.Set(SessionKey, lines)
	}
	return &Cart{session: sess, lookup: lookup, lines: lines}
}

// Len is the number of units in the cart, summed over lines.
func (c *Cart) Len() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Add puts quantity units of p in the cart. A product already in the cart
// keeps its original price and takes the new quantity.
func (c *Cart) Add(p catalog.Product, quantity int) {
	id := p.Key()

	l, ok := c.lines[id]
	if !ok {
		l = Line{Price: p.Price}
	}
	l.Quantity = quantity
	c.lines[id] = l

	c.session.Set(SessionKey, c.lines)
}

// Update sets the quantity of a product already in the cart and reports
// whether the cart changed.
func (c *Cart) Update(productID string, quantity int) bool {
	l, ok := c.lines[productID]
	if !ok {
		return false
	}
	l.Quantity = quantity
	c.lines[productID] = l

	c.session.Set(SessionKey, c.lines)
	return true
}

// Delete removes a product and reports whether it was in the cart.
func (c *Cart) Delete(productID string) bool {
	if _, ok := c.lines[productID]; !ok {
		return false
	}
	delete(c.lines, productID)

	c.session.Set(SessionKey, c.lines)
	return true
}

// TotalPrice sums price times quantity from the stored lines. It does not
// consult the catalog.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Lines returns a copy of the stored lines.
func (c *Cart) Lines() map[string]Line {
	out := make(map[string]Line, len(c.lines))
	for k, v := range c.lines {
		out[k] = v
	}
	return out
}

// Items resolves every product in the cart with one catalog lookup and
// returns the lines in product id order. The sequence works on a snapshot
// taken now; later cart changes do not show up in it.
func (c *Cart) Items(ctx context.Context) (iter.Seq[Item], error) {
	snapshot := c.Lines()

	keys := make([]string, 0, len(snapshot))
	ids := make([]int64, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
		if id, err := strconv.ParseInt(k, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(keys, compareIDs)

	products := map[string]catalog.Product{}
	if len(ids) > 0 {
		found, err := c.lookup.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			products[p.Key()] = p
		}
	}

	return func(yield func(Item) bool) {
		for _, k := range keys {
			l := snapshot[k]
			it := Item{
				ProductID: k,
				Quantity:  l.Quantity,
				Price:     l.Price,
				Total:     l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
			}
			if p, ok := products[k]; ok {
				it.Product = &p
			}
			if !yield(it) {
				return
			}
		}
	}, nil
}

// compareIDs orders numeric ids numerically and anything else after them.
func compareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmpInt(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
