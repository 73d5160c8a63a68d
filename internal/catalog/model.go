package catalog

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var ErrNotFound = errors.New("not found")

// DefaultPrice is used for products created without a price.
var DefaultPrice = decimal.RequireFromString("99.99")

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Path renders the category with its ancestors, root first:
// "Electronics -> Audio -> Headphones". Ancestors missing from byID end
// the walk.
func (c Category) Path(byID map[int64]Category) string {
	parts := []string{c.Name}
	seen := map[int64]bool{c.ID: true}

	for p := c.ParentID; p != nil && !seen[*p]; {
		parent, ok := byID[*p]
		if !ok {
			break
		}
		seen[parent.ID] = true
		parts = append(parts, parent.Name)
		p = parent.ParentID
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " -> ")
}

type Product struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Title       string          `json:"title"`
	Brand       string          `json:"brand"`
	Description string          `json:"description,omitempty"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Key is the string form of the id, as carts and forms carry it.
func (p Product) Key() string {
	return strconv.FormatInt(p.ID, 10)
}

const (
	slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugInfix    = "pickBetter"
)

// CategorySlug builds the slug of a category created without one: three
// random characters, a fixed infix and the name, slugified.
func CategorySlug(name string) string {
	var b strings.Builder
	for range 3 {
		b.WriteByte(slugAlphabet[rand.IntN(len(slugAlphabet))])
	}
	return Slugify(b.String() + slugInfix + name)
}

// Slugify lowercases s, folds it to ASCII, drops everything but letters,
// digits, underscores and hyphens, and joins words with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range norm.NFKD.String(s) {
		switch {
		case r > unicode.MaxASCII:
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}
	return b.String()
}

func normalizeCategory(c Category) Category {
	c.Name = strings.TrimSpace(c.Name)
	if c.Slug == "" {
		c.Slug = CategorySlug(c.Name)
	}
	return c
}

func normalizeProduct(p Product) Product {
	p.Title = strings.TrimSpace(p.Title)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Price.IsZero() {
		p.Price = DefaultPrice
	}
	return p
}
