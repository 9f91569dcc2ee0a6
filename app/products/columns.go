package products

import (
	"cmp"
	"strings"
	"time"

	"github.com/mytheresa/inventory/app/format"
	"github.com/mytheresa/inventory/app/table"
)

// Tones of the stock cell; below-restock means quantity is under the restock level.
const (
	ToneBelowRestock = "below-restock"
	ToneInStock      = "in-stock"
)

type ColumnOptions struct {
	Locale   string
	Currency string
	Now      time.Time
}

// Columns describes the product grid.
func Columns(opts ColumnOptions) []table.Column[ProductDetail] {
	return []table.Column[ProductDetail]{
		{
			ID:       "name",
			Title:    "Name",
			Sortable: true,
			Cell:     func(p ProductDetail) table.Cell { return table.Cell{Text: p.Name} },
			Compare: func(a, b ProductDetail) int {
				return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			},
		},
		{
			ID:       "brand",
			Title:    "Brand",
			Sortable: true,
			Cell: func(p ProductDetail) table.Cell {
				if p.Brand == nil || *p.Brand == "" {
					return table.Cell{Text: "—"}
				}
				return table.Cell{Text: *p.Brand, Value: *p.Brand}
			},
			Compare: func(a, b ProductDetail) int {
				return cmp.Compare(deref(a.Brand), deref(b.Brand))
			},
		},
		{
			ID:       "sku",
			Title:    "SKU",
			Sortable: true,
			Cell:     func(p ProductDetail) table.Cell { return table.Cell{Text: p.SKU} },
			Compare:  func(a, b ProductDetail) int { return cmp.Compare(a.SKU, b.SKU) },
		},
		{
			ID:       "quantity",
			Title:    "In Stock",
			Sortable: true,
			Cell: func(p ProductDetail) table.Cell {
				tone := ToneInStock
				if p.Quantity < p.RestockLevel {
					tone = ToneBelowRestock
				}
				return table.Cell{Text: format.Count(opts.Locale, p.Quantity), Value: p.Quantity, Tone: tone}
			},
			Compare: func(a, b ProductDetail) int { return cmp.Compare(a.Quantity, b.Quantity) },
		},
		{
			ID:       "price",
			Title:    "Price",
			Sortable: true,
			Cell: func(p ProductDetail) table.Cell {
				text, err := format.CurrencyFromMinor(opts.Locale, opts.Currency, p.Price)
				if err != nil {
					text = format.Count(opts.Locale, p.Price)
				}
				return table.Cell{Text: text, Value: p.Price}
			},
			Compare: func(a, b ProductDetail) int { return cmp.Compare(a.Price, b.Price) },
		},
		{
			ID:       "createdAt",
			Title:    "Created",
			Sortable: true,
			Cell: func(p ProductDetail) table.Cell {
				return table.Cell{Text: format.TimeAgo(p.CreatedAt, opts.Now), Value: p.CreatedAt}
			},
			Compare: func(a, b ProductDetail) int { return a.CreatedAt.Compare(b.CreatedAt) },
		},
		{
			ID:       "updatedAt",
			Title:    "Updated",
			Sortable: true,
			Cell: func(p ProductDetail) table.Cell {
				return table.Cell{Text: format.TimeAgo(p.UpdatedAt, opts.Now), Value: p.UpdatedAt}
			},
			Compare: func(a, b ProductDetail) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
		},
		{
			ID:   "actions",
			Cell: func(p ProductDetail) table.Cell { return table.Cell{Value: p.ID} },
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
