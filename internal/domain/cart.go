package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CartLine is one item the customer intends to buy. UnitPrice is the price
// quoted when the line was added; settlement always re-reads the current price.
type CartLine struct {
	ItemID    int64           `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(l.Quantity)
}

// Cart maps item ids to lines, one line per item.
type Cart struct {
	Lines map[int64]CartLine `json:"lines"`
}

func NewCart() *Cart {
	return &Cart{Lines: make(map[int64]CartLine)}
}

// Put adds the line, replacing any existing line for the same item.
func (c *Cart) Put(line CartLine) {
	if c.Lines == nil {
		c.Lines = make(map[int64]CartLine)
	}
	c.Lines[line.ItemID] = line
}

// Remove deletes the line for itemID and reports whether it existed.
func (c *Cart) Remove(itemID int64) bool {
	if _, ok := c.Lines[itemID]; !ok {
		return false
	}
	delete(c.Lines, itemID)
	return true
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *Cart) Clear() {
	c.Lines = make(map[int64]CartLine)
}

// Sorted returns the lines ordered by item id.
func (c *Cart) Sorted() []CartLine {
	if c == nil {
		return nil
	}
	lines := make([]CartLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	return lines
}

// Total is the quoted total at cart prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
