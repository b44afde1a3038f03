package payment

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	MetaUserID = "user_id"

	// Processors cap metadata at 50 keys: user_id plus two keys per line.
	MaxMetadataLines = 24
)

var itemKey = regexp.MustCompile(`^item_(\d+)_(id|qty)$`)

func itemIDKey(n int) string  { return fmt.Sprintf("item_%d_id", n) }
func itemQtyKey(n int) string { return fmt.Sprintf("item_%d_qty", n) }

// EncodeMetadata builds the checkout metadata settlement works from.
// Lines are numbered from 1 in the given order.
func EncodeMetadata(userID int64, lines []domain.SettlementLine) map[string]string {
	md := make(map[string]string, 1+2*len(lines))
	md[MetaUserID] = strconv.FormatInt(userID, 10)
	for i, l := range lines {
		md[itemIDKey(i+1)] = strconv.FormatInt(l.ItemID, 10)
		md[itemQtyKey(i+1)] = l.Quantity.String()
	}
	return md
}

// Metadata is decoded checkout metadata. Problems lists lines that were skipped.
type Metadata struct {
	UserID   int64
	Lines    []domain.SettlementLine
	Problems []string
}

// DecodeMetadata parses metadata produced by EncodeMetadata. A bad user_id is an
// error; a bad line is reported in Problems and left out.
func DecodeMetadata(md map[string]string) (*Metadata, error) {
	rawUser, ok := md[MetaUserID]
	if !ok {
		return nil, fmt.Errorf("%w: metadata has no %s", domain.ErrValidation, MetaUserID)
	}
	userID, err := strconv.ParseInt(rawUser, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: metadata %s %q is not a user id", domain.ErrValidation, MetaUserID, rawUser)
	}

	seen := make(map[int]struct{})
	for k := range md {
		m := itemKey.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		seen[n] = struct{}{}
	}
	indexes := make([]int, 0, len(seen))
	for n := range seen {
		indexes = append(indexes, n)
	}
	sort.Ints(indexes)

	out := &Metadata{UserID: userID}
	for _, n := range indexes {
		rawID, okID := md[itemIDKey(n)]
		rawQty, okQty := md[itemQtyKey(n)]
		if !okID || !okQty {
			out.Problems = append(out.Problems, fmt.Sprintf("item_%d: id and qty must both be present", n))
			continue
		}
		itemID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || itemID <= 0 {
			out.Problems = append(out.Problems, fmt.Sprintf("item_%d: bad id %q", n, rawID))
			continue
		}
		qty, err := decimal.NewFromString(rawQty)
		if err != nil || domain.CheckQuantity(qty) != nil {
			out.Problems = append(out.Problems, fmt.Sprintf("item_%d: bad qty %q", n, rawQty))
			continue
		}
		out.Lines = append(out.Lines, domain.SettlementLine{ItemID: itemID, Quantity: qty})
	}
	return out, nil
}

var hundred = decimal.NewFromInt(100)

// LineItemFor prices one cart line in minor units. Processors only take whole
// quantities, so a fractional quantity is charged as a single line.
func LineItemFor(name string, unitPrice, quantity decimal.Decimal) LineItem {
	if quantity.Equal(quantity.Truncate(0)) {
		return LineItem{
			Name:       name,
			UnitAmount: unitPrice.Mul(hundred).Round(0).IntPart(),
			Quantity:   quantity.IntPart(),
		}
	}
	return LineItem{
		Name:       fmt.Sprintf("%s (%s)", name, quantity.String()),
		UnitAmount: unitPrice.Mul(quantity).Mul(hundred).Round(0).IntPart(),
		Quantity:   1,
	}
}
