// Package totals computes derived receipt money fields and receipt
// numbers. Everything here is pure: callers pass line items and policy
// knobs, the store is never touched.
package totals

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// Item is one draft line item as seen by the totals computation.
type Item struct {
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Totals is the result of Compute.
type Totals struct {
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// Compute derives subtotal, tax and grand total from line items.
//
//	subtotal   = sum(quantity * unitPrice)
//	taxAmount  = taxEnabled ? subtotal * taxRate : 0
//	grandTotal = subtotal + taxAmount - discount
//
// The grand total is not floored at zero: a discount larger than
// subtotal + tax yields a negative result.
func Compute(items []Item, taxEnabled bool, taxRate, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}

	taxAmount := decimal.Zero
	if taxEnabled {
		taxAmount = subtotal.Mul(taxRate)
	}

	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  taxAmount,
		GrandTotal: subtotal.Add(taxAmount).Sub(discount),
	}
}

// LineTotal is the denormalized per-item total, quantity * unitPrice.
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

var digitRun = regexp.MustCompile(`\d+`)

// NextReceiptNumber returns the receipt number following last, where
// last is the number of the most recently created receipt ("" when the
// store is empty). The first run of digits in last is incremented and
// rendered zero-padded to at least three digits with a leading '#':
// "" -> "#001", "#041" -> "#042", "#999" -> "#1000". Input without any
// digits restarts the sequence at "#001".
func NextReceiptNumber(last string) string {
	if last == "" {
		return "#001"
	}
	match := digitRun.FindString(last)
	if match == "" {
		return "#001"
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		// Digit run too long to fit an int; restart rather than panic.
		return "#001"
	}
	return fmt.Sprintf("#%03d", n+1)
}
