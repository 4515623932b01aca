package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Monetary amounts are carried internally as euro cents (int64), matching
// what Stripe reports on the wire. Decimal strings only exist at the edges:
// client requests, Mollie's amount objects, and outgoing mails.

// ParseAmountToCents converts a decimal amount string ("50.00") to cents.
// Amounts with sub-cent precision are rejected rather than rounded, since a
// silently rounded voucher value would never reconcile against the provider.
func ParseAmountToCents(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() || d.IsZero() {
		return 0, fmt.Errorf("amount must be positive, got %q", amount)
	}
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-cent precision", amount)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a decimal string with two places ("50.00").
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// CentsWithinTolerance reports whether two amounts differ by no more than
// the given tolerance in cents.
func CentsWithinTolerance(a, b, tolerance int64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
