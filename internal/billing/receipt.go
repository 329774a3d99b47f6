package billing

import (
	"strings"
	"time"

	"restaurant-pos/internal/models"
)

// IsTakeaway reports whether a table label denotes a takeaway slot.
func IsTakeaway(label string) bool {
	l := strings.ToUpper(strings.TrimSpace(label))
	return strings.HasPrefix(l, "TA") || strings.HasPrefix(l, "A")
}

// PaymentCode is the last receipt digit: 1 cash, 2 transfer.
func PaymentCode(m models.PaymentMethod) string {
	if m == models.PayCash {
		return "1"
	}
	return "2"
}

// ReceiptNumber builds YYMMDDHHMM + A|T + two-digit table number + payment
// code, e.g. "2405011307T051" for table T5 paid in cash at 2024-05-01 13:07.
func ReceiptNumber(at time.Time, tableLabel string, method models.PaymentMethod) string {
	prefix := "T"
	if IsTakeaway(tableLabel) {
		prefix = "A"
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, tableLabel)
	for len(digits) < 2 {
		digits = "0" + digits
	}

	return at.Format("0601021504") + prefix + digits + PaymentCode(method)
}
