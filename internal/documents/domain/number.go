package documents

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// InvoiceNumber renders the human-facing invoice number, e.g.
// I1_Sunil_02-01-2024_1. Non-alphanumeric characters are stripped from the
// customer name.
func InvoiceNumber(customerName, date string, version int) string {
	if version < 1 {
		version = 1
	}
	display := date
	if parsed, err := time.Parse("2006-01-02", date); err == nil {
		display = parsed.Format("02-01-2006")
	}
	return fmt.Sprintf("I%d_%s_%s_1", version, cleanName(customerName), display)
}

func cleanName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
