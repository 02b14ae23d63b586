package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a workspace does not pick one.
const DefaultCurrency = "USD"

// currencyPrefixes is indexed by ISO-like code. Unknown codes get no prefix.
var currencyPrefixes = map[string]string{
	"USD": "$",
	"ZWG": "ZWG ",
}

// SupportedCurrency reports whether code has a display prefix.
func SupportedCurrency(code string) bool {
	_, ok := currencyPrefixes[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// FormatAmount renders amount with the prefix of code and exactly two
// decimals. Invalid amounts render as zero.
func FormatAmount(amount any, code string) string {
	prefix := currencyPrefixes[strings.ToUpper(strings.TrimSpace(code))]
	return prefix + decimal.NewFromFloat(Coerce(amount)).StringFixed(2)
}
