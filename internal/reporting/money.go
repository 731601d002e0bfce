package reporting

import (
	"strings"

	"github.com/shopspring/decimal"
)

// money rounds a float amount to cents.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// formatMoney renders an amount as $1,234,567.89.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sign + "$" + sb.String() + "." + frac
}

func formatPct(v float64) string {
	return decimal.NewFromFloat(v * 100).StringFixed(2) + "%"
}
