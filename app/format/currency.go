// Package format renders money, counts and timestamps for display.
package format

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency formats amount, given in major units, for locale, e.g. "$1,234.50"
// for ("en-US", "USD", 1234.5). Amounts are rounded half away from zero to the
// currency's standard number of decimals.
func Currency(locale, code string, amount decimal.Decimal) (string, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}

	scale, _ := currency.Standard.Rounding(unit)
	rounded := amount.Round(int32(scale))

	p := message.NewPrinter(tag)
	symbol := p.Sprint(currency.Symbol(unit))
	digits := p.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(scale)))

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	if symbolAfter(tag) {
		return sign + digits + "\u00a0" + symbol, nil
	}
	return sign + symbol + digits, nil
}

// languages whose CLDR currency pattern puts the symbol after the amount,
// separated by a no-break space, e.g. "1.234,50 €" for de-DE.
var suffixLanguages = map[string]bool{
	"bg": true, "cs": true, "da": true, "de": true, "el": true, "es": true,
	"et": true, "fi": true, "fr": true, "hr": true, "hu": true, "is": true,
	"it": true, "lt": true, "lv": true, "nb": true, "no": true, "pl": true,
	"pt": true, "ro": true, "ru": true, "sk": true, "sl": true, "sr": true,
	"sv": true, "uk": true, "vi": true,
}

func symbolAfter(tag language.Tag) bool {
	base, _ := tag.Base()
	if !suffixLanguages[base.String()] {
		return false
	}
	region, _ := tag.Region()
	switch base.String() + "-" + region.String() {
	case "de-CH", "de-LI", "pt-BR", "es-MX", "es-US", "es-419":
		return false
	}
	return true
}
