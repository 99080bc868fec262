// Package format renders amounts as localized currency strings.
package format

import (
	"fmt"

	"ratesync-service/internal/application"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency formats amounts of one currency for one locale, e.g. "ARS 1.234.567,89" for es-AR.
type Currency struct {
	unit    currency.Unit
	scale   int
	printer *message.Printer
}

var _ application.Formatter = (*Currency)(nil)

// NewCurrency builds a formatter for the ISO 4217 code and BCP 47 locale.
func NewCurrency(code, locale string) (*Currency, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("format: currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("format: locale %q: %w", locale, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &Currency{unit: unit, scale: scale, printer: message.NewPrinter(tag)}, nil
}

func (c *Currency) Format(amount float64) string {
	return c.printer.Sprintf("%s %v", c.unit.String(), number.Decimal(amount, number.Scale(c.scale)))
}
