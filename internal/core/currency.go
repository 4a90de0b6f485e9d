package core

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is the currency the tracker displays amounts in.
const DefaultCurrency = "INR"

// homeLocale picks a formatting locale per currency when none is configured.
var homeLocale = map[string]language.Tag{
	"INR": language.MustParse("en-IN"),
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"SEK": language.Swedish,
	"JPY": language.Japanese,
}

// Currency formats amounts for display. It never converts between currencies.
type Currency struct {
	Code    string
	unit    currency.Unit
	printer *message.Printer
}

// GetCurrency returns the Currency for an ISO code. Unknown codes print the
// code itself as the symbol.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.XXX
	}
	tag, ok := homeLocale[code]
	if !ok {
		tag = language.English
	}
	return Currency{Code: code, unit: unit, printer: message.NewPrinter(tag)}
}

func (c Currency) symbol() string {
	if c.unit == currency.XXX {
		return c.Code + " "
	}
	return c.printer.Sprint(currency.NarrowSymbol(c.unit))
}

// Format renders d with the currency symbol and two fraction digits.
func (c Currency) Format(d decimal.Decimal) string {
	if c.printer == nil {
		c = GetCurrency(c.Code)
	}
	f, _ := d.Float64()
	num := c.printer.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	return c.symbol() + num
}

// FormatText renders stored amount text, falling back to the raw text when it
// does not parse.
func (c Currency) FormatText(amount string) string {
	d, err := ParseAmount(amount)
	if err != nil {
		return c.symbol() + amount
	}
	return c.Format(d)
}
