package view

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const isoDateLayout = "2006-01-02"

// Formatter renders amounts and dates for the tenant's display locale.
// Formatting is pure presentation: an unparseable locale falls back to the
// default tag instead of failing.
type Formatter struct {
	printer        *message.Printer
	currencySuffix string
}

// NewFormatter builds a Formatter for the given BCP 47 locale.
func NewFormatter(locale, currencySuffix string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{
		printer:        message.NewPrinter(tag),
		currencySuffix: currencySuffix,
	}
}

// Amount formats a monetary value as "<locale-grouped-number> <suffix>".
func (f *Formatter) Amount(v float64) string {
	grouped := f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
	if f.currencySuffix == "" {
		return grouped
	}
	return grouped + " " + f.currencySuffix
}

// Quantity formats an integer count with locale digit grouping.
func (f *Formatter) Quantity(v int) string {
	return f.printer.Sprint(number.Decimal(v))
}

// Date formats a time for display. Zero times render empty.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

// DateTime formats a timestamp for display.
func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006 15:04")
}

// ISODate formats an ISO "2006-01-02" string for display. Strings that do
// not parse are returned unchanged rather than erroring.
func (f *Formatter) ISODate(s string) string {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return s
	}
	return f.Date(t)
}
