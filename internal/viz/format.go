package viz

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Int formats n with thousands separators.
func Int(n int) string { return printer.Sprintf("%d", n) }

// Float formats v with two decimals and thousands separators.
func Float(v float64) string { return printer.Sprintf("%.2f", v) }

// Percent formats a percentage value, e.g. 72.5 -> "72.50%".
func Percent(v float64) string { return printer.Sprintf("%.2f%%", v) }
