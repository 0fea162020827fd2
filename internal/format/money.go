// Package format renders amounts for display in the configured currency.
package format

import (
	"math"

	money "github.com/Rhymond/go-money"

	"github.com/ivanoskov/wallet/internal/model"
)

// Money formats float amounts in one currency with a fixed number of decimals.
type Money struct {
	code      string
	formatter *money.Formatter
}

// NewMoney builds a formatter for an ISO currency code. fraction overrides the
// currency's minor-unit digits; pass a negative value to keep the default.
// Unknown codes print as "<CODE> 1,234".
func NewMoney(code string, fraction int) *Money {
	var f *money.Formatter
	if c := money.GetCurrency(code); c != nil {
		f = c.Formatter()
	} else {
		f = money.NewFormatter(2, ".", ",", code+" ", "$1")
	}
	if fraction >= 0 {
		f.Fraction = fraction
	}
	return &Money{code: code, formatter: f}
}

// Code returns the ISO code the formatter was built for.
func (m *Money) Code() string {
	return m.code
}

// Format renders v. Non-finite values render as zero.
func (m *Money) Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	minor := math.Round(v * math.Pow10(m.formatter.Fraction))
	if minor > math.MaxInt64 || minor < math.MinInt64 {
		minor = 0
	}
	return m.formatter.Format(int64(minor))
}

// Signed renders a transaction amount with a leading + for income and - for expense.
func (m *Money) Signed(tx model.Transaction) string {
	amount := math.Abs(tx.Amount)
	if tx.Type == model.Expense {
		return "-" + m.Format(amount)
	}
	return "+" + m.Format(amount)
}
