// Package analytics turns a user's recent transactions into the category
// slices shown on the monthly donut.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/notes"
)

// Policy selects what the donut is a fraction of.
type Policy int

const (
	// PolicyIncome uses window income as the base when there is any, and
	// expenses otherwise. The overflow slice is the unspent income.
	PolicyIncome Policy = iota
	// PolicyExpense always uses window expenses. The overflow slice holds
	// the categories beyond the top N.
	PolicyExpense
)

// Synthetic slice labels.
const (
	LabelRemaining = "Remaining"
	LabelOther     = notes.DefaultCategory
)

// overflowEpsilon hides overflow slices too thin to see.
var overflowEpsilon = decimal.NewFromFloat(0.01)

type Options struct {
	WindowDays int
	TopN       int
	Policy     Policy
	Colors     ColorStrategy
}

// DefaultOptions is a 30-day window, five named categories, income framing
// and hash colours.
func DefaultOptions() Options {
	return Options{WindowDays: 30, TopN: 5, Policy: PolicyIncome, Colors: HashColor}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WindowDays <= 0 {
		o.WindowDays = d.WindowDays
	}
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.Colors == nil {
		o.Colors = d.Colors
	}
	return o
}

// Since is the first instant of the window ending at now.
func (o Options) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -o.withDefaults().WindowDays)
}

// Slice is one labelled sector of the donut.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Result is the aggregation of one window. An empty Slices with a zero
// TotalBase means there is nothing to chart.
type Result struct {
	Slices       []Slice   `json:"slices"`
	TotalBase    float64   `json:"totalBase"`
	TotalIncome  float64   `json:"totalIncome"`
	TotalExpense float64   `json:"totalExpense"`
	Since        time.Time `json:"since"`
	Until        time.Time `json:"until"`
}

// Empty reports whether the result has nothing to draw.
func (r Result) Empty() bool {
	return len(r.Slices) == 0 || r.TotalBase <= 0
}

type categoryTotal struct {
	label string
	total decimal.Decimal
}

// Aggregate sums the transactions created within the trailing window ending
// at now and ranks expense categories. Records with unparseable timestamps
// are skipped. Amounts that are not finite and positive count as zero.
func Aggregate(txs []model.Transaction, opts Options, now time.Time) Result {
	opts = opts.withDefaults()
	since := opts.Since(now)
	res := Result{Slices: []Slice{}, Since: since, Until: now}

	income, expense := decimal.Zero, decimal.Zero
	byCategory := make(map[string]int)
	var categories []categoryTotal

	for _, tx := range txs {
		at, ok := model.ParseTimestamp(tx.CreatedAt)
		if !ok || at.Before(since) {
			continue
		}
		amount := Amount(tx.Amount)
		switch tx.Type {
		case model.Income:
			income = income.Add(amount)
		case model.Expense:
			expense = expense.Add(amount)
			label := notes.Decode(tx.Note).Category
			i, seen := byCategory[label]
			if !seen {
				i = len(categories)
				byCategory[label] = i
				categories = append(categories, categoryTotal{label: label, total: decimal.Zero})
			}
			categories[i].total = categories[i].total.Add(amount)
		}
	}

	res.TotalIncome = income.InexactFloat64()
	res.TotalExpense = expense.InexactFloat64()

	base := expense
	incomeBased := opts.Policy == PolicyIncome && income.IsPositive()
	if incomeBased {
		base = income
	}
	overflowLabel := LabelOther
	if incomeBased {
		overflowLabel = LabelRemaining
	}

	// A real category named like the overflow slice is folded into it.
	ranked := make([]categoryTotal, 0, len(categories))
	for _, c := range categories {
		if c.total.IsPositive() && c.label != overflowLabel {
			ranked = append(ranked, c)
		}
	}
	hasOverflowCategory := false
	if i, ok := byCategory[overflowLabel]; ok && categories[i].total.IsPositive() {
		hasOverflowCategory = true
	}
	if !base.IsPositive() || (len(ranked) == 0 && !hasOverflowCategory) {
		return res
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total.GreaterThan(ranked[j].total)
	})
	if len(ranked) > opts.TopN {
		ranked = ranked[:opts.TopN]
	}

	named := decimal.Zero
	for i, c := range ranked {
		named = named.Add(c.total)
		res.Slices = append(res.Slices, Slice{
			Label: c.label,
			Value: c.total.InexactFloat64(),
			Color: colorOf(opts.Colors, c.label, i),
		})
	}

	// Remaining is the unspent income, so spending beyond the top N is not
	// shown as available money. Other closes the ring over total expense.
	overflow := expense.Sub(named)
	if incomeBased {
		overflow = income.Sub(expense)
	}
	if overflow.IsNegative() {
		overflow = decimal.Zero
	}
	if overflow.GreaterThan(overflowEpsilon) {
		res.Slices = append(res.Slices, Slice{
			Label: overflowLabel,
			Value: overflow.InexactFloat64(),
			Color: NeutralGray,
		})
	}

	res.TotalBase = base.InexactFloat64()
	return res
}

// Amount is the contribution of a stored amount to a total. Non-finite and
// non-positive values count as zero.
func Amount(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
