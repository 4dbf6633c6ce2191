// Package cleaning turns raw ledger rows into transactions the pipeline accepts.
package cleaning

import (
	"fmt"

	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/stats"

	"github.com/shopspring/decimal"
)

// Outlier fences sit this many interquartile ranges outside Q1 and Q3.
const iqrFactor = 1.5

// Options selects the cleaning steps.
type Options struct {
	DropMissingAmounts bool
	ClipOutliers       bool
}

// Summary reports what cleaning changed.
type Summary struct {
	Input         int             `json:"input"`
	Output        int             `json:"output"`
	MissingAmount int             `json:"missing_amount"`
	Clipped       int             `json:"clipped"`
	LowerFence    decimal.Decimal `json:"lower_fence"`
	UpperFence    decimal.Decimal `json:"upper_fence"`
}

// Clean converts raw rows to transactions. Without DropMissingAmounts a row with an
// empty amount fails the whole batch; nothing is filled in silently.
func Clean(raw []domain.RawTransaction, opts Options) ([]domain.Transaction, *Summary, error) {
	summary := &Summary{Input: len(raw)}

	kept := make([]domain.Transaction, 0, len(raw))
	for i, r := range raw {
		if !r.Amount.Valid {
			if !opts.DropMissingAmounts {
				return nil, nil, &domain.ValidationError{Field: "amount", Message: fmt.Sprintf("missing on row %d (customer %s)", i+1, r.CustomerID)}
			}
			summary.MissingAmount++
			continue
		}
		kept = append(kept, r.Transaction())
	}

	if opts.ClipOutliers && len(kept) > 0 {
		lower, upper := fences(kept)
		summary.LowerFence, summary.UpperFence = lower, upper
		for i := range kept {
			switch {
			case kept[i].Amount.LessThan(lower):
				kept[i].Amount = lower
				summary.Clipped++
			case kept[i].Amount.GreaterThan(upper):
				kept[i].Amount = upper
				summary.Clipped++
			}
		}
	}

	summary.Output = len(kept)
	return kept, summary, nil
}

// fences returns the Tukey fences of the amounts. The lower fence is floored at
// zero so clipping never produces a negative amount.
func fences(transactions []domain.Transaction) (decimal.Decimal, decimal.Decimal) {
	amounts := make([]float64, len(transactions))
	for i, tx := range transactions {
		amounts[i] = tx.Amount.InexactFloat64()
	}
	q := stats.Quantiles(amounts, 0.25, 0.75)
	iqr := q[1] - q[0]

	lower := decimal.NewFromFloat(q[0] - iqrFactor*iqr)
	if lower.IsNegative() {
		lower = decimal.Zero
	}
	upper := decimal.NewFromFloat(q[1] + iqrFactor*iqr)
	return lower, upper
}
