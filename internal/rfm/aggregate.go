// Package rfm reduces a transaction ledger to per-customer Recency, Frequency
// and Monetary metrics, scores them by quintile and labels customer segments.
package rfm

import (
	"sort"
	"time"

	"customer-segmentation/internal/domain"

	"github.com/shopspring/decimal"
)

// SnapshotDate returns the reference date for recency: one day past the latest purchase.
func SnapshotDate(transactions []domain.Transaction) (time.Time, error) {
	if len(transactions) == 0 {
		return time.Time{}, &domain.EmptyInputError{Stage: "rfm aggregation"}
	}
	latest := calendarDay(transactions[0].Date)
	for _, tx := range transactions[1:] {
		if d := calendarDay(tx.Date); d.After(latest) {
			latest = d
		}
	}
	return latest.AddDate(0, 0, 1), nil
}

type accumulator struct {
	last      time.Time
	frequency int
	monetary  decimal.Decimal
}

// Aggregate reduces transactions to one CustomerRFM per distinct customer,
// sorted by customer id. The result does not depend on transaction order.
func Aggregate(transactions []domain.Transaction) (time.Time, []domain.CustomerRFM, error) {
	snapshot, err := SnapshotDate(transactions)
	if err != nil {
		return time.Time{}, nil, err
	}

	byCustomer := make(map[string]*accumulator)
	for _, tx := range transactions {
		if tx.CustomerID == "" {
			return time.Time{}, nil, &domain.ValidationError{Field: "customer_id", Message: "must not be empty"}
		}
		if tx.Amount.IsNegative() {
			return time.Time{}, nil, &domain.ValidationError{Field: "amount", Message: "must be non-negative for customer " + tx.CustomerID}
		}

		day := calendarDay(tx.Date)
		acc, ok := byCustomer[tx.CustomerID]
		if !ok {
			byCustomer[tx.CustomerID] = &accumulator{last: day, frequency: 1, monetary: tx.Amount}
			continue
		}
		if day.After(acc.last) {
			acc.last = day
		}
		acc.frequency++
		acc.monetary = acc.monetary.Add(tx.Amount)
	}

	customers := make([]domain.CustomerRFM, 0, len(byCustomer))
	for id, acc := range byCustomer {
		customers = append(customers, domain.CustomerRFM{
			CustomerID: id,
			Recency:    daysBetween(acc.last, snapshot),
			Frequency:  acc.frequency,
			Monetary:   acc.monetary,
		})
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CustomerID < customers[j].CustomerID
	})
	return snapshot, customers, nil
}

// calendarDay drops the clock part so recency counts whole calendar days.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
