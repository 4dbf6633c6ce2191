package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Segment is a human-readable RFM segment label.
type Segment string

const (
	SegmentTopChampions   Segment = "Top Champions"
	SegmentChampions      Segment = "Champions"
	SegmentAtRisk         Segment = "At Risk"
	SegmentRecentBuyers   Segment = "Recent Buyers"
	SegmentFrequentBuyers Segment = "Frequent Buyers"
	SegmentOthers         Segment = "Others"
)

// Segments lists every label in rule priority order.
var Segments = []Segment{
	SegmentTopChampions,
	SegmentChampions,
	SegmentAtRisk,
	SegmentRecentBuyers,
	SegmentFrequentBuyers,
	SegmentOthers,
}

// Unclustered marks a customer that was excluded from clustering.
const Unclustered = -1

// CustomerRFM is the per-customer reduction of the transaction ledger.
type CustomerRFM struct {
	CustomerID string          `json:"customer_id"`
	Recency    int             `json:"recency"`
	Frequency  int             `json:"frequency"`
	Monetary   decimal.Decimal `json:"monetary"`
}

// RFMScore holds the 1-5 quintile scores of a customer.
type RFMScore struct {
	R int `json:"R_score"`
	F int `json:"F_score"`
	M int `json:"M_score"`
}

// Code is the three character concatenation of the scores, e.g. "555".
func (s RFMScore) Code() string {
	return fmt.Sprintf("%d%d%d", s.R, s.F, s.M)
}

// ScoredCustomer is a CustomerRFM with its scores and segment attached.
type ScoredCustomer struct {
	CustomerRFM
	Score   RFMScore `json:"score"`
	Segment Segment  `json:"segment"`
}

// CustomerRow is one line of the output table consumed by the presentation layer.
// Field order is the column order.
type CustomerRow struct {
	CustomerID string          `json:"customer_id"`
	Recency    int             `json:"recency"`
	Frequency  int             `json:"frequency"`
	Monetary   decimal.Decimal `json:"monetary"`
	RScore     int             `json:"R_score"`
	FScore     int             `json:"F_score"`
	MScore     int             `json:"M_score"`
	RFMScore   string          `json:"RFM_Score"`
	Segment    Segment         `json:"segment"`
	Cluster    *int            `json:"cluster"` // nil when the customer was not clustered
}

// CustomerTableColumns is the stable column order of the output table.
var CustomerTableColumns = []string{
	"customer_id", "recency", "frequency", "monetary",
	"R_score", "F_score", "M_score", "RFM_Score", "segment", "cluster",
}

// NewCustomerRow flattens a scored customer and its cluster id into an output row.
func NewCustomerRow(c ScoredCustomer, cluster int) CustomerRow {
	row := CustomerRow{
		CustomerID: c.CustomerID,
		Recency:    c.Recency,
		Frequency:  c.Frequency,
		Monetary:   c.Monetary,
		RScore:     c.Score.R,
		FScore:     c.Score.F,
		MScore:     c.Score.M,
		RFMScore:   c.Score.Code(),
		Segment:    c.Segment,
	}
	if cluster != Unclustered {
		id := cluster
		row.Cluster = &id
	}
	return row
}
