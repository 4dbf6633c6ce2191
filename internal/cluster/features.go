// Package cluster builds standardized feature matrices and partitions
// customers with seeded k-means.
package cluster

import (
	"fmt"
	"sort"

	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/stats"
)

// MissingRatingPolicy decides what happens to customers without a rated purchase.
type MissingRatingPolicy string

const (
	// ImputeMedian fills the missing mean rating with the median of the rated customers.
	ImputeMedian MissingRatingPolicy = "impute-median"
	// DropMissing leaves the customer out of the feature matrix.
	DropMissing MissingRatingPolicy = "drop"
)

// ParseMissingRatingPolicy validates a policy name.
func ParseMissingRatingPolicy(s string) (MissingRatingPolicy, error) {
	switch p := MissingRatingPolicy(s); p {
	case ImputeMedian, DropMissing:
		return p, nil
	default:
		return "", &domain.ValidationError{Field: "missing_rating", Message: fmt.Sprintf("unknown policy %q", s)}
	}
}

const (
	ColumnRScore     = "R_score"
	ColumnFScore     = "F_score"
	ColumnMScore     = "M_score"
	ColumnRatingMean = "rating_mean"
)

// FeatureOptions selects the clustering features.
type FeatureOptions struct {
	UseRating     bool
	MissingRating MissingRatingPolicy
}

// FeatureSet is a feature matrix with one row per included customer.
// Index maps each row back to its position in the customer slice it was built from.
type FeatureSet struct {
	Columns []string
	Rows    [][]float64
	Index   []int

	Imputed int
	Dropped int
}

// MeanRatings averages the rated transactions of each customer.
// Customers with no rated transaction are absent from the map.
func MeanRatings(transactions []domain.Transaction) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, tx := range transactions {
		if !tx.HasRating() {
			continue
		}
		sums[tx.CustomerID] += *tx.Rating
		counts[tx.CustomerID]++
	}
	means := make(map[string]float64, len(sums))
	for id, sum := range sums {
		means[id] = sum / float64(counts[id])
	}
	return means
}

// BuildFeatures assembles R, F and M scores and, optionally, the mean rating.
// Missing ratings are resolved by opts.MissingRating before any row is emitted.
func BuildFeatures(customers []domain.ScoredCustomer, ratings map[string]float64, opts FeatureOptions) (*FeatureSet, error) {
	if len(customers) == 0 {
		return nil, &domain.EmptyInputError{Stage: "feature building"}
	}

	fs := &FeatureSet{Columns: []string{ColumnRScore, ColumnFScore, ColumnMScore}}
	if !opts.UseRating {
		for i, c := range customers {
			fs.Rows = append(fs.Rows, scoreRow(c))
			fs.Index = append(fs.Index, i)
		}
		return fs, nil
	}

	fs.Columns = append(fs.Columns, ColumnRatingMean)
	fill, err := ratingFill(customers, ratings, opts.MissingRating)
	if err != nil {
		return nil, err
	}

	for i, c := range customers {
		rating, ok := ratings[c.CustomerID]
		if !ok {
			if opts.MissingRating == DropMissing {
				fs.Dropped++
				continue
			}
			rating = fill
			fs.Imputed++
		}
		fs.Rows = append(fs.Rows, append(scoreRow(c), rating))
		fs.Index = append(fs.Index, i)
	}
	if len(fs.Rows) == 0 {
		return nil, &domain.EmptyInputError{Stage: "feature building (every customer lacks a rating)"}
	}
	return fs, nil
}

func ratingFill(customers []domain.ScoredCustomer, ratings map[string]float64, policy MissingRatingPolicy) (float64, error) {
	switch policy {
	case DropMissing:
		return 0, nil
	case ImputeMedian:
		known := make([]float64, 0, len(customers))
		for _, c := range customers {
			if r, ok := ratings[c.CustomerID]; ok {
				known = append(known, r)
			}
		}
		if len(known) == 0 {
			return 0, &domain.EmptyInputError{Stage: "rating imputation (no customer has a rating)"}
		}
		sort.Float64s(known)
		return stats.Quantile(known, 0.5), nil
	default:
		_, err := ParseMissingRatingPolicy(string(policy))
		return 0, err
	}
}

func scoreRow(c domain.ScoredCustomer) []float64 {
	return []float64{float64(c.Score.R), float64(c.Score.F), float64(c.Score.M)}
}

// WithoutColumn returns a copy of fs with the named column removed.
func (fs *FeatureSet) WithoutColumn(name string) (*FeatureSet, error) {
	col := -1
	for i, c := range fs.Columns {
		if c == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("feature column %q not found", name)
	}
	if len(fs.Columns) == 1 {
		return nil, &domain.DegenerateColumnError{Column: name}
	}

	out := &FeatureSet{
		Columns: append(append([]string{}, fs.Columns[:col]...), fs.Columns[col+1:]...),
		Rows:    make([][]float64, len(fs.Rows)),
		Index:   fs.Index,
		Imputed: fs.Imputed,
		Dropped: fs.Dropped,
	}
	for i, row := range fs.Rows {
		out.Rows[i] = append(append([]float64{}, row[:col]...), row[col+1:]...)
	}
	return out, nil
}
