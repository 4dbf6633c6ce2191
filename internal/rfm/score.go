package rfm

import (
	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/stats"
)

// Direction controls how a metric's bin maps to a score.
type Direction int

const (
	// Ascending gives higher values higher scores (frequency, monetary).
	Ascending Direction = iota
	// Descending gives higher values lower scores (recency: fewer days is better).
	Descending
)

const (
	MetricRecency   = "recency"
	MetricFrequency = "frequency"
	MetricMonetary  = "monetary"
)

// Quintile cut points.
var quintiles = []float64{0.2, 0.4, 0.6, 0.8}

// ColumnScores is the result of scoring one metric over the population.
type ColumnScores struct {
	Metric      string
	Breakpoints []float64
	Scores      []int

	// Warning is an *domain.InsufficientDistinctValuesError when the cut points
	// collapsed. The scores are still usable.
	Warning error
}

// ScoreColumn assigns every value a 1-5 score by quintile binning over the whole population.
//
// Bins are right-closed: a value equal to a cut point falls into the lower bin,
// and the minimum always lands in the first bin. When the metric has fewer than
// five distinct values some cut points coincide and the affected bins stay empty;
// this is reported through Warning and not corrected.
func ScoreColumn(metric string, values []float64, dir Direction) (*ColumnScores, error) {
	if len(values) == 0 {
		return nil, &domain.EmptyInputError{Stage: "quantile scoring of " + metric}
	}
	if len(values) < 2 {
		return nil, domain.ErrPopulationTooSmall
	}

	breaks := stats.Quantiles(values, quintiles...)
	scores := make([]int, len(values))
	for i, v := range values {
		bin := 0
		for _, b := range breaks {
			if v > b {
				bin++
			}
		}
		if dir == Descending {
			scores[i] = 5 - bin
		} else {
			scores[i] = bin + 1
		}
	}

	result := &ColumnScores{Metric: metric, Breakpoints: breaks, Scores: scores}
	if distinct := stats.Distinct(values); distinct < 5 {
		result.Warning = &domain.InsufficientDistinctValuesError{Metric: metric, Distinct: distinct}
	}
	return result, nil
}

// Score computes R, F and M scores for the population and labels each customer's segment.
// It returns new ScoredCustomer values in input order plus any degraded-mode warnings.
func Score(customers []domain.CustomerRFM) ([]domain.ScoredCustomer, []error, error) {
	recency := make([]float64, len(customers))
	frequency := make([]float64, len(customers))
	monetary := make([]float64, len(customers))
	for i, c := range customers {
		recency[i] = float64(c.Recency)
		frequency[i] = float64(c.Frequency)
		monetary[i] = c.Monetary.InexactFloat64()
	}

	r, err := ScoreColumn(MetricRecency, recency, Descending)
	if err != nil {
		return nil, nil, err
	}
	f, err := ScoreColumn(MetricFrequency, frequency, Ascending)
	if err != nil {
		return nil, nil, err
	}
	m, err := ScoreColumn(MetricMonetary, monetary, Ascending)
	if err != nil {
		return nil, nil, err
	}

	var warnings []error
	for _, col := range []*ColumnScores{r, f, m} {
		if col.Warning != nil {
			warnings = append(warnings, col.Warning)
		}
	}

	scored := make([]domain.ScoredCustomer, len(customers))
	for i, c := range customers {
		score := domain.RFMScore{R: r.Scores[i], F: f.Scores[i], M: m.Scores[i]}
		scored[i] = domain.ScoredCustomer{
			CustomerRFM: c,
			Score:       score,
			Segment:     Classify(score),
		}
	}
	return scored, warnings, nil
}
