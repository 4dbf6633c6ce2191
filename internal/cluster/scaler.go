package cluster

import (
	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/stats"
)

// Columns whose standard deviation falls below this are treated as constant.
const zeroScale = 1e-12

// Scaler standardizes feature columns to zero mean and unit variance.
// It is fitted once and read-only afterwards.
type Scaler struct {
	Columns []string
	Mean    []float64
	Scale   []float64
}

// FitScaler computes per-column population mean and standard deviation.
func FitScaler(columns []string, rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, &domain.EmptyInputError{Stage: "feature scaling"}
	}

	s := &Scaler{
		Columns: columns,
		Mean:    make([]float64, len(columns)),
		Scale:   make([]float64, len(columns)),
	}
	col := make([]float64, len(rows))
	for j, name := range columns {
		for i, row := range rows {
			col[i] = row[j]
		}
		mean, std := stats.PopMeanStd(col)
		if std < zeroScale {
			return nil, &domain.DegenerateColumnError{Column: name}
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Transform returns standardized copies of rows.
func (s *Scaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		z := make([]float64, len(row))
		for j, v := range row {
			z[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = z
	}
	return out
}

// InverseTransform maps standardized rows back to original units.
func (s *Scaler) InverseTransform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		x := make([]float64, len(row))
		for j, v := range row {
			x[j] = v*s.Scale[j] + s.Mean[j]
		}
		out[i] = x
	}
	return out
}
