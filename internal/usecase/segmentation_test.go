package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"customer-segmentation/internal/cluster"
	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/observability"
	"customer-segmentation/internal/usecase"
	mock_usecase "customer-segmentation/internal/usecase/mocks"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const source = "/data/fashion_sales.csv"

var lastPurchase = time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

// ledger builds five customers A..E where A bought five times and most recently,
// B four times one day earlier, down to E with a single purchase.
// ratings[i] is the rating of every purchase of customer i; nil leaves it unrated.
func ledger(ratings ...*float64) []domain.RawTransaction {
	var txs []domain.RawTransaction
	for i, id := range []string{"A", "B", "C", "D", "E"} {
		purchases := 5 - i
		last := lastPurchase.AddDate(0, 0, -i)
		for p := 0; p < purchases; p++ {
			tx := domain.RawTransaction{
				CustomerID: id,
				Date:       last.AddDate(0, 0, -7*p),
				Amount:     decimal.NewNullDecimal(decimal.NewFromInt(100)),
			}
			if i < len(ratings) {
				tx.Rating = ratings[i]
			}
			txs = append(txs, tx)
		}
	}
	return txs
}

func rating(v float64) *float64 { return &v }

func baseOptions() usecase.Options {
	return usecase.Options{
		K:             2,
		Seed:          42,
		NInit:         10,
		MaxIter:       300,
		MinK:          1,
		MaxK:          10,
		Workers:       2,
		MissingRating: cluster.ImputeMedian,
		Clean:         true,
	}
}

func newUseCase(t *testing.T, txs []domain.RawTransaction, repoErr error) (*usecase.SegmentationUseCase, *observability.Metrics) {
	ctrl := gomock.NewController(t)
	repo := mock_usecase.NewMockTransactionRepository(ctrl)
	repo.EXPECT().GetTransactions(gomock.Any(), source).Return(txs, repoErr).Times(1)

	metrics := observability.NewMetrics()
	return usecase.NewSegmentationUseCase(repo, metrics, zap.NewNop()), metrics
}

func rowsByID(report *domain.SegmentationReport) map[string]domain.CustomerRow {
	out := make(map[string]domain.CustomerRow, len(report.Customers))
	for _, row := range report.Customers {
		out[row.CustomerID] = row
	}
	return out
}

func TestSegmentationUseCase_Segment(t *testing.T) {
	uc, _ := newUseCase(t, ledger(), nil)

	report, err := uc.Segment(context.Background(), source, baseOptions())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "2023-06-11", report.SnapshotDate)
	assert.Equal(t, 15, report.TotalTransactions)
	assert.Equal(t, 5, report.TotalCustomers)
	assert.Empty(t, report.Warnings)
	assert.Nil(t, report.Selection)

	rows := rowsByID(report)
	tests := []struct {
		id        string
		recency   int
		frequency int
		monetary  int64
		code      string
		segment   domain.Segment
	}{
		{"A", 1, 5, 500, "555", domain.SegmentTopChampions},
		{"B", 2, 4, 400, "444", domain.SegmentChampions},
		{"C", 3, 3, 300, "333", domain.SegmentOthers},
		{"D", 4, 2, 200, "222", domain.SegmentAtRisk},
		{"E", 5, 1, 100, "111", domain.SegmentAtRisk},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			row, ok := rows[tt.id]
			require.True(t, ok)
			assert.Equal(t, tt.recency, row.Recency)
			assert.Equal(t, tt.frequency, row.Frequency)
			assert.True(t, decimal.NewFromInt(tt.monetary).Equal(row.Monetary), "monetary %s", row.Monetary)
			assert.Equal(t, tt.code, row.RFMScore)
			assert.Equal(t, tt.segment, row.Segment)
			require.NotNil(t, row.Cluster)
		})
	}

	assert.Equal(t, map[domain.Segment]int{
		domain.SegmentTopChampions: 1,
		domain.SegmentChampions:    1,
		domain.SegmentOthers:       1,
		domain.SegmentAtRisk:       2,
	}, report.SegmentCounts)

	// Points lie on a line; both optimal 2-partitions keep A with B and D with E.
	assert.Equal(t, *rows["A"].Cluster, *rows["B"].Cluster)
	assert.Equal(t, *rows["D"].Cluster, *rows["E"].Cluster)
	assert.NotEqual(t, *rows["A"].Cluster, *rows["E"].Cluster)

	c := report.Clustering
	assert.Equal(t, 2, c.K)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, []string{cluster.ColumnRScore, cluster.ColumnFScore, cluster.ColumnMScore}, c.Features)
	assert.Len(t, c.Centroids, 2)
	assert.Zero(t, c.Excluded)

	total := 0
	for _, p := range c.Profiles {
		total += p.Count
	}
	assert.Equal(t, 5, total)
}

func TestSegmentationUseCase_Segment_SingleCluster(t *testing.T) {
	uc, _ := newUseCase(t, ledger(), nil)
	opts := baseOptions()
	opts.K = 1

	report, err := uc.Segment(context.Background(), source, opts)
	require.NoError(t, err)

	for _, row := range report.Customers {
		require.NotNil(t, row.Cluster)
		assert.Equal(t, 0, *row.Cluster)
	}
	require.Len(t, report.Clustering.Centroids, 1)
	for _, v := range report.Clustering.Centroids[0].Original {
		assert.InDelta(t, 3.0, v, 1e-9)
	}
	for _, v := range report.Clustering.Centroids[0].Standardized {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestSegmentationUseCase_Segment_Deterministic(t *testing.T) {
	opts := baseOptions()
	opts.UseRating = true
	ratings := []*float64{rating(5), rating(4), rating(2), rating(4), rating(1)}

	first, _ := newUseCase(t, ledger(ratings...), nil)
	second, _ := newUseCase(t, ledger(ratings...), nil)

	a, err := first.Segment(context.Background(), source, opts)
	require.NoError(t, err)
	b, err := second.Segment(context.Background(), source, opts)
	require.NoError(t, err)

	assert.Equal(t, a.Customers, b.Customers)
	assert.Equal(t, a.Clustering, b.Clustering)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSegmentationUseCase_Segment_MissingRatings(t *testing.T) {
	ratings := []*float64{rating(5), rating(4), rating(3), rating(2), nil}

	t.Run("impute median", func(t *testing.T) {
		uc, metrics := newUseCase(t, ledger(ratings...), nil)
		opts := baseOptions()
		opts.UseRating = true

		report, err := uc.Segment(context.Background(), source, opts)
		require.NoError(t, err)

		assert.Contains(t, report.Clustering.Features, cluster.ColumnRatingMean)
		assert.Zero(t, report.Clustering.Excluded)
		assert.Len(t, report.Warnings, 1)
		assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(`
# HELP segmenter_warnings_total Degraded-mode warnings raised during the run.
# TYPE segmenter_warnings_total counter
segmenter_warnings_total 1
`), "segmenter_warnings_total"))
		assert.NotNil(t, rowsByID(report)["E"].Cluster)
	})

	t.Run("drop", func(t *testing.T) {
		uc, _ := newUseCase(t, ledger(ratings...), nil)
		opts := baseOptions()
		opts.UseRating = true
		opts.MissingRating = cluster.DropMissing

		report, err := uc.Segment(context.Background(), source, opts)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Clustering.Excluded)
		assert.Len(t, report.Warnings, 1)
		rows := rowsByID(report)
		assert.Nil(t, rows["E"].Cluster)
		assert.Equal(t, "111", rows["E"].RFMScore)
		assert.NotNil(t, rows["A"].Cluster)

		total := 0
		for _, p := range report.Clustering.Profiles {
			total += p.Count
		}
		assert.Equal(t, 4, total)
	})
}

func TestSegmentationUseCase_Segment_ConstantFeature(t *testing.T) {
	ratings := []*float64{rating(4), rating(4), rating(4), rating(4), rating(4)}

	t.Run("aborts by default", func(t *testing.T) {
		uc, _ := newUseCase(t, ledger(ratings...), nil)
		opts := baseOptions()
		opts.UseRating = true

		_, err := uc.Segment(context.Background(), source, opts)
		var degenerate *domain.DegenerateColumnError
		require.True(t, errors.As(err, &degenerate))
		assert.Equal(t, cluster.ColumnRatingMean, degenerate.Column)
	})

	t.Run("drops the column when allowed", func(t *testing.T) {
		uc, _ := newUseCase(t, ledger(ratings...), nil)
		opts := baseOptions()
		opts.UseRating = true
		opts.DropConstantFeatures = true

		report, err := uc.Segment(context.Background(), source, opts)
		require.NoError(t, err)
		assert.NotContains(t, report.Clustering.Features, cluster.ColumnRatingMean)
		assert.Len(t, report.Warnings, 1)
	})
}

func TestSegmentationUseCase_Segment_Diagnose(t *testing.T) {
	uc, _ := newUseCase(t, ledger(), nil)
	opts := baseOptions()
	opts.Diagnose = true

	report, err := uc.Segment(context.Background(), source, opts)
	require.NoError(t, err)
	require.NotNil(t, report.Selection)

	// Candidates are capped at the number of customers.
	require.Len(t, report.Selection.Inertia, 5)
	for i, p := range report.Selection.Inertia {
		assert.Equal(t, i+1, p.K)
	}
	assert.NotEmpty(t, report.Selection.Silhouette)
	for _, p := range report.Selection.Silhouette {
		assert.GreaterOrEqual(t, p.K, 2)
		assert.Less(t, p.K, 5)
	}
	assert.GreaterOrEqual(t, report.Selection.SuggestedK, 2)
}

func TestSegmentationUseCase_Segment_MissingAmounts(t *testing.T) {
	withGap := func() []domain.RawTransaction {
		txs := ledger()
		return append(txs, domain.RawTransaction{CustomerID: "A", Date: lastPurchase})
	}

	t.Run("dropped when cleaning", func(t *testing.T) {
		uc, _ := newUseCase(t, withGap(), nil)
		report, err := uc.Segment(context.Background(), source, baseOptions())
		require.NoError(t, err)
		assert.Equal(t, 15, report.TotalTransactions)
	})

	t.Run("rejected without cleaning", func(t *testing.T) {
		uc, _ := newUseCase(t, withGap(), nil)
		opts := baseOptions()
		opts.Clean = false

		_, err := uc.Segment(context.Background(), source, opts)
		var verr *domain.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestSegmentationUseCase_Segment_Errors(t *testing.T) {
	repoErr := errors.New("disk on fire")
	single := []domain.RawTransaction{{
		CustomerID: "A",
		Date:       lastPurchase,
		Amount:     decimal.NewNullDecimal(decimal.NewFromInt(10)),
	}}

	tests := []struct {
		name    string
		txs     []domain.RawTransaction
		repoErr error
		k       int
		check   func(t *testing.T, err error)
	}{
		{
			name:    "repository error is wrapped",
			repoErr: repoErr,
			k:       2,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, repoErr)
			},
		},
		{
			name: "empty ledger",
			k:    2,
			check: func(t *testing.T, err error) {
				var empty *domain.EmptyInputError
				assert.True(t, errors.As(err, &empty))
			},
		},
		{
			name: "single customer cannot be scored",
			txs:  single,
			k:    1,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrPopulationTooSmall)
			},
		},
		{
			name: "k larger than the population",
			txs:  ledger(),
			k:    6,
			check: func(t *testing.T, err error) {
				var invalid *domain.InvalidKError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, 5, invalid.Max)
			},
		},
		{
			name: "k below one",
			txs:  ledger(),
			k:    0,
			check: func(t *testing.T, err error) {
				var invalid *domain.InvalidKError
				assert.True(t, errors.As(err, &invalid))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newUseCase(t, tt.txs, tt.repoErr)
			opts := baseOptions()
			opts.K = tt.k

			report, err := uc.Segment(context.Background(), source, opts)
			require.Error(t, err)
			assert.Nil(t, report)
			tt.check(t, err)
		})
	}
}
