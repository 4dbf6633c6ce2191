package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"customer-segmentation/internal/cleaning"
	"customer-segmentation/internal/cluster"
	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/observability"
	"customer-segmentation/internal/rfm"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures one segmentation run.
type Options struct {
	K    int
	Seed int64

	// Diagnose runs the cluster-count selector over [MinK, MaxK] before the final fit.
	Diagnose bool
	MinK     int
	MaxK     int
	Workers  int
	Progress cluster.Progress

	NInit   int
	MaxIter int

	UseRating            bool
	MissingRating        cluster.MissingRatingPolicy
	DropConstantFeatures bool

	// Clean drops rows without an amount and clips amount outliers.
	// When false a missing amount fails the run.
	Clean bool
}

// SegmentationUseCase orchestrates the RFM scoring and clustering pipeline.
type SegmentationUseCase struct {
	repo    TransactionRepository
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewSegmentationUseCase creates a new instance of the usecase.
func NewSegmentationUseCase(repo TransactionRepository, metrics *observability.Metrics, logger *zap.Logger) *SegmentationUseCase {
	return &SegmentationUseCase{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Segment loads the ledger from source and produces the full report.
func (uc *SegmentationUseCase) Segment(ctx context.Context, source string, opts Options) (*domain.SegmentationReport, error) {
	var warnings []string
	warn := func(msg string, fields ...zap.Field) {
		uc.logger.Warn(msg, fields...)
		uc.metrics.IncrWarning()
		warnings = append(warnings, msg)
	}

	// Step 1: Data Ingestion
	start := time.Now()
	raw, err := uc.repo.GetTransactions(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("could not get transactions: %w", err)
	}
	uc.metrics.AddRecords("loaded", len(raw))
	uc.stageDone("load", start, zap.Int("rows", len(raw)))

	// Step 2: Cleaning
	start = time.Now()
	transactions, summary, err := cleaning.Clean(raw, cleaning.Options{
		DropMissingAmounts: opts.Clean,
		ClipOutliers:       opts.Clean,
	})
	if err != nil {
		return nil, fmt.Errorf("could not clean transactions: %w", err)
	}
	uc.metrics.AddRecords("dropped_missing_amount", summary.MissingAmount)
	uc.metrics.AddRecords("clipped", summary.Clipped)
	uc.stageDone("clean", start,
		zap.Int("kept", summary.Output),
		zap.Int("missing_amount", summary.MissingAmount),
		zap.Int("clipped", summary.Clipped),
		zap.Stringer("upper_fence", summary.UpperFence),
	)

	// Step 3: RFM aggregation and scoring
	start = time.Now()
	snapshot, customers, err := rfm.Aggregate(transactions)
	if err != nil {
		return nil, fmt.Errorf("could not aggregate customers: %w", err)
	}
	scored, scoreWarnings, err := rfm.Score(customers)
	if err != nil {
		return nil, fmt.Errorf("could not score customers: %w", err)
	}
	for _, w := range scoreWarnings {
		warn(w.Error())
	}
	uc.metrics.AddRecords("customers", len(scored))
	uc.stageDone("rfm", start,
		zap.String("snapshot_date", snapshot.Format(time.DateOnly)),
		zap.Int("customers", len(scored)),
	)

	// Step 4: Features
	start = time.Now()
	features, err := cluster.BuildFeatures(scored, cluster.MeanRatings(transactions), cluster.FeatureOptions{
		UseRating:     opts.UseRating,
		MissingRating: opts.MissingRating,
	})
	if err != nil {
		return nil, fmt.Errorf("could not build features: %w", err)
	}
	if features.Imputed > 0 {
		warn(fmt.Sprintf("%d customers without a rating were given the median rating", features.Imputed))
	}
	if features.Dropped > 0 {
		warn(fmt.Sprintf("%d customers without a rating were left out of clustering", features.Dropped))
	}

	scaler, features, err := uc.fitScaler(features, opts.DropConstantFeatures, warn)
	if err != nil {
		return nil, fmt.Errorf("could not standardize features: %w", err)
	}
	standardized := scaler.Transform(features.Rows)
	uc.stageDone("features", start, zap.Strings("columns", features.Columns), zap.Int("rows", len(standardized)))

	// Step 5: Cluster-count diagnostics
	var selection *domain.SelectionReport
	if opts.Diagnose {
		start = time.Now()
		selection, err = cluster.Select(ctx, standardized, cluster.SelectorConfig{
			MinK:     opts.MinK,
			MaxK:     opts.MaxK,
			Seed:     opts.Seed,
			NInit:    opts.NInit,
			MaxIter:  opts.MaxIter,
			Workers:  opts.Workers,
			Progress: opts.Progress,
		})
		if err != nil {
			return nil, fmt.Errorf("could not run cluster selection: %w", err)
		}
		uc.stageDone("select", start, zap.Int("suggested_k", selection.SuggestedK))
	}

	// Step 6: Final partition
	start = time.Now()
	kc := cluster.DefaultKMeansConfig(opts.K, opts.Seed)
	if opts.NInit > 0 {
		kc.NInit = opts.NInit
	}
	if opts.MaxIter > 0 {
		kc.MaxIter = opts.MaxIter
	}
	model, err := cluster.Fit(standardized, kc)
	if err != nil {
		return nil, fmt.Errorf("could not cluster customers: %w", err)
	}

	labels := make([]int, len(scored))
	for i := range labels {
		labels[i] = domain.Unclustered
	}
	for row, idx := range features.Index {
		labels[idx] = model.Labels[row]
	}
	uc.stageDone("cluster", start,
		zap.Int("k", model.K),
		zap.Float64("inertia", model.Inertia),
		zap.Int("iterations", model.Iterations),
	)

	// Step 7: Report
	rows := make([]domain.CustomerRow, len(scored))
	for i, c := range scored {
		rows[i] = domain.NewCustomerRow(c, labels[i])
	}

	original := scaler.InverseTransform(model.Centroids)
	centroids := make([]domain.Centroid, model.K)
	for j := range centroids {
		centroids[j] = domain.Centroid{
			Cluster:      j,
			Standardized: model.Centroids[j],
			Original:     original[j],
		}
	}

	if warnings == nil {
		warnings = []string{}
	}
	report := &domain.SegmentationReport{
		RunID:             uuid.NewString(),
		GeneratedAt:       uc.now().UTC(),
		SnapshotDate:      snapshot.Format(time.DateOnly),
		TotalTransactions: len(transactions),
		TotalCustomers:    len(scored),
		Customers:         rows,
		SegmentCounts:     rfm.SegmentCounts(scored),
		ScoreCounts:       rfm.ScoreCounts(scored),
		SegmentProfiles:   rfm.SegmentProfiles(scored),
		Clustering: domain.ClusteringReport{
			K:          model.K,
			Seed:       opts.Seed,
			Features:   features.Columns,
			Inertia:    model.Inertia,
			Iterations: model.Iterations,
			Centroids:  centroids,
			Profiles:   rfm.ClusterProfiles(scored, labels),
			Excluded:   features.Dropped,
		},
		Selection: selection,
		Warnings:  warnings,
	}
	uc.metrics.ObserveReport(report)
	uc.logger.Info("segmentation finished",
		zap.String("run_id", report.RunID),
		zap.Int("customers", report.TotalCustomers),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// fitScaler standardizes the features. A constant column aborts the run unless
// dropConstant is set, in which case the column is removed and the fit retried.
func (uc *SegmentationUseCase) fitScaler(fs *cluster.FeatureSet, dropConstant bool, warn func(string, ...zap.Field)) (*cluster.Scaler, *cluster.FeatureSet, error) {
	for {
		scaler, err := cluster.FitScaler(fs.Columns, fs.Rows)
		if err == nil {
			return scaler, fs, nil
		}

		var degenerate *domain.DegenerateColumnError
		if !dropConstant || !errors.As(err, &degenerate) {
			return nil, nil, err
		}
		next, dropErr := fs.WithoutColumn(degenerate.Column)
		if dropErr != nil {
			return nil, nil, errors.Join(err, dropErr)
		}
		warn(fmt.Sprintf("feature column %q is constant and was dropped", degenerate.Column), zap.String("column", degenerate.Column))
		fs = next
	}
}

func (uc *SegmentationUseCase) stageDone(stage string, start time.Time, fields ...zap.Field) {
	d := time.Since(start)
	uc.metrics.RecordStage(stage, d)
	uc.logger.Info("stage finished", append([]zap.Field{zap.String("stage", stage), zap.Duration("took", d)}, fields...)...)
}
