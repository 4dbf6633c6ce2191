package cluster

import (
	"context"

	"customer-segmentation/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Progress receives one tick per fitted candidate k.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	ChangeMax(max int)
	Add(num int) error
}

// SelectorConfig configures the cluster-count diagnostics.
type SelectorConfig struct {
	MinK     int
	MaxK     int
	Seed     int64
	NInit    int
	MaxIter  int
	Workers  int
	Progress Progress
}

// Select fits k-means for every candidate k and records inertia (elbow method)
// and, for 2 <= k < n, the silhouette score. Candidates are fitted concurrently
// but each writes to its own slot, so the output equals a sequential run.
// It does not choose k.
func Select(ctx context.Context, x [][]float64, cfg SelectorConfig) (*domain.SelectionReport, error) {
	n := len(x)
	if n == 0 {
		return nil, &domain.EmptyInputError{Stage: "cluster selection"}
	}
	if cfg.MinK < 1 || cfg.MaxK < cfg.MinK {
		return nil, &domain.InvalidKError{K: cfg.MinK, Max: n}
	}

	maxK := min(cfg.MaxK, n)
	if maxK < cfg.MinK {
		return nil, &domain.InvalidKError{K: cfg.MinK, Max: n}
	}
	candidates := make([]int, 0, maxK-cfg.MinK+1)
	for k := cfg.MinK; k <= maxK; k++ {
		candidates = append(candidates, k)
	}
	if cfg.Progress != nil {
		cfg.Progress.ChangeMax(len(candidates))
	}

	inertia := make([]float64, len(candidates))
	silhouette := make([]float64, len(candidates))
	defined := make([]bool, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, k := range candidates {
		i, k := i, k
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			kc := DefaultKMeansConfig(k, cfg.Seed)
			if cfg.NInit > 0 {
				kc.NInit = cfg.NInit
			}
			if cfg.MaxIter > 0 {
				kc.MaxIter = cfg.MaxIter
			}
			model, err := Fit(x, kc)
			if err != nil {
				return err
			}
			inertia[i] = model.Inertia
			if k >= 2 {
				silhouette[i], defined[i] = Silhouette(x, model.Labels)
			}
			if cfg.Progress != nil {
				_ = cfg.Progress.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.SelectionReport{
		Inertia:    make([]domain.InertiaPoint, 0, len(candidates)),
		Silhouette: make([]domain.SilhouettePoint, 0, len(candidates)),
	}
	best := 0.0
	for i, k := range candidates {
		report.Inertia = append(report.Inertia, domain.InertiaPoint{K: k, Inertia: inertia[i]})
		if !defined[i] {
			continue
		}
		report.Silhouette = append(report.Silhouette, domain.SilhouettePoint{K: k, Score: silhouette[i]})
		if report.SuggestedK == 0 || silhouette[i] > best {
			report.SuggestedK, best = k, silhouette[i]
		}
	}
	return report, nil
}
