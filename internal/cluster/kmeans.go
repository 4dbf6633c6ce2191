package cluster

import (
	"math"
	"math/rand"

	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/stats"
)

// KMeansConfig configures a seeded k-means fit.
type KMeansConfig struct {
	K       int
	Seed    int64
	NInit   int     // independent k-means++ restarts, best inertia kept
	MaxIter int     // Lloyd iterations per restart
	Tol     float64 // relative to the mean per-column variance of the data
}

// DefaultKMeansConfig returns 10 restarts of at most 300 iterations with tolerance 1e-4.
func DefaultKMeansConfig(k int, seed int64) KMeansConfig {
	return KMeansConfig{K: k, Seed: seed, NInit: 10, MaxIter: 300, Tol: 1e-4}
}

// Model is a fitted partition.
type Model struct {
	K          int
	Centroids  [][]float64
	Labels     []int
	Inertia    float64
	Iterations int
}

// Fit partitions x into cfg.K clusters minimizing the within-cluster sum of
// squared distances. The result depends only on x and cfg: the same seed
// reproduces the same labels, label numbering included.
func Fit(x [][]float64, cfg KMeansConfig) (*Model, error) {
	if len(x) == 0 {
		return nil, &domain.EmptyInputError{Stage: "clustering"}
	}
	if cfg.K < 1 || cfg.K > len(x) {
		return nil, &domain.InvalidKError{K: cfg.K, Max: len(x)}
	}
	if cfg.NInit < 1 {
		cfg.NInit = 1
	}
	if cfg.MaxIter < 1 {
		cfg.MaxIter = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	tol := cfg.Tol * meanVariance(x)

	var best *Model
	for run := 0; run < cfg.NInit; run++ {
		centers := seedPlusPlus(x, cfg.K, rng)
		m := lloyd(x, centers, cfg.MaxIter, tol)
		if best == nil || m.Inertia < best.Inertia {
			best = m
		}
	}
	return best, nil
}

// Predict assigns each row to its nearest centroid.
func (m *Model) Predict(x [][]float64) []int {
	labels := make([]int, len(x))
	for i, p := range x {
		labels[i], _ = nearest(p, m.Centroids)
	}
	return labels
}

// seedPlusPlus picks k initial centers with D² weighting.
func seedPlusPlus(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(x[rng.Intn(len(x))]))

	d2 := make([]float64, len(x))
	for i, p := range x {
		d2[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		total := 0.0
		for _, d := range d2 {
			total += d
		}

		next := -1
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range d2 {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// Every point coincides with a chosen center.
			next = rng.Intn(len(x))
		}

		c := clone(x[next])
		centers = append(centers, c)
		for i, p := range x {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

func lloyd(x [][]float64, centers [][]float64, maxIter int, tol float64) *Model {
	k := len(centers)
	dim := len(x[0])
	labels := make([]int, len(x))
	dists := make([]float64, len(x))

	iter := 0
	for iter < maxIter {
		iter++
		for i, p := range x {
			labels[i], dists[i] = nearest(p, centers)
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range x {
			counts[labels[i]]++
			for j, v := range p {
				sums[labels[i]][j] += v
			}
		}

		relocateEmpty(x, labels, dists, counts, sums)

		shift := 0.0
		for c := range centers {
			next := make([]float64, dim)
			for j := range next {
				next[j] = sums[c][j] / float64(counts[c])
			}
			shift += sqDist(next, centers[c])
			centers[c] = next
		}
		if shift <= tol {
			break
		}
	}

	inertia := 0.0
	for i, p := range x {
		var d float64
		labels[i], d = nearest(p, centers)
		inertia += d
	}
	return &Model{K: k, Centroids: centers, Labels: labels, Inertia: inertia, Iterations: iter}
}

// relocateEmpty moves the points farthest from their centers into empty clusters.
func relocateEmpty(x [][]float64, labels []int, dists []float64, counts []int, sums [][]float64) {
	for c := range counts {
		if counts[c] > 0 {
			continue
		}
		far := -1
		for i := range x {
			if counts[labels[i]] < 2 {
				continue
			}
			if far < 0 || dists[i] > dists[far] {
				far = i
			}
		}
		if far < 0 {
			return
		}
		from := labels[far]
		for j, v := range x[far] {
			sums[from][j] -= v
			sums[c][j] = v
		}
		counts[from]--
		counts[c] = 1
		labels[far] = c
		dists[far] = 0
	}
}

// nearest returns the closest center index (lowest index on ties) and its squared distance.
func nearest(p []float64, centers [][]float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func meanVariance(x [][]float64) float64 {
	dim := len(x[0])
	col := make([]float64, len(x))
	total := 0.0
	for j := 0; j < dim; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		_, std := stats.PopMeanStd(col)
		total += std * std
	}
	return total / float64(dim)
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
