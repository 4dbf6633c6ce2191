package cluster

import "gonum.org/v1/gonum/floats"

// Silhouette returns the mean silhouette coefficient of a labelling.
// ok is false when the score is undefined: fewer than two non-empty clusters,
// or every point in its own cluster. Points in singleton clusters score 0.
func Silhouette(x [][]float64, labels []int) (score float64, ok bool) {
	n := len(x)
	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	if len(sizes) < 2 || len(sizes) >= n {
		return 0, false
	}

	total := 0.0
	sumTo := make(map[int]float64, len(sizes))
	for i := range x {
		if sizes[labels[i]] == 1 {
			continue
		}
		for l := range sumTo {
			delete(sumTo, l)
		}
		for j := range x {
			if i == j {
				continue
			}
			sumTo[labels[j]] += floats.Distance(x[i], x[j], 2)
		}

		a := sumTo[labels[i]] / float64(sizes[labels[i]]-1)
		b := -1.0
		for l, size := range sizes {
			if l == labels[i] {
				continue
			}
			if mean := sumTo[l] / float64(size); b < 0 || mean < b {
				b = mean
			}
		}

		if m := max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n), true
}
