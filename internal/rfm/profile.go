package rfm

import (
	"sort"

	"customer-segmentation/internal/domain"
	"customer-segmentation/internal/stats"
)

type metricColumns struct {
	recency, frequency, monetary []float64
	r, f, m                      []float64
}

func (c *metricColumns) add(sc domain.ScoredCustomer) {
	c.recency = append(c.recency, float64(sc.Recency))
	c.frequency = append(c.frequency, float64(sc.Frequency))
	c.monetary = append(c.monetary, sc.Monetary.InexactFloat64())
	c.r = append(c.r, float64(sc.Score.R))
	c.f = append(c.f, float64(sc.Score.F))
	c.m = append(c.m, float64(sc.Score.M))
}

func summarize(values []float64) domain.MetricSummary {
	return domain.MetricSummary{Mean: stats.Mean(values), Median: stats.Median(values)}
}

// SegmentProfiles aggregates recency, frequency and monetary per segment.
// Segments without members are omitted; the rest follow rule priority order.
func SegmentProfiles(customers []domain.ScoredCustomer) []domain.SegmentProfile {
	groups := make(map[domain.Segment]*metricColumns)
	for _, c := range customers {
		g, ok := groups[c.Segment]
		if !ok {
			g = &metricColumns{}
			groups[c.Segment] = g
		}
		g.add(c)
	}

	profiles := make([]domain.SegmentProfile, 0, len(groups))
	for _, seg := range domain.Segments {
		g, ok := groups[seg]
		if !ok {
			continue
		}
		profiles = append(profiles, domain.SegmentProfile{
			Segment:   seg,
			Recency:   summarize(g.recency),
			Frequency: summarize(g.frequency),
			Monetary:  summarize(g.monetary),
			Count:     len(g.recency),
		})
	}
	return profiles
}

// ClusterProfiles aggregates metrics and mean scores per cluster. labels is
// aligned with customers; domain.Unclustered entries are skipped.
func ClusterProfiles(customers []domain.ScoredCustomer, labels []int) []domain.ClusterProfile {
	groups := make(map[int]*metricColumns)
	for i, c := range customers {
		label := labels[i]
		if label == domain.Unclustered {
			continue
		}
		g, ok := groups[label]
		if !ok {
			g = &metricColumns{}
			groups[label] = g
		}
		g.add(c)
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	profiles := make([]domain.ClusterProfile, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		profiles = append(profiles, domain.ClusterProfile{
			Cluster:    id,
			Recency:    summarize(g.recency),
			Frequency:  summarize(g.frequency),
			Monetary:   summarize(g.monetary),
			MeanRScore: stats.Mean(g.r),
			MeanFScore: stats.Mean(g.f),
			MeanMScore: stats.Mean(g.m),
			Count:      len(g.recency),
		})
	}
	return profiles
}

// SegmentCounts counts customers per segment.
func SegmentCounts(customers []domain.ScoredCustomer) map[domain.Segment]int {
	counts := make(map[domain.Segment]int)
	for _, c := range customers {
		counts[c.Segment]++
	}
	return counts
}

// ScoreCounts counts customers per RFM_Score code.
func ScoreCounts(customers []domain.ScoredCustomer) map[string]int {
	counts := make(map[string]int)
	for _, c := range customers {
		counts[c.Score.Code()]++
	}
	return counts
}
