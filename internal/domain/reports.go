package domain

import "time"

// MetricSummary holds the central tendency of one metric within a group.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// SegmentProfile aggregates the raw RFM metrics of one segment.
type SegmentProfile struct {
	Segment   Segment       `json:"segment"`
	Recency   MetricSummary `json:"recency"`
	Frequency MetricSummary `json:"frequency"`
	Monetary  MetricSummary `json:"monetary"`
	Count     int           `json:"count"`
}

// ClusterProfile aggregates the metrics and scores of one cluster.
type ClusterProfile struct {
	Cluster    int           `json:"cluster"`
	Recency    MetricSummary `json:"recency"`
	Frequency  MetricSummary `json:"frequency"`
	Monetary   MetricSummary `json:"monetary"`
	MeanRScore float64       `json:"mean_R_score"`
	MeanFScore float64       `json:"mean_F_score"`
	MeanMScore float64       `json:"mean_M_score"`
	Count      int           `json:"count"`
}

// Centroid is a cluster center in standardized space and in original feature units.
type Centroid struct {
	Cluster      int       `json:"cluster"`
	Standardized []float64 `json:"standardized"`
	Original     []float64 `json:"original"`
}

// InertiaPoint pairs a candidate k with its within-cluster sum of squares.
type InertiaPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// SilhouettePoint pairs a candidate k with its mean silhouette score.
type SilhouettePoint struct {
	K     int     `json:"k"`
	Score float64 `json:"score"`
}

// SelectionReport holds the diagnostics used to choose the cluster count.
// It does not choose k; SuggestedK is the best-silhouette candidate, 0 if none.
type SelectionReport struct {
	Inertia    []InertiaPoint    `json:"inertia"`
	Silhouette []SilhouettePoint `json:"silhouette"`
	SuggestedK int               `json:"suggested_k"`
}

// ClusteringReport describes the final partition.
type ClusteringReport struct {
	K          int              `json:"k"`
	Seed       int64            `json:"seed"`
	Features   []string         `json:"features"`
	Inertia    float64          `json:"inertia"`
	Iterations int              `json:"iterations"`
	Centroids  []Centroid       `json:"centroids"`
	Profiles   []ClusterProfile `json:"profiles"`
	Excluded   int              `json:"excluded"` // customers left out by the missing-rating policy
}

// SegmentationReport is the top-level structure for the final JSON output.
type SegmentationReport struct {
	RunID             string           `json:"run_id"`
	GeneratedAt       time.Time        `json:"generated_at"`
	SnapshotDate      string           `json:"snapshot_date"`
	TotalTransactions int              `json:"total_transactions"`
	TotalCustomers    int              `json:"total_customers"`
	Customers         []CustomerRow    `json:"customers"`
	SegmentCounts     map[Segment]int  `json:"segment_counts"`
	ScoreCounts       map[string]int   `json:"rfm_score_counts"`
	SegmentProfiles   []SegmentProfile `json:"segment_profiles"`
	Clustering        ClusteringReport `json:"clustering"`
	Selection         *SelectionReport `json:"selection,omitempty"`
	Warnings          []string         `json:"warnings"`
}
