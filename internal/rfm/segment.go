package rfm

import "customer-segmentation/internal/domain"

// Classify maps a score triple to its segment. Rules are checked in order and
// the first match wins; the conditions overlap, so the order decides the label.
func Classify(s domain.RFMScore) domain.Segment {
	switch {
	case s.Code() == "555":
		return domain.SegmentTopChampions
	case s.R >= 4 && s.F >= 4:
		return domain.SegmentChampions
	case s.R <= 2 && s.F <= 2:
		return domain.SegmentAtRisk
	case s.R >= 4:
		return domain.SegmentRecentBuyers
	case s.F >= 4:
		return domain.SegmentFrequentBuyers
	default:
		return domain.SegmentOthers
	}
}
