package report

import "fmt"

const (
	RecommendRoute       = "route_to_winner"
	RecommendReliability = "investigate_reliability"
	RecommendCapacity    = "add_capacity"
)

type Recommendation struct {
	Kind       string `json:"kind"`
	ItemID     int64  `json:"item_id"`
	VariantID  int64  `json:"variant_id"`
	VariantKey string `json:"variant_key"`
	Message    string `json:"message"`
}

func variantLabel(r *Row) string {
	if r.VariantKey != "" {
		return r.VariantKey
	}
	return fmt.Sprintf("variant %d", r.VariantID)
}

func recommendationFor(kind string, r *Row, message string) Recommendation {
	return Recommendation{
		Kind:       kind,
		ItemID:     r.ItemID,
		VariantID:  r.VariantID,
		VariantKey: r.VariantKey,
		Message:    message,
	}
}

// Recommend lists the routing recommendation for the winner first, then
// reliability and capacity findings, each in rank order.
func Recommend(ranked []*Row, winner *Row, th Thresholds) []Recommendation {
	recs := []Recommendation{}
	if winner != nil {
		recs = append(recs, recommendationFor(RecommendRoute, winner,
			fmt.Sprintf("Route traffic to %s, margin %.6f USD over %d dispatches",
				variantLabel(winner), winner.MarginUSD, winner.DispatchCount)))
	}
	for _, r := range ranked {
		if th.reliabilityIssue(r) {
			recs = append(recs, recommendationFor(RecommendReliability, r,
				fmt.Sprintf("Investigate reliability of %s, failure rate %.4f%% is at or above %.2f%%",
					variantLabel(r), r.FailureRatePercent, th.FailureRatePercent)))
		}
	}
	for _, r := range ranked {
		if th.capacityIssue(r) {
			recs = append(recs, recommendationFor(RecommendCapacity, r,
				fmt.Sprintf("Add capacity for %s, queue wait p95 %.4fs is at or above %.2fs",
					variantLabel(r), r.QueueWaitP95Seconds.Float64, th.QueueWaitP95Seconds)))
		}
	}
	return recs
}
