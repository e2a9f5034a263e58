package models

// Key is the pair's reporting key, "A|B" in stored order.
func (p FoundationPair) Key() string {
	return p.A + "|" + p.B
}

// AssignmentReport aggregates pair and single-foundation assignment
// counts over all persisted participants.
type AssignmentReport struct {
	PairCounts   map[string]int `json:"pair_counts"`
	SingleCounts map[string]int `json:"single_counts"`
}

// FoundationAggregate counts ratings per label for one foundation.
type FoundationAggregate struct {
	Original  int `json:"original"`
	Generated int `json:"generated"`
	Total     int `json:"total"`
}

// ResponsesReport is the admin view of submitted ratings.
type ResponsesReport struct {
	AggregatesByFoundation map[string]*FoundationAggregate `json:"aggregates_by_foundation"`
	RecentResponses        []Response                      `json:"recent_responses"`
}
