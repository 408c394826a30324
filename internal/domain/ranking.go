package domain

import "time"

// RankedCandidate is one row of a Ranking.
type RankedCandidate struct {
	// CandidateID identifies the candidate.
	CandidateID string `json:"candidate_id"`

	// Overall is the candidate's aggregate score in [0,100].
	Overall float64 `json:"overall"`

	// Rank is the 1-based position, rank 1 being the top candidate.
	// Rank is strictly increasing as Overall descends; ties are fully
	// resolved by the ranking engine's documented tie-break chain.
	Rank int `json:"rank"`

	// Percentile is 100 * (1 - rank/total).
	Percentile float64 `json:"percentile"`
}

// Ranking is an ordered snapshot over a fixed candidate set at a point in
// time. It is regenerated on demand from the CandidateSummary set, which
// remains the source of truth; a Ranking is never persisted as one.
type Ranking struct {
	// Candidates is ordered best-first.
	Candidates []RankedCandidate `json:"candidates"`

	// GeneratedAt records when this ranking was produced.
	GeneratedAt time.Time `json:"generated_at"`
}
