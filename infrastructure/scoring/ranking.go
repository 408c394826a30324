package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/sheetwise/evalengine/internal/domain"
)

// RankingConfig controls tie-breaking behavior when ordering candidates.
type RankingConfig struct {
	// HardTopics lists the topics whose mean score breaks ties between
	// candidates with equal overall scores and equal answer counts.
	HardTopics []string `yaml:"hard_topics" json:"hard_topics"`
}

// DefaultRankingConfig returns a RankingConfig with the standard hard
// topics for an Excel interview.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		HardTopics: []string{"pivot_tables", "array_formulas", "vba", "power_query"},
	}
}

// RankingEngine orders candidate summaries into a total ranking. The
// ordering is a full comparator, so the output is independent of input
// order: overall score descending, then answers evaluated descending, then
// hard-topic mean descending, then candidate ID ascending as the final
// deterministic tie-break.
type RankingEngine struct {
	config RankingConfig
}

// NewRankingEngine creates a RankingEngine with the given configuration.
func NewRankingEngine(config RankingConfig) (*RankingEngine, error) {
	for _, topic := range config.HardTopics {
		if topic == "" {
			return nil, fmt.Errorf("%w: hard topic names cannot be empty", domain.ErrInvalidConfiguration)
		}
	}
	return &RankingEngine{config: config}, nil
}

// Rank orders the given summaries and assigns ranks (1-based) and
// percentiles. An empty input yields an empty ranking, not an error: a
// leaderboard over nobody is a valid, empty leaderboard.
func (re *RankingEngine) Rank(summaries []domain.CandidateSummary) domain.Ranking {
	ordered := make([]domain.CandidateSummary, len(summaries))
	copy(ordered, summaries)

	sort.SliceStable(ordered, func(i, j int) bool {
		return re.less(ordered[i], ordered[j])
	})

	ranking := domain.Ranking{
		Candidates:  make([]domain.RankedCandidate, 0, len(ordered)),
		GeneratedAt: time.Now().UTC(),
	}

	total := len(ordered)
	for i, summary := range ordered {
		rank := i + 1
		ranking.Candidates = append(ranking.Candidates, domain.RankedCandidate{
			CandidateID: summary.CandidateID,
			Overall:     summary.Overall,
			Rank:        rank,
			Percentile:  100 * (1 - float64(rank)/float64(total)),
		})
	}

	return ranking
}

// less reports whether candidate a ranks ahead of candidate b.
func (re *RankingEngine) less(a, b domain.CandidateSummary) bool {
	if a.Overall != b.Overall {
		return a.Overall > b.Overall
	}
	if a.AnswersEvaluated != b.AnswersEvaluated {
		return a.AnswersEvaluated > b.AnswersEvaluated
	}
	hardA, hardB := re.hardTopicMean(a), re.hardTopicMean(b)
	if hardA != hardB {
		return hardA > hardB
	}
	return a.CandidateID < b.CandidateID
}

// hardTopicMean averages the candidate's topic means over the configured
// hard topics. Topics the candidate never answered are skipped; a candidate
// with no hard-topic answers scores 0 for the tie-break.
func (re *RankingEngine) hardTopicMean(summary domain.CandidateSummary) float64 {
	var sum float64
	var count int
	for _, topic := range re.config.HardTopics {
		if ts, ok := summary.TopicScores[topic]; ok {
			sum += ts.Mean
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
