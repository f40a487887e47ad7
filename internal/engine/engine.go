// Package engine assigns approve/deny decisions to an applicant table under
// a target approval rate, for either of the two competing fairness policies.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/fairscore/fairscore/internal/applicant"
	"github.com/fairscore/fairscore/internal/threshold"
	"github.com/fairscore/fairscore/pkg/constants"
	"go.uber.org/zap"
)

// Policy selects how thresholds are computed.
type Policy string

const (
	// PolicyOpportunity applies a single subgroup-blind threshold to the
	// whole population: equal treatment conditional on merit.
	PolicyOpportunity = Policy(constants.PolicyOpportunity)

	// PolicyOutcomes computes an independent threshold per subgroup so
	// every subgroup reaches the same approval rate. Two applicants with
	// identical scores in different subgroups may receive different
	// decisions; that trade-off is the point of the comparison.
	PolicyOutcomes = Policy(constants.PolicyOutcomes)
)

// Valid reports whether p is one of the two supported policies.
func (p Policy) Valid() bool {
	return p == PolicyOpportunity || p == PolicyOutcomes
}

// Decision is the outcome for one applicant under one policy.
type Decision struct {
	ApplicantID int    `json:"id"`
	Approved    bool   `json:"approved"`
	Policy      Policy `json:"policy"`
}

// Cutoff records the score threshold produced by one solver invocation.
// Subgroup is empty for the global (opportunity) computation.
type Cutoff struct {
	Subgroup     string  `json:"subgroup,omitempty"`
	Score        float64 `json:"score"`
	TargetCount  int     `json:"targetCount"`
	AchievedRate float64 `json:"achievedRate"`
}

// MarshalJSON encodes the infinite cutoff sentinels ("+inf" when nobody
// qualifies, "-inf" when everybody does) as strings, since JSON has no
// representation for them.
func (c Cutoff) MarshalJSON() ([]byte, error) {
	type alias Cutoff
	out := struct {
		alias
		Score interface{} `json:"score"`
	}{alias: alias(c), Score: c.Score}
	if math.IsInf(c.Score, 1) {
		out.Score = "+inf"
	} else if math.IsInf(c.Score, -1) {
		out.Score = "-inf"
	}
	return json.Marshal(out)
}

// Summary carries the audit trail of a Decide call: every cutoff the solver
// produced, sorted by subgroup label for stable output.
type Summary struct {
	Policy  Policy   `json:"policy"`
	Cutoffs []Cutoff `json:"cutoffs"`
}

// Decide computes one Decision per applicant, in table order, under the
// given policy and target rate. The table must already be validated.
func Decide(logger *zap.Logger, table applicant.Table, targetRate float64, policy Policy) ([]Decision, Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !policy.Valid() {
		return nil, Summary{}, fmt.Errorf("unknown policy %q", policy)
	}

	summary := Summary{Policy: policy}
	approved := make(map[int]struct{}, len(table))

	switch policy {
	case PolicyOpportunity:
		entries := make([]threshold.Entry, len(table))
		for i, app := range table {
			entries[i] = threshold.Entry{ID: app.ID, Score: app.Score}
		}
		result, err := threshold.Solve(entries, targetRate)
		if err != nil {
			return nil, Summary{}, err
		}
		approved = result.ApprovedIDs
		summary.Cutoffs = []Cutoff{{
			Score:        result.CutoffScore,
			TargetCount:  result.TargetCount,
			AchievedRate: result.AchievedRate,
		}}
		logger.Debug("solved global threshold",
			zap.String("op", "engine.Decide"),
			zap.Float64("cutoff", result.CutoffScore),
			zap.Int("approved", result.TargetCount),
			zap.Int("population", len(table)),
		)

	case PolicyOutcomes:
		// Each subgroup gets its own solver call with the same rate, so
		// every subgroup lands on the same approval rate up to rounding.
		for subgroup, indices := range table.Partition() {
			entries := make([]threshold.Entry, len(indices))
			for i, idx := range indices {
				entries[i] = threshold.Entry{ID: table[idx].ID, Score: table[idx].Score}
			}
			result, err := threshold.Solve(entries, targetRate)
			if err != nil {
				return nil, Summary{}, err
			}
			for id := range result.ApprovedIDs {
				approved[id] = struct{}{}
			}
			summary.Cutoffs = append(summary.Cutoffs, Cutoff{
				Subgroup:     subgroup,
				Score:        result.CutoffScore,
				TargetCount:  result.TargetCount,
				AchievedRate: result.AchievedRate,
			})
			logger.Debug("solved subgroup threshold",
				zap.String("op", "engine.Decide"),
				zap.String("subgroup", subgroup),
				zap.Float64("cutoff", result.CutoffScore),
				zap.Int("approved", result.TargetCount),
				zap.Int("population", len(indices)),
			)
		}
		sort.Slice(summary.Cutoffs, func(i, j int) bool {
			return summary.Cutoffs[i].Subgroup < summary.Cutoffs[j].Subgroup
		})
	}

	decisions := make([]Decision, len(table))
	for i, app := range table {
		_, ok := approved[app.ID]
		decisions[i] = Decision{ApplicantID: app.ID, Approved: ok, Policy: policy}
	}
	return decisions, summary, nil
}
