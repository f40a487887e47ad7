// Package result packages decisions and fairness reports for both policies
// into the payload handed to external consumers.
package result

import (
	"time"

	"github.com/fairscore/fairscore/internal/engine"
	"github.com/fairscore/fairscore/internal/fairness"
	"github.com/google/uuid"
)

// PolicyResult carries one policy's decisions, audit summary, and report.
type PolicyResult struct {
	Decisions  []engine.Decision `json:"decisions"`
	Thresholds engine.Summary    `json:"thresholds"`
	Report     fairness.Report   `json:"report"`
}

// Result is the full output of one engine run: both policies side by side,
// keyed by policy name, ready for rendering or serialization.
type Result struct {
	RunID       string                  `json:"runId"`
	GeneratedAt time.Time               `json:"generatedAt"`
	TargetRate  float64                 `json:"targetRate"`
	Applicants  int                     `json:"applicants"`
	Policies    map[string]PolicyResult `json:"policies"`
	ScoreParity fairness.Parity         `json:"scoreParity"`
}

// Assemble combines both policies' decisions and reports. It performs no
// computation beyond packaging and drops no upstream field.
func Assemble(
	targetRate float64,
	applicants int,
	opportunityDecisions []engine.Decision,
	opportunitySummary engine.Summary,
	opportunityReport fairness.Report,
	outcomesDecisions []engine.Decision,
	outcomesSummary engine.Summary,
	outcomesReport fairness.Report,
	scoreParity fairness.Parity,
) Result {
	return Result{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		TargetRate:  targetRate,
		Applicants:  applicants,
		Policies: map[string]PolicyResult{
			string(engine.PolicyOpportunity): {
				Decisions:  opportunityDecisions,
				Thresholds: opportunitySummary,
				Report:     opportunityReport,
			},
			string(engine.PolicyOutcomes): {
				Decisions:  outcomesDecisions,
				Thresholds: outcomesSummary,
				Report:     outcomesReport,
			},
		},
		ScoreParity: scoreParity,
	}
}
