// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/fairscore/fairscore/internal/applicant"
	"github.com/fairscore/fairscore/internal/engine"
)

// MakeTable builds an applicant table from parallel slices of scores and
// subgroup labels, assigning sequential ids starting at 1.
func MakeTable(scores []float64, subgroups []string) applicant.Table {
	table := make(applicant.Table, len(scores))
	for i := range scores {
		table[i] = applicant.Applicant{
			ID:       i + 1,
			Score:    scores[i],
			Subgroup: subgroups[i],
		}
	}
	return table
}

// ApprovedIDs extracts the ids approved in a decision sequence, preserving
// decision order.
func ApprovedIDs(decisions []engine.Decision) []int {
	var out []int
	for _, d := range decisions {
		if d.Approved {
			out = append(out, d.ApplicantID)
		}
	}
	return out
}
