// Package fairness computes per-subgroup approval statistics and
// cross-subgroup disparity metrics for a decision set.
package fairness

import (
	"fmt"

	"github.com/fairscore/fairscore/internal/applicant"
	"github.com/fairscore/fairscore/internal/engine"
)

// SubgroupStats holds the approval statistics for one subgroup.
type SubgroupStats struct {
	Size          int     `json:"size"`
	ApprovedCount int     `json:"approvedCount"`
	ApprovalRate  float64 `json:"approvalRate"`
}

// Report is the fairness summary for one policy's decision set.
type Report struct {
	Subgroups map[string]SubgroupStats `json:"subgroups"`

	// DisparateImpactRatio is min(subgroup rate) / max(subgroup rate).
	// When every subgroup's rate is 0 it is 1: no disparity, vacuously.
	DisparateImpactRatio float64 `json:"disparateImpactRatio"`

	// MaxRateGap is max(subgroup rate) - min(subgroup rate).
	MaxRateGap float64 `json:"maxRateGap"`
}

// Parity measures how evenly raw scores are distributed across subgroups,
// independent of any decision set: the ratio of the lowest to the highest
// per-subgroup mean score.
type Parity struct {
	MinMeanScore float64 `json:"minMeanScore"`
	MaxMeanScore float64 `json:"maxMeanScore"`
	Ratio        float64 `json:"ratio"`
}

// Aggregate groups decisions by each applicant's subgroup and computes
// per-subgroup approval rates plus the cross-subgroup disparity metrics.
// Every decision must reference an applicant present in the table.
func Aggregate(decisions []engine.Decision, table applicant.Table) (Report, error) {
	byID := table.ByID()

	stats := make(map[string]SubgroupStats)
	for _, d := range decisions {
		app, ok := byID[d.ApplicantID]
		if !ok {
			return Report{}, fmt.Errorf("decision references unknown applicant id %d", d.ApplicantID)
		}
		s := stats[app.Subgroup]
		s.Size++
		if d.Approved {
			s.ApprovedCount++
		}
		stats[app.Subgroup] = s
	}

	report := Report{Subgroups: stats, DisparateImpactRatio: 1}
	first := true
	var minRate, maxRate float64
	for subgroup, s := range stats {
		s.ApprovalRate = float64(s.ApprovedCount) / float64(s.Size)
		stats[subgroup] = s
		if first {
			minRate, maxRate = s.ApprovalRate, s.ApprovalRate
			first = false
			continue
		}
		if s.ApprovalRate < minRate {
			minRate = s.ApprovalRate
		}
		if s.ApprovalRate > maxRate {
			maxRate = s.ApprovalRate
		}
	}
	if first {
		// No decisions at all: empty report, vacuous ratio of 1.
		return report, nil
	}

	report.MaxRateGap = maxRate - minRate
	if maxRate > 0 {
		report.DisparateImpactRatio = minRate / maxRate
	}
	return report, nil
}

// ScoreParity computes the ratio of the minimum to the maximum per-subgroup
// mean score. A ratio of 1 means every subgroup has the same average score;
// lower values signal a wider gap in the underlying score distributions.
func ScoreParity(table applicant.Table) Parity {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, app := range table {
		sums[app.Subgroup] += app.Score
		counts[app.Subgroup]++
	}

	parity := Parity{Ratio: 1}
	first := true
	for subgroup, sum := range sums {
		mean := sum / float64(counts[subgroup])
		if first {
			parity.MinMeanScore, parity.MaxMeanScore = mean, mean
			first = false
			continue
		}
		if mean < parity.MinMeanScore {
			parity.MinMeanScore = mean
		}
		if mean > parity.MaxMeanScore {
			parity.MaxMeanScore = mean
		}
	}
	if parity.MaxMeanScore > 0 {
		parity.Ratio = parity.MinMeanScore / parity.MaxMeanScore
	}
	return parity
}
