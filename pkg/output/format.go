// Package output provides utilities for formatting and displaying analysis
// results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/fairscore/fairscore/internal/engine"
	"github.com/fairscore/fairscore/internal/result"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// policyOrder fixes the display order of the two policies.
var policyOrder = []string{
	string(engine.PolicyOpportunity),
	string(engine.PolicyOutcomes),
}

// PrettyFormat writes a human-readable per-policy statistics table.
func PrettyFormat(w io.Writer, res result.Result) {
	p := message.NewPrinter(language.English)

	_, _ = p.Fprintf(w, "Run %s | target rate %.1f%% | %d applicants\n",
		res.RunID, res.TargetRate*100, res.Applicants)

	for _, policy := range policyOrder {
		pr, ok := res.Policies[policy]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n--- Results for policy %s ---\n", policy)
		fmt.Fprintf(w, "%-20s | %10s | %10s | %10s | %6s\n", "Group", "Applicants", "Cutoff", "Approved", "Rate")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 68))

		cutoffs := make(map[string]float64, len(pr.Thresholds.Cutoffs))
		for _, c := range pr.Thresholds.Cutoffs {
			cutoffs[c.Subgroup] = c.Score
		}

		for _, subgroup := range sortedSubgroups(pr) {
			stats := pr.Report.Subgroups[subgroup]
			cutoff, ok := cutoffs[subgroup]
			if !ok {
				// Global policy: one cutoff for every subgroup.
				cutoff = cutoffs[""]
			}
			_, _ = p.Fprintf(w, "%-20s | %10d | %10s | %10d | %5.1f%%\n",
				subgroup, stats.Size, formatCutoff(cutoff), stats.ApprovedCount, stats.ApprovalRate*100)
		}

		_, _ = p.Fprintf(w, "\nDisparate impact ratio: %.3f\n", pr.Report.DisparateImpactRatio)
		_, _ = p.Fprintf(w, "Max rate gap:           %.3f\n", pr.Report.MaxRateGap)
	}

	_, _ = p.Fprintf(w, "\nScore parity across subgroups: %.3f (min mean %.3f, max mean %.3f)\n",
		res.ScoreParity.Ratio, res.ScoreParity.MinMeanScore, res.ScoreParity.MaxMeanScore)
}

// CsvFormat writes per-subgroup approval rates in comma-separated value
// format, one row per (policy, subgroup) pair.
func CsvFormat(w io.Writer, res result.Result) {
	fmt.Fprintf(w, `"policy","group","applicants","approved","rate","cutoff"`)
	fmt.Fprintf(w, "\n")
	for _, policy := range policyOrder {
		pr, ok := res.Policies[policy]
		if !ok {
			continue
		}
		cutoffs := make(map[string]float64, len(pr.Thresholds.Cutoffs))
		for _, c := range pr.Thresholds.Cutoffs {
			cutoffs[c.Subgroup] = c.Score
		}
		for _, subgroup := range sortedSubgroups(pr) {
			stats := pr.Report.Subgroups[subgroup]
			cutoff, ok := cutoffs[subgroup]
			if !ok {
				cutoff = cutoffs[""]
			}
			fmt.Fprintf(w, `"%s","%s","%d","%d","%.4f","%s"`,
				policy, subgroup, stats.Size, stats.ApprovedCount, stats.ApprovalRate, formatCutoff(cutoff))
			fmt.Fprintf(w, "\n")
		}
	}
}

// JSONFormat serializes the full result as indented JSON, the decisions
// file format consumed by external tooling.
func JSONFormat(w io.Writer, res result.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func sortedSubgroups(pr result.PolicyResult) []string {
	subgroups := make([]string, 0, len(pr.Report.Subgroups))
	for subgroup := range pr.Report.Subgroups {
		subgroups = append(subgroups, subgroup)
	}
	sort.Strings(subgroups)
	return subgroups
}

func formatCutoff(cutoff float64) string {
	switch {
	case math.IsInf(cutoff, 1):
		return "+inf"
	case math.IsInf(cutoff, -1):
		return "-inf"
	default:
		return fmt.Sprintf("%.4f", cutoff)
	}
}
