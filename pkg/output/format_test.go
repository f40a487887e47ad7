package output

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/fairscore/fairscore/internal/engine"
	"github.com/fairscore/fairscore/internal/fairness"
	"github.com/fairscore/fairscore/internal/result"
)

func sampleResult() result.Result {
	return result.Result{
		RunID:      "run-1",
		TargetRate: 0.5,
		Applicants: 4,
		Policies: map[string]result.PolicyResult{
			"opportunity": {
				Decisions: []engine.Decision{
					{ApplicantID: 1, Approved: true, Policy: engine.PolicyOpportunity},
					{ApplicantID: 2, Approved: true, Policy: engine.PolicyOpportunity},
					{ApplicantID: 3, Approved: false, Policy: engine.PolicyOpportunity},
					{ApplicantID: 4, Approved: false, Policy: engine.PolicyOpportunity},
				},
				Thresholds: engine.Summary{
					Policy:  engine.PolicyOpportunity,
					Cutoffs: []engine.Cutoff{{Score: 80, TargetCount: 2, AchievedRate: 0.5}},
				},
				Report: fairness.Report{
					Subgroups: map[string]fairness.SubgroupStats{
						"G1": {Size: 2, ApprovedCount: 2, ApprovalRate: 1},
						"G2": {Size: 2, ApprovedCount: 0, ApprovalRate: 0},
					},
					DisparateImpactRatio: 0,
					MaxRateGap:           1,
				},
			},
			"outcomes": {
				Decisions: []engine.Decision{
					{ApplicantID: 1, Approved: true, Policy: engine.PolicyOutcomes},
					{ApplicantID: 2, Approved: false, Policy: engine.PolicyOutcomes},
					{ApplicantID: 3, Approved: true, Policy: engine.PolicyOutcomes},
					{ApplicantID: 4, Approved: false, Policy: engine.PolicyOutcomes},
				},
				Thresholds: engine.Summary{
					Policy: engine.PolicyOutcomes,
					Cutoffs: []engine.Cutoff{
						{Subgroup: "G1", Score: 90, TargetCount: 1, AchievedRate: 0.5},
						{Subgroup: "G2", Score: 70, TargetCount: 1, AchievedRate: 0.5},
					},
				},
				Report: fairness.Report{
					Subgroups: map[string]fairness.SubgroupStats{
						"G1": {Size: 2, ApprovedCount: 1, ApprovalRate: 0.5},
						"G2": {Size: 2, ApprovedCount: 1, ApprovalRate: 0.5},
					},
					DisparateImpactRatio: 1,
				},
			},
		},
		ScoreParity: fairness.Parity{MinMeanScore: 0.325, MaxMeanScore: 0.85, Ratio: 0.382},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"--- Results for policy opportunity ---",
		"--- Results for policy outcomes ---",
		"Group",
		"G1",
		"G2",
		"Disparate impact ratio: 0.000",
		"Disparate impact ratio: 1.000",
		"Score parity across subgroups: 0.382",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PrettyFormat output missing %q\n%s", want, out)
		}
	}

	// Opportunity comes before outcomes.
	if strings.Index(out, "policy opportunity") > strings.Index(out, "policy outcomes") {
		t.Error("PrettyFormat printed policies out of order")
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	CsvFormat(&buf, sampleResult())
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("CsvFormat produced %d lines, expected header + 4 rows:\n%s", len(lines), out)
	}
	if lines[0] != `"policy","group","applicants","approved","rate","cutoff"` {
		t.Errorf("CsvFormat header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"opportunity","G1"`) {
		t.Errorf("CsvFormat row 1 = %q, expected opportunity G1 first", lines[1])
	}
	if !strings.Contains(out, `"outcomes","G2","2","1","0.5000","70.0000"`) {
		t.Errorf("CsvFormat missing outcomes G2 row:\n%s", out)
	}
	// Global policy rows share the single global cutoff.
	if !strings.Contains(lines[1], `"80.0000"`) || !strings.Contains(lines[2], `"80.0000"`) {
		t.Errorf("CsvFormat opportunity rows missing global cutoff:\n%s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleResult()); err != nil {
		t.Fatalf("JSONFormat() error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSONFormat produced invalid JSON: %v", err)
	}
	policies, ok := decoded["policies"].(map[string]interface{})
	if !ok {
		t.Fatalf("JSON missing policies object: %v", decoded)
	}
	if _, ok := policies["opportunity"]; !ok {
		t.Error("JSON missing opportunity policy")
	}
	if _, ok := policies["outcomes"]; !ok {
		t.Error("JSON missing outcomes policy")
	}
}

func TestJSONFormatInfiniteCutoffs(t *testing.T) {
	res := sampleResult()
	pr := res.Policies["opportunity"]
	pr.Thresholds.Cutoffs = []engine.Cutoff{{Score: math.Inf(1)}}
	res.Policies["opportunity"] = pr

	var buf bytes.Buffer
	if err := JSONFormat(&buf, res); err != nil {
		t.Fatalf("JSONFormat() with infinite cutoff error: %v", err)
	}
	if !strings.Contains(buf.String(), `"+inf"`) {
		t.Errorf("JSON missing +inf sentinel:\n%s", buf.String())
	}
}

func TestFormatCutoffSentinels(t *testing.T) {
	if got := formatCutoff(math.Inf(1)); got != "+inf" {
		t.Errorf("formatCutoff(+Inf) = %q", got)
	}
	if got := formatCutoff(math.Inf(-1)); got != "-inf" {
		t.Errorf("formatCutoff(-Inf) = %q", got)
	}
	if got := formatCutoff(12.5); got != "12.5000" {
		t.Errorf("formatCutoff(12.5) = %q", got)
	}
}
