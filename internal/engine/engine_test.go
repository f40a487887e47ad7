package engine

import (
	"math"
	"reflect"
	"testing"

	"github.com/fairscore/fairscore/internal/applicant"
)

func approvedIDs(decisions []Decision) []int {
	var out []int
	for _, d := range decisions {
		if d.Approved {
			out = append(out, d.ApplicantID)
		}
	}
	return out
}

func approvedSet(decisions []Decision) map[int]bool {
	out := make(map[int]bool)
	for _, d := range decisions {
		if d.Approved {
			out[d.ApplicantID] = true
		}
	}
	return out
}

// The worked example: the global threshold picks the top two scores while
// per-subgroup thresholds pick the best applicant from each subgroup.
func TestDecidePoliciesDiverge(t *testing.T) {
	table := applicant.Table{
		{ID: 1, Score: 90, Subgroup: "G1"}, // A
		{ID: 2, Score: 80, Subgroup: "G1"}, // B
		{ID: 3, Score: 70, Subgroup: "G2"}, // C
		{ID: 4, Score: 60, Subgroup: "G2"}, // D
	}

	opportunity, _, err := Decide(nil, table, 0.5, PolicyOpportunity)
	if err != nil {
		t.Fatalf("Decide(opportunity) error: %v", err)
	}
	if got := approvedIDs(opportunity); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("opportunity approved %v, expected [1 2]", got)
	}

	outcomes, _, err := Decide(nil, table, 0.5, PolicyOutcomes)
	if err != nil {
		t.Fatalf("Decide(outcomes) error: %v", err)
	}
	if got := approvedIDs(outcomes); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("outcomes approved %v, expected [1 3]", got)
	}
}

func TestDecideOutputOrderAndTagging(t *testing.T) {
	table := applicant.Table{
		{ID: 9, Score: 10, Subgroup: "G1"},
		{ID: 4, Score: 30, Subgroup: "G2"},
		{ID: 7, Score: 20, Subgroup: "G1"},
	}

	for _, policy := range []Policy{PolicyOpportunity, PolicyOutcomes} {
		decisions, _, err := Decide(nil, table, 0.5, policy)
		if err != nil {
			t.Fatalf("Decide(%s) error: %v", policy, err)
		}
		if len(decisions) != len(table) {
			t.Fatalf("Decide(%s) returned %d decisions for %d applicants", policy, len(decisions), len(table))
		}
		for i, d := range decisions {
			if d.ApplicantID != table[i].ID {
				t.Errorf("Decide(%s) decision %d is for id %d, expected input order id %d",
					policy, i, d.ApplicantID, table[i].ID)
			}
			if d.Policy != policy {
				t.Errorf("Decide(%s) decision tagged %q", policy, d.Policy)
			}
		}
	}
}

func TestDecideOutcomesExactPerSubgroupCounts(t *testing.T) {
	table := applicant.Table{}
	id := 1
	sizes := map[string]int{"G1": 5, "G2": 8, "G3": 3}
	for subgroup, size := range sizes {
		for i := 0; i < size; i++ {
			table = append(table, applicant.Applicant{
				ID: id, Score: float64((id * 17) % 11), Subgroup: subgroup,
			})
			id++
		}
	}

	rate := 0.5
	decisions, summary, err := Decide(nil, table, rate, PolicyOutcomes)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}

	byID := table.ByID()
	perSubgroup := make(map[string]int)
	for _, d := range decisions {
		if d.Approved {
			perSubgroup[byID[d.ApplicantID].Subgroup]++
		}
	}

	for subgroup, size := range sizes {
		expected := int(math.Floor(rate*float64(size) + 0.5))
		if perSubgroup[subgroup] != expected {
			t.Errorf("subgroup %s approved %d of %d, expected exactly %d",
				subgroup, perSubgroup[subgroup], size, expected)
		}
	}

	if len(summary.Cutoffs) != len(sizes) {
		t.Errorf("summary has %d cutoffs, expected %d", len(summary.Cutoffs), len(sizes))
	}
	for i := 1; i < len(summary.Cutoffs); i++ {
		if summary.Cutoffs[i-1].Subgroup >= summary.Cutoffs[i].Subgroup {
			t.Errorf("summary cutoffs not sorted by subgroup: %v", summary.Cutoffs)
		}
	}
}

func TestDecideDeterministicUnderReordering(t *testing.T) {
	base := applicant.Table{
		{ID: 3, Score: 50, Subgroup: "G1"},
		{ID: 1, Score: 50, Subgroup: "G1"},
		{ID: 2, Score: 50, Subgroup: "G1"},
	}
	reordered := applicant.Table{base[2], base[0], base[1]}

	for _, policy := range []Policy{PolicyOpportunity, PolicyOutcomes} {
		first, _, err := Decide(nil, base, 2.0/3.0, policy)
		if err != nil {
			t.Fatalf("Decide(%s) error: %v", policy, err)
		}
		second, _, err := Decide(nil, reordered, 2.0/3.0, policy)
		if err != nil {
			t.Fatalf("Decide(%s) error: %v", policy, err)
		}
		firstSet := approvedSet(first)
		secondSet := approvedSet(second)
		if !reflect.DeepEqual(firstSet, secondSet) {
			t.Errorf("Decide(%s) approved %v then %v across orderings", policy, firstSet, secondSet)
		}
		// Tie at the boundary resolves to the two lowest ids.
		if !firstSet[1] || !firstSet[2] || firstSet[3] {
			t.Errorf("Decide(%s) tie-break approved %v, expected ids 1 and 2", policy, firstSet)
		}
	}
}

func TestDecideBoundaryRates(t *testing.T) {
	table := applicant.Table{
		{ID: 1, Score: 90, Subgroup: "G1"},
		{ID: 2, Score: 80, Subgroup: "G2"},
		{ID: 3, Score: 70, Subgroup: "G1"},
	}

	for _, policy := range []Policy{PolicyOpportunity, PolicyOutcomes} {
		decisions, _, err := Decide(nil, table, 0, policy)
		if err != nil {
			t.Fatalf("Decide(%s, 0) error: %v", policy, err)
		}
		if got := approvedIDs(decisions); got != nil {
			t.Errorf("Decide(%s, 0) approved %v, expected none", policy, got)
		}

		decisions, _, err = Decide(nil, table, 1, policy)
		if err != nil {
			t.Fatalf("Decide(%s, 1) error: %v", policy, err)
		}
		if got := approvedIDs(decisions); len(got) != len(table) {
			t.Errorf("Decide(%s, 1) approved %v, expected everybody", policy, got)
		}
	}
}

func TestDecideEmptyTable(t *testing.T) {
	for _, policy := range []Policy{PolicyOpportunity, PolicyOutcomes} {
		decisions, summary, err := Decide(nil, applicant.Table{}, 0.7, policy)
		if err != nil {
			t.Fatalf("Decide(%s) on empty table error: %v", policy, err)
		}
		if len(decisions) != 0 {
			t.Errorf("Decide(%s) on empty table returned %d decisions", policy, len(decisions))
		}
		if policy == PolicyOutcomes && len(summary.Cutoffs) != 0 {
			t.Errorf("Decide(%s) on empty table produced cutoffs %v", policy, summary.Cutoffs)
		}
	}
}

func TestDecideInvalidInputs(t *testing.T) {
	table := applicant.Table{{ID: 1, Score: 50, Subgroup: "G1"}}

	if _, _, err := Decide(nil, table, 1.5, PolicyOpportunity); err == nil {
		t.Error("Decide() with rate 1.5 returned nil error")
	}
	if _, _, err := Decide(nil, table, math.NaN(), PolicyOutcomes); err == nil {
		t.Error("Decide() with NaN rate returned nil error")
	}
	if _, _, err := Decide(nil, table, 0.5, Policy("bogus")); err == nil {
		t.Error("Decide() with unknown policy returned nil error")
	}
}

func TestDecideOpportunitySummaryCutoff(t *testing.T) {
	table := applicant.Table{
		{ID: 1, Score: 90, Subgroup: "G1"},
		{ID: 2, Score: 80, Subgroup: "G2"},
	}
	_, summary, err := Decide(nil, table, 0.5, PolicyOpportunity)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if len(summary.Cutoffs) != 1 {
		t.Fatalf("summary has %d cutoffs, expected 1", len(summary.Cutoffs))
	}
	cutoff := summary.Cutoffs[0]
	if cutoff.Subgroup != "" {
		t.Errorf("global cutoff tagged with subgroup %q", cutoff.Subgroup)
	}
	if cutoff.Score != 90 {
		t.Errorf("global cutoff score = %v, expected 90", cutoff.Score)
	}
}
