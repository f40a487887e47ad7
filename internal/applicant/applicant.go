// Package applicant defines the in-memory applicant table consumed by the
// decision engine and includes eager validation of its invariants.
package applicant

import (
	"fmt"
	"math"
	"sort"
)

// Applicant is a single loan applicant. Score is a creditworthiness merit
// score where higher is better; Subgroup is an opaque label formed from the
// applicant's protected attributes (e.g. "Black Female").
type Applicant struct {
	ID       int     `json:"id"`
	Score    float64 `json:"score"`
	Subgroup string  `json:"subgroup"`
}

// Table is an ordered collection of applicants. The order is preserved
// through the pipeline so decisions come back in input order.
type Table []Applicant

// DuplicateIDError indicates two rows in the table share an id. Unique ids
// are required for deterministic tie-breaking at score boundaries.
type DuplicateIDError struct {
	ID int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate applicant id %d", e.ID)
}

// InvalidScoreError indicates an applicant carries a NaN or infinite score.
type InvalidScoreError struct {
	ID    int
	Score float64
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("applicant %d has non-finite score %v", e.ID, e.Score)
}

// MissingSubgroupError indicates an applicant has an empty subgroup label.
type MissingSubgroupError struct {
	ID int
}

func (e *MissingSubgroupError) Error() string {
	return fmt.Sprintf("applicant %d has empty subgroup label", e.ID)
}

// Validate checks the table invariants before any computation: ids must be
// unique, scores finite, and subgroup labels non-empty. The first violation
// found is returned.
func (t Table) Validate() error {
	seen := make(map[int]struct{}, len(t))
	for _, app := range t {
		if _, dup := seen[app.ID]; dup {
			return &DuplicateIDError{ID: app.ID}
		}
		seen[app.ID] = struct{}{}

		if math.IsNaN(app.Score) || math.IsInf(app.Score, 0) {
			return &InvalidScoreError{ID: app.ID, Score: app.Score}
		}
		if app.Subgroup == "" {
			return &MissingSubgroupError{ID: app.ID}
		}
	}
	return nil
}

// Partition maps each subgroup label to the table indices of its members,
// preserving input order within each subgroup. Built once per invocation so
// per-subgroup computations avoid repeated scans.
func (t Table) Partition() map[string][]int {
	groups := make(map[string][]int)
	for i, app := range t {
		groups[app.Subgroup] = append(groups[app.Subgroup], i)
	}
	return groups
}

// Subgroups returns the distinct subgroup labels present in the table,
// sorted for stable iteration.
func (t Table) Subgroups() []string {
	seen := make(map[string]struct{})
	for _, app := range t {
		seen[app.Subgroup] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ByID returns a lookup from applicant id to the applicant record.
func (t Table) ByID() map[int]Applicant {
	byID := make(map[int]Applicant, len(t))
	for _, app := range t {
		byID[app.ID] = app
	}
	return byID
}
