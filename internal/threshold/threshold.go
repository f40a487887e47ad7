// Package threshold computes the score cutoff that realizes a target
// approval rate over a population, as closely as an integer count permits.
// The solver is pure and policy-agnostic: the decision engine invokes it
// once for the whole population or once per subgroup.
package threshold

import (
	"fmt"
	"math"
	"sort"

	"github.com/fairscore/fairscore/pkg/mathutil"
)

// Entry is one (id, score) pair submitted to the solver.
type Entry struct {
	ID    int
	Score float64
}

// Result describes a solved threshold.
type Result struct {
	// CutoffScore is the minimum score required for approval. +Inf when
	// nobody qualifies (target count 0), -Inf when everybody does.
	CutoffScore float64

	// ApprovedIDs holds the ids approved under this computation, exactly
	// TargetCount of them.
	ApprovedIDs map[int]struct{}

	// TargetCount is round-half-up(rate * population), clamped to the
	// population size.
	TargetCount int

	// AchievedRate is |ApprovedIDs| / population; differs from the
	// requested rate only by the integer-rounding residual. Zero for an
	// empty population.
	AchievedRate float64
}

// InvalidRateError indicates the requested target rate is outside [0, 1]
// or not a finite number.
type InvalidRateError struct {
	Rate float64
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("target rate must be a finite number in [0, 1], got %v", e.Rate)
}

// Approved reports whether id is in the approved set.
func (r Result) Approved(id int) bool {
	_, ok := r.ApprovedIDs[id]
	return ok
}

// Solve ranks entries by score descending and approves the top
// round-half-up(targetRate * len(entries)). Entries tied on score are
// ranked by ascending id, so the approved set is identical across runs and
// independent of input order. An empty population is a degenerate success:
// target count 0, achieved rate 0.
func Solve(entries []Entry, targetRate float64) (Result, error) {
	if !mathutil.IsFiniteRate(targetRate) {
		return Result{}, &InvalidRateError{Rate: targetRate}
	}

	n := len(entries)
	if n == 0 {
		return Result{
			CutoffScore:  math.Inf(1),
			ApprovedIDs:  map[int]struct{}{},
			TargetCount:  0,
			AchievedRate: 0,
		}, nil
	}

	targetCount := mathutil.ClampInt(mathutil.RoundHalfUp(targetRate*float64(n)), 0, n)

	ranked := make([]Entry, n)
	copy(ranked, entries)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	approved := make(map[int]struct{}, targetCount)
	for i := 0; i < targetCount; i++ {
		approved[ranked[i].ID] = struct{}{}
	}

	cutoff := math.Inf(1)
	switch {
	case targetCount == n:
		cutoff = math.Inf(-1)
	case targetCount > 0:
		cutoff = ranked[targetCount-1].Score
	}

	return Result{
		CutoffScore:  cutoff,
		ApprovedIDs:  approved,
		TargetCount:  targetCount,
		AchievedRate: float64(targetCount) / float64(n),
	}, nil
}
