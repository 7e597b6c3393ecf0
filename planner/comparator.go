package planner

import (
	"fmt"

	"go.viam.com/localplanner/trajectory"
)

// Verdict is the outcome of ranking a candidate trajectory against the incumbent best.
type Verdict int

const (
	// Accept means the candidate replaces the incumbent.
	Accept Verdict = iota
	// RejectInadmissible means the candidate was not scored.
	RejectInadmissible
	// RejectNoProgress means the candidate's goal cost is not strictly below standing still.
	RejectNoProgress
	// RejectCost means the candidate does not beat the incumbent's total cost.
	RejectCost
	// RejectGoalCost means the candidate does not beat the incumbent's goal cost.
	RejectGoalCost
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case RejectInadmissible:
		return "inadmissible"
	case RejectNoProgress:
		return "no_progress"
	case RejectCost:
		return "cost"
	case RejectGoalCost:
		return "goal_cost"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Rule selects what a candidate must beat the incumbent on.
type Rule int

const (
	// CostRule requires a strictly lower total cost.
	CostRule Rule = iota
	// RotationRule requires strictly lower total and goal costs, whether the incumbent strafes or
	// drives.
	RotationRule
)

// Rank decides whether candidate should replace incumbent. The checks are ordered: admissibility,
// then progress over the reference (the stand-still trajectory), then the incumbent's total cost,
// then the incumbent's goal cost. An unset incumbent loses to any admissible candidate that makes
// progress. A nil or inadmissible reference sets no progress bar. Equal costs never replace the
// incumbent.
func Rank(candidate, incumbent, reference *trajectory.Trajectory, rule Rule) Verdict {
	if !candidate.Admissible() {
		return RejectInadmissible
	}
	if reference != nil && reference.Admissible() && candidate.GoalCost >= reference.GoalCost {
		return RejectNoProgress
	}
	if incumbent == nil || !incumbent.Admissible() {
		return Accept
	}

	if candidate.Cost >= incumbent.Cost {
		return RejectCost
	}
	if rule == RotationRule && candidate.GoalCost >= incumbent.GoalCost {
		return RejectGoalCost
	}
	return Accept
}
