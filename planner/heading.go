package planner

import (
	"math"

	"go.viam.com/localplanner/spatialmath"
	"go.viam.com/localplanner/utils"
)

// headingDifference compares pose against the plan. The nearest plan pose is found scanning from
// the end of the plan backward, keeping the first minimum. The pose one past it, clamped to the end,
// supplies the reference heading. It returns
//   - the absolute shortest angle between the pose heading and the reference heading,
//   - the arc length of the plan from the reference pose to its end, plus a small term preferring
//     reference poses farther along. If that is zero, the straight line distance to the last pose,
//   - the distance from the pose to the nearest plan pose.
//
// plan must not be empty.
func headingDifference(plan []spatialmath.Pose2D, pose spatialmath.Pose2D) (float64, float64, float64) {
	last := len(plan) - 1

	nearest := last
	pathDist := pose.DistanceTo(plan[last])
	for i := last - 1; i >= 0; i-- {
		if d := pose.DistanceTo(plan[i]); d < pathDist {
			pathDist = d
			nearest = i
		}
	}

	lookAhead := utils.MinInt(nearest+1, last)
	var arc float64
	for i := lookAhead; i < last; i++ {
		arc += plan[i].DistanceTo(plan[i+1])
	}
	goalDist := arc + float64(last-lookAhead)/float64(len(plan))
	if goalDist == 0 {
		goalDist = pose.DistanceTo(plan[last])
	}

	diff := math.Abs(utils.ShortestAngularDistance(pose.Theta, plan[lookAhead].Theta))
	return diff, goalDist, pathDist
}
