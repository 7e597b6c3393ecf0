package planner

import (
	"math"

	"go.viam.com/localplanner/spatialmath"
	"go.viam.com/localplanner/utils"
)

// OscillationState records which in-place motions the robot has committed to since it last made
// real progress, and whether it is escaping from a spot where nothing but backing up was possible.
// Transitions are pure: every method returns the next state.
type OscillationState struct {
	RotatingLeft  bool `json:"rotating_left"`
	RotatingRight bool `json:"rotating_right"`
	StrafingLeft  bool `json:"strafing_left"`
	StrafingRight bool `json:"strafing_right"`

	StuckLeft        bool `json:"stuck_left"`
	StuckRight       bool `json:"stuck_right"`
	StuckLeftStrafe  bool `json:"stuck_left_strafe"`
	StuckRightStrafe bool `json:"stuck_right_strafe"`

	// PrevX and PrevY anchor the last in-place commitment.
	PrevX float64 `json:"prev_x"`
	PrevY float64 `json:"prev_y"`

	Escaping    bool    `json:"escaping"`
	EscapeX     float64 `json:"escape_x"`
	EscapeY     float64 `json:"escape_y"`
	EscapeTheta float64 `json:"escape_theta"`
}

// Stuck returns whether any direction has been committed to twice without progress in between.
func (s OscillationState) Stuck() bool {
	return s.StuckLeft || s.StuckRight || s.StuckLeftStrafe || s.StuckRightStrafe
}

// Commit records the velocity chosen at pose. Only velocities that do not drive forward commit to
// a direction: positive rotation is left, negative right, and with no rotation positive lateral
// speed is left, negative right. Committing to a direction that is already committed marks it stuck.
// Any such velocity, even a zero one, re-anchors the state at pose.
func (s OscillationState) Commit(chosen spatialmath.Velocity2D, pose spatialmath.Pose2D) OscillationState {
	if chosen.X > 0 {
		return s
	}
	switch {
	case chosen.Theta < 0:
		s.StuckRight = s.StuckRight || s.RotatingRight
		s.RotatingRight = true
	case chosen.Theta > 0:
		s.StuckLeft = s.StuckLeft || s.RotatingLeft
		s.RotatingLeft = true
	case chosen.Y > 0:
		s.StuckLeftStrafe = s.StuckLeftStrafe || s.StrafingLeft
		s.StrafingLeft = true
	case chosen.Y < 0:
		s.StuckRightStrafe = s.StuckRightStrafe || s.StrafingRight
		s.StrafingRight = true
	}
	s.PrevX, s.PrevY = pose.X, pose.Y
	return s
}

// ResetIfMoved clears every commitment and stuck flag once pose is farther than resetDist from the
// anchor.
func (s OscillationState) ResetIfMoved(pose spatialmath.Pose2D, resetDist float64) OscillationState {
	if math.Hypot(pose.X-s.PrevX, pose.Y-s.PrevY) <= resetDist {
		return s
	}
	s.RotatingLeft, s.RotatingRight, s.StrafingLeft, s.StrafingRight = false, false, false, false
	s.StuckLeft, s.StuckRight, s.StuckLeftStrafe, s.StuckRightStrafe = false, false, false, false
	return s
}

// EnterEscape latches escape mode anchored at pose. It does nothing if already escaping.
func (s OscillationState) EnterEscape(pose spatialmath.Pose2D) OscillationState {
	if s.Escaping {
		return s
	}
	s.Escaping = true
	s.EscapeX, s.EscapeY, s.EscapeTheta = pose.X, pose.Y, pose.Theta
	return s
}

// ClearEscapeIfMoved releases escape mode once pose is farther than resetDist from the escape anchor
// or has turned more than resetTheta from it.
func (s OscillationState) ClearEscapeIfMoved(pose spatialmath.Pose2D, resetDist, resetTheta float64) OscillationState {
	dist := math.Hypot(pose.X-s.EscapeX, pose.Y-s.EscapeY)
	if dist > resetDist || math.Abs(utils.ShortestAngularDistance(s.EscapeTheta, pose.Theta)) > resetTheta {
		s.Escaping = false
	}
	return s
}

// afterSelection is the transition applied when a search tier found an admissible trajectory.
func (s OscillationState) afterSelection(chosen spatialmath.Velocity2D, pose spatialmath.Pose2D, cfg *snapshot) OscillationState {
	return s.Commit(chosen, pose).
		ResetIfMoved(pose, cfg.OscillationResetDist).
		ClearEscapeIfMoved(pose, cfg.EscapeResetDist, cfg.EscapeResetTheta)
}

// afterBackup is the transition applied when only the backup trajectory was left. Escape mode is
// entered only if the backup can actually be driven.
func (s OscillationState) afterBackup(drivable bool, pose spatialmath.Pose2D, cfg *snapshot) OscillationState {
	s = s.ResetIfMoved(pose, cfg.OscillationResetDist)
	if drivable {
		s = s.EnterEscape(pose)
	}
	return s.ClearEscapeIfMoved(pose, cfg.EscapeResetDist, cfg.EscapeResetTheta)
}
