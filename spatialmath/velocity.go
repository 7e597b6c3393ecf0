package spatialmath

import "fmt"

// Velocity2D is a body-frame velocity: forward and lateral speed in m/s and rotational speed in rad/s.
type Velocity2D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewVelocity2D constructs a Velocity2D.
func NewVelocity2D(vx, vy, vtheta float64) Velocity2D {
	return Velocity2D{X: vx, Y: vy, Theta: vtheta}
}

// IsZero returns whether every component of the velocity is zero.
func (v Velocity2D) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Theta == 0
}

func (v Velocity2D) String() string {
	return fmt.Sprintf("(vx %.3f, vy %.3f, vth %.3f)", v.X, v.Y, v.Theta)
}
