package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultTolerance is the default deviation from 180°, in degrees, that is
// still reported as going straight.
const DefaultTolerance = 20.0

// Turn is the classification of a waypoint from its incoming and outgoing legs.
type Turn int

const (
	TurnStraight Turn = iota
	TurnLeft
	TurnRight
	TurnAround
)

func (t Turn) String() string {
	switch t {
	case TurnStraight:
		return "straight"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	case TurnAround:
		return "around"
	}
	return "unknown"
}

// IsTurn reports whether t is anything other than straight.
func (t Turn) IsTurn() bool {
	return t != TurnStraight
}

// ClassifyTurn classifies the turn made at cur when walking before → cur → after.
//
// Coordinates are map pixels with y growing downward, so a positive cross
// product of (before-cur) × (after-cur) is a left turn. A leg of zero length
// has no direction and is reported as straight.
func ClassifyTurn(before, cur, after orb.Point, toleranceDeg float64) Turn {
	if toleranceDeg < 0 || math.IsNaN(toleranceDeg) {
		toleranceDeg = DefaultTolerance
	}
	v1 := Sub(before, cur)
	v2 := Sub(after, cur)

	angle, err := AngleBetween(v1, v2)
	if err != nil {
		return TurnStraight
	}
	if 180-angle <= toleranceDeg {
		return TurnStraight
	}

	c := Cross(v1, v2)
	switch {
	case c > 0:
		return TurnLeft
	case c < 0:
		return TurnRight
	default:
		return TurnAround
	}
}
