package routing

import (
	"fmt"

	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
)

// Kind is the kind of manoeuvre an instruction describes.
type Kind string

const (
	KindInfo     Kind = "info"
	KindStart    Kind = "start"
	KindStraight Kind = "straight"
	KindLeft     Kind = "left"
	KindRight    Kind = "right"
	KindAround   Kind = "around"
	KindEnter    Kind = "enter"
)

// IsTurn reports whether the instruction asks the walker to change direction.
func (k Kind) IsTurn() bool {
	return k == KindLeft || k == KindRight || k == KindAround
}

// Instruction is one human-readable direction.
type Instruction struct {
	Kind     Kind             `json:"kind"`
	At       graph.Waypoint   `json:"at"`
	Building graph.BuildingID `json:"building"`
	Text     string           `json:"text"`
}

// Describe returns the route's directions as text, one line per step.
// toleranceDeg is how far from 180° a bend may be and still read as straight;
// a negative value selects geo.DefaultTolerance.
func Describe(r *Route, toleranceDeg float64) []string {
	ins := DescribeSteps(r, toleranceDeg)
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.Text
	}
	return out
}

// DescribeSteps returns structured directions for r. It has no side effects.
//
// The first step starts at the source. Every later step begins either by
// entering a new building or with a turn classified from the waypoints just
// before and after the step boundary.
func DescribeSteps(r *Route, toleranceDeg float64) []Instruction {
	if r == nil || len(r.Waypoints) == 0 {
		return nil
	}
	if len(r.Waypoints) == 1 {
		w := r.Waypoints[0]
		return []Instruction{{
			Kind:     KindInfo,
			At:       w,
			Building: r.To,
			Text:     fmt.Sprintf("You are already at %s", r.Name(r.To)),
		}}
	}

	steps := r.Steps
	if len(steps) == 0 {
		steps = contractSteps(r.Waypoints)
	}

	out := make([]Instruction, 0, len(steps))
	for i, s := range steps {
		target := r.Label(s.End)
		if i == 0 {
			out = append(out, Instruction{
				Kind:     KindStart,
				At:       s.Start,
				Building: s.Building,
				Text:     fmt.Sprintf("Start at %s and go straight to %s", r.Label(s.Start), target),
			})
			continue
		}

		prev := steps[i-1]
		if s.Building != prev.Building && s.Building != graph.NoBuilding {
			out = append(out, Instruction{
				Kind:     KindEnter,
				At:       s.Start,
				Building: s.Building,
				Text:     fmt.Sprintf("Enter %s and continue to %s", r.Name(s.Building), target),
			})
			continue
		}

		// Turn names double as instruction kinds: left, right, around.
		turn := turnAt(prev, s, toleranceDeg)
		text := fmt.Sprintf("Continue straight to %s", target)
		if turn.IsTurn() {
			text = fmt.Sprintf("Turn %s and continue to %s", turn, target)
		}
		out = append(out, Instruction{
			Kind:     Kind(turn.String()),
			At:       s.Start,
			Building: s.Building,
			Text:     text,
		})
	}
	return out
}

// turnAt classifies the turn at the waypoint shared by two adjacent steps.
func turnAt(prev, next RouteStep, toleranceDeg float64) geo.Turn {
	if len(prev.Path) < 2 || len(next.Path) < 2 {
		return geo.TurnStraight
	}
	before := prev.Path[len(prev.Path)-2]
	after := next.Path[1]
	return geo.ClassifyTurn(before.Point(), next.Start.Point(), after.Point(), toleranceDeg)
}
