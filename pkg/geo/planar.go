package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrDegenerateGeometry is returned when a vector computation has no
// well-defined answer, e.g. the bisector of two perfectly opposed vectors.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// epsilon is the length below which a float vector is treated as zero.
const epsilon = 1e-9

// Distance returns the Euclidean distance between two map-pixel points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// Sub returns the vector a - b.
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// Add returns the vector a + b.
func Add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

// Scale returns v multiplied by s.
func Scale(v orb.Point, s float64) orb.Point {
	return orb.Point{v[0] * s, v[1] * s}
}

// Cross returns the z component of the 2D cross product a × b.
func Cross(a, b orb.Point) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Dot returns the dot product of a and b.
func Dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

// Length returns the Euclidean norm of v.
func Length(v orb.Point) float64 {
	return math.Hypot(v[0], v[1])
}

// Normalize returns v scaled to unit length. ok is false for a zero vector.
func Normalize(v orb.Point) (unit orb.Point, ok bool) {
	l := Length(v)
	if l < epsilon {
		return orb.Point{}, false
	}
	return orb.Point{v[0] / l, v[1] / l}, true
}

// AngleBetween returns the unsigned angle between v1 and v2 in degrees,
// in the range [0, 180].
func AngleBetween(v1, v2 orb.Point) (float64, error) {
	if Length(v1) < epsilon || Length(v2) < epsilon {
		return 0, ErrDegenerateGeometry
	}
	// atan2 of |cross| and dot stays accurate near 0° and 180°, where acos does not.
	rad := math.Atan2(math.Abs(Cross(v1, v2)), Dot(v1, v2))
	return rad * 180 / math.Pi, nil
}

// OppositeVector returns the unit vector bisecting the reflex angle between
// v1 and v2: the normalized negation of the sum of the two unit inputs.
//
// When the inputs are perfectly opposed (or either is zero) there is no
// outside of the angle; the zero vector is returned with ErrDegenerateGeometry.
func OppositeVector(v1, v2 orb.Point) (orb.Point, error) {
	u1, ok1 := Normalize(v1)
	u2, ok2 := Normalize(v2)
	if !ok1 || !ok2 {
		return orb.Point{}, ErrDegenerateGeometry
	}
	sum, ok := Normalize(Add(u1, u2))
	if !ok {
		return orb.Point{}, ErrDegenerateGeometry
	}
	return Scale(sum, -1), nil
}
