package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// BBox defines a geographic bounding box.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Extend grows the box to include the point. A zero box becomes the point.
func (b BBox) Extend(lat, lng float64) BBox {
	if b.IsZero() {
		return BBox{MinLat: lat, MaxLat: lat, MinLng: lng, MaxLng: lng}
	}
	return BBox{
		MinLat: math.Min(b.MinLat, lat),
		MaxLat: math.Max(b.MaxLat, lat),
		MinLng: math.Min(b.MinLng, lng),
		MaxLng: math.Max(b.MaxLng, lng),
	}
}

// Dimensions is the size of the map image in map pixels.
type Dimensions struct {
	Width  int
	Height int
}

// FromTap converts a tap position given relative to the image (0.0 to 1.0 on
// both axes, center at 0.5, 0.5) into map pixels.
func (d Dimensions) FromTap(fx, fy float64) orb.Point {
	return orb.Point{fx * float64(d.Width), fy * float64(d.Height)}
}

// Projection maps a geographic bounding box linearly onto the map image.
// North is up, so latitude decreases as y grows.
type Projection struct {
	Bounds BBox
	Size   Dimensions
}

// ToPixel projects lat/lng to integer map-pixel coordinates.
func (p Projection) ToPixel(lat, lng float64) (x, y int) {
	dLng := p.Bounds.MaxLng - p.Bounds.MinLng
	dLat := p.Bounds.MaxLat - p.Bounds.MinLat

	var fx, fy float64
	if dLng > 0 {
		fx = (lng - p.Bounds.MinLng) / dLng
	}
	if dLat > 0 {
		fy = (p.Bounds.MaxLat - lat) / dLat
	}
	return int(math.Round(fx * float64(p.Size.Width))), int(math.Round(fy * float64(p.Size.Height)))
}
