package routing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"campus_router/pkg/graph"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	m := walkMap(t,
		stop{"A", 0, 0, "A"},
		stop{"H", 10, 0, "H"},
		stop{"j", 10, 10, ""},
		stop{"B", 20, 10, "B"},
	)
	s, err := NewService(m, opts, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestServiceDirections(t *testing.T) {
	s := newTestService(t, DefaultOptions())

	d, err := s.Directions(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("Directions: %v", err)
	}
	want := strings.Join([]string{
		"Start at A and go straight to H",
		"Enter H and continue to (10, 10)",
		"Turn left and continue to B",
	}, "\n")
	if got := d.Text(); got != want {
		t.Errorf("Text:\n%s\nwant:\n%s", got, want)
	}
	if len(d.Route.Steps) != len(d.Instructions) {
		t.Errorf("%d steps, %d instructions", len(d.Route.Steps), len(d.Instructions))
	}
	if len(d.Markers) != 3 {
		t.Errorf("markers = %d, want 3", len(d.Markers))
	}

	// Second query is served from the cache and is identical.
	again, err := s.Directions(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("Directions (cached): %v", err)
	}
	if diff := cmp.Diff(d, again); diff != "" {
		t.Errorf("cached directions mismatch (-first +second):\n%s", diff)
	}
	if n, _ := s.cache.Len(); n != 1 {
		t.Errorf("cache entries = %d, want 1", n)
	}
}

func TestServiceErrors(t *testing.T) {
	s := newTestService(t, Options{ToleranceDegrees: 20})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		from, to string
		want     error
	}{
		{"unknown source", context.Background(), "X", "B", graph.ErrNotFound},
		{"unknown destination", context.Background(), "A", "X", graph.ErrNotFound},
		{"same building", context.Background(), "H", "H", ErrInvalidRequest},
		{"cancelled", ctx, "A", "B", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Directions(tt.ctx, tt.from, tt.to)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestServiceNearestBuilding(t *testing.T) {
	s := newTestService(t, DefaultOptions())
	b, ok := s.NearestBuilding(11, 1, 5)
	if !ok || b.Name != "H" {
		t.Errorf("NearestBuilding = %+v, %v; want H", b, ok)
	}
}

func TestToGeoJSON(t *testing.T) {
	s := newTestService(t, DefaultOptions())
	d, err := s.Directions(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("Directions: %v", err)
	}

	fc := ToGeoJSON(d)
	if got, want := len(fc.Features), len(d.Route.Steps)+len(d.Markers); got != want {
		t.Fatalf("features = %d, want %d", got, want)
	}
	first := fc.Features[0]
	if first.Geometry.GeoJSONType() != "LineString" {
		t.Errorf("first feature type = %s, want LineString", first.Geometry.GeoJSONType())
	}
	if first.Properties["instruction"] != "Start at A and go straight to H" {
		t.Errorf("instruction = %v", first.Properties["instruction"])
	}
	last := fc.Features[len(fc.Features)-1]
	if last.Properties["marker"] != "B" {
		t.Errorf("last marker = %v, want B", last.Properties["marker"])
	}

	if got := ToGeoJSON(nil); len(got.Features) != 0 {
		t.Errorf("ToGeoJSON(nil) has %d features", len(got.Features))
	}
}
