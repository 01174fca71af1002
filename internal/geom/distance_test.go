package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPointSegmentDist2D(t *testing.T) {
	a := Vec3{X: 0, Z: 0}
	b := Vec3{X: 10, Z: 0}

	if d := PointSegmentDist2D(Vec3{X: 5, Z: 3}, a, b); !near(d, 3) {
		t.Fatalf("expected perpendicular distance 3, got=%f", d)
	}
	if d := PointSegmentDist2D(Vec3{X: -4, Z: 3}, a, b); !near(d, 5) {
		t.Fatalf("expected endpoint distance 5, got=%f", d)
	}
	// Height is ignored.
	if d := PointSegmentDist2D(Vec3{X: 5, Y: 50, Z: 0}, a, b); !near(d, 0) {
		t.Fatalf("expected vertical offset ignored, got=%f", d)
	}
}

func TestPointSegmentDist2DDegenerate(t *testing.T) {
	a := Vec3{X: 1, Z: 1}
	if d := PointSegmentDist2D(Vec3{X: 4, Z: 5}, a, a); !near(d, 5) {
		t.Fatalf("expected point distance for zero segment, got=%f", d)
	}
}

func TestSegmentSegmentDist2D(t *testing.T) {
	cases := []struct {
		name           string
		a0, a1, b0, b1 Vec3
		want           float64
	}{
		{"crossing", Vec3{X: -1}, Vec3{X: 1}, Vec3{Z: -1}, Vec3{Z: 1}, 0},
		{"parallel", Vec3{X: 0}, Vec3{X: 10}, Vec3{X: 0, Z: 2}, Vec3{X: 10, Z: 2}, 2},
		{"disjoint", Vec3{X: 0}, Vec3{X: 1}, Vec3{X: 4, Z: 4}, Vec3{X: 4, Z: 8}, 5},
		{"both degenerate", Vec3{X: 0}, Vec3{X: 0}, Vec3{X: 3, Z: 4}, Vec3{X: 3, Z: 4}, 5},
	}
	for _, tc := range cases {
		if d := SegmentSegmentDist2D(tc.a0, tc.a1, tc.b0, tc.b1); !near(d, tc.want) {
			t.Errorf("%s: expected %f, got=%f", tc.name, tc.want, d)
		}
	}
}

func TestAngleDiffWraps(t *testing.T) {
	d := AngleDiff(math.Pi-0.1, -math.Pi+0.1)
	if !near(d, 0.2) {
		t.Fatalf("expected shortest arc 0.2, got=%f", d)
	}
	if d := AngleDiff(0, 3*math.Pi); !near(math.Abs(d), math.Pi) {
		t.Fatalf("expected half turn, got=%f", d)
	}
}

func TestNormalize2DZero(t *testing.T) {
	if n := (Vec3{Y: 3}).Normalize2D(); n != (Vec3{}) {
		t.Fatalf("expected zero vector, got=%+v", n)
	}
}
