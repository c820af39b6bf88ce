package camera

import (
	"math"
	"math/rand"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected camera at (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
	if cam.MinZoom != 0.5 {
		t.Errorf("expected min zoom 0.5, got %f", cam.MinZoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	sx, sy := cam.WorldToScreen(1280, 720)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(2)
	cam.OffsetX, cam.OffsetY = 3, -4

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	cam.Pan(-100000, -100000)
	minX, minY, _, _ := cam.VisibleWorldBounds()
	if minX != 0 || minY != 0 {
		t.Errorf("view escaped top-left: (%f, %f)", minX, minY)
	}

	cam.Pan(100000, 100000)
	_, _, maxX, maxY := cam.VisibleWorldBounds()
	if maxX != 2560 || maxY != 1440 {
		t.Errorf("view escaped bottom-right: (%f, %f)", maxX, maxY)
	}
}

func TestWorldSmallerThanViewStaysCentred(t *testing.T) {
	cam := New(1280, 720, 1280, 720)
	cam.Pan(500, 500)
	if cam.X != 640 || cam.Y != 360 {
		t.Errorf("camera moved to (%f, %f) in a world that fits the view", cam.X, cam.Y)
	}
}

func TestZoomClamping(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	cam.SetZoom(10)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("zoom = %f, want max %f", cam.Zoom, cam.MaxZoom)
	}
	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("zoom = %f, want min %f", cam.Zoom, cam.MinZoom)
	}
}

func TestFollowEases(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(2)
	cam.Follow(1000, 700, 0.5)
	if cam.X != 1140 || cam.Y != 710 {
		t.Errorf("after half follow = (%f, %f), want (1140, 710)", cam.X, cam.Y)
	}
	cam.Follow(1000, 700, 1)
	if cam.X != 1000 || cam.Y != 700 {
		t.Errorf("after snap = (%f, %f), want (1000, 700)", cam.X, cam.Y)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	if !cam.IsVisible(1280, 720, 10) {
		t.Error("centre not visible")
	}
	if cam.IsVisible(100, 100, 10) {
		t.Error("far corner reported visible")
	}
	if !cam.IsVisible(635, 720, 10) {
		t.Error("circle straddling the left edge not visible")
	}
}

func TestFocusRunsOnRealClock(t *testing.T) {
	var f Focus
	if f.TimeScale() != 1 {
		t.Fatalf("idle time scale = %v, want 1", f.TimeScale())
	}
	if !f.Start(10, 20, 1.5, 0.3) {
		t.Fatal("Start returned false on idle focus")
	}
	if f.Start(99, 99, 5, 0.1) {
		t.Error("Start replaced an active focus")
	}
	if f.X != 10 || f.TimeScale() != 0.3 {
		t.Errorf("focus = (%v, scale %v), want (10, 0.3)", f.X, f.TimeScale())
	}

	// Real time ends the focus regardless of the slowed sim clock.
	for i := 0; i < 16; i++ {
		f.Update(0.1)
	}
	if f.Active {
		t.Errorf("focus still active with %v remaining", f.Remaining())
	}
	if f.TimeScale() != 1 {
		t.Errorf("time scale after focus = %v, want 1", f.TimeScale())
	}
}

func TestShakeExpires(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var s Shake
	s.Start(10, 0.5)

	dx, dy := s.Offset(rng)
	if math.Abs(float64(dx)) > 10 || math.Abs(float64(dy)) > 10 {
		t.Errorf("offset (%v, %v) exceeds intensity", dx, dy)
	}

	s.Update(0.6)
	if s.Active() {
		t.Error("shake active after its duration")
	}
	if dx, dy := s.Offset(rng); dx != 0 || dy != 0 {
		t.Errorf("offset after expiry = (%v, %v)", dx, dy)
	}
}
