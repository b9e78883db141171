package solver

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestStabilizePlanes_PushesOutOfPenetration(t *testing.T) {
	st, err := NewStorage(1, 1, 0)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	st.count = 1
	st.position[0] = mgl32.Vec3{0, -0.02, 0}
	st.newPosition[0] = mgl32.Vec3{0, -0.02, 0}
	planes := []Plane{{Origin: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}}}

	StabilizePlanes(st, 1, planes, 0.05)

	if st.position[0].Y() < 0.05-1e-4 {
		t.Errorf("particle should be pushed out to radius, got y=%v", st.position[0].Y())
	}
}

func TestCollidePlanes_NonPenetrationAfterProjection(t *testing.T) {
	st, err := NewStorage(1, 1, 0)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	st.count = 1
	st.position[0] = mgl32.Vec3{0.1, 0.05, 0}
	st.newPosition[0] = mgl32.Vec3{0.3, -0.05, 0}
	planes := []Plane{{Origin: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}}}

	CollidePlanes(st, 1, planes, 0.05, FrictionConfig{Static: 0.2, Dynamic: 0.15})

	d := planes[0].penetration(st.newPosition[0], 0.05)
	if d > 1e-4 {
		t.Errorf("particle still penetrates plane after collision pass: d=%v", d)
	}
}

func TestCollidePlanes_ZeroFrictionLeavesTangentialMotion(t *testing.T) {
	st, err := NewStorage(1, 1, 0)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	st.count = 1
	st.position[0] = mgl32.Vec3{0, 0.05, 0}
	st.newPosition[0] = mgl32.Vec3{0.2, -0.05, 0}
	planes := []Plane{{Origin: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}}}

	CollidePlanes(st, 1, planes, 0.05, FrictionConfig{Static: 0, Dynamic: 0})

	if st.newPosition[0].X() <= 0.15 {
		t.Errorf("with zero friction, tangential motion should be preserved, got x=%v", st.newPosition[0].X())
	}
}
