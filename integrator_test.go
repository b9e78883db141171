package solver

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestApplyForces_PinnedParticleSkipped(t *testing.T) {
	st, err := NewStorage(2, 1, 0)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	st.count = 2
	st.invMass[0] = 1
	st.invMass[1] = 1
	st.velocity[0] = mgl32.Vec3{1, 1, 1}

	applyForces(st, 2, 1.0/60.0, 0)

	if st.velocity[0] != (mgl32.Vec3{}) {
		t.Errorf("pinned particle's velocity should be zeroed, got %v", st.velocity[0])
	}
	if st.velocity[1].Y() >= 0 {
		t.Errorf("unpinned particle should gain downward velocity from gravity, got %v", st.velocity[1])
	}
}

func TestUpdatePositions_SolidsRespectSleepThreshold(t *testing.T) {
	st, err := NewStorage(2, 1, 0)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	st.count = 2
	st.phase[0] = 0 // solid
	st.phase[1] = -1 // fluid
	st.position[0] = mgl32.Vec3{0, 0, 0}
	st.newPosition[0] = mgl32.Vec3{0, 0.0001, 0}
	st.position[1] = mgl32.Vec3{0, 0, 0}
	st.newPosition[1] = mgl32.Vec3{0, 0.0001, 0}

	updatePositions(st, 2, 0.01)

	if st.position[0] != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("solid displacement below sleep threshold should not commit, got %v", st.position[0])
	}
	if st.position[1] == (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("fluid particle should always commit its predicted position")
	}
}

func TestUpdateVelocity_ReconstructsFromDelta(t *testing.T) {
	st, err := NewStorage(1, 1, 0)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	st.count = 1
	st.position[0] = mgl32.Vec3{0, 0, 0}
	st.newPosition[0] = mgl32.Vec3{0, -0.1, 0}

	updateVelocity(st, 1, 0.1)

	want := float32(-1)
	if got := st.velocity[0].Y(); got != want {
		t.Errorf("velocity.Y = %v, want %v", got, want)
	}
}
