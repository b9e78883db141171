package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func expf(v float32) float32 { return float32(math.Exp(float64(v))) }

// gravity is the constant downward acceleration applied every sub-step
// (spec.md §4.D).
var gravity = mgl32.Vec3{0, -9.8, 0}

// applyForces adds gravity·δt to the velocity of every unpinned particle
// (invMass>0). If pickedIndex is valid, that particle's velocity is zeroed
// instead so the picked particle holds still while held.
//
// Grounded on this codebase's physics step, which separates force
// application, prediction, and velocity reconstruction into discrete
// sub-phases of one sub-stepped loop rather than one monolithic Euler
// update.
func applyForces(st *Storage, n int, dt float32, pickedIndex int) {
	for i := 0; i < n; i++ {
		if i == pickedIndex {
			st.velocity[i] = mgl32.Vec3{}
			continue
		}
		if st.invMass[i] <= 0 {
			continue
		}
		st.velocity[i] = st.velocity[i].Add(gravity.Mul(dt))
	}
}

// predictPositions sets newPosition = position + velocity·δt for every
// particle (pinned particles simply carry position forward unchanged,
// since their velocity is zero).
func predictPositions(st *Storage, n int, dt float32) {
	for i := 0; i < n; i++ {
		st.newPosition[i] = st.position[i].Add(st.velocity[i].Mul(dt))
	}
}

// computeInvScaledMasses derives invScaledMass = 1/(mass·exp(−k·y)) from
// current height y, used by the particle contact pass (ResolveContacts) to
// make upper particles in a stack artificially lighter for stability.
func computeInvScaledMasses(st *Storage, n int, massScalingConstant float32) {
	for i := 0; i < n; i++ {
		if st.invMass[i] <= 0 {
			st.invScaledMass[i] = 0
			continue
		}
		y := st.position[i].Y()
		scaled := st.mass[i] * expf(-massScalingConstant*y)
		st.invScaledMass[i] = 1 / scaled
	}
}

// updateVelocity reconstructs velocity from the position delta of the
// sub-step: velocity = (newPosition − position)/δt.
func updateVelocity(st *Storage, n int, dt float32) {
	invDt := 1 / dt
	for i := 0; i < n; i++ {
		st.velocity[i] = st.newPosition[i].Sub(st.position[i]).Mul(invDt)
	}
}

// updatePositions commits newPosition into position (spec.md §4.D): fluids
// always commit; solids commit only when the squared displacement meets
// sleepThreshold², suppressing jitter below that threshold.
func updatePositions(st *Storage, n int, sleepThreshold float32) {
	sleepThresholdSq := sleepThreshold * sleepThreshold
	for i := 0; i < n; i++ {
		if st.phase[i] < 0 {
			st.position[i] = st.newPosition[i]
			continue
		}
		delta := st.newPosition[i].Sub(st.position[i])
		if delta.Dot(delta) >= sleepThresholdSq {
			st.position[i] = st.newPosition[i]
		}
	}
}
