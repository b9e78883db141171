package solver

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestFluidLambdaPass_OnlyTouchesFluidParticles(t *testing.T) {
	st, err := NewStorage(4, 1, 0)
	require.NoError(t, err)
	st.count = 2
	st.phase[0] = -1 // fluid
	st.phase[1] = 0  // solid
	st.newPosition[0] = mgl32.Vec3{0, 0, 0}
	st.newPosition[1] = mgl32.Vec3{0.01, 0, 0}

	grid := NewGrid([3]int{8, 8, 8}, mgl32.Vec3{-1, -1, -1}, 0.2, 32)
	grid.Update(st.newPosition, st.count, st)
	kernel := NewKernel(0.115)

	FluidLambdaPass(st, grid, kernel, st.count, 1, 1000, 300, false, 1)

	require.NotZero(t, st.density[0])
	require.Zero(t, st.density[1], "solid particle's density scratch must be untouched")
}

func TestFluidLambdaPass_CohesionModeClampsPositiveOnly(t *testing.T) {
	st, err := NewStorage(2, 1, 0)
	require.NoError(t, err)
	st.count = 2
	st.phase[0], st.phase[1] = -1, -1
	st.newPosition[0] = mgl32.Vec3{0, 0, 0}
	st.newPosition[1] = mgl32.Vec3{0.2, 0, 0} // far apart: no neighbour contribution

	grid := NewGrid([3]int{8, 8, 8}, mgl32.Vec3{-1, -1, -1}, 0.2, 32)
	grid.Update(st.newPosition, st.count, st)
	kernel := NewKernel(0.115)

	// A rest density well above this isolated particle's self-density
	// makes the uncapped constraint C strongly negative; cohesion mode
	// clamps it to 0, yielding lambda = 0.
	FluidLambdaPass(st, grid, kernel, st.count, 1, 5000, 300, true, 1)

	require.Zero(t, st.lambda[0])
}

func TestFluidPositionPass_SymmetricPairMovesApart(t *testing.T) {
	st, err := NewStorage(2, 1, 0)
	require.NoError(t, err)
	st.count = 2
	st.phase[0], st.phase[1] = -1, -1
	st.newPosition[0] = mgl32.Vec3{-0.02, 0, 0}
	st.newPosition[1] = mgl32.Vec3{0.02, 0, 0}
	st.lambda[0], st.lambda[1] = -1, -1 // negative lambda pushes particles apart

	grid := NewGrid([3]int{8, 8, 8}, mgl32.Vec3{-1, -1, -1}, 0.2, 32)
	grid.Update(st.newPosition, st.count, st)
	kernel := NewKernel(0.115)

	FluidPositionPass(st, grid, kernel, st.count, 1, 1000, SCorrConfig{K: 0, N: 4}, false, 1)

	dist := st.newPosition[0].Sub(st.newPosition[1]).Len()
	require.Greater(t, dist, float32(0.04))
}
