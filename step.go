package solver

import "github.com/go-gl/mathgl/mgl32"

// PickedParticle pins one particle's position and velocity for the
// duration of a step — the interactive "drag a particle" interaction
// spec.md §4.J and §6 describe.
type PickedParticle struct {
	ID       int
	Position mgl32.Vec3
	Velocity mgl32.Vec3
}

// runStep is spec.md §4.J's per-call orchestrator: sub-step loop, phase
// sequencing in the exact order the spec lists, picked-particle pinning.
//
// Grounded on this codebase's PhysicsSystem outer loop, which sub-steps a
// fixed Δt, runs broad-phase + several solve iterations, integrates, then
// checks sleep state — generalized here from one fixed constraint set to
// the spec's plane/fluid/rigid dispatch and the grid rebuild between
// iterations.
func runStep(st *Storage, grid *Grid, kernel Kernel, planes []Plane, cfg Config, radius, kernelRadius, cellSize, restDensity float32, subSteps int, totalDt float32, picked *PickedParticle) {
	n := st.Count()
	if n == 0 {
		return
	}
	dt := totalDt / float32(subSteps)
	searchK := fluidSearchRadiusInCells(kernelRadius, cellSize)

	pickedIndex := -1
	if picked != nil {
		pickedIndex = picked.ID
	}

	for s := 0; s < subSteps; s++ {
		applyForces(st, n, dt, pickedIndex)
		predictPositions(st, n, dt)
		if pickedIndex >= 0 {
			st.newPosition[pickedIndex] = st.position[pickedIndex]
		}
		computeInvScaledMasses(st, n, cfg.MassScalingConstant)

		for i := 0; i < cfg.StabilizationPasses; i++ {
			StabilizePlanes(st, n, planes, radius)
		}

		for outer := 0; outer < cfg.OuterProjectionIterations; outer++ {
			grid.Update(st.newPosition, n, st)

			for inner := 0; inner < cfg.InnerProjectionPasses; inner++ {
				CollidePlanes(st, n, planes, radius, cfg.Friction)
				ResolveContacts(st, grid, n, radius, cfg.Friction, cfg.WorkerCount)
				FluidLambdaPass(st, grid, kernel, n, searchK, restDensity, cfg.RelaxationEpsilon, cfg.UseAkinciCohesionTension, cfg.WorkerCount)
				FluidPositionPass(st, grid, kernel, n, searchK, restDensity, cfg.SCorr, cfg.UseAkinciCohesionTension, cfg.WorkerCount)
				if st.clusterCount > 0 {
					ShapeMatchClusters(st, cfg.RotationExtractionMaxIterations, cfg.WorkerCount)
				}
			}
		}

		updateVelocity(st, n, dt)
		updatePositions(st, n, cfg.ParticleSleepingEpsilon)

		FluidVorticityConfinement(st, grid, kernel, n, searchK, cfg.VorticityScale, dt, cfg.WorkerCount)
		if cfg.UseAkinciCohesionTension {
			FluidNormals(st, grid, kernel, n, searchK, cfg.WorkerCount)
			FluidCohesionTension(st, grid, kernel, n, searchK, restDensity, cfg.SurfaceTension, dt, cfg.WorkerCount)
		}
		FluidXSPHViscosity(st, grid, kernel, n, searchK, cfg.XSPHC, cfg.WorkerCount)
	}

	if picked != nil {
		st.position[picked.ID] = picked.Position
		st.velocity[picked.ID] = picked.Velocity
		st.newPosition[picked.ID] = picked.Position
	}
}
