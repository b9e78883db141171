package solver

import "github.com/go-gl/mathgl/mgl32"

// FluidVorticityConfinement is spec.md §4.I's vorticity pass: compute per-
// particle vorticity ω from neighbour velocity differences, then apply a
// confinement force along n̂×ω so large-scale swirling motion that
// numerical dissipation would otherwise erase is reinforced.
//
// Grounded on this codebase's SPH fluid forces pass (accumulate a
// per-particle vector quantity over the same neighbour walk used for
// density, then fold it into velocity at the end of the step).
func FluidVorticityConfinement(st *Storage, grid *Grid, kernel Kernel, n int, searchK int, vorticityScale, dt float32, workers int) {
	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if st.phase[i] >= 0 {
				continue
			}
			pi := st.position[i]
			vi := st.velocity[i]
			omega := mgl32.Vec3{}

			grid.ForEachNeighbour(pi, searchK, func(jc int32) {
				j := int(jc)
				if j == i || st.phase[j] >= 0 {
					return
				}
				pj := st.position[j]
				d := pi.Sub(pj)
				r2 := d.Dot(d)
				r := sqrtf(r2)
				if r <= 0 {
					return
				}
				grad := d.Mul(kernel.SpikyGradientScalar(r) / r)
				omega = omega.Add(st.velocity[j].Sub(vi).Cross(grad))
			})
			st.omega[i] = omega
		}
	})

	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if st.phase[i] >= 0 {
				continue
			}
			pi := st.position[i]
			eta := mgl32.Vec3{}

			grid.ForEachNeighbour(pi, searchK, func(jc int32) {
				j := int(jc)
				if j == i || st.phase[j] >= 0 {
					return
				}
				pj := st.position[j]
				d := pi.Sub(pj)
				r2 := d.Dot(d)
				r := sqrtf(r2)
				if r <= 0 {
					return
				}
				grad := d.Mul(kernel.SpikyGradientScalar(r) / r)
				eta = eta.Add(grad.Mul(st.omega[j].Len()))
			})

			if eta.Dot(eta) > 1e-3 {
				n := eta.Mul(1 / eta.Len())
				st.velocity[i] = st.velocity[i].Add(n.Cross(st.omega[i]).Mul(vorticityScale * dt))
			}
		}
	})
}

// FluidNormals computes the per-fluid-particle surface normal used by
// Akinci cohesion: nᵢ = h · Σⱼ (1/ρⱼ)·∇W_spiky(pᵢ−pⱼ).
func FluidNormals(st *Storage, grid *Grid, kernel Kernel, n int, searchK int, workers int) {
	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if st.phase[i] >= 0 {
				continue
			}
			pi := st.position[i]
			normal := mgl32.Vec3{}

			grid.ForEachNeighbour(pi, searchK, func(jc int32) {
				j := int(jc)
				if j == i || st.phase[j] >= 0 || st.density[j] <= 0 {
					return
				}
				pj := st.position[j]
				d := pi.Sub(pj)
				r2 := d.Dot(d)
				r := sqrtf(r2)
				if r <= 0 {
					return
				}
				grad := d.Mul(kernel.SpikyGradientScalar(r) / r)
				normal = normal.Add(grad.Mul(1 / st.density[j]))
			})
			st.normal[i] = normal.Mul(kernel.h)
		}
	})
}

// FluidCohesionTension applies spec.md §4.I's Akinci cohesion/tension pass.
// FluidNormals must have been run first this step.
func FluidCohesionTension(st *Storage, grid *Grid, kernel Kernel, n int, searchK int, restDensity, surfaceTension, dt float32, workers int) {
	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if st.phase[i] >= 0 {
				continue
			}
			pi := st.position[i]
			sum := mgl32.Vec3{}

			grid.ForEachNeighbour(pi, searchK, func(jc int32) {
				j := int(jc)
				if j == i || st.phase[j] >= 0 {
					return
				}
				pj := st.position[j]
				d := pi.Sub(pj)
				r2 := d.Dot(d)
				r := sqrtf(r2)
				if r <= 0 {
					return
				}
				dir := d.Mul(1 / r)

				cohesion := dir.Mul(-surfaceTension * kernel.Akinci(r))
				curvature := st.normal[i].Sub(st.normal[j]).Mul(-surfaceTension)

				if st.density[i]+st.density[j] <= 0 {
					return
				}
				k := 2 * restDensity / (st.density[i] + st.density[j])
				sum = sum.Add(cohesion.Add(curvature).Mul(k))
			})

			st.velocity[i] = st.velocity[i].Add(sum.Mul(dt))
		}
	})
}

// FluidXSPHViscosity is spec.md §4.I's final pass: blend each fluid
// particle's velocity with a poly6-weighted average of neighbour
// velocities. Applied last, after vorticity confinement and cohesion, and
// double-buffered since it reads every neighbour's velocity while writing
// its own.
func FluidXSPHViscosity(st *Storage, grid *Grid, kernel Kernel, n int, searchK int, c float32, workers int) {
	st.ensureDoubleBuffers()

	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if st.phase[i] >= 0 {
				st.velocityNext[i] = st.velocity[i]
				continue
			}
			pi := st.position[i]
			vi := st.velocity[i]
			sum := mgl32.Vec3{}

			grid.ForEachNeighbour(pi, searchK, func(jc int32) {
				j := int(jc)
				if j == i || st.phase[j] >= 0 {
					return
				}
				pj := st.position[j]
				d := pi.Sub(pj)
				w := kernel.Poly6(d.Dot(d))
				sum = sum.Add(st.velocity[j].Sub(vi).Mul(w))
			})

			st.velocityNext[i] = vi.Add(sum.Mul(c))
		}
	})

	st.velocity, st.velocityNext = st.velocityNext, st.velocity
}
