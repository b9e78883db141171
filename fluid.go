package solver

import "github.com/go-gl/mathgl/mgl32"

// fluidSearchRadiusInCells is ceil(h/s): the per-constraint radius-in-cells
// the grid neighbour walk uses for fluid kernels (spec.md §4.G, §4.J.1).
func fluidSearchRadiusInCells(kernelRadius, cellSize float32) int {
	k := int(kernelRadius / cellSize)
	if float32(k)*cellSize < kernelRadius {
		k++
	}
	if k < 1 {
		k = 1
	}
	return k
}

// FluidLambdaPass computes density and the λ multiplier for every fluid
// particle (phase<0), spec.md §4.G "Lambda pass". When cohesionMode is
// true the constraint is clamped to C ≥ 0 so only positive pressure
// participates (Akinci cohesion supplies the attractive term instead).
//
// Grounded on this codebase's SPH fluid system's density/pressure pass,
// which walks a neighbour list and sums a poly6-weighted density before
// deriving a per-particle scalar from it; this replaces the
// pressure-equation-of-state scalar with PBD's Lagrange multiplier λ.
func FluidLambdaPass(st *Storage, grid *Grid, kernel Kernel, n int, searchK int, restDensity, relaxationEpsilon float32, cohesionMode bool, workers int) {
	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if st.phase[i] >= 0 {
				continue
			}
			pi := st.newPosition[i]

			var density float32
			gii := mgl32.Vec3{}
			sumGradSq := float32(0)

			grid.ForEachNeighbour(pi, searchK, func(jc int32) {
				j := int(jc)
				if st.phase[j] >= 0 {
					return
				}
				pj := st.newPosition[j]
				delta := pi.Sub(pj)
				r2 := delta.Dot(delta)
				density += kernel.Poly6(r2)
				if j == i {
					return
				}
				r := sqrtf(r2)
				if r <= 0 {
					return
				}
				scalar := kernel.SpikyGradientScalar(r)
				gradIJ := delta.Mul(scalar / r)
				gii = gii.Add(gradIJ)
				gij := gradIJ.Mul(-1 / restDensity)
				sumGradSq += gij.Dot(gij)
			})

			st.density[i] = density

			giiScaled := gii.Mul(1 / restDensity)
			sumGradSq += giiScaled.Dot(giiScaled)

			c := density/restDensity - 1
			if cohesionMode && c < 0 {
				c = 0
			}
			st.lambda[i] = -c / (sumGradSq + relaxationEpsilon)
		}
	})
}

// FluidPositionPass is spec.md §4.G "Position pass": the density-constraint
// position correction, optionally with the sCorr anti-clustering term
// (disabled whenever Akinci cohesion mode is active, since both add
// attractive force near the surface).
func FluidPositionPass(st *Storage, grid *Grid, kernel Kernel, n int, searchK int, restDensity float32, sCorr SCorrConfig, cohesionMode bool, workers int) {
	st.ensureDoubleBuffers()
	wPoly6SCorrRef := kernel.Poly6((0.03 * kernel.h) * (0.03 * kernel.h))

	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if st.phase[i] >= 0 {
				st.newPositionNext[i] = st.newPosition[i]
				continue
			}
			pi := st.newPosition[i]
			delta := mgl32.Vec3{}

			grid.ForEachNeighbour(pi, searchK, func(jc int32) {
				j := int(jc)
				if j == i || st.phase[j] >= 0 {
					return
				}
				pj := st.newPosition[j]
				d := pi.Sub(pj)
				r2 := d.Dot(d)
				r := sqrtf(r2)
				if r <= 0 {
					return
				}
				scalar := kernel.SpikyGradientScalar(r)
				grad := d.Mul(scalar / r)

				sCorrTerm := float32(0)
				if !cohesionMode && wPoly6SCorrRef > 0 {
					ratio := kernel.Poly6(r2) / wPoly6SCorrRef
					sCorrTerm = -sCorr.K * powf(ratio, sCorr.N)
				}

				delta = delta.Add(grad.Mul(st.lambda[i] + st.lambda[j] + sCorrTerm))
			})

			st.newPositionNext[i] = pi.Add(delta.Mul(1 / restDensity))
		}
	})

	st.swapNewPosition()
}
