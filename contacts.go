package solver

import "github.com/go-gl/mathgl/mgl32"

// contactFrictionAbsThreshold is the tiny-absolute-threshold of spec.md
// §4.F ((0.001·r)²) below which a constraint's friction contribution is
// not counted at all.
func contactFrictionAbsThreshold(radius float32) float32 {
	t := 0.001 * radius
	return t * t
}

// ResolveContacts is spec.md §4.F: pairwise non-penetration with friction
// between particles of different phases found via the grid's 3×3×3
// neighbour walk. Only pairs with equal phase are skipped: same-body pairs
// (equal non-negative phase) and fluid-fluid pairs (both phase −1); a fluid
// particle and a solid particle are resolved like any other pair. Output is
// double-buffered into Storage.newPositionNext and swapped into newPosition
// at the end of this function, once every particle has been processed,
// since the correction for i reads the predicted positions of its
// neighbours and must not observe another goroutine's write.
//
// Grounded on this codebase's rigid-body contact resolver (pairwise
// candidate search plus penetration-based positional and frictional
// correction), adapted from an impulse-based velocity solve to PBD
// position projection, run over the spatial grid's neighbour walk instead
// of an O(n²) body list.
func ResolveContacts(st *Storage, grid *Grid, n int, radius float32, friction FrictionConfig, workers int) {
	st.ensureDoubleBuffers()
	twoR := 2 * radius
	twoRSq := twoR * twoR
	absThreshold := contactFrictionAbsThreshold(radius)

	ForEachChunk(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			xi := st.newPosition[i]
			sumDelta := mgl32.Vec3{}
			sumFriction := mgl32.Vec3{}
			constraintCount := 0

			grid.ForEachNeighbour(xi, 1, func(jc int32) {
				j := int(jc)
				if j == i || st.phase[i] == st.phase[j] {
					return
				}
				xj := st.newPosition[j]
				delta := xi.Sub(xj)
				distSq := delta.Dot(delta)
				if distSq >= twoRSq || distSq <= 0 {
					return
				}
				d := sqrtf(distSq)

				invMassI := st.invScaledMass[i]
				invMassJ := st.invScaledMass[j]
				invMassSum := invMassI + invMassJ
				if invMassSum <= 0 {
					return
				}
				wi := invMassI / invMassSum

				p := delta.Mul(twoR/d - 1)
				pi := p.Mul(wi)
				sumDelta = sumDelta.Add(pi)

				if pi.Dot(pi) <= absThreshold {
					return
				}

				// Tangential sliding is each particle's own motion since the
				// start of this step (predicted minus committed position),
				// projected perpendicular to the contact normal. p is a
				// scalar multiple of delta, so it is normal-only by
				// construction and never engages friction on its own.
				// Mirrors CollidePlanes in planes.go, which decomposes the
				// same committed-vs-predicted displacement against a static
				// plane normal instead of a pairwise one.
				normal := delta.Mul(1 / d)
				dispI := xi.Sub(st.position[i])
				dispJ := xj.Sub(st.position[j])
				relative := dispI.Sub(dispJ)
				tangential := relative.Sub(normal.Mul(relative.Dot(normal)))
				tangentialLen := tangential.Len()
				if tangentialLen <= 0 {
					return
				}

				switch {
				case tangentialLen < friction.Static*twoR:
					sumFriction = sumFriction.Sub(tangential)
				default:
					scale := friction.Dynamic * twoR / tangentialLen
					if scale > 1 {
						scale = 1
					}
					sumFriction = sumFriction.Sub(tangential.Mul(scale))
				}
				constraintCount++
			})

			result := xi.Add(sumDelta)
			if constraintCount > 0 {
				result = result.Add(sumFriction.Mul(1 / float32(constraintCount)))
			}
			st.newPositionNext[i] = result
		}
	})

	st.swapNewPosition()
}
