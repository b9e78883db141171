package solver

import "github.com/go-gl/mathgl/mgl32"

// Plane is an infinite half-space boundary: dot(n, x−o) ≥ 0 is "inside"
// (spec.md §3).
type Plane struct {
	Origin mgl32.Vec3
	Normal mgl32.Vec3
}

func (p Plane) penetration(x mgl32.Vec3, radius float32) float32 {
	return p.Origin.Sub(x).Dot(p.Normal) + radius
}

// StabilizePlanes is the pre-solve pass of spec.md §4.E: for each particle,
// if it penetrates the plane, push both position and newPosition out by
// d·n. Run twice per sub-step by the orchestrator.
//
// Grounded on this codebase's collision resolver, which separates a
// positional correction from the velocity-impulse solve; here the
// correction runs before any velocity-affecting work, as a stabilization
// pass rather than a Baumgarte bias term.
func StabilizePlanes(st *Storage, n int, planes []Plane, radius float32) {
	for _, pl := range planes {
		for i := 0; i < n; i++ {
			d := pl.penetration(st.newPosition[i], radius)
			if d > 0 {
				correction := pl.Normal.Mul(d)
				st.position[i] = st.position[i].Add(correction)
				st.newPosition[i] = st.newPosition[i].Add(correction)
			}
		}
	}
}

// CollidePlanes is the solve pass of spec.md §4.E: project newPosition out
// of penetration, then apply static/dynamic Coulomb friction to the
// tangential component of the sub-step displacement.
func CollidePlanes(st *Storage, n int, planes []Plane, radius float32, friction FrictionConfig) {
	for _, pl := range planes {
		for i := 0; i < n; i++ {
			d := pl.penetration(st.newPosition[i], radius)
			if d <= 0 {
				continue
			}
			st.newPosition[i] = st.newPosition[i].Add(pl.Normal.Mul(d))

			// d is the penetration depth just corrected for, standing in for
			// the magnitude of the normal impulse (spec.md's Δ_n) that the
			// tangential friction clamp is scaled against.
			delta := st.newPosition[i].Sub(st.position[i])
			tangential := delta.Sub(pl.Normal.Mul(delta.Dot(pl.Normal)))
			tangentialLen := tangential.Len()

			switch {
			case tangentialLen < friction.Static*d:
				st.newPosition[i] = st.newPosition[i].Sub(tangential)
			default:
				if tangentialLen > 0 {
					scale := friction.Dynamic * d / tangentialLen
					if scale > 1 {
						scale = 1
					}
					st.newPosition[i] = st.newPosition[i].Sub(tangential.Mul(scale))
				}
			}
		}
	}
}
