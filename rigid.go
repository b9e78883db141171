package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// rotationExtractionEpsSq is the stopping threshold on ‖ω‖² in the
// iterative rotation extraction of spec.md §4.H.
const rotationExtractionEpsSq = 1e-9

// QuatToMat3 extracts the upper-left 3x3 rotation block of a quaternion's
// homogeneous matrix.
func QuatToMat3(q mgl32.Quat) mgl32.Mat3 {
	m4 := q.Mat4()
	return mgl32.Mat3{
		m4[0], m4[1], m4[2],
		m4[4], m4[5], m4[6],
		m4[8], m4[9], m4[10],
	}
}

// ShapeMatchClusters runs spec.md §4.H (Müller et al. α=1 shape matching)
// over every admitted rigid cluster: centroid, moment matrix + iterative
// rotation extraction, then reposition. One task per cluster is the CPU
// analogue of "one workgroup per cluster"; each cluster's work is
// self-contained (only its own particle range and cached state), so no
// synchronization is needed between clusters.
//
// Grounded on this codebase's ApplyImpulse/QuatToMat3 rigid-body math
// (world-space inverse-inertia construction via R·M·Rᵀ, quaternion-driven
// orientation update), redirected from an impulse-velocity solver to a
// per-cluster position-fitting one.
func ShapeMatchClusters(st *Storage, maxIterations int, workers int) {
	ForEachCluster(st.clusterCount, workers, func(c int) {
		rng := st.clusterRange[c]
		first, last := rng[0], rng[1]
		count := last - first
		if count <= 0 {
			return
		}

		// Phase 1: centroid of current predicted positions.
		cm := mgl32.Vec3{}
		for i := first; i < last; i++ {
			cm = cm.Add(st.newPosition[i])
		}
		cm = cm.Mul(1 / float32(count))
		st.clusterCenterOfMass[c] = cm

		// Phase 2: moment matrix A = Σ pᵢ·qᵢᵀ, then iterative rotation
		// extraction starting from the cluster's prior quaternion.
		var a mgl32.Mat3
		for i := first; i < last; i++ {
			p := st.newPosition[i].Sub(cm)
			q := st.restOffset[i]
			addMat3(&a, outerProduct(p, q))
		}

		quat := st.clusterRotation[c]
		for iter := 0; iter < maxIterations; iter++ {
			r := QuatToMat3(quat)
			omega := extractRotationStep(r, a)
			if omega.Dot(omega) <= rotationExtractionEpsSq {
				break
			}
			angle := sqrtf(omega.Dot(omega))
			axis := omega.Mul(1 / angle)
			quat = mgl32.QuatRotate(angle, axis).Mul(quat).Normalize()
		}
		st.clusterRotation[c] = quat

		// Phase 3: reposition every member from the fitted rotation.
		r := QuatToMat3(quat)
		for i := first; i < last; i++ {
			st.newPosition[i] = r.Mul3x1(st.restOffset[i]).Add(cm)
		}
	})
}

// outerProduct builds p·qᵀ as a 3x3 matrix in mgl32's column-major layout.
func outerProduct(p, q mgl32.Vec3) mgl32.Mat3 {
	return mgl32.Mat3{
		p.X() * q.X(), p.Y() * q.X(), p.Z() * q.X(),
		p.X() * q.Y(), p.Y() * q.Y(), p.Z() * q.Y(),
		p.X() * q.Z(), p.Y() * q.Z(), p.Z() * q.Z(),
	}
}

// addMat3 accumulates b into a element-wise.
func addMat3(a *mgl32.Mat3, b mgl32.Mat3) {
	for i := range a {
		a[i] += b[i]
	}
}

// col3 extracts column i (0-indexed) of a column-major 3x3 matrix.
func col3(m mgl32.Mat3, i int) mgl32.Vec3 {
	return mgl32.Vec3{m[i*3], m[i*3+1], m[i*3+2]}
}

// extractRotationStep computes ω = (Σᵢ Rᵢ×Aᵢ) / (|Σᵢ Rᵢ·Aᵢ| + ε) over the
// three columns of R and A, per spec.md §4.H step 2.
func extractRotationStep(r, a mgl32.Mat3) mgl32.Vec3 {
	const eps = 1e-9
	cross := mgl32.Vec3{}
	dot := float32(0)
	for i := 0; i < 3; i++ {
		rCol, aCol := col3(r, i), col3(a, i)
		cross = cross.Add(rCol.Cross(aCol))
		dot += rCol.Dot(aCol)
	}
	denom := float32(math.Abs(float64(dot))) + eps
	return cross.Mul(1 / denom)
}
