package solver

import "github.com/go-gl/mathgl/mgl32"

// Storage owns every per-particle, per-cluster, and grid-scratch array the
// solver touches. Arrays are allocated once, sized to the caller-declared
// upper bounds (numMaxParticles, numMaxRigidBodies), and used as arenas:
// admission appends a contiguous block, there is no in-core deletion.
//
// The SoA layout (parallel slices, a live "count", and a capacity that
// admission checks before growing) mirrors the particlePool pattern used
// for CPU particle simulation elsewhere in this codebase, generalized from
// one fixed-size pool per emitter to one arena shared by the whole solver.
type Storage struct {
	capacity int
	count    int

	position    []mgl32.Vec3
	newPosition []mgl32.Vec3
	velocity    []mgl32.Vec3
	omega       []mgl32.Vec3

	mass          []float32
	invMass       []float32
	invScaledMass []float32
	phase         []int32

	// Fluid scratch (§3): meaningful only where phase[i] < 0.
	lambda  []float32
	density []float32
	normal  []mgl32.Vec3

	// Rest-pose offset for rigid cluster members, indexed by particle id;
	// meaningless for fluid/granular particles.
	restOffset []mgl32.Vec3

	// Double-buffer targets for kernels whose output aliases their input
	// (§5: "double-buffering is required ... write to a scratch buffer,
	// then swap roles"). Sized lazily to capacity on first use.
	newPositionNext []mgl32.Vec3
	velocityNext    []mgl32.Vec3

	clusterCapacity int
	clusterCount    int
	clusterRange    [][2]int // half-open [first,last) into particle arrays
	clusterRotation []mgl32.Quat
	clusterCenterOfMass []mgl32.Vec3

	nextPhase int32

	// scratch is the growable buffer the grid radix sort borrows; it grows
	// monotonically to the largest size ever requested and is never shrunk.
	scratch []int32

	maxArenaBytes int64
}

const bytesPerParticleSlot = 0 +
	3*4 /*position*/ + 3*4 /*newPosition*/ + 3*4 /*velocity*/ + 3*4 /*omega*/ +
	4 /*mass*/ + 4 /*invMass*/ + 4 /*invScaledMass*/ + 4 /*phase*/ +
	4 /*lambda*/ + 4 /*density*/ + 3*4 /*normal*/ + 3*4 /*restOffset*/

// NewStorage allocates arenas sized to numMaxParticles / numMaxRigidBodies.
// It returns DeviceAllocationFailedError if the declared bound would exceed
// maxArenaBytes.
func NewStorage(numMaxParticles, numMaxRigidBodies int, maxArenaBytes int64) (*Storage, error) {
	requested := int64(numMaxParticles) * int64(bytesPerParticleSlot)
	if maxArenaBytes > 0 && requested > maxArenaBytes {
		return nil, &DeviceAllocationFailedError{
			Reason: "requested particle arena exceeds configured maximum",
		}
	}
	s := &Storage{
		capacity:      numMaxParticles,
		position:      make([]mgl32.Vec3, numMaxParticles),
		newPosition:   make([]mgl32.Vec3, numMaxParticles),
		velocity:      make([]mgl32.Vec3, numMaxParticles),
		omega:         make([]mgl32.Vec3, numMaxParticles),
		mass:          make([]float32, numMaxParticles),
		invMass:       make([]float32, numMaxParticles),
		invScaledMass: make([]float32, numMaxParticles),
		phase:         make([]int32, numMaxParticles),
		lambda:        make([]float32, numMaxParticles),
		density:       make([]float32, numMaxParticles),
		normal:        make([]mgl32.Vec3, numMaxParticles),
		restOffset:    make([]mgl32.Vec3, numMaxParticles),

		clusterCapacity:     numMaxRigidBodies,
		clusterRange:        make([][2]int, 0, numMaxRigidBodies),
		clusterRotation:     make([]mgl32.Quat, 0, numMaxRigidBodies),
		clusterCenterOfMass: make([]mgl32.Vec3, 0, numMaxRigidBodies),

		maxArenaBytes: maxArenaBytes,
	}
	return s, nil
}

// Count returns the number of admitted particles.
func (s *Storage) Count() int { return s.count }

// reserve appends n contiguous particle slots and returns the first index,
// or CapacityExceededError if doing so would overflow the arena.
func (s *Storage) reserve(n int) (int, error) {
	if s.count+n > s.capacity {
		return 0, &CapacityExceededError{Kind: "particle", Requested: s.count + n, Capacity: s.capacity}
	}
	first := s.count
	s.count += n
	return first, nil
}

// reserveCluster appends one cluster slot and returns its index, or
// CapacityExceededError if the cluster arena is full.
func (s *Storage) reserveCluster() (int, error) {
	if s.clusterCount >= s.clusterCapacity {
		return 0, &CapacityExceededError{Kind: "rigidBody", Requested: s.clusterCount + 1, Capacity: s.clusterCapacity}
	}
	idx := s.clusterCount
	s.clusterCount++
	s.clusterRange = append(s.clusterRange, [2]int{})
	s.clusterRotation = append(s.clusterRotation, mgl32.QuatIdent())
	s.clusterCenterOfMass = append(s.clusterCenterOfMass, mgl32.Vec3{})
	return idx, nil
}

// ensureDoubleBuffers lazily sizes the swap targets used by aliasing
// kernels (§5) to the current capacity.
func (s *Storage) ensureDoubleBuffers() {
	if len(s.newPositionNext) != s.capacity {
		s.newPositionNext = make([]mgl32.Vec3, s.capacity)
	}
	if len(s.velocityNext) != s.capacity {
		s.velocityNext = make([]mgl32.Vec3, s.capacity)
	}
}

// swapNewPosition exchanges the live newPosition array with its scratch
// buffer. Kernels write to Storage.newPositionNext during a pass and call
// this themselves after their ForEachChunk has returned, i.e. once the
// whole pass has completed for every particle, so no goroutine ever
// observes a partially-updated input.
func (s *Storage) swapNewPosition() {
	s.position_swap(&s.newPosition, &s.newPositionNext)
}

func (s *Storage) position_swap(a, b *[]mgl32.Vec3) {
	*a, *b = *b, *a
}

// ensureScratch grows the radix-sort scratch buffer monotonically; it is
// never shrunk, matching spec.md 4.A's "grows monotonically to the largest
// size ever requested".
func (s *Storage) ensureScratch(n int) []int32 {
	if len(s.scratch) < n {
		s.scratch = make([]int32, n)
	}
	return s.scratch[:n]
}
