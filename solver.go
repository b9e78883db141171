package solver

import "github.com/go-gl/mathgl/mgl32"

// Solver is the unified PBD particle solver of spec.md §6: the only type
// collaborators (scene authoring, rendering, input) touch.
type Solver struct {
	id instanceID

	cfg Config

	storage *Storage
	grid    *Grid
	kernel  Kernel
	planes  []Plane

	radius       float32
	kernelRadius float32
	cellSize     float32
	restDensity  float32

	stepIndex int
	log       Logger
}

// NewSolver constructs a Solver with arenas sized to maxParticles and
// maxRigidBodies. radius is the particle radius, kernelRadius the SPH
// support radius h, gravity is accepted for interface compatibility with
// spec.md §6 (the core always applies (0,−9.8,0); see DESIGN.md), and
// restDensity is ρ₀ for the fluid constraint.
func NewSolver(cfg Config, maxParticles, maxRigidBodies int, radius, kernelRadius, gravity, restDensity float32) (*Solver, error) {
	storage, err := NewStorage(maxParticles, maxRigidBodies, cfg.MaxArenaBytes)
	if err != nil {
		return nil, err
	}

	cellSize := kernelRadius
	dims := gridDimsFor(maxParticles, cellSize)
	grid := NewGrid(dims, mgl32.Vec3{}, cellSize, cfg.NumMaxParticlePerCell)

	id := newInstanceID()
	return &Solver{
		id:           id,
		cfg:          cfg,
		storage:      storage,
		grid:         grid,
		kernel:       NewKernel(kernelRadius),
		radius:       radius,
		kernelRadius: kernelRadius,
		cellSize:     cellSize,
		restDensity:  restDensity,
		log:          NewDefaultLogger(id.String(), false),
	}, nil
}

// gridDimsFor picks a cube of cells generously sized against the particle
// count so that, in practice, average cell occupancy stays well under
// NumMaxParticlePerCell for typical scene densities.
func gridDimsFor(maxParticles int, cellSize float32) [3]int {
	side := 8
	for side*side*side < maxParticles/4+1 {
		side *= 2
	}
	return [3]int{side, side, side}
}

// AddPlane registers a static infinite half-space boundary.
func (s *Solver) AddPlane(origin, normal mgl32.Vec3) {
	s.planes = append(s.planes, Plane{Origin: origin, Normal: normal.Normalize()})
}

// AdmitGranulars appends particles each assigned a unique non-negative
// phase (spec.md §6): granular particles never collide-exempt each other.
func (s *Solver) AdmitGranulars(positions []mgl32.Vec3, massPerParticle []float32) (int, error) {
	if err := validateAdmission(positions, massPerParticle); err != nil {
		s.log.Warnf("AdmitGranulars rejected: %v", err)
		return 0, err
	}
	first, err := s.storage.reserve(len(positions))
	if err != nil {
		s.log.Warnf("AdmitGranulars rejected: %v", err)
		return 0, err
	}
	for k, pos := range positions {
		i := first + k
		s.initParticle(i, pos, massPerParticle[k])
		s.storage.phase[i] = s.storage.nextPhase
		s.storage.nextPhase++
	}
	return first, nil
}

// AdmitRigidBody appends a rigid cluster's particles sharing one
// non-negative phase. worldPositions is the initial placement;
// restOffsetsCentroidAtOrigin must already have its centroid at the
// origin, the admission-time precondition of spec.md §6/§4.H.
func (s *Solver) AdmitRigidBody(worldPositions, restOffsetsCentroidAtOrigin []mgl32.Vec3, massPerParticle []float32) (int, error) {
	if err := validateAdmission(worldPositions, massPerParticle); err != nil {
		s.log.Warnf("AdmitRigidBody rejected: %v", err)
		return 0, err
	}
	if len(restOffsetsCentroidAtOrigin) != len(worldPositions) {
		err := &PreconditionViolatedError{Reason: "restOffsetsCentroidAtOrigin length must match worldPositions"}
		s.log.Warnf("AdmitRigidBody rejected: %v", err)
		return 0, err
	}
	if len(worldPositions) > s.cfg.NumMaxParticlePerRigidBody {
		err := &CapacityExceededError{Kind: "clusterSize", Requested: len(worldPositions), Capacity: s.cfg.NumMaxParticlePerRigidBody}
		s.log.Warnf("AdmitRigidBody rejected: %v", err)
		return 0, err
	}
	if !centroidNearOrigin(restOffsetsCentroidAtOrigin) {
		err := &PreconditionViolatedError{Reason: "rest-pose offsets are not centred at the origin"}
		s.log.Warnf("AdmitRigidBody rejected: %v", err)
		return 0, err
	}

	clusterIdx, err := s.storage.reserveCluster()
	if err != nil {
		s.log.Warnf("AdmitRigidBody rejected: %v", err)
		return 0, err
	}
	first, err := s.storage.reserve(len(worldPositions))
	if err != nil {
		s.log.Warnf("AdmitRigidBody rejected: %v", err)
		return 0, err
	}
	phase := s.storage.nextPhase
	s.storage.nextPhase++
	for k, pos := range worldPositions {
		i := first + k
		s.initParticle(i, pos, massPerParticle[k])
		s.storage.phase[i] = phase
		s.storage.restOffset[i] = restOffsetsCentroidAtOrigin[k]
	}
	s.storage.clusterRange[clusterIdx] = [2]int{first, first + len(worldPositions)}
	return clusterIdx, nil
}

// AdmitFluid appends particles with phase −1, the uniform fluid tag
// (spec.md §6: "phase = −1 for all").
func (s *Solver) AdmitFluid(positions []mgl32.Vec3, massPerParticle []float32) (int, error) {
	if err := validateAdmission(positions, massPerParticle); err != nil {
		s.log.Warnf("AdmitFluid rejected: %v", err)
		return 0, err
	}
	first, err := s.storage.reserve(len(positions))
	if err != nil {
		s.log.Warnf("AdmitFluid rejected: %v", err)
		return 0, err
	}
	for k, pos := range positions {
		i := first + k
		s.initParticle(i, pos, massPerParticle[k])
		s.storage.phase[i] = -1
	}
	return first, nil
}

func (s *Solver) initParticle(i int, pos mgl32.Vec3, mass float32) {
	st := s.storage
	st.position[i] = pos
	st.newPosition[i] = pos
	st.velocity[i] = mgl32.Vec3{}
	st.mass[i] = mass
	if mass > 0 {
		st.invMass[i] = 1 / mass
	} else {
		st.invMass[i] = 0
	}
}

func validateAdmission(positions []mgl32.Vec3, mass []float32) error {
	if len(positions) != len(mass) {
		return &PreconditionViolatedError{Reason: "positions and massPerParticle must have equal length"}
	}
	for _, m := range mass {
		if m < 0 {
			return &PreconditionViolatedError{Reason: "negative mass"}
		}
	}
	return nil
}

func centroidNearOrigin(offsets []mgl32.Vec3) bool {
	const eps = 1e-3
	sum := mgl32.Vec3{}
	for _, o := range offsets {
		sum = sum.Add(o)
	}
	centroid := sum.Mul(1 / float32(len(offsets)))
	return centroid.Dot(centroid) <= eps*eps
}

// Step advances the simulation by Δt across subSteps sub-steps (spec.md
// §4.J). picked may be nil.
func (s *Solver) Step(subSteps int, dt float32, picked *PickedParticle) error {
	if subSteps <= 0 {
		err := &PreconditionViolatedError{Reason: "subSteps must be positive"}
		s.log.Warnf("Step rejected: %v", err)
		return err
	}
	runStep(s.storage, s.grid, s.kernel, s.planes, s.cfg, s.radius, s.kernelRadius, s.cellSize, s.restDensity, subSteps, dt, picked)
	s.stepIndex++

	if s.log.DebugEnabled() {
		stats := CollectFrameStats(s.storage, s.grid, s.stepIndex)
		s.log.Debugf("step complete: particles=%d meanFluidDensity=%.2f maxCellOccupancy=%d awake=%d",
			stats.ParticleCount, stats.MeanFluidDensity, stats.MaxCellOccupancy, stats.AwakeParticles)
	}
	return nil
}

// ReadParticlePosition is a synchronous readback of one particle's current
// position.
func (s *Solver) ReadParticlePosition(i int) (mgl32.Vec3, error) {
	if i < 0 || i >= s.storage.Count() {
		return mgl32.Vec3{}, &PreconditionViolatedError{Reason: "particle index out of range"}
	}
	return s.storage.position[i], nil
}

// SetParticle overwrites one particle's position and velocity.
func (s *Solver) SetParticle(i int, position, velocity mgl32.Vec3) error {
	if i < 0 || i >= s.storage.Count() {
		return &PreconditionViolatedError{Reason: "particle index out of range"}
	}
	s.storage.position[i] = position
	s.storage.newPosition[i] = position
	s.storage.velocity[i] = velocity
	return nil
}

// Positions exposes the committed position array directly, mirroring the
// mapped position buffer of spec.md §6: the solver writes in place each
// step and the renderer consumes it between steps.
func (s *Solver) Positions() []mgl32.Vec3 {
	return s.storage.position[:s.storage.Count()]
}
