package solver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// FrameStats is one row of per-step diagnostics: the high-water marks a
// caller would otherwise have to poll Storage/Grid internals for.
type FrameStats struct {
	Step              int     `csv:"step"`
	ParticleCount     int     `csv:"particle_count"`
	MeanFluidDensity  float32 `csv:"mean_fluid_density"`
	FluidDensityStdev float32 `csv:"fluid_density_stdev"`
	MaxCellOccupancy  int     `csv:"max_cell_occupancy"`
	AwakeParticles    int     `csv:"awake_particles"`
}

// DiagnosticsWriter appends FrameStats rows to a CSV file, one row per call
// to Write, writing the header on the first row only.
type DiagnosticsWriter struct {
	file          *os.File
	headerWritten bool
}

// NewDiagnosticsWriter creates (or truncates) a CSV file at path for
// per-step solver diagnostics. A caller that does not want diagnostics
// output simply never constructs one.
func NewDiagnosticsWriter(path string) (*DiagnosticsWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("solver: creating diagnostics directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("solver: creating diagnostics file %q: %w", path, err)
	}
	return &DiagnosticsWriter{file: f}, nil
}

// Write appends one FrameStats row.
func (w *DiagnosticsWriter) Write(stats FrameStats) error {
	records := []FrameStats{stats}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.file); err != nil {
			return fmt.Errorf("solver: writing diagnostics row: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.file); err != nil {
		return fmt.Errorf("solver: writing diagnostics row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *DiagnosticsWriter) Close() error {
	return w.file.Close()
}

// CollectFrameStats summarizes one Storage snapshot into a FrameStats row.
// step is caller-supplied since Storage has no notion of simulation time.
func CollectFrameStats(st *Storage, grid *Grid, step int) FrameStats {
	n := st.Count()
	stats := FrameStats{Step: step, ParticleCount: n}

	densities := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if st.phase[i] < 0 {
			densities = append(densities, float64(st.density[i]))
		}
	}
	if len(densities) > 0 {
		mean, stddev := stat.MeanStdDev(densities, nil)
		stats.MeanFluidDensity = float32(mean)
		stats.FluidDensityStdev = float32(stddev)
	}

	occCounts := make(map[int32]int, len(grid.cellStart))
	for _, c := range grid.sortedCellId {
		occCounts[c]++
	}
	for _, count := range occCounts {
		if count > stats.MaxCellOccupancy {
			stats.MaxCellOccupancy = count
		}
	}

	for i := 0; i < n; i++ {
		delta := st.newPosition[i].Sub(st.position[i])
		if delta.Dot(delta) > 0 {
			stats.AwakeParticles++
		}
	}

	return stats
}
