package solver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDiagnosticsWriter_WritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "frames.csv")

	w, err := NewDiagnosticsWriter(path)
	if err != nil {
		t.Fatalf("NewDiagnosticsWriter: %v", err)
	}
	if err := w.Write(FrameStats{Step: 0, ParticleCount: 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(FrameStats{Step: 1, ParticleCount: 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if n := countOccurrences(content, "particle_count"); n != 1 {
		t.Errorf("expected exactly one header row, found header token %d times in %q", n, content)
	}
}

func TestCollectFrameStats_CountsAwakeAndFluidDensity(t *testing.T) {
	st, err := NewStorage(4, 1, 0)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	st.count = 2
	st.phase[0] = -1
	st.phase[1] = 0
	st.density[0] = 950
	st.position[0] = mgl32.Vec3{0, 1, 0}
	st.newPosition[0] = mgl32.Vec3{0, 0.9, 0}
	st.position[1] = mgl32.Vec3{1, 1, 0}
	st.newPosition[1] = mgl32.Vec3{1, 1, 0}

	grid := NewGrid([3]int{4, 4, 4}, mgl32.Vec3{-1, -1, -1}, 0.5, 32)
	grid.Update(st.newPosition, st.count, st)

	stats := CollectFrameStats(st, grid, 7)
	if stats.Step != 7 || stats.ParticleCount != 2 {
		t.Errorf("unexpected stats header fields: %+v", stats)
	}
	if stats.MeanFluidDensity != 950 {
		t.Errorf("expected mean fluid density 950, got %v", stats.MeanFluidDensity)
	}
	if stats.AwakeParticles != 1 {
		t.Errorf("expected 1 awake particle, got %d", stats.AwakeParticles)
	}
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
