package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorage_ReserveRespectsCapacity(t *testing.T) {
	st, err := NewStorage(4, 1, 0)
	require.NoError(t, err)

	first, err := st.reserve(3)
	require.NoError(t, err)
	require.Equal(t, 0, first)

	_, err = st.reserve(2)
	require.Error(t, err)
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
}

func TestStorage_ReserveClusterRespectsCapacity(t *testing.T) {
	st, err := NewStorage(64, 1, 0)
	require.NoError(t, err)

	_, err = st.reserveCluster()
	require.NoError(t, err)

	_, err = st.reserveCluster()
	require.Error(t, err)
}

func TestNewStorage_RejectsOversizedArena(t *testing.T) {
	_, err := NewStorage(1_000_000, 10, 1024)
	require.Error(t, err)
	var allocErr *DeviceAllocationFailedError
	require.ErrorAs(t, err, &allocErr)
}

func TestStorage_EnsureScratchGrowsMonotonically(t *testing.T) {
	st, err := NewStorage(4, 1, 0)
	require.NoError(t, err)

	s1 := st.ensureScratch(8)
	require.Len(t, s1, 8)
	cap1 := cap(st.scratch)

	s2 := st.ensureScratch(4)
	require.Len(t, s2, 4)
	require.Equal(t, cap1, cap(st.scratch), "scratch buffer must not shrink")
}
