package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecar_WriteThenReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	sidecar := NewSidecar(path)

	m := &LiveMetrics{
		Status:               "running",
		KernelName:           "saxpy",
		SchedulingPolicy:      "GTO",
		Grid:                  [3]uint32{4, 1, 1},
		Block:                 [3]uint32{256, 1, 1},
		TheoreticalOccupancy:  0.75,
		OccupancyLimiter:      "warp slots",
		MaxBlocksPerSM:        4,
		BlocksTotal:           4,
		BlocksExecuted:        2,
		WarpsExecuted:         16,
		ThreadsExecuted:       512,
		SMActiveBlocks:        []uint32{1, 1, 0, 0},
		TimestampMs:           1234,
	}

	sidecar.Write(m)

	got, ok := sidecar.Read()
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestSidecar_ReadMissingFileReturnsFalse(t *testing.T) {
	sidecar := NewSidecar(filepath.Join(t.TempDir(), "nope.json"))
	m, ok := sidecar.Read()
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestSidecar_ReadUnparseableFileReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	sidecar := NewSidecar(path)
	_, ok := sidecar.Read()
	assert.False(t, ok)
}

func TestSidecar_WriteKernelSnapshot_NoClusterFieldsByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	sidecar := NewSidecar(path)

	sidecar.WriteKernelSnapshot(kernelSnapshotInput{
		status:           "complete",
		kernelName:       "identity",
		schedulingPolicy: "LRR",
		blocksTotal:      1,
		blocksExecuted:   1,
	})

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	_, hasCluster := m["cluster_mode"]
	assert.False(t, hasCluster, "single-device snapshot must omit cluster fields")
}

func TestSidecar_WriteDoesNotPanicOnUnwritableDir(t *testing.T) {
	sidecar := NewSidecar("/nonexistent-dir-gpusim/live.json")
	assert.NotPanics(t, func() {
		sidecar.Write(&LiveMetrics{Status: "idle"})
	})
}
