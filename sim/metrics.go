// sim/metrics.go
//
// The live-metrics sidecar: the executor (and sim/cluster) write a JSON
// snapshot to a fixed path after every block execution, transfer, and
// collective. A terminal dashboard polls this file and re-renders; writes
// are atomic (write to a sibling temp path, then rename) so the reader
// never observes a torn write.
package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSidecarPath is the conventional live-metrics location used by the
// CLI. The library itself never mandates a path — this is a fixed sidecar
// location agreed with the viewer, fixed per deployment, not baked into the
// library.
const DefaultSidecarPath = "/tmp/gpusim_live.json"

// LiveMetrics is the JSON schema written to the sidecar file. Cluster
// fields are optional and omitted by a single-device simulation; a reader
// must treat their absence as the default (disabled) cluster mode.
type LiveMetrics struct {
	Status               string   `json:"status"`
	KernelName            string   `json:"kernel_name"`
	SchedulingPolicy      string   `json:"scheduling_policy"`
	Grid                  [3]uint32 `json:"grid"`
	Block                 [3]uint32 `json:"block"`
	TheoreticalOccupancy  float64  `json:"theoretical_occupancy"`
	OccupancyLimiter      string   `json:"occupancy_limiter"`
	MaxBlocksPerSM        uint32   `json:"max_blocks_per_sm"`
	BlocksTotal           uint32   `json:"blocks_total"`
	BlocksExecuted        uint32   `json:"blocks_executed"`
	WarpsExecuted         uint32   `json:"warps_executed"`
	ThreadsExecuted       uint32   `json:"threads_executed"`
	SMActiveBlocks        []uint32 `json:"sm_active_blocks"`
	TimestampMs           uint64   `json:"timestamp_ms"`

	ClusterMode      bool               `json:"cluster_mode,omitempty"`
	NumNodes         int                `json:"num_nodes,omitempty"`
	GPUsPerNode      int                `json:"gpus_per_node,omitempty"`
	NVLinkBWGBs      float64            `json:"nvlink_bw_gb_s,omitempty"`
	InfiniBandBWGBs  float64            `json:"infiniband_bw_gb_s,omitempty"`
	ActiveDevice     string             `json:"active_device,omitempty"`
	LastTransfer     *TransferSnapshot  `json:"last_transfer,omitempty"`
	LastCollective   *CollectiveSnapshot `json:"last_collective,omitempty"`
}

// TransferSnapshot is the live-metrics view of the most recent point-to-
// point transfer.
type TransferSnapshot struct {
	Src            string  `json:"src"`
	Dst            string  `json:"dst"`
	BytesMB        float64 `json:"bytes_mb"`
	TimeMs         float64 `json:"time_ms"`
	BandwidthGBs   float64 `json:"bandwidth_gb_s"`
	Channel        string  `json:"channel"`
}

// CollectiveSnapshot is the live-metrics view of the most recent collective
// operation.
type CollectiveSnapshot struct {
	Operation     string  `json:"operation"`
	Algorithm     string  `json:"algorithm"`
	NumGPUs       int     `json:"num_gpus"`
	BytesPerGPUMB float64 `json:"bytes_per_gpu_mb"`
	TimeMs        float64 `json:"time_ms"`
	BusBWGBs      float64 `json:"bus_bw_gb_s"`
	EfficiencyPct float64 `json:"efficiency_pct"`
}

// Sidecar writes and reads LiveMetrics snapshots at a fixed path.
type Sidecar struct {
	Path string
}

// NewSidecar creates a Sidecar writing to path.
func NewSidecar(path string) *Sidecar {
	return &Sidecar{Path: path}
}

type kernelSnapshotInput struct {
	status               string
	kernelName            string
	schedulingPolicy      string
	grid, block           Dim3
	theoreticalOccupancy  float64
	occupancyLimiter      string
	maxBlocksPerUnit      uint32
	blocksTotal           uint32
	blocksExecuted        uint32
	warpsExecuted         uint32
	threadsExecuted       uint32
	unitActiveBlocks      []uint32
}

// WriteKernelSnapshot writes a single-device LiveMetrics snapshot. Failures
// are logged at Warn and otherwise swallowed — this is best-effort
// telemetry, not a correctness requirement of the simulation.
func (s *Sidecar) WriteKernelSnapshot(in kernelSnapshotInput) {
	m := &LiveMetrics{
		Status:               in.status,
		KernelName:           in.kernelName,
		SchedulingPolicy:     in.schedulingPolicy,
		Grid:                 [3]uint32{in.grid.X, in.grid.Y, in.grid.Z},
		Block:                [3]uint32{in.block.X, in.block.Y, in.block.Z},
		TheoreticalOccupancy: in.theoreticalOccupancy,
		OccupancyLimiter:     in.occupancyLimiter,
		MaxBlocksPerSM:       in.maxBlocksPerUnit,
		BlocksTotal:          in.blocksTotal,
		BlocksExecuted:       in.blocksExecuted,
		WarpsExecuted:        in.warpsExecuted,
		ThreadsExecuted:      in.threadsExecuted,
		SMActiveBlocks:       in.unitActiveBlocks,
		TimestampMs:          nowMs(),
	}
	s.Write(m)
}

// Write atomically writes m as JSON to the sidecar path: write to a
// sibling ".tmp" file, then rename over the published path. Rename is
// atomic on the host filesystem, so no locking is required and a reader
// never observes a torn write.
func (s *Sidecar) Write(m *LiveMetrics) {
	data, err := json.Marshal(m)
	if err != nil {
		logrus.Warnf("sim: marshaling live-metrics snapshot: %v", err)
		return
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logrus.Warnf("sim: writing live-metrics temp file %s: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		logrus.Warnf("sim: renaming live-metrics snapshot into place: %v", err)
	}
}

// Read returns the latest snapshot, or (nil, false) if no snapshot is
// available (file missing or unparseable) — never an error.
func (s *Sidecar) Read() (*LiveMetrics, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, false
	}
	var m LiveMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return &m, true
}

// EnsureDir creates the sidecar's parent directory if needed. Best-effort;
// errors are logged, not returned, consistent with the sidecar's
// best-effort write contract.
func (s *Sidecar) EnsureDir() {
	dir := filepath.Dir(s.Path)
	if dir == "" || dir == "." {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logrus.Warnf("sim: creating live-metrics directory %s: %v", dir, err)
	}
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}
