// sim/executor.go
package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ExecutionStats summarizes a completed kernel launch.
type ExecutionStats struct {
	BlocksExecuted       uint64
	WarpsExecuted        uint64
	ThreadsExecuted      uint64
	TheoreticalOccupancy float64
	MaxBlocksPerUnit     uint32
	OccupancyLimiter     OccupancyLimiter
	SchedulingPolicy     string

	// SimulatedDuration accumulates LaunchConfig.BlockDelay across every
	// block executed. It is bookkeeping only: the host never sleeps.
	SimulatedDuration time.Duration
}

// KernelExecutor drives a single kernel launch: grid -> unit assignment ->
// block -> warp -> thread, updating per-unit resource counters and the
// live-metrics sidecar as it goes.
type KernelExecutor struct {
	Sidecar *Sidecar // optional; nil disables snapshot emission
}

// NewKernelExecutor creates a KernelExecutor. sidecar may be nil to disable
// live-metrics emission entirely (e.g. in tests).
func NewKernelExecutor(sidecar *Sidecar) *KernelExecutor {
	return &KernelExecutor{Sidecar: sidecar}
}

// Launch runs kernel over cfg's grid on device, ordering warp issue within
// each block via scheduler, and returns the resulting ExecutionStats.
//
// Blocks execute in lexicographic (bz, by, bx) order; within a block,
// warps execute in the scheduler's order; within a warp, lanes execute in
// ascending index order. Given the same inputs this produces the same
// observable sequence of memory writes every time.
func (e *KernelExecutor) Launch(kernel *Kernel, cfg LaunchConfig, scheduler WarpScheduler, device *Device) (ExecutionStats, error) {
	if err := cfg.Validate(); err != nil {
		return ExecutionStats{}, err
	}
	if len(device.Units) == 0 {
		return ExecutionStats{}, fmt.Errorf("sim: device has no compute units")
	}

	profile := NewKernelResourceProfile(cfg)
	maxBlocks, limiter, wpb := AnalyzeOccupancy(profile, device.Config)
	occupancy := TheoreticalOccupancy(maxBlocks, wpb, device.Config.MaxWarps)

	device.ResetUnits()

	stats := ExecutionStats{
		TheoreticalOccupancy: occupancy,
		MaxBlocksPerUnit:     maxBlocks,
		OccupancyLimiter:     limiter,
		SchedulingPolicy:     scheduler.Name(),
	}

	threadsPerBlock := profile.ThreadsPerBlock
	smemPerBlock := profile.SmemPerBlock
	var ageCounter uint64

	logrus.Infof("sim: launching kernel %q grid=%+v block=%+v policy=%s", kernel.Name, cfg.Grid, cfg.Block, scheduler.Name())

	for bz := uint32(0); bz < cfg.Grid.Z; bz++ {
		for by := uint32(0); by < cfg.Grid.Y; by++ {
			for bx := uint32(0); bx < cfg.Grid.X; bx++ {
				blockIdx := NewDim3(bx, by, bz)

				unitIdx := SelectUnit(device.Units, maxBlocks)
				unit := device.Units[unitIdx]
				unit.AllocateBlock(threadsPerBlock, wpb, smemPerBlock)

				smemSize := smemPerBlock
				if smemSize < 1 {
					smemSize = 1
				}
				smem := make([]byte, smemSize)

				slots := make([]WarpSlot, wpb)
				for w := uint32(0); w < wpb; w++ {
					slots[w] = NewWarpSlot(int(w), ageCounter+uint64(w))
				}
				ageCounter += uint64(wpb)

				order := scheduler.OrderWarps(slots)
				for _, warpIdx := range order {
					laneStart := uint32(warpIdx) * WarpSize
					laneEnd := laneStart + WarpSize
					if laneEnd > threadsPerBlock {
						laneEnd = threadsPerBlock
					}
					for lane := laneStart; lane < laneEnd; lane++ {
						threadIdx := laneToDim3(lane, cfg.Block)
						ctx := &ThreadContext{
							ThreadIdx: threadIdx,
							BlockIdx:  blockIdx,
							BlockDim:  cfg.Block,
							GridDim:   cfg.Grid,
							Smem:      smem,
							DRAM:      device.DRAM,
						}
						kernel.Func(ctx)
						stats.ThreadsExecuted++
					}
					scheduler.RecordIssued(warpIdx)
					stats.WarpsExecuted++
				}

				unit.FreeBlock(threadsPerBlock, wpb, smemPerBlock)
				stats.BlocksExecuted++
				stats.SimulatedDuration += cfg.BlockDelay

				if e.Sidecar != nil {
					e.Sidecar.WriteKernelSnapshot(kernelSnapshotInput{
						status:               "running",
						kernelName:           kernel.Name,
						schedulingPolicy:     scheduler.Name(),
						grid:                 cfg.Grid,
						block:                cfg.Block,
						theoreticalOccupancy: occupancy,
						occupancyLimiter:     limiter.String(),
						maxBlocksPerUnit:     maxBlocks,
						blocksTotal:          uint32(cfg.Grid.Size()),
						blocksExecuted:       uint32(stats.BlocksExecuted),
						warpsExecuted:        uint32(stats.WarpsExecuted),
						threadsExecuted:      uint32(stats.ThreadsExecuted),
						unitActiveBlocks:     activeBlocksSnapshot(device.Units),
					})
				}

				logrus.Debugf("sim: block (%d,%d,%d) -> unit %d, %d warps issued", bx, by, bz, unitIdx, wpb)
			}
		}
	}

	if e.Sidecar != nil {
		e.Sidecar.WriteKernelSnapshot(kernelSnapshotInput{
			status:               "complete",
			kernelName:           kernel.Name,
			schedulingPolicy:     scheduler.Name(),
			grid:                 cfg.Grid,
			block:                cfg.Block,
			theoreticalOccupancy: occupancy,
			occupancyLimiter:     limiter.String(),
			maxBlocksPerUnit:     maxBlocks,
			blocksTotal:          uint32(cfg.Grid.Size()),
			blocksExecuted:       uint32(stats.BlocksExecuted),
			warpsExecuted:        uint32(stats.WarpsExecuted),
			threadsExecuted:      uint32(stats.ThreadsExecuted),
			unitActiveBlocks:     activeBlocksSnapshot(device.Units),
		})
	}

	logrus.Infof("sim: kernel %q complete: %d blocks, %d warps, %d threads", kernel.Name, stats.BlocksExecuted, stats.WarpsExecuted, stats.ThreadsExecuted)

	return stats, nil
}

// WarpSize is the fixed number of lanes per warp.
const WarpSize = 32

// laneToDim3 inverts a flat lane index into a Dim3 thread index given the
// block's dimensions (x fastest, z slowest).
func laneToDim3(lane uint32, block Dim3) Dim3 {
	x := lane % block.X
	y := (lane / block.X) % block.Y
	z := lane / (block.X * block.Y)
	return NewDim3(x, y, z)
}

func activeBlocksSnapshot(units []*ComputeUnit) []uint32 {
	out := make([]uint32, len(units))
	for i, u := range units {
		out[i] = u.ActiveBlocks
	}
	return out
}
