// sim/occupancy.go
package sim

import "math"

// OccupancyLimiter identifies which resource bound a unit's max-blocks
// computation.
type OccupancyLimiter int

const (
	ThreadSlots OccupancyLimiter = iota
	WarpSlots
	RegisterFile
	SharedMemory
	HardwareBlockCap
)

// String returns the human-readable limiter name, used verbatim in the
// live-metrics sidecar's occupancy_limiter field.
func (l OccupancyLimiter) String() string {
	switch l {
	case ThreadSlots:
		return "thread slots"
	case WarpSlots:
		return "warp slots"
	case RegisterFile:
		return "register file"
	case SharedMemory:
		return "shared memory"
	case HardwareBlockCap:
		return "hardware block cap"
	default:
		return "unknown"
	}
}

// roundUp rounds val up to the nearest multiple of granularity. Identity
// when granularity is 0.
func roundUp(val, granularity uint32) uint32 {
	if granularity == 0 {
		return val
	}
	return ((val + granularity - 1) / granularity) * granularity
}

// warpsPerBlock returns ceil(threadsPerBlock / 32).
func warpsPerBlock(threadsPerBlock uint32) uint32 {
	return (threadsPerBlock + 31) / 32
}

// AnalyzeOccupancy computes the maximum number of thread blocks that can
// simultaneously reside on one compute unit, and identifies the binding
// resource constraint.
//
// The analyzer is pure and total: it assumes profile.ThreadsPerBlock >= 1
// (degenerate profiles must be rejected by the caller, e.g. via
// LaunchConfig.Validate).
func AnalyzeOccupancy(profile KernelResourceProfile, cfg ComputeUnitConfig) (maxBlocks uint32, limiter OccupancyLimiter, wpb uint32) {
	threads := profile.ThreadsPerBlock
	if threads == 0 {
		threads = 1
	}
	wpb = warpsPerBlock(threads)

	byThreads := cfg.MaxThreads / threads
	byWarps := cfg.MaxWarps / wpb

	var byRegs uint32
	if profile.RegsPerThread == 0 {
		byRegs = math.MaxUint32
	} else {
		regsPerWarp := roundUp(profile.RegsPerThread*32, cfg.RegisterAllocationGranularity)
		regsPerBlock := regsPerWarp * wpb
		if regsPerBlock == 0 {
			byRegs = math.MaxUint32
		} else {
			byRegs = cfg.TotalRegisters / regsPerBlock
		}
	}

	var bySmem uint32
	if profile.SmemPerBlock == 0 {
		bySmem = math.MaxUint32
	} else {
		smemRounded := roundUp(profile.SmemPerBlock, cfg.SmemAllocationGranularity)
		bySmem = cfg.TotalSmemBytes / smemRounded
	}

	byHW := cfg.MaxBlocks

	max := min5(byThreads, byWarps, byRegs, bySmem, byHW)

	// Tie-break order, highest priority first: HardwareBlockCap,
	// SharedMemory, RegisterFile, WarpSlots, ThreadSlots.
	switch {
	case max == byHW:
		limiter = HardwareBlockCap
	case max == bySmem:
		limiter = SharedMemory
	case max == byRegs:
		limiter = RegisterFile
	case max == byWarps:
		limiter = WarpSlots
	default:
		limiter = ThreadSlots
	}

	return max, limiter, wpb
}

func min5(a, b, c, d, e uint32) uint32 {
	m := a
	for _, v := range []uint32{b, c, d, e} {
		if v < m {
			m = v
		}
	}
	return m
}

// TheoreticalOccupancy computes (maxBlocks * warpsPerBlock) / maxWarpsPerUnit,
// clamped to [0, 1].
func TheoreticalOccupancy(maxBlocks, warpsPerBlk, maxWarpsPerUnit uint32) float64 {
	if maxWarpsPerUnit == 0 {
		return 0
	}
	occ := float64(maxBlocks) * float64(warpsPerBlk) / float64(maxWarpsPerUnit)
	if occ < 0 {
		return 0
	}
	if occ > 1 {
		return 1
	}
	return occ
}
