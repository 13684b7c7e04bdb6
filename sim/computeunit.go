// sim/computeunit.go
package sim

// ComputeUnitConfig holds the hardware resource caps shared by every
// ComputeUnit on a Device.
type ComputeUnitConfig struct {
	MaxThreads                    uint32
	MaxWarps                      uint32
	MaxBlocks                     uint32
	TotalRegisters                uint32
	RegisterAllocationGranularity uint32 // per warp
	TotalSmemBytes                uint32
	SmemAllocationGranularity     uint32
}

// H100ComputeUnitConfig returns the reference H100 (Hopper, CC 9.0) SM
// configuration, matching the original simulator's SmConfig::h100().
func H100ComputeUnitConfig() ComputeUnitConfig {
	return ComputeUnitConfig{
		MaxThreads:                    2048,
		MaxWarps:                      64,
		MaxBlocks:                     32,
		TotalRegisters:                65536,
		RegisterAllocationGranularity: 256,
		TotalSmemBytes:                228 * 1024,
		SmemAllocationGranularity:     128,
	}
}

// A100ComputeUnitConfig returns the reference A100 (Ampere, CC 8.0) SM
// configuration, matching the original simulator's SmConfig::a100().
func A100ComputeUnitConfig() ComputeUnitConfig {
	return ComputeUnitConfig{
		MaxThreads:                    2048,
		MaxWarps:                      64,
		MaxBlocks:                     32,
		TotalRegisters:                65536,
		RegisterAllocationGranularity: 256,
		TotalSmemBytes:                164 * 1024,
		SmemAllocationGranularity:     128,
	}
}

// ComputeUnit tracks the live resource counters for one compute unit
// (a "streaming multiprocessor"). Counters are reset to zero at the start
// of every launch and must return to zero once the last resident block
// frees its resources.
type ComputeUnit struct {
	ID int

	ActiveBlocks  uint32
	UsedThreads   uint32
	UsedWarps     uint32
	UsedSmemBytes uint32
}

// NewComputeUnit creates an idle ComputeUnit with the given id.
func NewComputeUnit(id int) *ComputeUnit {
	return &ComputeUnit{ID: id}
}

// Reset zeroes all live usage counters, as required at the start of every
// launch.
func (u *ComputeUnit) Reset() {
	u.ActiveBlocks = 0
	u.UsedThreads = 0
	u.UsedWarps = 0
	u.UsedSmemBytes = 0
}

// Headroom returns how many more blocks this unit can host before reaching
// maxBlocksPerUnit.
func (u *ComputeUnit) Headroom(maxBlocksPerUnit uint32) uint32 {
	return satSubU32(maxBlocksPerUnit, u.ActiveBlocks)
}

// AllocateBlock records a block landing on this unit: active_blocks += 1
// and the per-block resource deltas are added to the live counters.
func (u *ComputeUnit) AllocateBlock(threadsPerBlock, warpsPerBlock, smemPerBlock uint32) {
	u.ActiveBlocks++
	u.UsedThreads += threadsPerBlock
	u.UsedWarps += warpsPerBlock
	u.UsedSmemBytes += smemPerBlock
}

// FreeBlock mirrors AllocateBlock on block completion. Every counter
// decreases by the same delta it was allocated with, saturating at zero —
// a paranoid backstop against any accounting drift.
func (u *ComputeUnit) FreeBlock(threadsPerBlock, warpsPerBlock, smemPerBlock uint32) {
	u.ActiveBlocks = satSubU32(u.ActiveBlocks, 1)
	u.UsedThreads = satSubU32(u.UsedThreads, threadsPerBlock)
	u.UsedWarps = satSubU32(u.UsedWarps, warpsPerBlock)
	u.UsedSmemBytes = satSubU32(u.UsedSmemBytes, smemPerBlock)
}

// satSubU32 computes a - b, clamped at zero, for unsigned 32-bit counters.
// Go has no saturating subtraction for unsigned integers in the standard
// library, so this small helper exists to make the clamp explicit at every
// call site rather than relying on wraparound-then-check.
func satSubU32(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

// Device is a single accelerator: an ordered sequence of ComputeUnits
// (indexed by id), an L2 tier, a DRAM tier, and the ComputeUnitConfig
// shared by all units.
type Device struct {
	Units  []*ComputeUnit
	L2     *MemoryTier
	DRAM   *MemoryTier
	Config ComputeUnitConfig
}

// NewDevice creates a Device with numUnits compute units sharing cfg, and
// memory tiers of the given sizes.
func NewDevice(numUnits int, cfg ComputeUnitConfig, l2Bytes, dramBytes uint64) *Device {
	units := make([]*ComputeUnit, numUnits)
	for i := range units {
		units[i] = NewComputeUnit(i)
	}
	return &Device{
		Units:  units,
		L2:     NewMemoryTier(l2Bytes),
		DRAM:   NewMemoryTier(dramBytes),
		Config: cfg,
	}
}

// ResetUnits zeroes the usage counters on every compute unit, as required
// at the start of every launch.
func (d *Device) ResetUnits() {
	for _, u := range d.Units {
		u.Reset()
	}
}
