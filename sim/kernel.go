// sim/kernel.go
package sim

import (
	"fmt"
	"time"
)

// Dim3 is an ordered triple of unsigned dimensions, mirroring CUDA's dim3.
// Components must be >= 1; NewDim3 does not itself enforce this so zero
// values can be used as intermediate results, but LaunchConfig validates
// the triples it actually launches with.
type Dim3 struct {
	X, Y, Z uint32
}

// NewDim3 builds a Dim3 from three components.
func NewDim3(x, y, z uint32) Dim3 { return Dim3{X: x, Y: y, Z: z} }

// Dim3X builds a 1D Dim3 with Y and Z fixed at 1.
func Dim3X(x uint32) Dim3 { return Dim3{X: x, Y: 1, Z: 1} }

// Size returns x*y*z as a uint64 to avoid overflow in downstream products.
func (d Dim3) Size() uint64 { return uint64(d.X) * uint64(d.Y) * uint64(d.Z) }

// LaunchConfig describes a kernel launch: grid/block shape and the
// resources each block requires.
type LaunchConfig struct {
	Grid  Dim3
	Block Dim3

	RegsPerThread uint32
	SmemPerBlock  uint32

	// BlockDelay is an optional synthetic per-block simulated delay.
	// It never causes the host to sleep; it only accumulates into
	// ExecutionStats.SimulatedDuration.
	BlockDelay time.Duration
}

// ThreadsPerBlock returns Block.Size().
func (c LaunchConfig) ThreadsPerBlock() uint64 { return c.Block.Size() }

// Validate checks the invariants required before a launch: threads_per_block
// >= 1 and grid.size >= 1.
func (c LaunchConfig) Validate() error {
	if c.ThreadsPerBlock() == 0 {
		return fmt.Errorf("sim: launch config: threads_per_block must be >= 1, got block=%+v", c.Block)
	}
	if c.Grid.Size() == 0 {
		return fmt.Errorf("sim: launch config: grid size must be >= 1, got grid=%+v", c.Grid)
	}
	return nil
}

// ThreadContext is the per-thread argument passed into a Kernel's function.
// Kernels mutate Smem and DRAM to produce side effects; the function itself
// has no return value.
type ThreadContext struct {
	ThreadIdx Dim3
	BlockIdx  Dim3
	BlockDim  Dim3
	GridDim   Dim3

	// Smem is the per-block shared-memory buffer. Owned by the executing
	// block and discarded at block end.
	Smem []byte

	// DRAM is the device's global memory, shared across all blocks.
	DRAM *MemoryTier
}

// GlobalID returns the 1D convenience global thread index:
// blockIdx.x * blockDim.x + threadIdx.x.
func (t *ThreadContext) GlobalID() uint64 {
	return uint64(t.BlockIdx.X)*uint64(t.BlockDim.X) + uint64(t.ThreadIdx.X)
}

// Kernel is a named thread-function executed by every thread in the launch
// grid. The function is a closure capturing launch-time constants (base
// addresses, sizes); it is invoked many times by the executor.
type Kernel struct {
	Name string
	Func func(*ThreadContext)
}

// NewKernel builds a Kernel from a name and thread-function.
func NewKernel(name string, fn func(*ThreadContext)) *Kernel {
	return &Kernel{Name: name, Func: fn}
}

// KernelResourceProfile is the resource profile derived from a LaunchConfig
// at launch time, consumed by the occupancy analyzer.
type KernelResourceProfile struct {
	ThreadsPerBlock uint32
	RegsPerThread   uint32
	SmemPerBlock    uint32
}

// NewKernelResourceProfile derives a KernelResourceProfile from a
// LaunchConfig. Callers must validate the config first; a zero
// ThreadsPerBlock here is a caller error, not handled defensively (the
// occupancy analyzer assumes threads_per_block >= 1 per spec).
func NewKernelResourceProfile(cfg LaunchConfig) KernelResourceProfile {
	return KernelResourceProfile{
		ThreadsPerBlock: uint32(cfg.ThreadsPerBlock()),
		RegsPerThread:   cfg.RegsPerThread,
		SmemPerBlock:    cfg.SmemPerBlock,
	}
}
