// Package sim provides the core functional execution engine for the GPU
// accelerator simulator.
//
// # Reading Guide
//
// Start with these files to understand the execution model:
//   - kernel.go: Dim3, LaunchConfig, Kernel, ThreadContext
//   - occupancy.go: max-blocks-per-unit analysis and limiter identification
//   - executor.go: the block -> warp -> thread launch pipeline
//
// # Architecture
//
// The sim package defines the single-device execution model; multi-device
// concerns live in sub-packages:
//   - sim/interconnect/: point-to-point transfer and collective cost models
//   - sim/cluster/: multi-node/multi-device topology and routing
//   - sim/tensorcore/: optional matrix multiply-accumulate collaborator
//     (not imported by this package)
//
// # Key Types
//
//   - WarpScheduler: pluggable warp issue-order policy (LRR, GTO, TwoLevel)
//   - KernelExecutor: drives grid -> unit -> block -> warp -> thread
//   - Device: owns a set of ComputeUnits and the DRAM/L2 memory tiers
//   - LiveMetrics: the JSON schema written to the live-metrics sidecar
package sim
