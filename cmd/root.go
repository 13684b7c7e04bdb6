// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gpusim/gpusim/sim"
	"github.com/gpusim/gpusim/sim/cluster"
	"github.com/gpusim/gpusim/sim/interconnect"
)

var (
	logLevel      string
	sidecarPath   string
	topologyPath  string
	devicePreset  string
	schedPolicy   string
	activeSetSize int

	gridX, gridY, gridZ   uint32
	blockX, blockY, blockZ uint32
	regsPerThread         uint32
	smemPerBlock          uint32

	numNodes, gpusPerNode int
	collectiveOp          string
	collectiveAlgo        string
	bytesPerGPU           uint64
)

var rootCmd = &cobra.Command{
	Use:   "gpusim",
	Short: "Functional simulator for an accelerator's block/warp scheduling and interconnect",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch a kernel on a single simulated device and report occupancy/scheduling stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		var topology *TopologyConfig
		if topologyPath != "" {
			topology, err = LoadTopologyConfig(topologyPath)
			if err != nil {
				return err
			}
		}
		cuCfg, err := resolveDeviceConfig(topology, devicePreset)
		if err != nil {
			return err
		}

		device := sim.NewDevice(132, cuCfg, 50*1024*1024, 80*1024*1024*1024)

		scheduler, err := sim.NewWarpScheduler(schedPolicy, activeSetSize)
		if err != nil {
			return err
		}

		cfg := sim.LaunchConfig{
			Grid:          sim.NewDim3(gridX, gridY, gridZ),
			Block:         sim.NewDim3(blockX, blockY, blockZ),
			RegsPerThread: regsPerThread,
			SmemPerBlock:  smemPerBlock,
		}

		kernel := sim.NewKernel("identity", func(ctx *sim.ThreadContext) {})

		sidecar := sim.NewSidecar(sidecarPath)
		sidecar.EnsureDir()
		executor := sim.NewKernelExecutor(sidecar)

		stats, err := executor.Launch(kernel, cfg, scheduler, device)
		if err != nil {
			return err
		}

		logrus.Infof("occupancy: %.2f%% (limiter=%s, max_blocks_per_unit=%d)",
			stats.TheoreticalOccupancy*100, stats.OccupancyLimiter, stats.MaxBlocksPerUnit)
		logrus.Infof("executed: blocks=%d warps=%d threads=%d sim_duration=%s",
			stats.BlocksExecuted, stats.WarpsExecuted, stats.ThreadsExecuted, stats.SimulatedDuration)
		return nil
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Simulate an interconnect transfer or collective across a synthetic cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		var topology *TopologyConfig
		if topologyPath != "" {
			topology, err = LoadTopologyConfig(topologyPath)
			if err != nil {
				return err
			}
		}
		cuCfg, err := resolveDeviceConfig(topology, devicePreset)
		if err != nil {
			return err
		}

		intra := interconnect.NVLinkH100()
		inter := interconnect.InfiniBandNDR()

		nodes := make([]*cluster.Node, numNodes)
		for i := range nodes {
			nodes[i] = cluster.NewNode(i, gpusPerNode, 132, cuCfg, 50*1024*1024, 80*1024*1024*1024, intra)
		}

		sidecar := sim.NewSidecar(sidecarPath)
		sidecar.EnsureDir()
		c := cluster.NewCluster(nodes, inter).WithSidecar(sidecar)

		switch collectiveOp {
		case "transfer":
			src := cluster.DeviceId{Node: 0, Device: 0}
			dst := cluster.DeviceId{Node: numNodes - 1, Device: 0}
			result := c.Transfer(src, dst, bytesPerGPU)
			logrus.Infof("transfer %s -> %s: %.2fus at %.2f GB/s via %s",
				src, dst, result.TimeUs, result.EffectiveBandwidthGBs, result.Channel)
		case "allreduce":
			algo, err := parseAllReduceAlgorithm(collectiveAlgo)
			if err != nil {
				return err
			}
			stats := c.AllReduce(bytesPerGPU, algo)
			logrus.Infof("AllReduce (%s) across %d gpus: %.2fus, %.2f%% efficiency",
				stats.Algorithm, stats.NumGPUs, stats.TimeUs, stats.Efficiency*100)
		case "allgather":
			stats := c.AllGather(bytesPerGPU)
			logrus.Infof("AllGather across %d gpus: %.2fus, %.2f%% efficiency",
				stats.NumGPUs, stats.TimeUs, stats.Efficiency*100)
		case "broadcast":
			stats := c.Broadcast(cluster.DeviceId{Node: 0, Device: 0}, bytesPerGPU)
			logrus.Infof("Broadcast across %d gpus: %.2fus, %.2f%% efficiency",
				stats.NumGPUs, stats.TimeUs, stats.Efficiency*100)
		default:
			return fmt.Errorf("unknown collective op %q (want transfer, allreduce, allgather, broadcast)", collectiveOp)
		}
		return nil
	},
}

func parseAllReduceAlgorithm(name string) (interconnect.AllReduceAlgorithm, error) {
	switch name {
	case "ring":
		return interconnect.Ring, nil
	case "tree":
		return interconnect.Tree, nil
	case "direct":
		return interconnect.Direct, nil
	default:
		return 0, fmt.Errorf("unknown AllReduce algorithm %q (want ring, tree, direct)", name)
	}
}

// Execute runs the root command, exiting the process with status 1 on
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&sidecarPath, "sidecar", sim.DefaultSidecarPath, "Live-metrics sidecar path")
	rootCmd.PersistentFlags().StringVar(&topologyPath, "topology", "", "Path to a devices.yaml topology config")
	rootCmd.PersistentFlags().StringVar(&devicePreset, "device", "h100", "Device profile name (h100, a100, or a name from --topology)")

	runCmd.Flags().StringVar(&schedPolicy, "policy", "gto", "Warp scheduling policy (lrr, gto, twolevel)")
	runCmd.Flags().IntVar(&activeSetSize, "active-set", 8, "Active-set size for the twolevel policy")
	runCmd.Flags().Uint32Var(&gridX, "grid-x", 64, "Grid dimension X")
	runCmd.Flags().Uint32Var(&gridY, "grid-y", 1, "Grid dimension Y")
	runCmd.Flags().Uint32Var(&gridZ, "grid-z", 1, "Grid dimension Z")
	runCmd.Flags().Uint32Var(&blockX, "block-x", 256, "Block dimension X")
	runCmd.Flags().Uint32Var(&blockY, "block-y", 1, "Block dimension Y")
	runCmd.Flags().Uint32Var(&blockZ, "block-z", 1, "Block dimension Z")
	runCmd.Flags().Uint32Var(&regsPerThread, "regs", 32, "Registers per thread")
	runCmd.Flags().Uint32Var(&smemPerBlock, "smem", 0, "Shared memory bytes per block")

	clusterCmd.Flags().IntVar(&numNodes, "nodes", 2, "Number of nodes")
	clusterCmd.Flags().IntVar(&gpusPerNode, "gpus-per-node", 8, "GPUs per node")
	clusterCmd.Flags().StringVar(&collectiveOp, "op", "allreduce", "Operation to simulate (transfer, allreduce, allgather, broadcast)")
	clusterCmd.Flags().StringVar(&collectiveAlgo, "algo", "ring", "AllReduce algorithm (ring, tree, direct)")
	clusterCmd.Flags().Uint64Var(&bytesPerGPU, "bytes", 256*1024*1024, "Payload bytes per GPU")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(clusterCmd)
}
