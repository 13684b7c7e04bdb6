package cluster

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/gpusim/gpusim/sim"
	"github.com/gpusim/gpusim/sim/interconnect"
)

// channel determines which physical channel connects src and dst and
// returns its (bandwidth, latency): same device -> SameDevice; same node ->
// intra-node channel; different nodes -> inter-node fabric.
func (c *Cluster) channel(src, dst DeviceId) (interconnect.Channel, float64, float64) {
	if src == dst {
		return interconnect.SameDevice, 0, 0
	}
	if src.Node == dst.Node {
		intra := c.Nodes[src.Node].Intra
		return interconnect.NVLink, intra.BandwidthGBs, intra.LatencyUs
	}
	return interconnect.InfiniBand, c.Inter.BandwidthGBs, c.Inter.LatencyUs
}

// Transfer simulates a point-to-point transfer between two devices and
// writes a metrics snapshot reflecting the activity.
func (c *Cluster) Transfer(src, dst DeviceId, bytes uint64) interconnect.TransferStats {
	ch, bw, lat := c.channel(src, dst)
	result := interconnect.Transfer(ch, bytes, interconnect.ChannelConfig{BandwidthGBs: bw, LatencyUs: lat})

	logrus.Debugf("cluster: transfer %s -> %s, %d bytes via %s: %.2fus", src, dst, bytes, ch, result.TimeUs)

	if c.sidecar != nil {
		status := "idle"
		if result.TimeUs > 0 {
			status = "transfer"
		}
		bw := result.EffectiveBandwidthGBs
		if math.IsInf(bw, 1) {
			bw = 0
		}
		c.writeSnapshot(status, func(m *sim.LiveMetrics) {
			m.ActiveDevice = ""
			m.LastTransfer = &sim.TransferSnapshot{
				Src:          src.String(),
				Dst:          dst.String(),
				BytesMB:      float64(bytes) / 1_000_000.0,
				TimeMs:       result.TimeUs / 1_000.0,
				BandwidthGBs: bw,
				Channel:      ch.String(),
			}
		})
	}

	return result
}

// AllReduce simulates an AllReduce collective across every device in the
// cluster, using the bottleneck link (InfiniBand for multi-node clusters,
// the intra-node channel for a single-node cluster).
func (c *Cluster) AllReduce(bytesPerGPU uint64, algorithm interconnect.AllReduceAlgorithm) interconnect.CollectiveStats {
	bw, lat := c.bottleneckLink()
	stats := interconnect.AllReduce(c.TotalDevices(), bytesPerGPU, algorithm, bw, lat)
	c.writeCollectiveSnapshot(stats, bw)
	return stats
}

// AllGather simulates an AllGather collective (Ring algorithm) across every
// device in the cluster.
func (c *Cluster) AllGather(bytesPerGPU uint64) interconnect.CollectiveStats {
	bw, lat := c.bottleneckLink()
	stats := interconnect.AllGather(c.TotalDevices(), bytesPerGPU, bw, lat)
	c.writeCollectiveSnapshot(stats, bw)
	return stats
}

// Broadcast simulates a Broadcast collective (Tree algorithm) from src to
// every other device in the cluster.
func (c *Cluster) Broadcast(src DeviceId, bytes uint64) interconnect.CollectiveStats {
	bw, lat := c.bottleneckLink()
	stats := interconnect.Broadcast(c.TotalDevices(), bytes, bw, lat)
	c.writeCollectiveSnapshot(stats, bw)
	return stats
}

func (c *Cluster) writeCollectiveSnapshot(stats interconnect.CollectiveStats, _peakBW float64) {
	logrus.Debugf("cluster: %s (%s) across %d gpus: %.2fus, %.2f%% efficiency", stats.Operation, stats.Algorithm, stats.NumGPUs, stats.TimeUs, stats.Efficiency*100)

	if c.sidecar == nil {
		return
	}
	c.writeSnapshot("collective", func(m *sim.LiveMetrics) {
		m.LastCollective = &sim.CollectiveSnapshot{
			Operation:     stats.Operation,
			Algorithm:     stats.Algorithm,
			NumGPUs:       stats.NumGPUs,
			BytesPerGPUMB: float64(stats.BytesPerGPU) / 1_000_000.0,
			TimeMs:        stats.TimeUs / 1_000.0,
			BusBWGBs:      stats.BusBandwidthGBs,
			EfficiencyPct: stats.Efficiency * 100.0,
		}
	})
}

// LaunchKernelOn launches kernel on a specific device in the cluster,
// delegating to sim.KernelExecutor, then enriches the sidecar snapshot the
// executor wrote with cluster context (node count, active device,
// interconnect bandwidth) while preserving any transfer/collective history
// the executor's snapshot doesn't carry.
func (c *Cluster) LaunchKernelOn(device DeviceId, kernel *sim.Kernel, cfg sim.LaunchConfig, scheduler sim.WarpScheduler) (sim.ExecutionStats, error) {
	dev, err := c.Device(device)
	if err != nil {
		return sim.ExecutionStats{}, err
	}

	var savedTransfer *sim.TransferSnapshot
	var savedCollective *sim.CollectiveSnapshot
	if c.sidecar != nil {
		if m, ok := c.sidecar.Read(); ok {
			savedTransfer = m.LastTransfer
			savedCollective = m.LastCollective
		}
	}

	executor := sim.NewKernelExecutor(c.sidecar)
	stats, err := executor.Launch(kernel, cfg, scheduler, dev)
	if err != nil {
		return stats, err
	}

	if c.sidecar != nil {
		if m, ok := c.sidecar.Read(); ok {
			c.fillClusterHeader(m)
			m.ActiveDevice = device.String()
			if m.LastTransfer == nil {
				m.LastTransfer = savedTransfer
			}
			if m.LastCollective == nil {
				m.LastCollective = savedCollective
			}
			c.sidecar.Write(m)
		}
	}

	return stats, nil
}

// writeSnapshot performs the read-modify-write cycle required to preserve
// prior transfer/collective history: reread the sidecar (another activity
// may have written to it in between), fill in the cluster header and
// status, apply mutate, and write back.
func (c *Cluster) writeSnapshot(status string, mutate func(*sim.LiveMetrics)) {
	m, ok := c.sidecar.Read()
	if !ok {
		m = &sim.LiveMetrics{}
	}
	c.fillClusterHeader(m)
	m.Status = status
	mutate(m)
	c.sidecar.Write(m)
}

// fillClusterHeader populates the cluster-level fields on an existing
// snapshot without disturbing kernel or prior transfer/collective fields.
func (c *Cluster) fillClusterHeader(m *sim.LiveMetrics) {
	m.ClusterMode = true
	m.NumNodes = len(c.Nodes)
	if len(c.Nodes) > 0 {
		m.GPUsPerNode = len(c.Nodes[0].Devices)
		m.NVLinkBWGBs = c.Nodes[0].Intra.BandwidthGBs
	}
	m.InfiniBandBWGBs = c.Inter.BandwidthGBs
}
