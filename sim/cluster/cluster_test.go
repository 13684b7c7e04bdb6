package cluster

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpusim/gpusim/sim"
	"github.com/gpusim/gpusim/sim/interconnect"
)

func twoNodeCluster() *Cluster {
	nvlink := interconnect.NVLinkH100()
	ib := interconnect.InfiniBandNDR()
	nodes := []*Node{
		NewNode(0, 8, 4, sim.H100ComputeUnitConfig(), 1<<20, 1<<30, nvlink),
		NewNode(1, 8, 4, sim.H100ComputeUnitConfig(), 1<<20, 1<<30, nvlink),
	}
	return NewCluster(nodes, ib)
}

func TestCluster_TransferChannelSelectionScenario(t *testing.T) {
	// Scenario 7: 2 nodes x 8 devices.
	c := twoNodeCluster()

	sameDevice := c.Transfer(DeviceId{0, 0}, DeviceId{0, 0}, 1<<30)
	assert.Equal(t, interconnect.SameDevice, sameDevice.Channel)
	assert.Equal(t, 0.0, sameDevice.TimeUs)

	intraNode := c.Transfer(DeviceId{0, 0}, DeviceId{0, 1}, 1<<30)
	assert.Equal(t, interconnect.NVLink, intraNode.Channel)
	assert.Greater(t, intraNode.TimeUs, 0.0)

	interNode := c.Transfer(DeviceId{0, 0}, DeviceId{1, 0}, 1<<30)
	assert.Equal(t, interconnect.InfiniBand, interNode.Channel)
	assert.Greater(t, interNode.TimeUs, 0.0)

	// Same payload, lower-bandwidth inter-node fabric takes longer.
	assert.Greater(t, interNode.TimeUs, intraNode.TimeUs)
}

func TestCluster_BottleneckLink_MultiNodeUsesInfiniBand(t *testing.T) {
	c := twoNodeCluster()
	bw, lat := c.bottleneckLink()
	assert.Equal(t, c.Inter.BandwidthGBs, bw)
	assert.Equal(t, c.Inter.LatencyUs, lat)
}

func TestCluster_BottleneckLink_SingleNodeUsesIntraChannel(t *testing.T) {
	nvlink := interconnect.NVLinkH100()
	node := NewNode(0, 4, 2, sim.H100ComputeUnitConfig(), 1<<20, 1<<30, nvlink)
	c := NewCluster([]*Node{node}, interconnect.InfiniBandNDR())

	bw, lat := c.bottleneckLink()
	assert.Equal(t, nvlink.BandwidthGBs, bw)
	assert.Equal(t, nvlink.LatencyUs, lat)
}

func TestCluster_AllReduce_UsesBottleneckLink(t *testing.T) {
	c := twoNodeCluster()
	stats := c.AllReduce(1<<20, interconnect.Ring)
	assert.Equal(t, "AllReduce", stats.Operation)
	assert.Equal(t, c.TotalDevices(), stats.NumGPUs)
	assert.Greater(t, stats.TimeUs, 0.0)

	want := interconnect.AllReduce(c.TotalDevices(), 1<<20, interconnect.Ring, c.Inter.BandwidthGBs, c.Inter.LatencyUs)
	assert.InDelta(t, want.TimeUs, stats.TimeUs, 1e-9)
}

func TestCluster_AllGather_UsesBottleneckLink(t *testing.T) {
	c := twoNodeCluster()
	stats := c.AllGather(1 << 20)
	assert.Equal(t, "AllGather", stats.Operation)
	assert.Equal(t, c.TotalDevices(), stats.NumGPUs)

	want := interconnect.AllGather(c.TotalDevices(), 1<<20, c.Inter.BandwidthGBs, c.Inter.LatencyUs)
	assert.InDelta(t, want.TimeUs, stats.TimeUs, 1e-9)
}

func TestCluster_Broadcast_UsesBottleneckLink(t *testing.T) {
	c := twoNodeCluster()
	stats := c.Broadcast(DeviceId{0, 0}, 1<<20)
	assert.Equal(t, "Broadcast", stats.Operation)
	assert.Equal(t, c.TotalDevices(), stats.NumGPUs)

	want := interconnect.Broadcast(c.TotalDevices(), 1<<20, c.Inter.BandwidthGBs, c.Inter.LatencyUs)
	assert.InDelta(t, want.TimeUs, stats.TimeUs, 1e-9)
}

func TestCluster_Device_OutOfRangeReturnsError(t *testing.T) {
	c := twoNodeCluster()
	_, err := c.Device(DeviceId{Node: 5, Device: 0})
	assert.Error(t, err)

	_, err = c.Device(DeviceId{Node: 0, Device: 99})
	assert.Error(t, err)
}

func TestCluster_SidecarPreservesTransferAndCollectiveHistoryAcrossOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	sidecar := sim.NewSidecar(path)
	c := twoNodeCluster().WithSidecar(sidecar)

	c.Transfer(DeviceId{0, 0}, DeviceId{0, 1}, 1<<20)

	m, ok := sidecar.Read()
	require.True(t, ok)
	require.NotNil(t, m.LastTransfer)
	assert.Nil(t, m.LastCollective)

	c.AllReduce(1<<20, interconnect.Ring)

	m, ok = sidecar.Read()
	require.True(t, ok)
	assert.NotNil(t, m.LastTransfer, "prior transfer snapshot must survive a later collective write")
	assert.NotNil(t, m.LastCollective)
}

func TestCluster_LaunchKernelOn_EnrichesSnapshotAndPreservesHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	sidecar := sim.NewSidecar(path)
	c := twoNodeCluster().WithSidecar(sidecar)

	c.Transfer(DeviceId{0, 0}, DeviceId{0, 1}, 1<<20)

	kernel := sim.NewKernel("noop", func(ctx *sim.ThreadContext) {})
	cfg := sim.LaunchConfig{Grid: sim.NewDim3(2, 1, 1), Block: sim.NewDim3(32, 1, 1)}

	_, err := c.LaunchKernelOn(DeviceId{0, 0}, kernel, cfg, sim.NewLRRScheduler())
	require.NoError(t, err)

	m, ok := sidecar.Read()
	require.True(t, ok)
	assert.True(t, m.ClusterMode)
	assert.Equal(t, len(c.Nodes), m.NumNodes)
	assert.Equal(t, DeviceId{0, 0}.String(), m.ActiveDevice)
	assert.NotNil(t, m.LastTransfer, "launching a kernel must not erase prior transfer history")
}

func TestCluster_LaunchKernelOn_UnknownDeviceReturnsError(t *testing.T) {
	c := twoNodeCluster()
	kernel := sim.NewKernel("noop", func(ctx *sim.ThreadContext) {})
	cfg := sim.LaunchConfig{Grid: sim.NewDim3(1, 1, 1), Block: sim.NewDim3(32, 1, 1)}

	_, err := c.LaunchKernelOn(DeviceId{Node: 9, Device: 0}, kernel, cfg, sim.NewLRRScheduler())
	assert.Error(t, err)
}

func TestDeviceId_String(t *testing.T) {
	assert.Equal(t, "node1:gpu3", DeviceId{Node: 1, Device: 3}.String())
}

func TestCluster_TotalDevices(t *testing.T) {
	c := twoNodeCluster()
	assert.Equal(t, 16, c.TotalDevices())
}
