package cluster

import (
	"fmt"

	"github.com/gpusim/gpusim/sim"
	"github.com/gpusim/gpusim/sim/interconnect"
)

// Node is a single compute node: multiple devices connected by an
// all-to-all intra-node channel (e.g. NVLink via NVSwitch).
type Node struct {
	ID      int
	Devices []*sim.Device
	Intra   interconnect.ChannelConfig
}

// NewNode creates a node with numDevices identical devices, each with
// numUnitsPerDevice compute units sharing cfg and the given memory tier
// sizes, connected by the intra-node channel intra.
func NewNode(id int, numDevices, numUnitsPerDevice int, cfg sim.ComputeUnitConfig, l2Bytes, dramBytes uint64, intra interconnect.ChannelConfig) *Node {
	devices := make([]*sim.Device, numDevices)
	for i := range devices {
		devices[i] = sim.NewDevice(numUnitsPerDevice, cfg, l2Bytes, dramBytes)
	}
	return &Node{ID: id, Devices: devices, Intra: intra}
}

// Cluster is a multi-node accelerator cluster connected by an inter-node
// fabric. Topology is immutable after construction.
type Cluster struct {
	Nodes []*Node
	Inter interconnect.ChannelConfig

	sidecar *sim.Sidecar
}

// NewCluster builds a Cluster with the given nodes and inter-node fabric
// config. Use WithSidecar to enable live-metrics emission.
func NewCluster(nodes []*Node, inter interconnect.ChannelConfig) *Cluster {
	return &Cluster{Nodes: nodes, Inter: inter}
}

// WithSidecar attaches a metrics sidecar, returning the cluster for
// chaining.
func (c *Cluster) WithSidecar(s *sim.Sidecar) *Cluster {
	c.sidecar = s
	return c
}

// TotalDevices returns the total number of devices in the cluster.
func (c *Cluster) TotalDevices() int {
	total := 0
	for _, n := range c.Nodes {
		total += len(n.Devices)
	}
	return total
}

// Device looks up a device by DeviceId, returning an error if either index
// is out of range.
func (c *Cluster) Device(id DeviceId) (*sim.Device, error) {
	if id.Node < 0 || id.Node >= len(c.Nodes) {
		return nil, fmt.Errorf("cluster: node index %d out of range [0,%d)", id.Node, len(c.Nodes))
	}
	node := c.Nodes[id.Node]
	if id.Device < 0 || id.Device >= len(node.Devices) {
		return nil, fmt.Errorf("cluster: device index %d out of range [0,%d) on node %d", id.Device, len(node.Devices), id.Node)
	}
	return node.Devices[id.Device], nil
}

// bottleneckLink returns the (bandwidth_gb_s, latency_us) of the bottleneck
// link for a cluster-wide collective: the inter-node fabric for multi-node
// clusters, the (first node's) intra-node channel for single-node clusters.
func (c *Cluster) bottleneckLink() (float64, float64) {
	if len(c.Nodes) > 1 {
		return c.Inter.BandwidthGBs, c.Inter.LatencyUs
	}
	if len(c.Nodes) == 1 {
		return c.Nodes[0].Intra.BandwidthGBs, c.Nodes[0].Intra.LatencyUs
	}
	return 0, 0
}
