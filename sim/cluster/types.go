// Package cluster models a multi-node, multi-device accelerator cluster:
// topology, device lookup, and routing of kernel launches, point-to-point
// transfers, and collectives across a two-tier interconnect (intra-node
// switch + inter-node fabric).
package cluster

import "fmt"

// DeviceId identifies a specific device in the cluster by (node index,
// local device index).
type DeviceId struct {
	Node   int
	Device int
}

// String returns the canonical "node{N}:gpu{G}" label with no padding.
func (d DeviceId) String() string {
	return fmt.Sprintf("node%d:gpu%d", d.Node, d.Device)
}
