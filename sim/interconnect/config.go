// Package interconnect provides analytical cost models for point-to-point
// transfers and collective operations across a two-tier fabric: an
// intra-node high-bandwidth switch (NVLink-class) and an inter-node fabric
// (InfiniBand-class). Unit convention: 1 GB/s = 10^9 bytes/s = 10^3 bytes/us;
// all times are in microseconds.
package interconnect

// ChannelConfig describes one physical link tier: bandwidth and latency,
// plus an informational spine-level count for inter-node fabrics.
type ChannelConfig struct {
	BandwidthGBs float64
	LatencyUs    float64
	SpineLevels  uint32 // informational; 0 for intra-node channels
}

// NVLinkH100 is the reference H100 SXM intra-node channel: NVLink 4.0,
// 900 GB/s bidirectional per GPU via NVSwitch.
func NVLinkH100() ChannelConfig {
	return ChannelConfig{BandwidthGBs: 900.0, LatencyUs: 1.0}
}

// NVLinkA100 is the reference A100 SXM intra-node channel: NVLink 3.0,
// 600 GB/s bidirectional per GPU.
func NVLinkA100() ChannelConfig {
	return ChannelConfig{BandwidthGBs: 600.0, LatencyUs: 1.0}
}

// InfiniBandHDR is the reference HDR InfiniBand inter-node fabric:
// 200 Gb/s = 25 GB/s per link.
func InfiniBandHDR() ChannelConfig {
	return ChannelConfig{BandwidthGBs: 25.0, LatencyUs: 2.0, SpineLevels: 2}
}

// InfiniBandNDR is the reference NDR InfiniBand inter-node fabric:
// 400 Gb/s = 50 GB/s per link.
func InfiniBandNDR() ChannelConfig {
	return ChannelConfig{BandwidthGBs: 50.0, LatencyUs: 2.0, SpineLevels: 2}
}

// InfiniBandXDR is the reference (next-generation) XDR InfiniBand
// inter-node fabric: 800 Gb/s = 100 GB/s per link.
func InfiniBandXDR() ChannelConfig {
	return ChannelConfig{BandwidthGBs: 100.0, LatencyUs: 1.5, SpineLevels: 2}
}
