package interconnect

import "math"

// Channel identifies which physical link a transfer used.
type Channel int

const (
	SameDevice Channel = iota
	NVLink
	InfiniBand
)

// String returns the label emitted in the live-metrics sidecar's `channel`
// field.
func (c Channel) String() string {
	switch c {
	case SameDevice:
		return "same-device"
	case NVLink:
		return "NVLink"
	case InfiniBand:
		return "InfiniBand"
	default:
		return "unknown"
	}
}

// TransferStats is the result of a simulated point-to-point transfer.
type TransferStats struct {
	Bytes                 uint64
	TimeUs                float64
	EffectiveBandwidthGBs float64
	Channel               Channel
}

// ZeroTransfer returns the zero-time, infinite-bandwidth result for a
// same-device transfer.
func ZeroTransfer(channel Channel) TransferStats {
	return TransferStats{TimeUs: 0, EffectiveBandwidthGBs: math.Inf(1), Channel: channel}
}

// TransferTimeUs computes simulated transfer time in microseconds:
// latency_us + bytes / (bandwidth_gb_s * 1000). Returns 0 when bytes == 0.
func TransferTimeUs(bytes uint64, bandwidthGBs, latencyUs float64) float64 {
	if bytes == 0 {
		return 0
	}
	bandwidthBytesPerUs := bandwidthGBs * 1000.0
	return latencyUs + float64(bytes)/bandwidthBytesPerUs
}

// EffectiveBandwidthGBs computes effective bandwidth in GB/s from bytes and
// transfer time. Returns +Inf when timeUs == 0.
func EffectiveBandwidthGBs(bytes uint64, timeUs float64) float64 {
	if timeUs == 0 {
		return math.Inf(1)
	}
	return float64(bytes) / timeUs / 1000.0
}

// Transfer simulates a point-to-point transfer given the selected channel.
// src == dst (SameDevice) is always zero-time with infinite bandwidth,
// regardless of the cfg passed in.
func Transfer(channel Channel, bytes uint64, cfg ChannelConfig) TransferStats {
	if channel == SameDevice {
		return ZeroTransfer(SameDevice)
	}
	timeUs := TransferTimeUs(bytes, cfg.BandwidthGBs, cfg.LatencyUs)
	return TransferStats{
		Bytes:                 bytes,
		TimeUs:                timeUs,
		EffectiveBandwidthGBs: EffectiveBandwidthGBs(bytes, timeUs),
		Channel:               channel,
	}
}
