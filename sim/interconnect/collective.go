package interconnect

import "math"

// AllReduceAlgorithm selects which AllReduce algorithm's cost formula to
// apply. AllReduce semantics: every device starts with a local tensor of
// bytesPerGPU bytes; after the operation every device holds the
// element-wise sum across all devices.
type AllReduceAlgorithm int

const (
	// Ring: two phases (reduce-scatter + all-gather), each (N-1) steps.
	// Bandwidth-optimal; approaches full link utilization for large N.
	Ring AllReduceAlgorithm = iota
	// Tree: recursive halving/doubling. Latency-optimal: only
	// ceil(log2(N)) steps. Better than Ring for small messages.
	Tree
	// Direct: naive reduce-to-root then broadcast. Simple baseline with
	// poor scalability.
	Direct
)

// String returns the algorithm label used in CollectiveStats.Algorithm.
func (a AllReduceAlgorithm) String() string {
	switch a {
	case Ring:
		return "Ring"
	case Tree:
		return "Tree"
	case Direct:
		return "Direct"
	default:
		return "unknown"
	}
}

// CollectiveStats is the result of a simulated collective operation.
type CollectiveStats struct {
	Operation       string
	Algorithm       string
	NumGPUs         int
	BytesPerGPU     uint64
	TimeUs          float64
	BusBandwidthGBs float64
	Efficiency      float64
}

// AllReduce computes the simulated AllReduce cost over n participating
// devices, using the bottleneck link (bwGBs, latencyUs).
func AllReduce(n int, bytesPerGPU uint64, algorithm AllReduceAlgorithm, bwGBs, latencyUs float64) CollectiveStats {
	bwBytesPerUs := bwGBs * 1000.0
	nf := float64(n)
	bf := float64(bytesPerGPU)

	var timeUs float64
	switch algorithm {
	case Ring:
		timeUs = 2.0*(nf-1)/nf*bf/bwBytesPerUs + 2.0*(nf-1)*latencyUs
	case Tree:
		steps := math.Ceil(math.Log2(nf))
		timeUs = 2.0 * steps * (bf/bwBytesPerUs + latencyUs)
	case Direct:
		timeUs = 2.0 * (nf - 1) * (bf/bwBytesPerUs + latencyUs)
	}

	var busBW float64
	if timeUs > 0 {
		busBW = 2.0 * (nf - 1) / nf * bf / (timeUs * 1000.0)
	}

	return CollectiveStats{
		Operation:       "AllReduce",
		Algorithm:       algorithm.String(),
		NumGPUs:         n,
		BytesPerGPU:     bytesPerGPU,
		TimeUs:          timeUs,
		BusBandwidthGBs: busBW,
		Efficiency:      clamp01(busBW / bwGBs),
	}
}

// AllGather computes the simulated AllGather cost (Ring algorithm): every
// device ends up with all N chunks concatenated.
func AllGather(n int, bytesPerGPU uint64, bwGBs, latencyUs float64) CollectiveStats {
	bwBytesPerUs := bwGBs * 1000.0
	nf := float64(n)
	totalBytes := bytesPerGPU * uint64(n)
	timeUs := (nf-1)/nf*float64(totalBytes)/bwBytesPerUs + (nf-1)*latencyUs
	busBW := EffectiveBandwidthGBs(totalBytes, timeUs)

	return CollectiveStats{
		Operation:       "AllGather",
		Algorithm:       "Ring",
		NumGPUs:         n,
		BytesPerGPU:     bytesPerGPU,
		TimeUs:          timeUs,
		BusBandwidthGBs: busBW,
		Efficiency:      clamp01(busBW / bwGBs),
	}
}

// Broadcast computes the simulated Broadcast cost (binary-tree algorithm):
// one source device sends bytes to all other devices in ceil(log2(N))
// steps. bytesPerGPU in the result holds the payload B, not N*B — callers
// must not confuse this with AllGather semantics (spec Open Question 2).
func Broadcast(n int, bytes uint64, bwGBs, latencyUs float64) CollectiveStats {
	bwBytesPerUs := bwGBs * 1000.0
	steps := math.Ceil(math.Log2(float64(n)))
	timeUs := steps * (float64(bytes)/bwBytesPerUs + latencyUs)
	busBW := EffectiveBandwidthGBs(bytes, timeUs)

	return CollectiveStats{
		Operation:       "Broadcast",
		Algorithm:       "Tree",
		NumGPUs:         n,
		BytesPerGPU:     bytes,
		TimeUs:          timeUs,
		BusBandwidthGBs: busBW,
		Efficiency:      clamp01(busBW / bwGBs),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
