// sim/warp_scheduler.go
package sim

import "fmt"

// WarpState mirrors the NVIDIA Nsight Compute stall taxonomy. All three
// warp schedulers in this functional model ignore it end-to-end — every
// warp is effectively Eligible — but the enum exists for snapshots and for
// a future stall-aware scheduler.
type WarpState string

const (
	Eligible        WarpState = "Eligible"
	LongScoreboard  WarpState = "LongScoreboard"
	ShortScoreboard WarpState = "ShortScoreboard"
	Barrier         WarpState = "Barrier"
	ExecDep         WarpState = "ExecDep"
	MemThrottle     WarpState = "MemThrottle"
	Fetch           WarpState = "Fetch"
	Idle            WarpState = "Idle"
)

// WarpSlot is the scheduler's view of one warp: its index within the
// block, current state, and age (a monotonically increasing value assigned
// at slot creation from a launch-scoped counter).
type WarpSlot struct {
	WarpIdx int
	State   WarpState
	Age     uint64
}

// NewWarpSlot creates an Eligible WarpSlot.
func NewWarpSlot(warpIdx int, age uint64) WarpSlot {
	return WarpSlot{WarpIdx: warpIdx, State: Eligible, Age: age}
}

// WarpScheduler orders warp issue within a block. OrderWarps must return a
// permutation of every warp_idx present in slots. RecordIssued is called
// after each warp completes issue so the scheduler can update its priority
// state.
type WarpScheduler interface {
	OrderWarps(slots []WarpSlot) []int
	RecordIssued(warpIdx int)
	Name() string
}

// NewWarpScheduler builds a WarpScheduler by policy name: "lrr", "gto", or
// "twolevel". activeSetSize is only used by "twolevel". Unknown names
// return an error — scheduler selection flows through user-facing
// configuration, where a bad value is a configuration error rather than an
// invariant violation.
func NewWarpScheduler(policy string, activeSetSize int) (WarpScheduler, error) {
	switch policy {
	case "lrr":
		return NewLRRScheduler(), nil
	case "gto":
		return NewGTOScheduler(), nil
	case "twolevel":
		if activeSetSize <= 0 {
			return nil, fmt.Errorf("sim: twolevel scheduler requires activeSetSize > 0, got %d", activeSetSize)
		}
		return NewTwoLevelScheduler(activeSetSize), nil
	default:
		return nil, fmt.Errorf("sim: unknown warp scheduling policy %q", policy)
	}
}

// ---------------------------------------------------------------------------
// Loose Round-Robin (LRR)
// ---------------------------------------------------------------------------

// LRRScheduler rotates through all warps in order, giving equal priority to
// each.
type LRRScheduler struct {
	lastIssued int
}

// NewLRRScheduler creates an LRRScheduler with lastIssued starting at 0.
func NewLRRScheduler() *LRRScheduler {
	return &LRRScheduler{lastIssued: 0}
}

func (s *LRRScheduler) OrderWarps(slots []WarpSlot) []int {
	n := len(slots)
	if n == 0 {
		return nil
	}
	startPos := 0
	for i, sl := range slots {
		if sl.WarpIdx == s.lastIssued {
			startPos = i
			break
		}
	}
	ordered := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		ordered = append(ordered, slots[(startPos+i)%n].WarpIdx)
	}
	return ordered
}

func (s *LRRScheduler) RecordIssued(warpIdx int) { s.lastIssued = warpIdx }
func (s *LRRScheduler) Name() string             { return "LRR" }

// ---------------------------------------------------------------------------
// Greedy-Then-Oldest (GTO)
// ---------------------------------------------------------------------------

// GTOScheduler sticks with the last-issued warp if it is still present,
// then falls back to the remaining warps sorted by ascending age (oldest
// first).
type GTOScheduler struct {
	lastIssued     int
	hasLastIssued  bool
}

// NewGTOScheduler creates a GTOScheduler with no prior issue.
func NewGTOScheduler() *GTOScheduler {
	return &GTOScheduler{}
}

func (s *GTOScheduler) OrderWarps(slots []WarpSlot) []int {
	ordered := make([]int, 0, len(slots))

	if s.hasLastIssued {
		for _, sl := range slots {
			if sl.WarpIdx == s.lastIssued {
				ordered = append(ordered, sl.WarpIdx)
				break
			}
		}
	}

	rest := make([]WarpSlot, 0, len(slots))
	for _, sl := range slots {
		if s.hasLastIssued && sl.WarpIdx == s.lastIssued {
			continue
		}
		rest = append(rest, sl)
	}
	sortByAge(rest)
	for _, sl := range rest {
		ordered = append(ordered, sl.WarpIdx)
	}
	return ordered
}

func (s *GTOScheduler) RecordIssued(warpIdx int) {
	s.lastIssued = warpIdx
	s.hasLastIssued = true
}
func (s *GTOScheduler) Name() string { return "GTO" }

// sortByAge sorts warp slots by ascending age using a simple stable
// insertion sort — slot counts per block are small (a handful of warps),
// so this avoids pulling in sort.Slice for a negligible-size input.
func sortByAge(slots []WarpSlot) {
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].Age < slots[j-1].Age; j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
}

// ---------------------------------------------------------------------------
// Two-Level Active Warp Scheduler
// ---------------------------------------------------------------------------

// TwoLevelScheduler maintains a bounded active set (scheduled LRR within)
// and a pending pool; pending warps are promoted into vacant active slots
// in slot order. No eviction policy is specified — in this functional
// model every warp eventually completes within a block, so the active set
// grows only to activeSetSize and persists.
type TwoLevelScheduler struct {
	activeSetSize  int
	activeSet      []int
	lastIssuedPos  int
}

// NewTwoLevelScheduler creates a TwoLevelScheduler with an empty active set.
func NewTwoLevelScheduler(activeSetSize int) *TwoLevelScheduler {
	return &TwoLevelScheduler{activeSetSize: activeSetSize}
}

func (s *TwoLevelScheduler) OrderWarps(slots []WarpSlot) []int {
	inActive := make(map[int]bool, len(s.activeSet))
	for _, idx := range s.activeSet {
		inActive[idx] = true
	}

	for _, sl := range slots {
		if len(s.activeSet) >= s.activeSetSize {
			break
		}
		if !inActive[sl.WarpIdx] {
			s.activeSet = append(s.activeSet, sl.WarpIdx)
			inActive[sl.WarpIdx] = true
		}
	}

	n := len(s.activeSet)
	ordered := make([]int, 0, len(slots))
	if n > 0 {
		start := s.lastIssuedPos % n
		for i := 1; i <= n; i++ {
			ordered = append(ordered, s.activeSet[(start+i)%n])
		}
	}

	for _, sl := range slots {
		if !inActive[sl.WarpIdx] {
			ordered = append(ordered, sl.WarpIdx)
		}
	}

	return ordered
}

func (s *TwoLevelScheduler) RecordIssued(warpIdx int) {
	for i, idx := range s.activeSet {
		if idx == warpIdx {
			s.lastIssuedPos = i
			return
		}
	}
}
func (s *TwoLevelScheduler) Name() string { return "TwoLevel" }
