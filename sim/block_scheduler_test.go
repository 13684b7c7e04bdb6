package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectUnit_PicksMaxHeadroomLowestIDOnTie(t *testing.T) {
	units := []*ComputeUnit{
		NewComputeUnit(0),
		NewComputeUnit(1),
		NewComputeUnit(2),
	}
	units[0].ActiveBlocks = 2
	units[1].ActiveBlocks = 1
	units[2].ActiveBlocks = 1 // ties unit 1 on headroom; unit 1 must win (lower id)

	got := SelectUnit(units, 4)
	assert.Equal(t, 1, got)
}

func TestSelectUnit_FallsBackToZeroWhenNoHeadroom(t *testing.T) {
	units := []*ComputeUnit{NewComputeUnit(0), NewComputeUnit(1)}
	units[0].ActiveBlocks = 4
	units[1].ActiveBlocks = 4

	got := SelectUnit(units, 4)
	assert.Equal(t, 0, got)
}

func TestSelectUnit_PicksStrictlyGreaterHeadroom(t *testing.T) {
	units := []*ComputeUnit{NewComputeUnit(0), NewComputeUnit(1), NewComputeUnit(2)}
	units[0].ActiveBlocks = 3
	units[1].ActiveBlocks = 0
	units[2].ActiveBlocks = 2

	got := SelectUnit(units, 4)
	assert.Equal(t, 1, got)
}
