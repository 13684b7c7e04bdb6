package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeUnit_AllocateAndFreeBlockRoundTrip(t *testing.T) {
	u := NewComputeUnit(0)
	u.AllocateBlock(256, 8, 4096)
	assert.Equal(t, uint32(1), u.ActiveBlocks)
	assert.Equal(t, uint32(256), u.UsedThreads)
	assert.Equal(t, uint32(8), u.UsedWarps)
	assert.Equal(t, uint32(4096), u.UsedSmemBytes)

	u.FreeBlock(256, 8, 4096)
	assert.Equal(t, ComputeUnit{ID: 0}, *u)
}

func TestComputeUnit_FreeBlockSaturatesAtZero(t *testing.T) {
	u := NewComputeUnit(0)
	u.FreeBlock(10, 2, 100)
	assert.Equal(t, uint32(0), u.ActiveBlocks)
	assert.Equal(t, uint32(0), u.UsedThreads)
	assert.Equal(t, uint32(0), u.UsedWarps)
	assert.Equal(t, uint32(0), u.UsedSmemBytes)
}

func TestComputeUnit_Headroom(t *testing.T) {
	u := NewComputeUnit(0)
	u.ActiveBlocks = 3
	assert.Equal(t, uint32(5), u.Headroom(8))
	assert.Equal(t, uint32(0), u.Headroom(2))
}

func TestComputeUnit_Reset(t *testing.T) {
	u := NewComputeUnit(0)
	u.AllocateBlock(256, 8, 4096)
	u.Reset()
	assert.Equal(t, ComputeUnit{ID: 0}, *u)
}

func TestSatSubU32(t *testing.T) {
	assert.Equal(t, uint32(3), satSubU32(5, 2))
	assert.Equal(t, uint32(0), satSubU32(2, 5))
	assert.Equal(t, uint32(0), satSubU32(5, 5))
}

func TestH100AndA100Presets_DifferOnlyInSmemCapacity(t *testing.T) {
	h100 := H100ComputeUnitConfig()
	a100 := A100ComputeUnitConfig()

	assert.Equal(t, uint32(228*1024), h100.TotalSmemBytes)
	assert.Equal(t, uint32(164*1024), a100.TotalSmemBytes)

	h100.TotalSmemBytes = 0
	a100.TotalSmemBytes = 0
	assert.Equal(t, h100, a100)
}

func TestNewDevice_CreatesIndependentUnits(t *testing.T) {
	dev := NewDevice(4, H100ComputeUnitConfig(), 50*1024*1024, 1024*1024*1024)
	assert.Len(t, dev.Units, 4)
	for i, u := range dev.Units {
		assert.Equal(t, i, u.ID)
	}

	dev.Units[0].AllocateBlock(256, 8, 0)
	assert.Equal(t, uint32(0), dev.Units[1].ActiveBlocks)
}

func TestDevice_ResetUnits(t *testing.T) {
	dev := NewDevice(2, H100ComputeUnitConfig(), 0, 0)
	dev.Units[0].AllocateBlock(256, 8, 0)
	dev.Units[1].AllocateBlock(512, 16, 0)

	dev.ResetUnits()

	for _, u := range dev.Units {
		assert.Equal(t, uint32(0), u.ActiveBlocks)
	}
}
