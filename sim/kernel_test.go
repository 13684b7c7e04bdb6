package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDim3_Size(t *testing.T) {
	assert.Equal(t, uint64(24), NewDim3(2, 3, 4).Size())
	assert.Equal(t, uint64(1), NewDim3(1, 1, 1).Size())
	assert.Equal(t, uint64(0), NewDim3(0, 5, 5).Size())
}

func TestDim3X(t *testing.T) {
	assert.Equal(t, Dim3{X: 7, Y: 1, Z: 1}, Dim3X(7))
}

func TestLaunchConfig_Validate(t *testing.T) {
	valid := LaunchConfig{Grid: NewDim3(1, 1, 1), Block: NewDim3(32, 1, 1)}
	assert.NoError(t, valid.Validate())

	zeroBlock := LaunchConfig{Grid: NewDim3(1, 1, 1), Block: NewDim3(0, 1, 1)}
	assert.Error(t, zeroBlock.Validate())

	zeroGrid := LaunchConfig{Grid: NewDim3(0, 1, 1), Block: NewDim3(32, 1, 1)}
	assert.Error(t, zeroGrid.Validate())
}

func TestThreadContext_GlobalID(t *testing.T) {
	ctx := &ThreadContext{
		ThreadIdx: NewDim3(5, 0, 0),
		BlockIdx:  NewDim3(2, 0, 0),
		BlockDim:  NewDim3(256, 1, 1),
	}
	assert.Equal(t, uint64(2*256+5), ctx.GlobalID())
}

func TestNewKernelResourceProfile(t *testing.T) {
	cfg := LaunchConfig{
		Grid:          NewDim3(4, 1, 1),
		Block:         NewDim3(128, 2, 1),
		RegsPerThread: 32,
		SmemPerBlock:  1024,
	}
	profile := NewKernelResourceProfile(cfg)
	assert.Equal(t, KernelResourceProfile{ThreadsPerBlock: 256, RegsPerThread: 32, SmemPerBlock: 1024}, profile)
}
