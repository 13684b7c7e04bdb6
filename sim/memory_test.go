package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryTier_UninitializedReadsAsZero(t *testing.T) {
	m := NewMemoryTier(1024)
	assert.Equal(t, []byte{0, 0, 0, 0}, m.Read(100, 4))
}

func TestMemoryTier_WriteThenReadRoundTrip(t *testing.T) {
	m := NewMemoryTier(1024)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	m.Write(8, payload)

	assert.Equal(t, payload, m.Read(8, 4))
	// Neighboring unwritten addresses remain zero.
	assert.Equal(t, []byte{0, 0, 0, 0}, m.Read(4, 4))
	assert.Equal(t, []byte{0, 0, 0, 0}, m.Read(12, 4))
}

func TestMemoryTier_WriteIsLastWriterWins(t *testing.T) {
	m := NewMemoryTier(1024)
	m.Write(0, []byte{1, 2, 3})
	m.Write(1, []byte{9, 9})

	assert.Equal(t, []byte{1, 9, 9}, m.Read(0, 3))
}

func TestMemoryTier_DoesNotEnforceSizeBound(t *testing.T) {
	m := NewMemoryTier(4)
	m.Write(1000, []byte{0x42})
	assert.Equal(t, []byte{0x42}, m.Read(1000, 1))
}
