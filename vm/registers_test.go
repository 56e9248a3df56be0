package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegisterABINames(t *testing.T) {
	tests := []struct {
		name string
		want RegisterID
	}{
		{"zero", X0},
		{"ra", RA},
		{"sp", SP},
		{"fp", S0},
		{"s0", S0},
		{"a0", A0},
		{"t6", T6},
		{"x2", SP},
		{"x31", T6},
	}
	for _, tt := range tests {
		got, err := ParseRegister(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestParseRegisterInvalid(t *testing.T) {
	_, err := ParseRegister("bogus")
	assert.Error(t, err)

	_, err = ParseRegister("x32")
	assert.Error(t, err)
}

func TestRegisterSnapshotX0AlwaysZero(t *testing.T) {
	var snap RegisterSnapshot
	snap.Set(X0, 12345)
	assert.Equal(t, int32(0), snap.Get(X0))
}

func TestInitialSnapshotStackPointer(t *testing.T) {
	snap := InitialSnapshot()
	assert.Equal(t, int32(uint32(0x40000000)), snap.Get(SP))
	assert.Equal(t, uint32(0), snap.PC)
}

func TestCalleeSavedDiff(t *testing.T) {
	a := InitialSnapshot()
	b := a
	b.Set(S0, 99)
	b.Set(A0, 7) // not callee-saved, must not appear

	diff := a.CalleeSavedDiff(b)
	require.Len(t, diff, 1)
	assert.Equal(t, S0, diff[0])
}

func TestRegisterSnapshotEqual(t *testing.T) {
	a := InitialSnapshot()
	b := InitialSnapshot()
	assert.True(t, a.Equal(b))

	b.Set(T0, 1)
	assert.False(t, a.Equal(b))
}
