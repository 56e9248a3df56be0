package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeInt32ToUint32(t *testing.T) {
	tests := []struct {
		input     int32
		expected  uint32
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{math.MaxInt32, math.MaxInt32, false},
		{-1, 0, true},
		{-100, 0, true},
		{math.MinInt32, 0, true},
	}
	for _, tt := range tests {
		result, err := SafeInt32ToUint32(tt.input)
		if tt.shouldErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, result, tt.input)
	}
}

func TestSafeIntToUint32(t *testing.T) {
	tests := []struct {
		input     int
		expected  uint32
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{math.MaxUint32, math.MaxUint32, false},
		{-1, 0, true},
		{-100, 0, true},
	}
	if math.MaxInt > math.MaxUint32 {
		tests = append(tests, struct {
			input     int
			expected  uint32
			shouldErr bool
		}{math.MaxUint32 + 1, 0, true})
	}
	for _, tt := range tests {
		result, err := SafeIntToUint32(tt.input)
		if tt.shouldErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, result, tt.input)
	}
}

func TestSafeInt64ToUint32(t *testing.T) {
	tests := []struct {
		input     int64
		expected  uint32
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{math.MaxUint32, math.MaxUint32, false},
		{-1, 0, true},
		{-100, 0, true},
		{math.MaxUint32 + 1, 0, true},
		{math.MaxInt64, 0, true},
	}
	for _, tt := range tests {
		result, err := SafeInt64ToUint32(tt.input)
		if tt.shouldErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, result, tt.input)
	}
}

func TestSafeUint32ToUint16(t *testing.T) {
	tests := []struct {
		input     uint32
		expected  uint16
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{math.MaxUint16, math.MaxUint16, false},
		{math.MaxUint16 + 1, 0, true},
		{math.MaxUint32, 0, true},
	}
	for _, tt := range tests {
		result, err := SafeUint32ToUint16(tt.input)
		if tt.shouldErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, result, tt.input)
	}
}

func TestSafeUint32ToUint8(t *testing.T) {
	tests := []struct {
		input     uint32
		expected  uint8
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{math.MaxUint8, math.MaxUint8, false},
		{math.MaxUint8 + 1, 0, true},
		{math.MaxUint32, 0, true},
	}
	for _, tt := range tests {
		result, err := SafeUint32ToUint8(tt.input)
		if tt.shouldErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, result, tt.input)
	}
}

func TestSafeUintToUint32(t *testing.T) {
	tests := []struct {
		input     uint
		expected  uint32
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{math.MaxUint32, math.MaxUint32, false},
	}
	if uint64(^uint(0)) > math.MaxUint32 {
		tests = append(tests, struct {
			input     uint
			expected  uint32
			shouldErr bool
		}{math.MaxUint32 + 1, 0, true})
	}
	for _, tt := range tests {
		result, err := SafeUintToUint32(tt.input)
		if tt.shouldErr {
			require.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, result, tt.input)
	}
}

func TestAsInt32(t *testing.T) {
	tests := []struct {
		input    uint32
		expected int32
	}{
		{0, 0},
		{1, 1},
		{0x7FFFFFFF, 0x7FFFFFFF},
		{0x80000000, math.MinInt32},
		{0xFFFFFFFF, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, AsInt32(tt.input), tt.input)
	}
}
