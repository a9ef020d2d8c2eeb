package pdfmerger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   int
		want Rotation
	}{
		{0, Rotate0},
		{90, Rotate90},
		{360, Rotate0},
		{450, Rotate90},
		{-90, Rotate270},
		{-180, Rotate180},
		{-720, Rotate0},
	}
	for _, tt := range tests {
		got, err := NormalizeRotation(tt.in)
		require.NoError(t, err, "input %d", tt.in)
		assert.Equal(t, tt.want, got, "input %d", tt.in)
	}

	for _, bad := range []int{1, 45, -30, 100} {
		_, err := NormalizeRotation(bad)
		assert.ErrorIs(t, err, ErrInvalidRotation, "input %d", bad)
	}
}

func TestRotationAdd(t *testing.T) {
	r := Rotate270
	r, err := r.Add(90)
	require.NoError(t, err)
	assert.Equal(t, Rotate0, r)

	_, err = r.Add(10)
	assert.ErrorIs(t, err, ErrInvalidRotation)

	assert.Equal(t, "180°", Rotate180.String())
}
