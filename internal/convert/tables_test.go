package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambdaTableSize(t *testing.T) {
	require.Len(t, lambdaTable, LambdaCeiling-LambdaFloor+1)
}

func TestLambdaClampBelowFloor(t *testing.T) {
	for _, s := range []int{-100, 0, 10, 38} {
		assert.Equal(t, 0.750, LambdaOf(s), "sample %d", s)
	}
}

func TestLambdaClampAboveCeiling(t *testing.T) {
	for _, s := range []int{792, 1000, 1023, 5000} {
		assert.Equal(t, 10.119, LambdaOf(s), "sample %d", s)
	}
}

func TestLambdaAnchors(t *testing.T) {
	tests := []struct {
		sample int
		want   float64
	}{
		{39, 0.750},
		{307, 1.000},
		{400, 1.250},
		{791, 10.119},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LambdaOf(tt.sample), "sample %d", tt.sample)
	}
}

func TestLambdaMonotonic(t *testing.T) {
	prev := LambdaOf(LambdaFloor)
	for s := LambdaFloor + 1; s <= LambdaCeiling; s++ {
		v := LambdaOf(s)
		require.GreaterOrEqual(t, v, prev, "lambda table decreases at sample %d", s)
		prev = v
	}
}

func TestLambdaValid(t *testing.T) {
	assert.False(t, LambdaValid(38))
	assert.True(t, LambdaValid(39))
	assert.True(t, LambdaValid(791))
	assert.False(t, LambdaValid(792))
}

func TestOxygenBelowFloorIsUndefined(t *testing.T) {
	for _, s := range []int{0, 306, 400, 424} {
		assert.Zero(t, OxygenOf(s), "sample %d", s)
		assert.False(t, OxygenValid(s), "sample %d", s)
	}
}

func TestOxygenCeilingClampsInput(t *testing.T) {
	// Unlike the lambda table, over-ceiling inputs are clamped to the
	// ceiling sample before lookup.
	want := OxygenOf(OxygenCeiling)
	require.NotZero(t, want)
	for _, s := range []int{792, 900, 1023} {
		assert.Equal(t, want, OxygenOf(s), "sample %d", s)
	}
}

func TestOxygenMonotonic(t *testing.T) {
	prev := OxygenOf(OxygenFloor)
	for s := OxygenFloor + 1; s <= OxygenCeiling; s++ {
		v := OxygenOf(s)
		require.GreaterOrEqual(t, v, prev, "oxygen table decreases at sample %d", s)
		prev = v
	}
}
