package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements(), "scalar has one element")
	assert.Equal(t, 0, Shape{2, 0, 3}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{1, 5}.Validate())
	assert.NoError(t, Shape{}.Validate())
	assert.Error(t, Shape{2, -1}.Validate())
}

func TestComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{7}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Shape
		want    Shape
		needed  bool
		wantErr bool
	}{
		{name: "equal", a: Shape{2, 3}, b: Shape{2, 3}, want: Shape{2, 3}, needed: false},
		{name: "scalar", a: Shape{2, 3}, b: Shape{}, want: Shape{2, 3}, needed: true},
		{name: "ones expand", a: Shape{4, 1}, b: Shape{1, 5}, want: Shape{4, 5}, needed: true},
		{name: "rank lift", a: Shape{3, 4}, b: Shape{4}, want: Shape{3, 4}, needed: true},
		{name: "incompatible", a: Shape{2, 3}, b: Shape{2, 4}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, needed, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.needed, needed)
		})
	}
}

func TestBroadcastStrides(t *testing.T) {
	// [1, 3] expanded to [2, 3]: the leading axis repeats, so its stride
	// collapses to zero.
	strides := BroadcastStrides(Shape{1, 3}, Shape{2, 3})
	assert.Equal(t, []int{0, 1}, strides)

	// Scalar to anything: all strides zero.
	strides = BroadcastStrides(Shape{}, Shape{2, 2})
	assert.Equal(t, []int{0, 0}, strides)
}

func TestAxisSplit(t *testing.T) {
	outer, axisLen, inner := AxisSplit(Shape{2, 3, 4}, 1)
	assert.Equal(t, 2, outer)
	assert.Equal(t, 3, axisLen)
	assert.Equal(t, 4, inner)

	outer, axisLen, inner = AxisSplit(Shape{5}, 0)
	assert.Equal(t, 1, outer)
	assert.Equal(t, 5, axisLen)
	assert.Equal(t, 1, inner)
}

func TestNormalizeAxis(t *testing.T) {
	axis, ok := NormalizeAxis(-1, 3)
	require.True(t, ok)
	assert.Equal(t, 2, axis)

	axis, ok = NormalizeAxis(1, 3)
	require.True(t, ok)
	assert.Equal(t, 1, axis)

	_, ok = NormalizeAxis(3, 3)
	assert.False(t, ok)
	_, ok = NormalizeAxis(-4, 3)
	assert.False(t, ok)
}

func TestShapeCloneIndependent(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 9
	assert.Equal(t, Shape{2, 3}, s)
}
