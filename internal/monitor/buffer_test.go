package monitor

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolling_PushNewestFirst(t *testing.T) {
	r := NewRolling[int](3)

	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{2, 1}, r.Items())

	r.Push(3)
	r.Push(4)
	assert.Equal(t, []int{4, 3, 2}, r.Items())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())
}

func TestRolling_SixtyTicksKeepsLastFifty(t *testing.T) {
	r := NewRolling[int](50)
	for tick := 1; tick <= 60; tick++ {
		r.Push(tick)
	}

	items := r.Items()
	require.Len(t, items, 50)
	assert.Equal(t, 60, items[0])
	assert.Equal(t, 11, items[49])
	for i := 1; i < len(items); i++ {
		assert.Equal(t, items[i-1]-1, items[i])
	}
}

func TestRolling_ReplaceTruncates(t *testing.T) {
	r := NewRolling[int](2)
	r.Push(9)

	r.Replace([]int{5, 4, 3})
	assert.Equal(t, []int{5, 4}, r.Items())

	r.Replace(nil)
	assert.Equal(t, 0, r.Len())
}

func TestRolling_ItemsIsACopy(t *testing.T) {
	r := NewRolling[int](2)
	r.Push(1)

	items := r.Items()
	items[0] = 42
	assert.Equal(t, []int{1}, r.Items())
}

func TestRolling_MinimumCapacity(t *testing.T) {
	r := NewRolling[string](0)
	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"b"}, r.Items())
}

func TestRolling_Property_BoundedAndOrdered(t *testing.T) {
	f := func(capacity uint8, values []int) bool {
		c := int(capacity%64) + 1
		r := NewRolling[int](c)
		for _, v := range values {
			r.Push(v)
		}

		want := len(values)
		if want > c {
			want = c
		}
		items := r.Items()
		if len(items) != want {
			return false
		}
		// items[i] must be the (i+1)-th most recent push.
		for i, v := range items {
			if v != values[len(values)-1-i] {
				return false
			}
		}
		return true
	}

	require.NoError(t, quick.Check(f, nil))
}
