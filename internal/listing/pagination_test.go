package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 2, TotalPages(20, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
}

func TestWindow(t *testing.T) {
	items := seq(25)
	assert.Equal(t, []int{20, 21, 22, 23, 24}, Window(items, 2, 10))
	assert.Equal(t, seq(10), Window(items, 0, 10))
	assert.Empty(t, Window(items, 3, 10))
	assert.Empty(t, Window(items, -1, 10))
	assert.Empty(t, Window([]int{}, 0, 10))
	assert.Equal(t, seq(25), Window(items, 0, 1<<62))
}

func TestWindowHugePageIsEmpty(t *testing.T) {
	items := []int{1, 2, 3}
	assert.NotPanics(t, func() {
		assert.Empty(t, Window(items, 1<<62+1, 2))
	})
	assert.Empty(t, Window(items, 1<<40, 1<<24))
	assert.Empty(t, Window(items, 1, 1<<62))
}

func TestPagerBoundaries(t *testing.T) {
	var moved []int
	p := NewPager(0, 3, func(page int) { moved = append(moved, page) })
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())

	p.Next()
	p.Next()
	assert.True(t, p.HasPrev())
	assert.False(t, p.HasNext())

	// no clamping: the caller is expected to have disabled the control
	p.Next()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, []int{1, 2, 3}, moved)
}
