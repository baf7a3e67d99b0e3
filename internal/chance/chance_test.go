package chance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBetweenInclusive(t *testing.T) {
	src := NewSeeded(7)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := Between(src, 1, 4)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 4)
		seen[v] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, 3, Between(src, 3, 3))
}

func TestSampleDoesNotMutate(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	got := Sample(NewSeeded(1), items, 2)
	assert.Len(t, got, 2)
	assert.NotEqual(t, got[0], got[1])
	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
	assert.Len(t, Sample(NewSeeded(1), items, 10), 4)
}

func TestScriptedRepeatsLastFloat(t *testing.T) {
	s := &Scripted{Floats: []float64{0.1, 0.9}, Ints: []int{5}}
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.9, s.Float64())
	assert.Equal(t, 0.9, s.Float64())
	assert.Equal(t, 2, s.IntN(3))
	assert.Equal(t, 0, s.IntN(3))
}
