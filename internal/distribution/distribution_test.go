package distribution

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistribute_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		total int
		types []string
		want  map[string]int
	}{
		{"even split", 10, []string{"ADDITION", "SUBTRACTION"}, map[string]int{"ADDITION": 5, "SUBTRACTION": 5}},
		{"remainder front-loaded", 10, []string{"A", "B", "C"}, map[string]int{"A": 4, "B": 3, "C": 3}},
		{"fewer questions than types", 3, []string{"A", "B", "C", "D"}, map[string]int{"A": 1, "B": 1, "C": 1, "D": 0}},
		{"five types", 25, []string{"A", "B", "C", "D", "E"}, map[string]int{"A": 5, "B": 5, "C": 5, "D": 5, "E": 5}},
		{"single type", 7, []string{"A"}, map[string]int{"A": 7}},
		{"zero total", 0, []string{"A", "B"}, map[string]int{"A": 0, "B": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(tt.total, tt.types)
			assert.Equal(t, tt.want, got.Map())
			require.Len(t, got, len(tt.types))
			for i, a := range got {
				assert.Equal(t, tt.types[i], a.Type, "order must follow input")
			}
		})
	}
}

func TestDistribute_Properties(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E"}
	for k := 1; k <= 5; k++ {
		types := names[:k]
		for total := 0; total <= 60; total++ {
			t.Run(fmt.Sprintf("k=%d/total=%d", k, total), func(t *testing.T) {
				d := Distribute(total, types)

				// Sum is exact.
				assert.Equal(t, total, d.Total())

				// Counts differ by at most one.
				lo, hi := d[0].Count, d[0].Count
				for _, a := range d {
					lo = min(lo, a.Count)
					hi = max(hi, a.Count)
				}
				assert.LessOrEqual(t, hi-lo, 1)

				// The first total%k types carry the surplus.
				base, rem := total/k, total%k
				for i, a := range d {
					want := base
					if i < rem {
						want = base + 1
					}
					assert.Equal(t, want, a.Count, "position %d", i)
				}
			})
		}
	}
}

func TestDistribute_EdgeInputs(t *testing.T) {
	assert.Empty(t, Distribute(10, nil))
	assert.Equal(t, 0, Distribute(-4, []string{"A", "B"}).Total())
}

func TestDistribution_Active(t *testing.T) {
	d := Distribute(3, []string{"A", "B", "C", "D"})
	active := d.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "C", active[2].Type)
	assert.Equal(t, 0, d.Count("D"))
	assert.Equal(t, 1, d.Count("A"))
	assert.Equal(t, 0, d.Count("missing"))
}
