// Package distribution partitions a question count across an ordered list of
// question types.
package distribution

// Allocation is the number of questions assigned to one type.
type Allocation struct {
	Type  string
	Count int
}

// Distribution is the ordered result of Distribute. Order follows the input
// type order.
type Distribution []Allocation

// Distribute splits total across types as evenly as possible. Every type gets
// total/len(types); the first total%len(types) types get one extra. When total
// is smaller than the number of types the trailing types get zero.
//
// A negative total is treated as zero. An empty type list yields an empty
// distribution.
func Distribute(total int, types []string) Distribution {
	if len(types) == 0 {
		return Distribution{}
	}
	if total < 0 {
		total = 0
	}

	base := total / len(types)
	remainder := total % len(types)

	d := make(Distribution, len(types))
	for i, t := range types {
		n := base
		if i < remainder {
			n++
		}
		d[i] = Allocation{Type: t, Count: n}
	}
	return d
}

// Total returns the sum of all allocated counts.
func (d Distribution) Total() int {
	sum := 0
	for _, a := range d {
		sum += a.Count
	}
	return sum
}

// Count returns the count allocated to typeID, or 0 if it is not present.
func (d Distribution) Count(typeID string) int {
	for _, a := range d {
		if a.Type == typeID {
			return a.Count
		}
	}
	return 0
}

// Active returns the allocations with a non-zero count, preserving order.
func (d Distribution) Active() Distribution {
	out := make(Distribution, 0, len(d))
	for _, a := range d {
		if a.Count > 0 {
			out = append(out, a)
		}
	}
	return out
}

// Map returns the {type: count} view used in responses.
func (d Distribution) Map() map[string]int {
	m := make(map[string]int, len(d))
	for _, a := range d {
		m[a.Type] += a.Count
	}
	return m
}
