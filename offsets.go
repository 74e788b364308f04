package postladim

import (
	"fmt"
	"sort"
)

// Offsets maps time steps to ranges of particle instances in the flat
// storage order. For time step t the instances live at offsets
// [Start[t], End[t]), with End the running total of Count and
// Start[t] = End[t] - Count[t]. The ranges are contiguous,
// non-overlapping and cover [0, NumInstances()) in time order.
//
// An Offsets is never mutated. Any change to the count array, from
// time slicing or pid filtering, requires building a fresh Offsets.
type Offsets struct {
	Count []int
	Start []int
	End   []int
}

// NewOffsets derives the start/end arrays from a per-time-step count
// array. Fails with ErrInvalidCount if any count is negative.
func NewOffsets(count []int) (Offsets, error) {
	start := make([]int, len(count))
	end := make([]int, len(count))
	sum := 0
	for t, c := range count {
		if c < 0 {
			return Offsets{}, fmt.Errorf("%w: count[%d] = %d", ErrInvalidCount, t, c)
		}
		start[t] = sum
		sum += c
		end[t] = sum
	}
	return Offsets{Count: count, Start: start, End: end}, nil
}

// NumTimes returns the number of time steps.
func (o Offsets) NumTimes() int { return len(o.Count) }

// NumInstances returns the total number of particle instances.
func (o Offsets) NumInstances() int {
	if len(o.End) == 0 {
		return 0
	}
	return o.End[len(o.End)-1]
}

// Range returns the instance offsets [start, end) of time step t.
func (o Offsets) Range(t int) (start, end int, err error) {
	if t < 0 || t >= len(o.Count) {
		return 0, 0, fmt.Errorf(
			"%w: time index %d with num_times %d", ErrOutOfBounds, t, len(o.Count),
		)
	}
	return o.Start[t], o.End[t], nil
}

// timeStep returns the time step owning instance offset i, by binary
// search for the rightmost start <= i. Time steps with zero count have
// start == end, so the rightmost match is the owner.
func (o Offsets) timeStep(i int) int {
	return sort.Search(len(o.Start), func(t int) bool { return o.Start[t] > i }) - 1
}
