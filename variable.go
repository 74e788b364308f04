/*Package postladim gives read and query access to sparse particle
tracking output, LADiM style: a flat array of particle instances, one
per particle per time step, indexed through a per-time-step count
array. Selection by time, by particle identifier, or both, returns
fresh views without touching the parent.
*/
package postladim

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bjornaa/postladim/dataset"
)

// Variable is either an *InstanceVariable or a *ParticleVariable.
type Variable interface {
	Name() string
	isVariable()
}

// InstanceVariable is a column that varies over particle instances,
// i.e. over both particle and time. Position, temperature or age are
// typical examples. The particle identifier pid is itself an instance
// variable, projecting an instance to its particle.
type InstanceVariable struct {
	name      string
	data      []float64
	pid       []int
	times     []time.Time
	off       Offsets
	particles []int
}

// NewInstanceVariable wraps one raw column together with the shared
// pid column, time coordinate and count array. The data and pid
// columns must both have one value per particle instance.
func NewInstanceVariable(
	name string, data []float64, pid []int, times []time.Time, count []int,
) (*InstanceVariable, error) {
	off, err := NewOffsets(count)
	if err != nil {
		return nil, err
	}
	if len(data) != off.NumInstances() || len(pid) != off.NumInstances() {
		return nil, fmt.Errorf(
			"variable %q: %d values and %d pids for %d instances",
			name, len(data), len(pid), off.NumInstances(),
		)
	}
	if len(times) != off.NumTimes() {
		return nil, fmt.Errorf(
			"variable %q: %d time values for %d time steps",
			name, len(times), off.NumTimes(),
		)
	}
	return &InstanceVariable{
		name:      name,
		data:      data,
		pid:       pid,
		times:     times,
		off:       off,
		particles: uniqueInts(pid),
	}, nil
}

func (v *InstanceVariable) isVariable() {}

// Name returns the variable name.
func (v *InstanceVariable) Name() string { return v.name }

// Values returns the flat per-instance values.
func (v *InstanceVariable) Values() []float64 { return v.data }

// Pid returns the flat per-instance particle identifiers.
func (v *InstanceVariable) Pid() []int { return v.pid }

// Times returns the time coordinate, one value per time step.
func (v *InstanceVariable) Times() []time.Time { return v.times }

// Offsets returns the shared time-step index.
func (v *InstanceVariable) Offsets() Offsets { return v.off }

// Particles returns the sorted distinct particle identifiers.
func (v *InstanceVariable) Particles() []int { return v.particles }

// NumTimes returns the number of time steps.
func (v *InstanceVariable) NumTimes() int { return v.off.NumTimes() }

// NumParticles returns the number of distinct particles.
func (v *InstanceVariable) NumParticles() int { return len(v.particles) }

// NumInstances returns the number of particle instances.
func (v *InstanceVariable) NumInstances() int { return v.off.NumInstances() }

// Len is the number of time steps, matching the original convention.
func (v *InstanceVariable) Len() int { return v.off.NumTimes() }

// Slice is a labeled selection result. Every value carries its pid and
// its time: a time-step view has a constant Time column, a single
// particle series has a constant Pid column.
type Slice struct {
	Values []float64
	Pid    []int
	Time   []time.Time
}

// Len returns the number of selected instances.
func (s Slice) Len() int { return len(s.Values) }

// ByPid returns the value labeled with the given pid, with ok = false
// when the particle is not in the selection.
func (s Slice) ByPid(pid int) (float64, bool) {
	for i, p := range s.Pid {
		if p == pid {
			return s.Values[i], true
		}
	}
	return 0, false
}

// Isel selects a single time step, returning its instances labeled by
// pid and stamped with the step's time. The values alias the backing
// array.
func (v *InstanceVariable) Isel(t int) (Slice, error) {
	start, end, err := v.off.Range(t)
	if err != nil {
		return Slice{}, err
	}
	times := make([]time.Time, end-start)
	for i := range times {
		times[i] = v.times[t]
	}
	return Slice{
		Values: v.data[start:end],
		Pid:    v.pid[start:end],
		Time:   times,
	}, nil
}

// TimeSlice returns a new InstanceVariable covering every instance
// whose time step lies in the half-open range [t0, t1). Bounds are
// clamped. Only contiguous forward unit-step ranges are supported;
// any other step fails with ErrUnsupportedStep.
func (v *InstanceVariable) TimeSlice(t0, t1, step int) (*InstanceVariable, error) {
	if step != 1 {
		return nil, fmt.Errorf("%w: step %d", ErrUnsupportedStep, step)
	}
	n := v.off.NumTimes()
	if t0 < 0 {
		t0 = 0
	}
	if t1 > n {
		t1 = n
	}
	if t1 < t0 {
		t1 = t0
	}
	start, end := 0, 0
	if t0 < t1 {
		start, end = v.off.Start[t0], v.off.End[t1-1]
	}
	return NewInstanceVariable(
		v.name, v.data[start:end], v.pid[start:end],
		v.times[t0:t1], v.off.Count[t0:t1],
	)
}

// timeIndex resolves a time value to its time step.
func (v *InstanceVariable) timeIndex(val time.Time) (int, error) {
	for t, tv := range v.times {
		if tv.Equal(val) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrTimeNotFound, val.Format("2006-01-02T15:04:05"))
}

// SelTime selects the time step with the given time value.
func (v *InstanceVariable) SelTime(val time.Time) (Slice, error) {
	t, err := v.timeIndex(val)
	if err != nil {
		return Slice{}, err
	}
	return v.Isel(t)
}

// SelTimeString selects by a calendar string such as "2022-05-16 02".
func (v *InstanceVariable) SelTimeString(s string) (Slice, error) {
	val, err := dataset.ParseTime(s)
	if err != nil {
		return Slice{}, fmt.Errorf("%w: %v", ErrTimeNotFound, err)
	}
	return v.SelTime(val)
}

// SelPid selects every instance of one particle, in time order. A
// particle's instances are scattered across the time-step segments, so
// this scans the flat pid column in a single pass and then recovers
// the time label of each hit: a binary search bounds the first time
// step and the rest follow by walking forward, which stays correct
// when the particle skips time steps.
func (v *InstanceVariable) SelPid(pid int) (Slice, error) {
	var idx []int
	for i, p := range v.pid {
		if p == pid {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return Slice{}, fmt.Errorf("%w: pid = %d", ErrPidNotFound, pid)
	}
	values := make([]float64, len(idx))
	pids := make([]int, len(idx))
	times := make([]time.Time, len(idx))
	t := v.off.timeStep(idx[0])
	for k, i := range idx {
		for v.off.End[t] <= i {
			t++
		}
		values[k] = v.data[i]
		pids[k] = pid
		times[k] = v.times[t]
	}
	return Slice{Values: values, Pid: pids, Time: times}, nil
}

// Sel specifies a value-based selection. A nil Pid or empty Time
// leaves that coordinate unconstrained.
type Sel struct {
	Pid  *int
	Time string
}

// Sel selects by pid value, time value, or both. With both arguments
// the time step is selected first and then filtered to the one
// particle; a particle missing from that step is ErrPidNotFound, since
// the caller asked for it by name. Giving neither argument fails with
// ErrMissingArgument.
func (v *InstanceVariable) Sel(q Sel) (Slice, error) {
	switch {
	case q.Pid != nil && q.Time == "":
		return v.SelPid(*q.Pid)
	case q.Pid == nil && q.Time != "":
		return v.SelTimeString(q.Time)
	case q.Pid != nil && q.Time != "":
		s, err := v.SelTimeString(q.Time)
		if err != nil {
			return Slice{}, err
		}
		val, ok := s.ByPid(*q.Pid)
		if !ok {
			return Slice{}, fmt.Errorf(
				"%w: pid = %d at time %s", ErrPidNotFound, *q.Pid, q.Time,
			)
		}
		return Slice{
			Values: []float64{val},
			Pid:    []int{*q.Pid},
			Time:   []time.Time{s.Time[0]},
		}, nil
	}
	return Slice{}, ErrMissingArgument
}

// Dense is a fully materialized time x particle matrix. Cells with no
// observed instance hold NaN.
type Dense struct {
	Values [][]float64 // [time][particle]
	Time   []time.Time
	Pid    []int // column labels, the sorted distinct pids
}

// At returns the cell for the given time step and pid column label.
func (d Dense) At(t, pid int) (float64, error) {
	if t < 0 || t >= len(d.Values) {
		return 0, fmt.Errorf("%w: time index %d", ErrOutOfBounds, t)
	}
	for j, p := range d.Pid {
		if p == pid {
			return d.Values[t][j], nil
		}
	}
	return 0, fmt.Errorf("%w: pid = %d", ErrPidNotFound, pid)
}

// ToDense materializes the sparse variable into a full matrix, filling
// every cell with NaN and overwriting the cells backed by an instance.
// Row t holds exactly Count[t] non-NaN cells. Columns are ordered by
// pid.
func (v *InstanceVariable) ToDense() Dense {
	rank := make(map[int]int, len(v.particles))
	for j, p := range v.particles {
		rank[p] = j
	}
	values := make([][]float64, v.off.NumTimes())
	for t := range values {
		row := make([]float64, len(v.particles))
		for j := range row {
			row[j] = math.NaN()
		}
		for i := v.off.Start[t]; i < v.off.End[t]; i++ {
			row[rank[v.pid[i]]] = v.data[i]
		}
		values[t] = row
	}
	return Dense{
		Values: values,
		Time:   append([]time.Time(nil), v.times...),
		Pid:    append([]int(nil), v.particles...),
	}
}

// At is the dense-matrix style pair lookup. A particle that is absent
// at the given time step is a normal "not observed" result and yields
// NaN, unlike SelPid where absence is an error. A pid outside the
// dense range [0, NumParticles()) is still out of bounds.
func (v *InstanceVariable) At(t, pid int) (float64, error) {
	if pid < 0 || pid >= len(v.particles) {
		return 0, fmt.Errorf(
			"%w: pid = %d with bound %d", ErrOutOfBounds, pid, len(v.particles),
		)
	}
	s, err := v.Isel(t)
	if err != nil {
		return 0, err
	}
	if val, ok := s.ByPid(pid); ok {
		return val, nil
	}
	return math.NaN(), nil
}

// String gives a short summary in the style of the other variables.
func (v *InstanceVariable) String() string {
	return fmt.Sprintf(
		"<postladim.InstanceVariable %q>\nnum_times: %d, particle_instance: %d\n%s",
		v.name, v.NumTimes(), v.NumInstances(), floatsStr(v.data),
	)
}

// ParticleVariable is a time-independent column with one value per
// particle, such as a release position or a location identifier, in
// particle order. No offset index is involved.
type ParticleVariable struct {
	name string
	col  *dataset.Column
}

// NewParticleVariable wraps a dense per-particle column.
func NewParticleVariable(name string, col *dataset.Column) *ParticleVariable {
	return &ParticleVariable{name: name, col: col}
}

func (p *ParticleVariable) isVariable() {}

// Name returns the variable name.
func (p *ParticleVariable) Name() string { return p.name }

// Len returns the number of particles.
func (p *ParticleVariable) Len() int { return p.col.Len() }

// Column returns the backing column.
func (p *ParticleVariable) Column() *dataset.Column { return p.col }

func (p *ParticleVariable) check(i int) error {
	if i < 0 || i >= p.col.Len() {
		return fmt.Errorf(
			"%w: particle index %d with bound %d", ErrOutOfBounds, i, p.col.Len(),
		)
	}
	return nil
}

// Value returns the numeric value for the particle at index i.
func (p *ParticleVariable) Value(i int) (float64, error) {
	if err := p.check(i); err != nil {
		return 0, err
	}
	vals, err := p.col.Floats()
	if err != nil {
		return 0, err
	}
	return vals[i], nil
}

// IntValue returns the integer value for the particle at index i.
func (p *ParticleVariable) IntValue(i int) (int, error) {
	if err := p.check(i); err != nil {
		return 0, err
	}
	vals, err := p.col.Ints()
	if err != nil {
		return 0, err
	}
	return vals[i], nil
}

// TimeValue returns the timestamp for the particle at index i.
func (p *ParticleVariable) TimeValue(i int) (time.Time, error) {
	if err := p.check(i); err != nil {
		return time.Time{}, err
	}
	vals, err := p.col.Times()
	if err != nil {
		return time.Time{}, err
	}
	return vals[i], nil
}

// String gives a short summary.
func (p *ParticleVariable) String() string {
	return fmt.Sprintf(
		"<postladim.ParticleVariable %q>\nparticle: %d\n%s",
		p.name, p.col.Len(), columnStr(p.col),
	)
}

// uniqueInts returns the sorted distinct values.
func uniqueInts(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	var out []int
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}
