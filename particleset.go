package postladim

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bjornaa/postladim/dataset"
)

// Dimension and coordinate names of the LADiM output convention.
const (
	TimeDim     = "time"
	ParticleDim = "particle"
	InstanceDim = "particle_instance"

	countVar = "particle_count"
	pidVar   = "pid"
	timeVar  = "time"
)

// ParticleSet is the interface to one set of sparse particle data: the
// shared offset index, the time coordinate, and every variable of the
// underlying dataset classified as instance or particle variable.
//
// A selection never modifies the set it is applied to. It narrows the
// raw data and builds a brand-new ParticleSet with freshly derived
// offsets, so selections compose and can be used independently.
type ParticleSet struct {
	Count []int
	Start []int
	End   []int
	Time  []time.Time

	NumTimes     int
	NumParticles int
	NumInstances int

	// Names of the classified variables, in dataset order.
	InstanceVariables []string
	ParticleVariables []string

	ds        *dataset.Dataset
	off       Offsets
	pid       []int
	particles []int // the particle coordinate labels
	vars      map[string]Variable
}

// NewParticleSet builds a particle set from a dataset holding at least
// the particle_count, pid and time columns. Columns on the
// particle_instance dimension become instance variables, columns on
// the particle dimension become particle variables. A missing particle
// coordinate is synthesized from the distinct pid values.
func NewParticleSet(ds *dataset.Dataset) (*ParticleSet, error) {
	countCol, err := ds.Get(countVar)
	if err != nil {
		return nil, err
	}
	count, err := countCol.Ints()
	if err != nil {
		return nil, fmt.Errorf("particle_count: %v", err)
	}
	off, err := NewOffsets(count)
	if err != nil {
		return nil, err
	}

	pidCol, err := ds.Get(pidVar)
	if err != nil {
		return nil, err
	}
	pid, err := pidCol.Ints()
	if err != nil {
		return nil, fmt.Errorf("pid: %v", err)
	}
	if len(pid) != off.NumInstances() {
		return nil, fmt.Errorf(
			"pid has %d values, count sums to %d", len(pid), off.NumInstances(),
		)
	}

	timeCol, err := ds.Get(timeVar)
	if err != nil {
		return nil, err
	}
	times, err := timeCol.Times()
	if err != nil {
		return nil, fmt.Errorf("time: %v", err)
	}
	if len(times) != off.NumTimes() {
		return nil, fmt.Errorf(
			"time has %d values, count has %d", len(times), off.NumTimes(),
		)
	}

	particles, ds, err := particleCoord(ds, pid)
	if err != nil {
		return nil, err
	}

	ps := &ParticleSet{
		Count:        count,
		Start:        off.Start,
		End:          off.End,
		Time:         times,
		NumTimes:     off.NumTimes(),
		NumParticles: len(particles),
		NumInstances: off.NumInstances(),
		ds:           ds,
		off:          off,
		pid:          pid,
		particles:    particles,
		vars:         make(map[string]Variable),
	}

	for _, name := range ds.Names() {
		col, _ := ds.Get(name)
		switch col.Dim() {
		case InstanceDim:
			data, err := col.Floats()
			if err != nil {
				return nil, fmt.Errorf("instance variable %q: %v", name, err)
			}
			iv, err := NewInstanceVariable(name, data, pid, times, count)
			if err != nil {
				return nil, err
			}
			ps.InstanceVariables = append(ps.InstanceVariables, name)
			ps.vars[name] = iv
		case ParticleDim:
			ps.ParticleVariables = append(ps.ParticleVariables, name)
			ps.vars[name] = NewParticleVariable(name, col)
		}
	}
	return ps, nil
}

// particleCoord returns the particle coordinate labels, synthesizing
// the coordinate column when the dataset lacks one.
func particleCoord(ds *dataset.Dataset, pid []int) ([]int, *dataset.Dataset, error) {
	if ds.Has(ParticleDim) {
		col, _ := ds.Get(ParticleDim)
		labels, err := col.Ints()
		if err != nil {
			return nil, nil, fmt.Errorf("particle coordinate: %v", err)
		}
		return labels, ds, nil
	}
	var labels []int
	if n, ok := ds.Dim(ParticleDim); ok {
		// Particle variables exist without a coordinate: the
		// convention is pids numbered 0..n-1.
		labels = make([]int, n)
		for i := range labels {
			labels[i] = i
		}
	} else {
		labels = uniqueInts(pid)
	}
	col := &dataset.Column{Dims: []string{ParticleDim}, Data: labels}
	return labels, ds.WithColumn(ParticleDim, col), nil
}

// Dataset returns the underlying dataset.
func (ps *ParticleSet) Dataset() *dataset.Dataset { return ps.ds }

// Particles returns the particle coordinate labels.
func (ps *ParticleSet) Particles() []int { return ps.particles }

// Get returns the named variable, either an *InstanceVariable or a
// *ParticleVariable.
func (ps *ParticleSet) Get(name string) (Variable, error) {
	v, ok := ps.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return v, nil
}

// InstanceVar returns the named instance variable.
func (ps *ParticleSet) InstanceVar(name string) (*InstanceVariable, error) {
	v, err := ps.Get(name)
	if err != nil {
		return nil, err
	}
	iv, ok := v.(*InstanceVariable)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an instance variable", ErrUnknownVariable, name)
	}
	return iv, nil
}

// ParticleVar returns the named particle variable.
func (ps *ParticleSet) ParticleVar(name string) (*ParticleVariable, error) {
	v, err := ps.Get(name)
	if err != nil {
		return nil, err
	}
	pv, ok := v.(*ParticleVariable)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a particle variable", ErrUnknownVariable, name)
	}
	return pv, nil
}

// IselTime selects a single time step, returning a new single-step
// particle set with the particle dimension narrowed to the particles
// present at that step.
func (ps *ParticleSet) IselTime(t int) (*ParticleSet, error) {
	if _, _, err := ps.off.Range(t); err != nil {
		return nil, err
	}
	return ps.iselRange(t, t+1)
}

// IselTimeSlice selects the half-open time range [t0, t1). Bounds are
// clamped; a step other than 1 fails with ErrUnsupportedStep.
func (ps *ParticleSet) IselTimeSlice(t0, t1, step int) (*ParticleSet, error) {
	if step != 1 {
		return nil, fmt.Errorf("%w: step %d", ErrUnsupportedStep, step)
	}
	if t0 < 0 {
		t0 = 0
	}
	if t1 > ps.NumTimes {
		t1 = ps.NumTimes
	}
	if t1 < t0 {
		t1 = t0
	}
	return ps.iselRange(t0, t1)
}

func (ps *ParticleSet) iselRange(t0, t1 int) (*ParticleSet, error) {
	start, end := 0, 0
	if t0 < t1 {
		start, end = ps.Start[t0], ps.End[t1-1]
	}
	ds := ps.ds.Slice(TimeDim, t0, t1).Slice(InstanceDim, start, end)
	ds = ds.Take(ParticleDim, ps.labelPositions(uniqueInts(ps.pid[start:end])))
	return NewParticleSet(ds)
}

// SelTime selects the time step with the given time value.
func (ps *ParticleSet) SelTime(val time.Time) (*ParticleSet, error) {
	for t, tv := range ps.Time {
		if tv.Equal(val) {
			return ps.IselTime(t)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTimeNotFound, val.Format("2006-01-02T15:04:05"))
}

// SelTimeString selects by a calendar string such as "2022-01-01 02".
func (ps *ParticleSet) SelTimeString(s string) (*ParticleSet, error) {
	val, err := dataset.ParseTime(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeNotFound, err)
	}
	return ps.SelTime(val)
}

// SelPid narrows the whole set to one particle: every instance
// variable keeps only that particle's instances, the time range shrinks
// to the steps between the particle's first and last appearance, the
// count array is rebuilt from the actual per-step matches, and the
// particle dimension keeps the single survivor.
func (ps *ParticleSet) SelPid(pid int) (*ParticleSet, error) {
	var idx []int
	for i, p := range ps.pid {
		if p == pid {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: pid = %d", ErrPidNotFound, pid)
	}

	t0 := ps.off.timeStep(idx[0])
	t1 := ps.off.timeStep(idx[len(idx)-1]) + 1
	count := make([]int, t1-t0)
	t := t0
	for _, i := range idx {
		for ps.End[t] <= i {
			t++
		}
		count[t-t0]++
	}

	ds := ps.ds.Slice(TimeDim, t0, t1).Take(InstanceDim, idx)
	ds = ds.WithColumn(countVar, &dataset.Column{
		Dims: []string{TimeDim},
		Data: count,
	})
	ds = ds.Take(ParticleDim, ps.labelPositions([]int{pid}))
	return NewParticleSet(ds)
}

// Sel selects by value of pid or time or both. Both arguments compose
// the time selection with the pid selection; giving neither fails with
// ErrMissingArgument.
func (ps *ParticleSet) Sel(q Sel) (*ParticleSet, error) {
	switch {
	case q.Pid != nil && q.Time == "":
		return ps.SelPid(*q.Pid)
	case q.Pid == nil && q.Time != "":
		return ps.SelTimeString(q.Time)
	case q.Pid != nil && q.Time != "":
		sub, err := ps.SelTimeString(q.Time)
		if err != nil {
			return nil, err
		}
		return sub.SelPid(*q.Pid)
	}
	return nil, ErrMissingArgument
}

// labelPositions maps particle coordinate labels to their positions.
func (ps *ParticleSet) labelPositions(labels []int) []int {
	pos := make(map[int]int, len(ps.particles))
	for i, p := range ps.particles {
		pos[p] = i
	}
	out := make([]int, 0, len(labels))
	for _, l := range labels {
		if i, ok := pos[l]; ok {
			out = append(out, i)
		}
	}
	return out
}

// Position is the distribution of the particles at one time step.
type Position struct {
	X, Y Slice
}

// Trajectory is the track of a single particle: two instance-variable
// selections sharing the particle's time coordinate.
type Trajectory struct {
	X, Y Slice
}

// Times returns the trajectory's time coordinate.
func (tr Trajectory) Times() []time.Time { return tr.X.Time }

// Len returns the number of positions in the trajectory.
func (tr Trajectory) Len() int { return tr.X.Len() }

// coordNames resolves the coordinate system: an explicit "xy" or
// "lonlat" request, or a probe that prefers Cartesian X/Y and falls
// back to geographical lon/lat.
func (ps *ParticleSet) coordNames(system string) (string, string, error) {
	switch system {
	case "xy":
		return "X", "Y", nil
	case "lonlat":
		return "lon", "lat", nil
	case "":
		if _, ok := ps.vars["X"]; ok {
			return "X", "Y", nil
		}
		return "lon", "lat", nil
	}
	return "", "", fmt.Errorf("unknown coordinate system %q", system)
}

// Position extracts the positions of all particles at one time step.
// An empty system probes for X/Y first, then lon/lat.
func (ps *ParticleSet) Position(t int, system string) (Position, error) {
	xName, yName, err := ps.coordNames(system)
	if err != nil {
		return Position{}, err
	}
	xv, err := ps.InstanceVar(xName)
	if err != nil {
		return Position{}, err
	}
	yv, err := ps.InstanceVar(yName)
	if err != nil {
		return Position{}, err
	}
	x, err := xv.Isel(t)
	if err != nil {
		return Position{}, err
	}
	y, err := yv.Isel(t)
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y}, nil
}

// Trajectory extracts the track of one particle. The two coordinates
// are selected independently.
func (ps *ParticleSet) Trajectory(pid int, system string) (Trajectory, error) {
	xName, yName, err := ps.coordNames(system)
	if err != nil {
		return Trajectory{}, err
	}
	xv, err := ps.InstanceVar(xName)
	if err != nil {
		return Trajectory{}, err
	}
	yv, err := ps.InstanceVar(yName)
	if err != nil {
		return Trajectory{}, err
	}
	x, err := xv.SelPid(pid)
	if err != nil {
		return Trajectory{}, err
	}
	y, err := yv.SelPid(pid)
	if err != nil {
		return Trajectory{}, err
	}
	return Trajectory{X: x, Y: y}, nil
}

// Ftime formats the time of step n truncated to seconds ("s", the
// default), minutes ("m") or hours ("h").
func (ps *ParticleSet) Ftime(n int, unit string) (string, error) {
	if n < 0 || n >= ps.NumTimes {
		return "", fmt.Errorf("%w: time index %d", ErrOutOfBounds, n)
	}
	layout := "2006-01-02T15:04:05"
	switch unit {
	case "", "s":
	case "m":
		layout = "2006-01-02T15:04"
	case "h":
		layout = "2006-01-02T15"
	default:
		return "", fmt.Errorf("unknown time unit %q", unit)
	}
	return ps.Time[n].Format(layout), nil
}

// Equal reports whether the two sets hold bit-for-bit identical data.
func (ps *ParticleSet) Equal(other *ParticleSet) bool {
	return ps.ds.Identical(other.ds)
}

// ToNetCDF writes the underlying dataset to a netCDF file.
func (ps *ParticleSet) ToNetCDF(path string) error {
	return dataset.ToNetCDF(ps.ds, path)
}

// Close releases the underlying dataset handle. The set must not be
// read afterwards.
func (ps *ParticleSet) Close() error {
	return ps.ds.Close()
}

// String gives a summary in the style of the original repr.
func (ps *ParticleSet) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<postladim.ParticleSet>\n")
	fmt.Fprintf(&b, "num_times: %d, num_particles: %d, num_instances: %d\n",
		ps.NumTimes, ps.NumParticles, ps.NumInstances)
	fmt.Fprintf(&b, "time: %s\n", timesStr(ps.Time))
	fmt.Fprintf(&b, "count: %s\n", intsStr(ps.Count))
	fmt.Fprintf(&b, "Instance variables:\n")
	for _, name := range ps.InstanceVariables {
		iv := ps.vars[name].(*InstanceVariable)
		fmt.Fprintf(&b, "  %-16s %s\n", name, floatsStr(iv.Values()))
	}
	fmt.Fprintf(&b, "Particle variables:\n")
	for _, name := range ps.ParticleVariables {
		pv := ps.vars[name].(*ParticleVariable)
		fmt.Fprintf(&b, "  %-16s %s\n", name, columnStr(pv.Column()))
	}
	if len(ps.ds.Attrs) > 0 {
		fmt.Fprintf(&b, "Attributes:\n")
		for _, k := range sortedKeys(ps.ds.Attrs) {
			fmt.Fprintf(&b, "  %-16s %s\n", k, ps.ds.Attrs[k])
		}
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
