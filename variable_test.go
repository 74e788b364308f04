package postladim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// testVariable is the running example: four hourly time steps, three
// particles. Particle 0 is present the first three steps, particle 1
// only at step 1, particle 2 at steps 2 and 3.
//
//	count = [1, 2, 2, 1]
//	pid   = [0, 0, 1, 0, 2, 2]
//	data  = [0, 1, 11, 2, 22, 23]
func testVariable(t *testing.T) *InstanceVariable {
	t.Helper()
	v, err := NewInstanceVariable(
		"X",
		[]float64{0, 1, 11, 2, 22, 23},
		[]int{0, 0, 1, 0, 2, 2},
		hourly("2022-05-16T00:00:00", 4),
		[]int{1, 2, 2, 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func hourly(start string, n int) []time.Time {
	t0, err := time.Parse("2006-01-02T15:04:05", start)
	if err != nil {
		panic(err)
	}
	times := make([]time.Time, n)
	for i := range times {
		times[i] = t0.Add(time.Duration(i) * time.Hour)
	}
	return times
}

func TestNewInstanceVariable(t *testing.T) {
	v := testVariable(t)
	assert.Equal(t, "X", v.Name())
	assert.Equal(t, 4, v.NumTimes())
	assert.Equal(t, 3, v.NumParticles())
	assert.Equal(t, 6, v.NumInstances())
	assert.Equal(t, []int{0, 1, 2}, v.Particles())
	assert.Equal(t, 4, v.Len())
}

func TestNewInstanceVariableBadLengths(t *testing.T) {
	times := hourly("2022-05-16T00:00:00", 4)

	// one data value too few for the count array
	_, err := NewInstanceVariable(
		"X", []float64{0, 1, 11, 2, 22}, []int{0, 0, 1, 0, 2, 2},
		times, []int{1, 2, 2, 1},
	)
	assert.Error(t, err)

	// too few time values
	_, err = NewInstanceVariable(
		"X", []float64{0, 1, 11, 2, 22, 23}, []int{0, 0, 1, 0, 2, 2},
		times[:3], []int{1, 2, 2, 1},
	)
	assert.Error(t, err)
}

func TestIsel(t *testing.T) {
	v := testVariable(t)

	s, err := v.Isel(1)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 11}, s.Values)
	assert.Equal(t, []int{0, 1}, s.Pid)
	assert.Equal(t, v.Times()[1], s.Time[0])
	assert.Equal(t, v.Times()[1], s.Time[1])

	s, err = v.Isel(3)
	assert.NoError(t, err)
	assert.Equal(t, []float64{23}, s.Values)
	assert.Equal(t, []int{2}, s.Pid)
}

func TestIselOutOfBounds(t *testing.T) {
	v := testVariable(t)
	_, err := v.Isel(4)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = v.Isel(-1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestTimeSlice(t *testing.T) {
	v := testVariable(t)

	w, err := v.TimeSlice(1, 3, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, w.NumTimes())
	assert.Equal(t, 4, w.NumInstances())
	assert.Equal(t, []float64{1, 11, 2, 22}, w.Values())
	assert.Equal(t, []int{0, 1, 0, 2}, w.Pid())
	assert.Equal(t, v.Times()[1:3], w.Times())

	// bounds are clamped
	w, err = v.TimeSlice(-2, 10, 1)
	assert.NoError(t, err)
	assert.Equal(t, v.NumTimes(), w.NumTimes())
	assert.Equal(t, v.Values(), w.Values())

	// an empty range is fine
	w, err = v.TimeSlice(2, 2, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, w.NumTimes())
	assert.Equal(t, 0, w.NumInstances())
}

func TestTimeSliceStep(t *testing.T) {
	v := testVariable(t)
	_, err := v.TimeSlice(0, 4, 2)
	assert.ErrorIs(t, err, ErrUnsupportedStep)
	_, err = v.TimeSlice(4, 0, -1)
	assert.ErrorIs(t, err, ErrUnsupportedStep)
}

func TestSelTime(t *testing.T) {
	v := testVariable(t)

	s, err := v.SelTime(v.Times()[2])
	assert.NoError(t, err)
	assert.Equal(t, []float64{2, 22}, s.Values)
	assert.Equal(t, []int{0, 2}, s.Pid)

	_, err = v.SelTime(v.Times()[0].Add(30 * time.Minute))
	assert.ErrorIs(t, err, ErrTimeNotFound)
}

func TestSelTimeString(t *testing.T) {
	v := testVariable(t)

	// several calendar spellings resolve to the same step
	for _, spelling := range []string{
		"2022-05-16T02:00:00",
		"2022-05-16 02:00",
		"2022-05-16 02",
	} {
		s, err := v.SelTimeString(spelling)
		assert.NoError(t, err, spelling)
		assert.Equal(t, []float64{2, 22}, s.Values, spelling)
	}

	_, err := v.SelTimeString("2022-05-17 00")
	assert.ErrorIs(t, err, ErrTimeNotFound)
	_, err = v.SelTimeString("not a time")
	assert.ErrorIs(t, err, ErrTimeNotFound)
}

func TestSelPid(t *testing.T) {
	v := testVariable(t)

	table := []struct {
		pid    int
		values []float64
		steps  []int
	}{
		{0, []float64{0, 1, 2}, []int{0, 1, 2}},
		{1, []float64{11}, []int{1}},
		{2, []float64{22, 23}, []int{2, 3}},
	}
	for _, line := range table {
		s, err := v.SelPid(line.pid)
		assert.NoError(t, err)
		assert.Equal(t, line.values, s.Values, "values for pid %d", line.pid)
		for k, step := range line.steps {
			assert.Equal(t, v.Times()[step], s.Time[k], "time %d for pid %d", k, line.pid)
			assert.Equal(t, line.pid, s.Pid[k])
		}
	}

	_, err := v.SelPid(3)
	assert.ErrorIs(t, err, ErrPidNotFound)
}

// selPidNaive is the obvious per-step scan, used as an oracle for the
// binary-search version.
func selPidNaive(v *InstanceVariable, pid int) Slice {
	var s Slice
	for t := 0; t < v.NumTimes(); t++ {
		step, err := v.Isel(t)
		if err != nil {
			panic(err)
		}
		for i, p := range step.Pid {
			if p == pid {
				s.Values = append(s.Values, step.Values[i])
				s.Pid = append(s.Pid, p)
				s.Time = append(s.Time, step.Time[i])
			}
		}
	}
	return s
}

func TestSelPidAgainstNaive(t *testing.T) {
	v := testVariable(t)
	for _, pid := range v.Particles() {
		want := selPidNaive(v, pid)
		got, err := v.SelPid(pid)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "pid %d", pid)
	}
}

// A particle skipping time steps, and steps with zero particles, must
// not confuse the time labeling.
func TestSelPidGaps(t *testing.T) {
	v, err := NewInstanceVariable(
		"X",
		[]float64{1, 2, 3, 4, 5},
		[]int{0, 1, 0, 0, 1},
		hourly("2022-05-16T00:00:00", 5),
		[]int{2, 0, 1, 0, 2},
	)
	assert.NoError(t, err)

	s, err := v.SelPid(1)
	assert.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, s.Values)
	assert.Equal(t, v.Times()[0], s.Time[0])
	assert.Equal(t, v.Times()[4], s.Time[1])

	for _, pid := range v.Particles() {
		got, err := v.SelPid(pid)
		assert.NoError(t, err)
		assert.Equal(t, selPidNaive(v, pid), got, "pid %d", pid)
	}
}

func TestSel(t *testing.T) {
	v := testVariable(t)
	pid := 2

	s, err := v.Sel(Sel{Pid: &pid})
	assert.NoError(t, err)
	assert.Equal(t, []float64{22, 23}, s.Values)

	s, err = v.Sel(Sel{Time: "2022-05-16 02"})
	assert.NoError(t, err)
	assert.Equal(t, []float64{2, 22}, s.Values)

	s, err = v.Sel(Sel{Pid: &pid, Time: "2022-05-16 02"})
	assert.NoError(t, err)
	assert.Equal(t, []float64{22}, s.Values)
	assert.Equal(t, []int{2}, s.Pid)
	assert.Equal(t, v.Times()[2], s.Time[0])

	// the particle exists but not at that time
	pid1 := 1
	_, err = v.Sel(Sel{Pid: &pid1, Time: "2022-05-16 02"})
	assert.ErrorIs(t, err, ErrPidNotFound)

	_, err = v.Sel(Sel{})
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestToDense(t *testing.T) {
	v := testVariable(t)
	d := v.ToDense()

	assert.Equal(t, []int{0, 1, 2}, d.Pid)
	assert.Equal(t, v.Times(), d.Time)
	assert.Equal(t, 4, len(d.Values))

	nan := math.NaN()
	expected := [][]float64{
		{0, nan, nan},
		{1, 11, nan},
		{2, nan, 22},
		{nan, nan, 23},
	}
	for t0, row := range expected {
		for j, want := range row {
			got := d.Values[t0][j]
			if math.IsNaN(want) {
				assert.True(t, math.IsNaN(got), "NaN at (%d, %d)", t0, j)
			} else {
				assert.Equal(t, want, got, "cell (%d, %d)", t0, j)
			}
		}
	}
}

func TestDenseAt(t *testing.T) {
	v := testVariable(t)
	d := v.ToDense()

	val, err := d.At(1, 1)
	assert.NoError(t, err)
	assert.Equal(t, 11.0, val)

	_, err = d.At(4, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = d.At(0, 3)
	assert.ErrorIs(t, err, ErrPidNotFound)
}

func TestAt(t *testing.T) {
	v := testVariable(t)

	val, err := v.At(1, 1)
	assert.NoError(t, err)
	assert.Equal(t, 11.0, val)

	val, err = v.At(2, 2)
	assert.NoError(t, err)
	assert.Equal(t, 22.0, val)

	// absence at a valid pair is NaN, not an error
	val, err = v.At(2, 1)
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(val))

	_, err = v.At(4, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = v.At(0, 3)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestSliceByPid(t *testing.T) {
	v := testVariable(t)
	s, err := v.Isel(2)
	assert.NoError(t, err)

	val, ok := s.ByPid(2)
	assert.True(t, ok)
	assert.Equal(t, 22.0, val)

	_, ok = s.ByPid(1)
	assert.False(t, ok)
}

func TestUniqueInts(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, uniqueInts([]int{2, 0, 1, 0, 2, 2}))
	assert.Nil(t, uniqueInts(nil))
}
