package dataset

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Calendar-string layouts accepted for value-based time lookup, from
// most to least specific. All timestamps are UTC.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15",
	"2006-01-02 15",
	"2006-01-02",
}

// ParseTime parses a calendar string such as "2022-05-16 02" into a
// UTC timestamp.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dataset: cannot parse time %q", s)
}

// cfUnit is one step of a CF time coordinate, e.g. the "seconds" of
// "seconds since 1970-01-01 00:00:00".
var cfUnits = map[string]time.Duration{
	"seconds": time.Second,
	"second":  time.Second,
	"minutes": time.Minute,
	"minute":  time.Minute,
	"hours":   time.Hour,
	"hour":    time.Hour,
	"days":    24 * time.Hour,
	"day":     24 * time.Hour,
}

// parseCFUnits splits a CF units attribute into a step duration and a
// reference time. Returns ok=false for units that are not a time
// coordinate at all.
func parseCFUnits(units string) (step time.Duration, ref time.Time, ok bool, err error) {
	fields := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(fields) != 2 {
		return 0, time.Time{}, false, nil
	}
	step, found := cfUnits[strings.ToLower(strings.TrimSpace(fields[0]))]
	if !found {
		return 0, time.Time{}, false, nil
	}
	ref, err = ParseTime(strings.TrimSpace(fields[1]))
	if err != nil {
		return 0, time.Time{}, true, fmt.Errorf("dataset: bad time units %q: %v", units, err)
	}
	return step, ref, true, nil
}

// decodeCFTime converts numeric offsets with a CF units attribute into
// timestamps.
func decodeCFTime(units string, col *Column) (*Column, error) {
	step, ref, ok, err := parseCFUnits(units)
	if err != nil {
		return nil, err
	}
	if !ok {
		return col, nil
	}
	vals, err := col.Floats()
	if err != nil {
		return nil, fmt.Errorf("dataset: time coordinate: %v", err)
	}
	times := make([]time.Time, len(vals))
	for i, v := range vals {
		// Split off the integral part: epoch-scale offsets times a
		// nanosecond step overflow float64 precision.
		whole, frac := math.Modf(v)
		times[i] = ref.Add(time.Duration(whole)*step + time.Duration(frac*float64(step)))
	}
	return &Column{Dims: col.Dims, Data: times, Attrs: col.Attrs}, nil
}

const cfEpochUnits = "seconds since 1970-01-01 00:00:00"

// encodeCFTime converts timestamps back to integer seconds since the
// epoch with a matching units attribute, for writing.
func encodeCFTime(times []time.Time) (units string, vals []int64) {
	vals = make([]int64, len(times))
	for i, t := range times {
		vals[i] = t.Unix()
	}
	return cfEpochUnits, vals
}
