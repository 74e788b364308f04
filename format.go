package postladim

import (
	"fmt"
	"strings"
	"time"

	"github.com/bjornaa/postladim/dataset"
)

// Short array previews for String() methods: the first two items, an
// ellipsis, and the last, matching the original repr convention.

func previewStr(n int, item func(int) string) string {
	parts := make([]string, 0, 4)
	if n <= 3 {
		for i := 0; i < n; i++ {
			parts = append(parts, item(i))
		}
	} else {
		parts = append(parts, item(0), item(1), "...", item(n-1))
	}
	return strings.Join(parts, " ")
}

func floatsStr(xs []float64) string {
	return previewStr(len(xs), func(i int) string { return fmt.Sprintf("%g", xs[i]) })
}

func intsStr(xs []int) string {
	return previewStr(len(xs), func(i int) string { return fmt.Sprintf("%d", xs[i]) })
}

func timesStr(ts []time.Time) string {
	return previewStr(len(ts), func(i int) string { return timeStr(ts[i]) })
}

// timeStr formats a timestamp with trailing zero time-of-day trimmed,
// like "2022-05-16" or "2022-05-16T02".
func timeStr(t time.Time) string {
	s := t.Format("2006-01-02T15:04:05")
	s = strings.TrimSuffix(s, ":00")
	s = strings.TrimSuffix(s, ":00")
	return strings.TrimSuffix(s, "T00")
}

func columnStr(col *dataset.Column) string {
	if ts, err := col.Times(); err == nil {
		return timesStr(ts)
	}
	if xs, err := col.Floats(); err == nil {
		return floatsStr(xs)
	}
	if ss, err := col.Strings(); err == nil {
		return previewStr(len(ss), func(i int) string { return ss[i] })
	}
	return fmt.Sprintf("<%d values>", col.Len())
}
