package postladim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFloatsStr(t *testing.T) {
	assert.Equal(t, "", floatsStr(nil))
	assert.Equal(t, "1 2 3", floatsStr([]float64{1, 2, 3}))
	assert.Equal(t, "0 1 ... 23", floatsStr([]float64{0, 1, 11, 2, 22, 23}))
}

func TestIntsStr(t *testing.T) {
	assert.Equal(t, "1 2 ... 1", intsStr([]int{1, 2, 2, 1}))
}

func TestTimeStr(t *testing.T) {
	table := []struct {
		in   string
		want string
	}{
		{"2022-05-16T00:00:00", "2022-05-16"},
		{"2022-05-16T02:00:00", "2022-05-16T02"},
		{"2022-05-16T02:30:00", "2022-05-16T02:30"},
		{"2022-05-16T02:30:15", "2022-05-16T02:30:15"},
	}
	for _, line := range table {
		tv, err := time.Parse("2006-01-02T15:04:05", line.in)
		assert.NoError(t, err)
		assert.Equal(t, line.want, timeStr(tv), line.in)
	}
}
