package dataset

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
)

func writeDataset(t *testing.T) *Dataset {
	t.Helper()
	d := New()
	cols := []struct {
		name string
		col  *Column
	}{
		{"time", &Column{Dims: []string{"time"}, Data: []time.Time{
			time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2022, 1, 1, 1, 0, 0, 0, time.UTC),
		}}},
		{"particle_count", &Column{Dims: []string{"time"}, Data: []int{1, 2}}},
		{"pid", &Column{Dims: []string{"particle_instance"}, Data: []int{0, 0, 1}}},
		{"X", &Column{
			Dims:  []string{"particle_instance"},
			Data:  []float64{1.5, 2.5, 11.5},
			Attrs: map[string]string{"units": "m"},
		}},
	}
	for _, c := range cols {
		if err := d.AddColumn(c.name, c.col); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func checkRead(t *testing.T, d *Dataset) {
	count, err := d.Get("particle_count")
	assert.NoError(t, err)
	counts, err := count.Ints()
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, counts)

	x, err := d.Get("X")
	assert.NoError(t, err)
	assert.Equal(t, "particle_instance", x.Dim())
	xs, err := x.Floats()
	assert.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 11.5}, xs)
	assert.Equal(t, "m", x.Attrs["units"])

	// the time coordinate comes back decoded
	tc, err := d.Get("time")
	assert.NoError(t, err)
	times, err := tc.Times()
	assert.NoError(t, err)
	assert.Equal(t, 2, len(times))
	assert.True(t, times[0].Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, times[1].Equal(time.Date(2022, 1, 1, 1, 0, 0, 0, time.UTC)))
}

func TestNetCDFRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.nc")
	assert.NoError(t, ToNetCDF(writeDataset(t), path))

	d, err := Open(path)
	assert.NoError(t, err)
	defer d.Close()
	checkRead(t, d)
}

func TestOpenGzip(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "out.nc")
	assert.NoError(t, ToNetCDF(writeDataset(t), plain))

	zipped := filepath.Join(dir, "out.nc.gz")
	gzipFile(t, plain, zipped)

	d, err := Open(zipped)
	assert.NoError(t, err)
	defer d.Close()
	checkRead(t, d)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no-such.nc"))
	assert.Error(t, err)
}

func gzipFile(t *testing.T, src, dst string) {
	t.Helper()
	in, err := os.Open(src)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
}
