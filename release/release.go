/*Package release reads LADiM-style particle release files: plain text
tables of whitespace-separated numeric columns, one row per released
particle.
*/
package release

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/phil-mansfield/table"
	"github.com/pkg/errors"
)

// Read extracts the given zero-based columns from a release file.
// Files with a ".gz" suffix are decompressed first.
func Read(path string, cols []int) ([][]float64, error) {
	if strings.HasSuffix(path, ".gz") {
		tmp, err := gunzipToTemp(path)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		path = tmp
	}
	out, err := readTable(path, cols)
	if err != nil {
		return nil, errors.Wrapf(err, "release: read %s", path)
	}
	return out, nil
}

// ReadPositions extracts the release positions from the given columns.
func ReadPositions(path string, xCol, yCol int) (xs, ys []float64, err error) {
	cols, err := Read(path, []int{xCol, yCol})
	if err != nil {
		return nil, nil, err
	}
	return cols[0], cols[1], nil
}

// readTable adapts the table package's panic-based API to the error
// return the old table.ReadTable provided.
func readTable(path string, cols []int) (out [][]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%v", r)
		}
	}()
	return table.TextFile(path).ReadFloat64s(cols), nil
}

func gunzipToTemp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "release: open %s", path)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", errors.Wrapf(err, "release: decompress %s", path)
	}
	defer zr.Close()

	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	tmp, err := os.CreateTemp("", base)
	if err != nil {
		return "", errors.Wrapf(err, "release: decompress %s", path)
	}
	if _, err := io.Copy(tmp, zr); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "release: decompress %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "release: decompress %s", path)
	}
	return tmp.Name(), nil
}
