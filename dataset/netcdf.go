package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Open reads a netCDF file into an in-memory dataset. Files with a
// ".gz" suffix are decompressed first. Only one-dimensional variables
// are loaded; numeric coordinates with CF time units are decoded into
// timestamps.
func Open(path string) (*Dataset, error) {
	if strings.HasSuffix(path, ".gz") {
		tmp, err := gunzipToTemp(path)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		return openFile(tmp, path)
	}
	return openFile(path, path)
}

// openFile reads the netCDF file at path; label is the caller-facing
// name used in error messages (the original .gz path, if any).
func openFile(path, label string) (*Dataset, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", label)
	}
	d := New()
	d.src = groupCloser{group}
	d.Attrs = attrsToMap(group.Attributes())

	for _, name := range group.ListVariables() {
		v, err := group.GetVariable(name)
		if err != nil {
			d.Close()
			return nil, errors.Wrapf(err, "dataset: read %s from %s", name, label)
		}
		if len(v.Dimensions) != 1 {
			continue // scalars and multi-dimensional variables are not used
		}
		col := &Column{
			Dims:  append([]string(nil), v.Dimensions...),
			Data:  v.Values,
			Attrs: attrsToMap(v.Attributes),
		}
		if units, ok := col.Attrs["units"]; ok {
			col, err = decodeCFTime(units, col)
			if err != nil {
				d.Close()
				return nil, errors.Wrapf(err, "dataset: decode %s from %s", name, label)
			}
		}
		if err := d.AddColumn(name, col); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// gunzipToTemp decompresses a .gz file into a temporary file, since the
// netCDF reader needs random access. The caller removes the file.
func gunzipToTemp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", errors.Wrapf(err, "dataset: decompress %s", path)
	}
	defer zr.Close()

	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	tmp, err := os.CreateTemp("", base)
	if err != nil {
		return "", errors.Wrapf(err, "dataset: decompress %s", path)
	}
	if _, err := io.Copy(tmp, zr); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "dataset: decompress %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "dataset: decompress %s", path)
	}
	return tmp.Name(), nil
}

// groupCloser adapts the netCDF group handle, whose Close returns
// nothing, to io.Closer.
type groupCloser struct {
	group api.Group
}

func (g groupCloser) Close() error {
	g.group.Close()
	return nil
}

func attrsToMap(attrs api.AttributeMap) map[string]string {
	out := make(map[string]string)
	if attrs == nil {
		return out
	}
	for _, key := range attrs.Keys() {
		val, ok := attrs.Get(key)
		if !ok {
			continue
		}
		if s, ok := val.(string); ok {
			out[key] = s
		} else {
			out[key] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
