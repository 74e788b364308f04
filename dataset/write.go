package dataset

import (
	"sort"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/pkg/errors"
)

// ToNetCDF writes the dataset to a netCDF (CDF) file. Time columns are
// encoded as integer seconds since the epoch with a CF units attribute,
// so reading the file back yields an identical dataset.
func ToNetCDF(d *Dataset, path string) error {
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: create %s", path)
	}
	for _, name := range d.names {
		col := d.vars[name]
		values, attrs, err := encodeColumn(col)
		if err != nil {
			cw.Close()
			return errors.Wrapf(err, "dataset: write %s to %s", name, path)
		}
		v := api.Variable{
			Values:     values,
			Dimensions: col.Dims,
			Attributes: attrs,
		}
		if err := cw.AddVar(name, v); err != nil {
			cw.Close()
			return errors.Wrapf(err, "dataset: write %s to %s", name, path)
		}
	}
	if err := cw.Close(); err != nil {
		return errors.Wrapf(err, "dataset: close %s", path)
	}
	return nil
}

// encodeColumn maps in-memory column values to types the CDF writer
// accepts. []int narrows to int32, which covers counts and pids.
func encodeColumn(col *Column) (interface{}, api.AttributeMap, error) {
	attrs := col.Attrs

	var values interface{}
	switch data := col.Data.(type) {
	case []int:
		out := make([]int32, len(data))
		for i, v := range data {
			out[i] = int32(v)
		}
		values = out
	default:
		values = col.Data
	}

	if times, ok := col.Data.([]time.Time); ok {
		units, vals := encodeCFTime(times)
		values = vals
		attrs = map[string]string{"units": units}
		for k, v := range col.Attrs {
			if k != "units" {
				attrs[k] = v
			}
		}
	}

	am, err := attrMap(attrs)
	if err != nil {
		return nil, nil, err
	}
	return values, am, nil
}

// attrMap builds the ordered attribute map the writer wants. Keys are
// sorted for deterministic output.
func attrMap(attrs map[string]string) (api.AttributeMap, error) {
	if len(attrs) == 0 {
		return util.NewOrderedMap(nil, nil)
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		vals[k] = v
	}
	return util.NewOrderedMap(keys, vals)
}
