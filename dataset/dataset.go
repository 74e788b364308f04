/*Package dataset provides the labeled-column storage layer backing the
postladim core: named one-dimensional columns with dimension tags,
integer-offset slicing, and a netCDF file backend.
*/
package dataset

import (
	"fmt"
	"io"
	"reflect"
	"time"
)

// Column is a named one-dimensional array tagged with the dimension it
// varies over. Data holds one of the supported slice kinds:
// []float64, []float32, []int64, []int32, []int16, []int8, []uint8,
// []int, []string or []time.Time.
type Column struct {
	Dims  []string
	Data  interface{}
	Attrs map[string]string
}

// Dim returns the single dimension tag of the column.
func (c *Column) Dim() string {
	if len(c.Dims) == 0 {
		return ""
	}
	return c.Dims[0]
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	if c.Data == nil {
		return 0
	}
	return reflect.ValueOf(c.Data).Len()
}

// Floats converts the column values to float64.
func (c *Column) Floats() ([]float64, error) {
	switch d := c.Data.(type) {
	case []float64:
		return d, nil
	case []float32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []uint8:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	case []int:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("dataset: column holds %T, not numeric", c.Data)
}

// Ints converts the column values to int.
func (c *Column) Ints() ([]int, error) {
	switch d := c.Data.(type) {
	case []int:
		return d, nil
	case []int64:
		out := make([]int, len(d))
		for i, v := range d {
			out[i] = int(v)
		}
		return out, nil
	case []int32:
		out := make([]int, len(d))
		for i, v := range d {
			out[i] = int(v)
		}
		return out, nil
	case []int16:
		out := make([]int, len(d))
		for i, v := range d {
			out[i] = int(v)
		}
		return out, nil
	case []int8:
		out := make([]int, len(d))
		for i, v := range d {
			out[i] = int(v)
		}
		return out, nil
	case []uint8:
		out := make([]int, len(d))
		for i, v := range d {
			out[i] = int(v)
		}
		return out, nil
	case []float64:
		out := make([]int, len(d))
		for i, v := range d {
			out[i] = int(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("dataset: column holds %T, not integer", c.Data)
}

// Times returns the column values as timestamps.
func (c *Column) Times() ([]time.Time, error) {
	if d, ok := c.Data.([]time.Time); ok {
		return d, nil
	}
	return nil, fmt.Errorf("dataset: column holds %T, not time", c.Data)
}

// Strings returns the column values as strings.
func (c *Column) Strings() ([]string, error) {
	if d, ok := c.Data.([]string); ok {
		return d, nil
	}
	return nil, fmt.Errorf("dataset: column holds %T, not string", c.Data)
}

// IsTime reports whether the column holds timestamps.
func (c *Column) IsTime() bool {
	_, ok := c.Data.([]time.Time)
	return ok
}

func (c *Column) slice(start, stop int) *Column {
	v := reflect.ValueOf(c.Data)
	return &Column{Dims: c.Dims, Data: v.Slice(start, stop).Interface(), Attrs: c.Attrs}
}

func (c *Column) take(idx []int) *Column {
	v := reflect.ValueOf(c.Data)
	out := reflect.MakeSlice(v.Type(), len(idx), len(idx))
	for k, i := range idx {
		out.Index(k).Set(v.Index(i))
	}
	return &Column{Dims: c.Dims, Data: out.Interface(), Attrs: c.Attrs}
}

func (c *Column) equal(o *Column) bool {
	return reflect.DeepEqual(c.Dims, o.Dims) &&
		reflect.DeepEqual(c.Attrs, o.Attrs) &&
		reflect.DeepEqual(c.Data, o.Data)
}

// Dataset is an ordered set of named columns sharing dimensions, plus
// dataset-level attributes. It may own an underlying file handle;
// datasets derived by Slice or Take never do.
type Dataset struct {
	names []string
	vars  map[string]*Column
	dims  map[string]int
	Attrs map[string]string
	src   io.Closer
}

// New returns an empty in-memory dataset.
func New() *Dataset {
	return &Dataset{
		vars:  make(map[string]*Column),
		dims:  make(map[string]int),
		Attrs: make(map[string]string),
	}
}

// AddColumn registers a column under the given name. The column must be
// one-dimensional and its length must agree with any column already
// sharing the dimension.
func (d *Dataset) AddColumn(name string, col *Column) error {
	if len(col.Dims) != 1 {
		return fmt.Errorf("dataset: variable %q must have exactly one dimension", name)
	}
	if _, ok := d.vars[name]; ok {
		return fmt.Errorf("dataset: variable %q already present", name)
	}
	dim := col.Dims[0]
	if n, ok := d.dims[dim]; ok && n != col.Len() {
		return fmt.Errorf(
			"dataset: variable %q has length %d, dimension %q has length %d",
			name, col.Len(), dim, n,
		)
	}
	d.dims[dim] = col.Len()
	d.names = append(d.names, name)
	d.vars[name] = col
	return nil
}

// Names returns the variable names in registration order.
func (d *Dataset) Names() []string { return d.names }

// Has reports whether the dataset holds a variable with the given name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// Get returns the named column.
func (d *Dataset) Get(name string) (*Column, error) {
	col, ok := d.vars[name]
	if !ok {
		return nil, fmt.Errorf("dataset: no variable %q", name)
	}
	return col, nil
}

// Dim returns the length of the named dimension.
func (d *Dataset) Dim(name string) (int, bool) {
	n, ok := d.dims[name]
	return n, ok
}

// Slice returns a new dataset with every column along dim narrowed to
// [start, stop). Columns on other dimensions are carried unchanged and
// may alias the parent's arrays. Bounds are clamped. An unknown
// dimension yields an unchanged copy.
func (d *Dataset) Slice(dim string, start, stop int) *Dataset {
	n, ok := d.dims[dim]
	if !ok {
		return d.shallowCopy()
	}
	if start < 0 {
		start = 0
	}
	if stop > n {
		stop = n
	}
	if stop < start {
		stop = start
	}
	out := d.shallowCopy()
	out.dims[dim] = stop - start
	for _, name := range d.names {
		if col := d.vars[name]; col.Dim() == dim {
			out.vars[name] = col.slice(start, stop)
		}
	}
	return out
}

// Take returns a new dataset with every column along dim reduced to the
// values at the given positions, in the given order.
func (d *Dataset) Take(dim string, idx []int) *Dataset {
	if _, ok := d.dims[dim]; !ok {
		return d.shallowCopy()
	}
	out := d.shallowCopy()
	out.dims[dim] = len(idx)
	for _, name := range d.names {
		if col := d.vars[name]; col.Dim() == dim {
			out.vars[name] = col.take(idx)
		}
	}
	return out
}

// WithColumn returns a copy of the dataset with the named column added
// or replaced.
func (d *Dataset) WithColumn(name string, col *Column) *Dataset {
	out := d.shallowCopy()
	if _, ok := out.vars[name]; !ok {
		out.names = append(out.names, name)
	}
	out.vars[name] = col
	out.dims[col.Dim()] = col.Len()
	return out
}

func (d *Dataset) shallowCopy() *Dataset {
	out := &Dataset{
		names: append([]string(nil), d.names...),
		vars:  make(map[string]*Column, len(d.vars)),
		dims:  make(map[string]int, len(d.dims)),
		Attrs: d.Attrs,
	}
	for k, v := range d.vars {
		out.vars[k] = v
	}
	for k, v := range d.dims {
		out.dims[k] = v
	}
	return out
}

// Identical reports bit-for-bit equality: same variables in the same
// order, same dimensions, same attributes, same values of the same
// underlying type.
func (d *Dataset) Identical(o *Dataset) bool {
	if !reflect.DeepEqual(d.names, o.names) || !reflect.DeepEqual(d.dims, o.dims) {
		return false
	}
	if !reflect.DeepEqual(d.Attrs, o.Attrs) {
		return false
	}
	for _, name := range d.names {
		if !d.vars[name].equal(o.vars[name]) {
			return false
		}
	}
	return true
}

// Close releases the underlying file handle, if any. The dataset must
// not be read afterwards.
func (d *Dataset) Close() error {
	if d.src == nil {
		return nil
	}
	src := d.src
	d.src = nil
	return src.Close()
}
