/*Package cellcount turns a particle distribution into a concentration
field by counting, possibly weighted, particles in grid cells.
*/
package cellcount

import (
	"fmt"
	"math"
)

// Limits restricts the grid cells considered: X cells [I0, I1) and
// Y cells [J0, J1). Particles outside the limits are silently ignored.
type Limits struct {
	I0, I1, J0, J1 int
}

// Field is a particle count per grid cell, labeled by the integer cell
// coordinates. Integer indices are at the center of the grid cells.
type Field struct {
	Counts [][]float64 // [y][x]
	X      []int       // cell centers, I0..I1-1
	Y      []int       // cell centers, J0..J1-1
}

// At returns the count of the cell with the given labels.
func (f *Field) At(x, y int) (float64, error) {
	if len(f.X) == 0 || x < f.X[0] || x > f.X[len(f.X)-1] ||
		len(f.Y) == 0 || y < f.Y[0] || y > f.Y[len(f.Y)-1] {
		return 0, fmt.Errorf("cellcount: no cell (X=%d, Y=%d)", x, y)
	}
	return f.Counts[y-f.Y[0]][x-f.X[0]], nil
}

// Sum returns the total count over all cells.
func (f *Field) Sum() float64 {
	sum := 0.0
	for _, row := range f.Counts {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}

// Count counts the particles at positions (X[i], Y[i]) per grid cell.
// A particle falls in the cell whose center is nearest, i.e. cell
// round(x). W gives per-particle weights; nil counts every particle as
// one. A nil limits uses the bounding box of the positions.
func Count(X, Y, W []float64, limits *Limits) (*Field, error) {
	if len(X) != len(Y) {
		return nil, fmt.Errorf("cellcount: %d X against %d Y positions", len(X), len(Y))
	}
	if W != nil && len(W) != len(X) {
		return nil, fmt.Errorf("cellcount: %d weights for %d positions", len(W), len(X))
	}

	var lim Limits
	if limits != nil {
		lim = *limits
	} else {
		if len(X) == 0 {
			return nil, fmt.Errorf("cellcount: no positions and no grid limits")
		}
		lim = boundingBox(X, Y)
	}
	if lim.I1 < lim.I0 || lim.J1 < lim.J0 {
		return nil, fmt.Errorf("cellcount: bad grid limits %+v", lim)
	}

	nx, ny := lim.I1-lim.I0, lim.J1-lim.J0
	counts := make([][]float64, ny)
	for j := range counts {
		counts[j] = make([]float64, nx)
	}
	for k := range X {
		i := int(math.Round(X[k]))
		j := int(math.Round(Y[k]))
		if i < lim.I0 || i >= lim.I1 || j < lim.J0 || j >= lim.J1 {
			continue
		}
		w := 1.0
		if W != nil {
			w = W[k]
		}
		counts[j-lim.J0][i-lim.I0] += w
	}

	xs := make([]int, nx)
	for i := range xs {
		xs[i] = lim.I0 + i
	}
	ys := make([]int, ny)
	for j := range ys {
		ys[j] = lim.J0 + j
	}
	return &Field{Counts: counts, X: xs, Y: ys}, nil
}

// boundingBox gives the cell range covering every position.
func boundingBox(X, Y []float64) Limits {
	minX, maxX := X[0], X[0]
	minY, maxY := Y[0], Y[0]
	for k := 1; k < len(X); k++ {
		minX = math.Min(minX, X[k])
		maxX = math.Max(maxX, X[k])
		minY = math.Min(minY, Y[k])
		maxY = math.Max(maxY, Y[k])
	}
	return Limits{
		I0: int(math.Round(minX)),
		I1: int(math.Round(maxX)) + 1,
		J0: int(math.Round(minY)),
		J1: int(math.Round(maxY)) + 1,
	}
}
