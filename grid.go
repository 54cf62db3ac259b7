/*
Copyright © 2025 the aqdata authors.
This file is part of aqdata.

aqdata is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

aqdata is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with aqdata.  If not, see <http://www.gnu.org/licenses/>.
*/

package aqdata

import (
	"math"

	"github.com/ctessum/sparse"
)

// earthRadiusKm is the mean Earth radius used for great-circle
// distances.
const earthRadiusKm = 6371.

// haversine returns the great-circle distance [km] between two
// latitude/longitude points [degrees]. All arithmetic is float64.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180
	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Pow(math.Sin(dlon/2), 2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// A Grid pairs 2-D latitude and longitude coordinate arrays
// describing the geometry of a gridded geophysical variable.
type Grid struct {
	// Lat and Lon both have shape (ny, nx) where rows follow the
	// latitude axis and columns follow the longitude axis.
	Lat, Lon *sparse.DenseArray
}

// NewGrid builds a grid from latitude and longitude coordinate
// arrays. Two 1-D arrays are expanded to a common 2-D shape with
// rows following latitude and columns following longitude. Two 2-D
// arrays of equal shape are used directly. A 2-D array paired with a
// 1-D array whose length matches the corresponding axis is broadcast
// along the other axis. Anything else cannot describe a single grid
// and returns a ShapeError.
func NewGrid(lat, lon *sparse.DenseArray) (*Grid, error) {
	switch {
	case len(lat.Shape) == 1 && len(lon.Shape) == 1:
		ny, nx := lat.Shape[0], lon.Shape[0]
		la := sparse.ZerosDense(ny, nx)
		lo := sparse.ZerosDense(ny, nx)
		for i := 0; i < ny; i++ {
			for j := 0; j < nx; j++ {
				la.Set(lat.Elements[i], i, j)
				lo.Set(lon.Elements[j], i, j)
			}
		}
		return &Grid{Lat: la, Lon: lo}, nil
	case len(lat.Shape) == 2 && len(lon.Shape) == 2 &&
		lat.Shape[0] == lon.Shape[0] && lat.Shape[1] == lon.Shape[1]:
		return &Grid{Lat: lat, Lon: lon}, nil
	case len(lat.Shape) == 2 && len(lon.Shape) == 1 && lon.Shape[0] == lat.Shape[1]:
		lo := sparse.ZerosDense(lat.Shape[0], lat.Shape[1])
		for i := 0; i < lat.Shape[0]; i++ {
			for j := 0; j < lat.Shape[1]; j++ {
				lo.Set(lon.Elements[j], i, j)
			}
		}
		return &Grid{Lat: lat, Lon: lo}, nil
	case len(lon.Shape) == 2 && len(lat.Shape) == 1 && lat.Shape[0] == lon.Shape[0]:
		la := sparse.ZerosDense(lon.Shape[0], lon.Shape[1])
		for i := 0; i < lon.Shape[0]; i++ {
			for j := 0; j < lon.Shape[1]; j++ {
				la.Set(lat.Elements[i], i, j)
			}
		}
		return &Grid{Lat: la, Lon: lon}, nil
	}
	return nil, &ShapeError{Context: "building coordinate grid", Shape: lat.Shape, Want: lon.Shape}
}

// Ny returns the number of rows (latitude axis).
func (g *Grid) Ny() int { return g.Lat.Shape[0] }

// Nx returns the number of columns (longitude axis).
func (g *Grid) Nx() int { return g.Lat.Shape[1] }

// Nearest returns the row/column index of the grid cell closest to
// the given point, along with the great-circle distance [km] to it.
// Every cell is scanned in row-major order; when two cells are
// exactly equidistant the first one scanned wins. The tie-break is
// implementation-defined, not a contract.
func (g *Grid) Nearest(lat, lon float64) (row, col int, dist float64) {
	dist = math.Inf(1)
	ny, nx := g.Ny(), g.Nx()
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			k := i*nx + j
			d := haversine(lat, lon, g.Lat.Elements[k], g.Lon.Elements[k])
			if d < dist {
				dist = d
				row, col = i, j
			}
		}
	}
	return row, col, dist
}

// ValueAt reads data at the given coordinate-grid index. The data
// array must either match the coordinate grid shape, match its
// transpose (in which case the value is read at the swapped index),
// or match one of those after dropping a leading singleton
// dimension. Anything else returns a ShapeError.
func (g *Grid) ValueAt(data *sparse.DenseArray, row, col int) (float64, error) {
	ny, nx := g.Ny(), g.Nx()
	switch {
	case len(data.Shape) == 2 && data.Shape[0] == ny && data.Shape[1] == nx:
		return data.Get(row, col), nil
	case len(data.Shape) == 2 && data.Shape[0] == nx && data.Shape[1] == ny:
		return data.Get(col, row), nil
	case len(data.Shape) == 3 && data.Shape[0] == 1:
		sub := sparse.ZerosDense(data.Shape[1], data.Shape[2])
		copy(sub.Elements, data.Elements)
		return g.ValueAt(sub, row, col)
	}
	return math.NaN(), &ShapeError{Context: "reading variable at grid index", Shape: data.Shape, Want: []int{ny, nx}}
}
