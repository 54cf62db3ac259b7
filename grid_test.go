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
	"testing"

	"github.com/ctessum/sparse"
)

func dense1d(vals ...float64) *sparse.DenseArray {
	d := sparse.ZerosDense(len(vals))
	copy(d.Elements, vals)
	return d
}

func dense2d(ny, nx int, vals ...float64) *sparse.DenseArray {
	d := sparse.ZerosDense(ny, nx)
	copy(d.Elements, vals)
	return d
}

func TestHaversine(t *testing.T) {
	// Delhi to Mumbai is about 1150 km.
	d := haversine(28.6139, 77.2090, 19.0760, 72.8777)
	if d < 1130 || d > 1170 {
		t.Errorf("Delhi-Mumbai distance: want roughly 1150 km but have %g", d)
	}
	if d := haversine(25, 80, 25, 80); d != 0 {
		t.Errorf("distance of a point to itself: want 0 but have %g", d)
	}
}

func TestNearestScenario(t *testing.T) {
	grid, err := NewGrid(dense1d(10, 20), dense1d(100, 110))
	if err != nil {
		t.Fatal(err)
	}
	row, col, _ := grid.Nearest(19, 109)
	if row != 1 || col != 1 {
		t.Errorf("nearest index: want (1,1) but have (%d,%d)", row, col)
	}
	data := dense2d(2, 2, 1, 2, 3, 4)
	v, err := grid.ValueAt(data, row, col)
	if err != nil {
		t.Fatal(err)
	}
	if v != 4 {
		t.Errorf("value at (1,1): want 4 but have %g", v)
	}
}

func TestNearestExactCell(t *testing.T) {
	lat := dense1d(8, 12, 16, 20)
	lon := dense1d(70, 74, 78)
	grid, err := NewGrid(lat, lon)
	if err != nil {
		t.Fatal(err)
	}
	for i := range lat.Elements {
		for j := range lon.Elements {
			row, col, dist := grid.Nearest(lat.Elements[i], lon.Elements[j])
			if row != i || col != j {
				t.Errorf("site at cell (%d,%d): want that cell but have (%d,%d)", i, j, row, col)
			}
			if dist != 0 {
				t.Errorf("site at cell (%d,%d): want distance 0 but have %g", i, j, dist)
			}
		}
	}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	lat := dense1d(6.5, 9.25, 13.75, 22, 30.5)
	lon := dense1d(68, 72.5, 77.75, 85, 92.5, 97)
	grid, err := NewGrid(lat, lon)
	if err != nil {
		t.Fatal(err)
	}
	sites := [][2]float64{
		{13.1278, 80.2642},
		{26.428282, 80.327067},
		{-4, 100},
		{30.5, 68},
		{19.3, 73.1},
	}
	for _, s := range sites {
		row, col, _ := grid.Nearest(s[0], s[1])
		// Independent scan over the flattened meshgrid.
		best, bestD := -1, math.Inf(1)
		for k := 0; k < len(lat.Elements)*len(lon.Elements); k++ {
			la := lat.Elements[k/len(lon.Elements)]
			lo := lon.Elements[k%len(lon.Elements)]
			if d := haversine(s[0], s[1], la, lo); d < bestD {
				best, bestD = k, d
			}
		}
		if have := row*len(lon.Elements) + col; have != best {
			t.Errorf("site %v: want flat index %d but have %d", s, best, have)
		}
	}
}

func TestNewGrid2D(t *testing.T) {
	lat := dense2d(2, 3, 10, 10, 10, 20, 20, 20)
	lon := dense2d(2, 3, 100, 105, 110, 100, 105, 110)
	grid, err := NewGrid(lat, lon)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Ny() != 2 || grid.Nx() != 3 {
		t.Errorf("grid shape: want (2,3) but have (%d,%d)", grid.Ny(), grid.Nx())
	}
	row, col, _ := grid.Nearest(19, 104)
	if row != 1 || col != 1 {
		t.Errorf("nearest index: want (1,1) but have (%d,%d)", row, col)
	}
}

func TestNewGridBroadcast(t *testing.T) {
	lat := dense2d(2, 3, 10, 10, 10, 20, 20, 20)
	lon := dense1d(100, 105, 110)
	grid, err := NewGrid(lat, lon)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Lon.Get(1, 2) != 110 {
		t.Errorf("broadcast longitude at (1,2): want 110 but have %g", grid.Lon.Get(1, 2))
	}
}

func TestNewGridShapeIncompatible(t *testing.T) {
	lat := dense2d(2, 3, 10, 10, 10, 20, 20, 20)
	lon := dense2d(3, 2, 100, 105, 110, 100, 105, 110)
	if _, err := NewGrid(lat, lon); err == nil {
		t.Error("want a shape error for mismatched 2-D coordinates but have nil")
	} else if _, ok := err.(*ShapeError); !ok {
		t.Errorf("want *ShapeError but have %T", err)
	}
}

func TestValueAtTranspose(t *testing.T) {
	grid, err := NewGrid(dense1d(10, 20), dense1d(100, 105, 110))
	if err != nil {
		t.Fatal(err)
	}
	// Data stored with axes swapped relative to the coordinates.
	transposed := sparse.ZerosDense(3, 2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			transposed.Set(float64(i*3+j), j, i)
		}
	}
	v, err := grid.ValueAt(transposed, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Errorf("transposed read at (1,2): want 5 but have %g", v)
	}
}

func TestValueAtLeadingSingleton(t *testing.T) {
	grid, err := NewGrid(dense1d(10, 20), dense1d(100, 110))
	if err != nil {
		t.Fatal(err)
	}
	data := sparse.ZerosDense(1, 2, 2)
	copy(data.Elements, []float64{1, 2, 3, 4})
	v, err := grid.ValueAt(data, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 3 {
		t.Errorf("read after dropping singleton: want 3 but have %g", v)
	}
}

func TestValueAtIncompatible(t *testing.T) {
	grid, err := NewGrid(dense1d(10, 20), dense1d(100, 110))
	if err != nil {
		t.Fatal(err)
	}
	data := sparse.ZerosDense(3, 3)
	if _, err := grid.ValueAt(data, 0, 0); err == nil {
		t.Error("want a shape error for a 3x3 array on a 2x2 grid but have nil")
	} else if _, ok := err.(*ShapeError); !ok {
		t.Errorf("want *ShapeError but have %T", err)
	}
}
