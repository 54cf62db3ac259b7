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
	"errors"
	"fmt"
	"strings"
)

// ErrNoData indicates that an extraction visited every file and site
// it was configured with and still produced nothing.
var ErrNoData = errors.New("aqdata: no data extracted")

// DatasetNotFoundError indicates that none of the arrays in a grid
// file matched the name hints it was searched with.
type DatasetNotFoundError struct {
	File     string
	Hints    []string
	Contains []string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("aqdata: %s: no dataset matching names [%s] or substrings [%s]",
		e.File, strings.Join(e.Hints, ", "), strings.Join(e.Contains, ", "))
}

// ShapeError indicates grid geometry that cannot be reconciled by
// broadcasting or transposition.
type ShapeError struct {
	Context     string
	Shape, Want []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("aqdata: %s: shape %v is not compatible with %v",
		e.Context, e.Shape, e.Want)
}

// MissingColumnError indicates that a table lacks every column in a
// recognized fallback list.
type MissingColumnError struct {
	File    string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("aqdata: %s: none of the columns [%s] are present",
		e.File, strings.Join(e.Columns, ", "))
}
