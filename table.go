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
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// A Table is a generic in-memory CSV table: a header plus string
// rows. It carries ground-truth measurement data whose columns this
// package does not interpret beyond its date columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadTable reads a CSV table with a header row. Rows shorter than
// the header are padded with empty cells.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("aqdata: reading table: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("aqdata: table is empty")
	}
	t := &Table{Columns: rows[0]}
	for _, row := range rows[1:] {
		for len(row) < len(t.Columns) {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadTableFile reads the CSV table at path.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aqdata: opening %s: %v", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}

// Write writes the table as CSV.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("aqdata: writing table: %v", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("aqdata: writing table: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to the file at path.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("aqdata: creating %s: %v", path, err)
	}
	defer f.Close()
	return t.Write(f)
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
