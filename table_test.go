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
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestReadTable(t *testing.T) {
	in := `a,b,c
1,2,3
4,5
`
	table, err := ReadTable(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns: want %v but have %v", want, table.Columns)
	}
	if want := []string{"4", "5", ""}; !reflect.DeepEqual(table.Rows[1], want) {
		t.Errorf("short row: want %v but have %v", want, table.Rows[1])
	}
}

func TestTableRoundTrip(t *testing.T) {
	table := &Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1", "hello, world"}, {"2", ""}},
	}
	var buf bytes.Buffer
	if err := table.Write(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := ReadTable(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(table, back) {
		t.Errorf("want %+v but have %+v", table, back)
	}
}

func TestColumnIndex(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}}
	if i := table.ColumnIndex("b"); i != 1 {
		t.Errorf("want 1 but have %d", i)
	}
	if i := table.ColumnIndex("z"); i != -1 {
		t.Errorf("want -1 but have %d", i)
	}
}
