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
	"reflect"
	"testing"
	"time"
)

func mergeFeature(site string, dates map[string]float64) *DailyTable {
	t := &DailyTable{Variables: []string{"aod"}}
	for d, v := range dates {
		date, err := time.Parse(dateFormat, d)
		if err != nil {
			panic(err)
		}
		t.Records = append(t.Records, &DailyRecord{
			Site: site, Date: date, Values: map[string]float64{"aod": v},
		})
	}
	return t
}

func TestMerge(t *testing.T) {
	ground := &Table{
		Columns: []string{"period.datetimeTo.utc", "value"},
		Rows: [][]string{
			{"2023-06-15T01:00:00Z", "41"},
			{"2023-06-16T01:00:00Z", "42"},
			{"2023-06-17T01:00:00Z", "43"},
		},
	}
	feature := mergeFeature("chennai", map[string]float64{"2023-06-16": 0.75})
	merged, err := Merge("chennai", ground, feature)
	if err != nil {
		t.Fatal(err)
	}
	wantCols := []string{"period.datetimeTo.utc", "value", "site", "date", "aod"}
	if !reflect.DeepEqual(merged.Columns, wantCols) {
		t.Errorf("columns: want %v but have %v", wantCols, merged.Columns)
	}
	if len(merged.Rows) != 3 {
		t.Fatalf("want 3 rows but have %d", len(merged.Rows))
	}
	aod := merged.ColumnIndex("aod")
	wantAOD := []string{"", "0.75", ""}
	for i, row := range merged.Rows {
		if row[aod] != wantAOD[i] {
			t.Errorf("row %d aod: want %q but have %q", i, wantAOD[i], row[aod])
		}
	}
	if have := merged.Rows[1][merged.ColumnIndex("date")]; have != "2023-06-16" {
		t.Errorf("row 1 date: want 2023-06-16 but have %q", have)
	}
	if have := merged.Rows[0][merged.ColumnIndex("site")]; have != "chennai" {
		t.Errorf("row 0 site: want chennai but have %q", have)
	}
}

func TestMergeDateColumnFallback(t *testing.T) {
	ground := &Table{
		Columns: []string{"period.datetimeFrom.utc", "value"},
		Rows:    [][]string{{"2023-06-16T01:00:00Z", "42"}},
	}
	feature := mergeFeature("a", map[string]float64{"2023-06-16": 0.5})
	merged, err := Merge("a", ground, feature)
	if err != nil {
		t.Fatal(err)
	}
	if have := merged.Rows[0][merged.ColumnIndex("aod")]; have != "0.5" {
		t.Errorf("want join on the period start column but have aod %q", have)
	}
}

func TestMergeMissingDateColumn(t *testing.T) {
	ground := &Table{Columns: []string{"value"}, Rows: [][]string{{"42"}}}
	if _, err := Merge("a", ground); err == nil {
		t.Error("want a missing-column error but have nil")
	} else if _, ok := err.(*MissingColumnError); !ok {
		t.Errorf("want *MissingColumnError but have %T", err)
	}
}

func TestMergeUnparsableTimestamp(t *testing.T) {
	ground := &Table{
		Columns: []string{"period.datetimeTo.utc", "value"},
		Rows: [][]string{
			{"not a date", "41"},
			{"2023-06-16T01:00:00Z", "42"},
		},
	}
	feature := mergeFeature("a", map[string]float64{"2023-06-16": 0.5})
	merged, err := Merge("a", ground, feature)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.Rows) != 2 {
		t.Fatalf("want both rows kept but have %d", len(merged.Rows))
	}
	aod := merged.ColumnIndex("aod")
	if merged.Rows[0][aod] != "" {
		t.Errorf("unparsable row: want empty aod but have %q", merged.Rows[0][aod])
	}
	if merged.Rows[1][aod] != "0.5" {
		t.Errorf("parsable row: want aod 0.5 but have %q", merged.Rows[1][aod])
	}
}

func TestMergeDuplicateFeatureDates(t *testing.T) {
	ground := &Table{
		Columns: []string{"period.datetimeTo.utc"},
		Rows:    [][]string{{"2023-06-16T01:00:00Z"}},
	}
	date, _ := time.Parse(dateFormat, "2023-06-16")
	feature := &DailyTable{
		Variables: []string{"aod"},
		Records: []*DailyRecord{
			{Site: "a", Date: date, Values: map[string]float64{"aod": 1}},
			{Site: "a", Date: date, Values: map[string]float64{"aod": 2}},
		},
	}
	merged, err := Merge("a", ground, feature)
	if err != nil {
		t.Fatal(err)
	}
	if have := merged.Rows[0][merged.ColumnIndex("aod")]; have != "2" {
		t.Errorf("duplicate dates: want the last record to win but have %q", have)
	}
}

func TestMergeOtherSiteIgnored(t *testing.T) {
	ground := &Table{
		Columns: []string{"period.datetimeTo.utc"},
		Rows:    [][]string{{"2023-06-16T01:00:00Z"}},
	}
	feature := mergeFeature("somewhere-else", map[string]float64{"2023-06-16": 9})
	merged, err := Merge("a", ground, feature)
	if err != nil {
		t.Fatal(err)
	}
	if have := merged.Rows[0][merged.ColumnIndex("aod")]; have != "" {
		t.Errorf("other site's records: want empty cell but have %q", have)
	}
}

func TestParseGroundDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2023-06-15T23:30:00Z", "2023-06-15", true},
		{"2023-06-15T01:30:00+05:30", "2023-06-14", true},
		{"2023-06-15 10:00:00", "2023-06-15", true},
		{"2023-06-15", "2023-06-15", true},
		{"garbage", "", false},
	}
	for _, test := range tests {
		d, ok := parseGroundDate(test.in)
		if ok != test.ok {
			t.Errorf("%q: want ok=%v but have %v", test.in, test.ok, ok)
			continue
		}
		if ok && d.Format(dateFormat) != test.want {
			t.Errorf("%q: want %s but have %s", test.in, test.want, d.Format(dateFormat))
		}
	}
}
