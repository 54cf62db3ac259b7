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
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"
)

// dateFormat is the calendar-date format used in all output tables.
const dateFormat = "2006-01-02"

// A Sample is one value extracted for a site at an instant.
type Sample struct {
	Site     string
	Time     time.Time
	Variable string
	Value    float64
}

// A ValidRange bounds the physically plausible values of a variable.
// Samples outside the range, and non-finite samples, are dropped
// rather than imputed. The zero value accepts any finite sample.
type ValidRange struct {
	Min, Max float64
}

// Valid reports whether v is finite and inside the range.
func (r ValidRange) Valid(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if r.Min == 0 && r.Max == 0 {
		return true
	}
	return v >= r.Min && v <= r.Max
}

// A DailyRecord holds the daily mean values of one site on one
// calendar date. Records are immutable once written to an output
// table.
type DailyRecord struct {
	Site string
	// Date is midnight of the calendar day in the time zone the
	// source series was recorded in.
	Date   time.Time
	Values map[string]float64
}

// A DailyTable holds one record per site and calendar date.
type DailyTable struct {
	// Variables is the output column order.
	Variables []string
	// Records are sorted by site, then date.
	Records []*DailyRecord
}

// AggregateDaily reduces an unordered collection of timestamped
// samples to one arithmetic mean per site, variable, and calendar
// day. Days are bounded in the time zone attached to each sample's
// timestamp. Aggregating an already-daily table's samples reproduces
// the table unchanged.
func AggregateDaily(samples []Sample) *DailyTable {
	type key struct {
		site, date string
	}
	groups := make(map[key]map[string][]float64)
	dates := make(map[key]time.Time)
	varSet := make(map[string]bool)
	for _, s := range samples {
		day := time.Date(s.Time.Year(), s.Time.Month(), s.Time.Day(), 0, 0, 0, 0, s.Time.Location())
		k := key{s.Site, day.Format(dateFormat)}
		if groups[k] == nil {
			groups[k] = make(map[string][]float64)
			dates[k] = day
		}
		groups[k][s.Variable] = append(groups[k][s.Variable], s.Value)
		varSet[s.Variable] = true
	}
	t := &DailyTable{}
	for v := range varSet {
		t.Variables = append(t.Variables, v)
	}
	sort.Strings(t.Variables)
	for k, vals := range groups {
		rec := &DailyRecord{Site: k.site, Date: dates[k], Values: make(map[string]float64)}
		for v, xs := range vals {
			rec.Values[v] = stat.Mean(xs, nil)
		}
		t.Records = append(t.Records, rec)
	}
	sort.Slice(t.Records, func(i, j int) bool {
		if t.Records[i].Site != t.Records[j].Site {
			return t.Records[i].Site < t.Records[j].Site
		}
		return t.Records[i].Date.Before(t.Records[j].Date)
	})
	return t
}

// Samples flattens the table back into one sample per record and
// variable, timestamped at midnight of each record's date.
func (t *DailyTable) Samples() []Sample {
	var out []Sample
	for _, rec := range t.Records {
		for _, v := range t.Variables {
			if val, ok := rec.Values[v]; ok {
				out = append(out, Sample{Site: rec.Site, Time: rec.Date, Variable: v, Value: val})
			}
		}
	}
	return out
}

// Site returns the records belonging to the named site, in date
// order.
func (t *DailyTable) Site(name string) []*DailyRecord {
	var out []*DailyRecord
	for _, rec := range t.Records {
		if rec.Site == name {
			out = append(out, rec)
		}
	}
	return out
}

// WriteCSV writes the table with the columns site,date,variables...
// Absent values are written as empty cells.
func (t *DailyTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"site", "date"}, t.Variables...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("aqdata: writing daily table: %v", err)
	}
	for _, rec := range t.Records {
		row := []string{rec.Site, rec.Date.Format(dateFormat)}
		for _, v := range t.Variables {
			if val, ok := rec.Values[v]; ok {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("aqdata: writing daily table: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to the file at path.
func (t *DailyTable) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("aqdata: creating %s: %v", path, err)
	}
	defer f.Close()
	return t.WriteCSV(f)
}

// ReadDailyCSV reads a table in the format written by WriteCSV.
func ReadDailyCSV(r io.Reader) (*DailyTable, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("aqdata: reading daily table: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("aqdata: daily table is empty")
	}
	header := rows[0]
	if len(header) < 2 || header[0] != "site" || header[1] != "date" {
		return nil, &MissingColumnError{File: "daily table", Columns: []string{"site", "date"}}
	}
	t := &DailyTable{Variables: append([]string{}, header[2:]...)}
	for _, row := range rows[1:] {
		date, err := time.Parse(dateFormat, row[1])
		if err != nil {
			return nil, fmt.Errorf("aqdata: daily table: parsing date %q: %v", row[1], err)
		}
		rec := &DailyRecord{Site: row[0], Date: date, Values: make(map[string]float64)}
		for i, v := range t.Variables {
			cell := row[2+i]
			if cell == "" {
				continue
			}
			val, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("aqdata: daily table: parsing %s=%q: %v", v, cell, err)
			}
			rec.Values[v] = val
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// ReadDailyCSVFile reads the daily table at path.
func ReadDailyCSVFile(path string) (*DailyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aqdata: opening %s: %v", path, err)
	}
	defer f.Close()
	return ReadDailyCSV(f)
}
