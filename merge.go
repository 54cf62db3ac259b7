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
	"fmt"
	"log"
	"strconv"
	"time"
)

// groundDateColumns is the fallback order for the ground-truth
// table's primary timestamp column: the period end is preferred
// because measurements describe the interval they close.
var groundDateColumns = []string{"period.datetimeTo.utc", "period.datetimeFrom.utc"}

// Merge left-joins the ground-truth rows of one site against any
// number of daily feature tables. The ground-truth date is read from
// the first column in groundDateColumns that exists (a
// MissingColumnError otherwise) and truncated to the UTC calendar
// day. Each feature table is filtered to the site, de-duplicated to
// one record per date with the last occurrence winning, and joined
// on date alone. Every ground-truth row appears in the output
// exactly once; rows with no feature match, including rows whose
// timestamp cannot be parsed, get empty feature cells. Unparsable
// timestamps are counted and summarized, never fatal.
func Merge(site string, ground *Table, features ...*DailyTable) (*Table, error) {
	dateIdx := -1
	for _, c := range groundDateColumns {
		if i := ground.ColumnIndex(c); i >= 0 {
			dateIdx = i
			if c != groundDateColumns[0] {
				log.Printf("aqdata: %s: missing %q; using %q instead", site, groundDateColumns[0], c)
			}
			break
		}
	}
	if dateIdx < 0 {
		return nil, &MissingColumnError{File: site, Columns: groundDateColumns}
	}

	out := &Table{Columns: append(append([]string{}, ground.Columns...), "site", "date")}
	var featureCols [][]string
	var featureIdx []map[string]*DailyRecord
	for _, ft := range features {
		idx := make(map[string]*DailyRecord)
		for _, rec := range ft.Site(site) {
			// last occurrence wins
			idx[rec.Date.Format(dateFormat)] = rec
		}
		featureIdx = append(featureIdx, idx)
		featureCols = append(featureCols, ft.Variables)
		out.Columns = append(out.Columns, ft.Variables...)
	}

	var unparsable int
	for _, row := range ground.Rows {
		date, ok := parseGroundDate(row[dateIdx])
		dateCell := ""
		if ok {
			dateCell = date.Format(dateFormat)
		} else {
			unparsable++
		}
		outRow := append(append([]string{}, row...), site, dateCell)
		for i, idx := range featureIdx {
			var rec *DailyRecord
			if ok {
				rec = idx[dateCell]
			}
			for _, v := range featureCols[i] {
				cell := ""
				if rec != nil {
					if val, has := rec.Values[v]; has {
						cell = strconv.FormatFloat(val, 'g', -1, 64)
					}
				}
				outRow = append(outRow, cell)
			}
		}
		out.Rows = append(out.Rows, outRow)
	}
	if unparsable > 0 {
		log.Printf("aqdata: %s: %d rows with unparsable timestamps kept without features", site, unparsable)
	}
	return out, nil
}

// parseGroundDate parses a ground-truth timestamp and truncates it
// to the UTC calendar day.
func parseGroundDate(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		dateFormat,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// MergeFiles merges the ground-truth CSV at groundPath for the named
// site against the given feature tables and writes the result to
// outPath.
func MergeFiles(site, groundPath, outPath string, features ...*DailyTable) error {
	ground, err := ReadTableFile(groundPath)
	if err != nil {
		return err
	}
	merged, err := Merge(site, ground, features...)
	if err != nil {
		return err
	}
	if len(merged.Rows) != len(ground.Rows) {
		// The left join must preserve ground-truth cardinality.
		return fmt.Errorf("aqdata: %s: merged %d rows from %d ground-truth rows", site, len(merged.Rows), len(ground.Rows))
	}
	return merged.WriteFile(outPath)
}
