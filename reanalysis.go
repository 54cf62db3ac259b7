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
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ReanalysisConfig configures extraction of hourly reanalysis series
// from a folder of classic-format NetCDF files. NetCDF-4 files can
// be converted with `nccopy -k classic in.nc4 out.nc`.
type ReanalysisConfig struct {
	// Folder holds the reanalysis files.
	Folder string
	// Pattern is the file glob within Folder; "*.nc4" if empty.
	Pattern string
	// Variables are the variable names to extract, e.g.
	// T2M, QV2M, PS, U2M, V2M.
	Variables []string
	// Sites are the ground locations to sample at.
	Sites []Site
	// Ranges bounds plausible values per variable. Variables
	// without an entry accept any finite value that is not the
	// file's declared fill value.
	Ranges map[string]ValidRange
	// SynthesizeRH derives the RHVar variable from specific
	// humidity, temperature, and surface pressure when RHVar is
	// requested but absent from every file.
	SynthesizeRH bool
	// RHVar, QVar, TVar, PVar name the relative-humidity variable
	// and its synthesis inputs. Defaults: RH2M, QV2M, T2M, PS.
	RHVar, QVar, TVar, PVar string
}

func (cfg *ReanalysisConfig) setDefaults() {
	if cfg.Pattern == "" {
		cfg.Pattern = "*.nc4"
	}
	if cfg.RHVar == "" {
		cfg.RHVar = "RH2M"
	}
	if cfg.QVar == "" {
		cfg.QVar = "QV2M"
	}
	if cfg.TVar == "" {
		cfg.TVar = "T2M"
	}
	if cfg.PVar == "" {
		cfg.PVar = "PS"
	}
}

// RelativeHumidity derives relative humidity [%] from specific
// humidity q [kg/kg], air temperature t [K], and surface pressure
// p [Pa]. Vapor pressure is q·p/(0.622+0.378·q); saturation vapor
// pressure follows the Magnus formula in Pascals; the result is
// clamped to [0,100].
func RelativeHumidity(q, t, p float64) float64 {
	e := q * p / (0.622 + 0.378*q)
	tc := t - 273.15
	es := 611.2 * math.Exp(17.67*tc/(tc+243.5))
	rh := 100 * e / es
	if rh < 0 {
		return 0
	}
	if rh > 100 {
		return 100
	}
	return rh
}

type seriesKey struct {
	site, variable string
}

// ExtractReanalysis maps every site to its nearest reanalysis grid
// cell, collects the full hourly series of each requested variable,
// de-duplicates the series by exact timestamp, and reduces it to
// calendar-day means in the series' own time zone. A folder with no
// matching files is a configuration error; a variable absent from
// every file is dropped with a warning unless all of them are.
func ExtractReanalysis(cfg ReanalysisConfig) (*DailyTable, error) {
	cfg.setDefaults()
	files, err := filepath.Glob(filepath.Join(cfg.Folder, cfg.Pattern))
	if err != nil {
		return nil, fmt.Errorf("aqdata: listing %s: %v", cfg.Folder, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("aqdata: no %s files in %s", cfg.Pattern, cfg.Folder)
	}
	sort.Strings(files)

	// The synthesis inputs are read alongside the requested
	// variables so RH can be derived if it turns out to be absent.
	readVars := append([]string{}, cfg.Variables...)
	if cfg.SynthesizeRH {
		for _, v := range []string{cfg.QVar, cfg.TVar, cfg.PVar} {
			if !containsString(readVars, v) {
				readVars = append(readVars, v)
			}
		}
	}

	series := make(map[seriesKey][]Sample)
	found := make(map[string]bool)
	var available []string
	var dropped int
	for _, file := range files {
		avail, n, err := extractReanalysisFile(file, cfg, readVars, series, found)
		if err != nil {
			return nil, err
		}
		available = avail
		dropped += n
	}

	var missing []string
	for _, v := range cfg.Variables {
		if !found[v] {
			missing = append(missing, v)
		}
	}
	synthesizeRH := cfg.SynthesizeRH && containsString(missing, cfg.RHVar) &&
		found[cfg.QVar] && found[cfg.TVar] && found[cfg.PVar]
	if len(missing) == len(cfg.Variables) && !synthesizeRH {
		return nil, fmt.Errorf("aqdata: none of the requested variables %v are present; available variables include: %s",
			cfg.Variables, strings.Join(available, ", "))
	}
	for _, v := range missing {
		if v == cfg.RHVar && synthesizeRH {
			continue
		}
		log.Printf("aqdata: reanalysis variable %s is not present in any file; dropping it", v)
	}

	var samples []Sample
	for k := range series {
		series[k] = dedupeSeries(series[k])
	}
	keep := make(map[string]bool)
	for _, v := range cfg.Variables {
		keep[v] = found[v]
	}
	for k, s := range series {
		if keep[k.variable] {
			samples = append(samples, s...)
		}
	}
	if synthesizeRH {
		for _, site := range cfg.Sites {
			samples = append(samples, synthesizeRHSeries(cfg, site.Name, series)...)
		}
	}
	if dropped > 0 {
		log.Printf("aqdata: reanalysis: dropped %d invalid samples", dropped)
	}
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	return AggregateDaily(samples), nil
}

// extractReanalysisFile reads one file's series for every site and
// variable into series, returning the file's variable inventory and
// the number of dropped samples.
func extractReanalysisFile(file string, cfg ReanalysisConfig, readVars []string, series map[seriesKey][]Sample, found map[string]bool) ([]string, int, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: opening %s: %v", file, err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: opening %s: %v", file, err)
	}
	available := ff.Header.Variables()

	latName := findCDFVar(ff, []string{"lat", "latitude"}, nil)
	lonName := findCDFVar(ff, []string{"lon", "longitude"}, nil)
	if latName == "" || lonName == "" {
		return nil, 0, &DatasetNotFoundError{File: file, Hints: []string{"lat", "lon"}}
	}
	lat, err := readCDFVar(ff, latName)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}
	lon, err := readCDFVar(ff, lonName)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}
	grid, err := NewGrid(lat, lon)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}
	times, err := cdfTimes(ff)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}

	rows := make([]int, len(cfg.Sites))
	cols := make([]int, len(cfg.Sites))
	for i, site := range cfg.Sites {
		rows[i], cols[i], _ = grid.Nearest(site.Lat(), site.Lon())
	}

	var dropped int
	for _, v := range readVars {
		if len(ff.Header.Lengths(v)) == 0 {
			continue
		}
		data, err := readCDFVar(ff, v)
		if err != nil {
			return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
		}
		if len(data.Shape) != 3 || data.Shape[0] != len(times) ||
			data.Shape[1] != grid.Ny() || data.Shape[2] != grid.Nx() {
			return nil, 0, &ShapeError{
				Context: fmt.Sprintf("%s: variable %s", file, v),
				Shape:   data.Shape,
				Want:    []int{len(times), grid.Ny(), grid.Nx()},
			}
		}
		found[v] = true
		fill, hasFill := attrFloat(ff, v, "_FillValue")
		r := cfg.Ranges[v]
		for i, site := range cfg.Sites {
			k := seriesKey{site.Name, v}
			for t := range times {
				val := data.Get(t, rows[i], cols[i])
				if (hasFill && val == fill) || !r.Valid(val) {
					dropped++
					continue
				}
				series[k] = append(series[k], Sample{Site: site.Name, Time: times[t], Variable: v, Value: val})
			}
		}
	}
	return available, dropped, nil
}

// dedupeSeries sorts a series by timestamp and keeps the first
// sample of each exact timestamp.
func dedupeSeries(s []Sample) []Sample {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
	out := s[:0]
	for i, smp := range s {
		if i > 0 && smp.Time.Equal(s[i-1].Time) {
			continue
		}
		out = append(out, smp)
	}
	return out
}

// synthesizeRHSeries derives an hourly relative-humidity series for
// one site from the timestamps at which all three inputs are
// present.
func synthesizeRHSeries(cfg ReanalysisConfig, site string, series map[seriesKey][]Sample) []Sample {
	idx := func(v string) map[time.Time]float64 {
		m := make(map[time.Time]float64)
		for _, s := range series[seriesKey{site, v}] {
			m[s.Time] = s.Value
		}
		return m
	}
	qs := series[seriesKey{site, cfg.QVar}]
	ts := idx(cfg.TVar)
	ps := idx(cfg.PVar)
	var out []Sample
	for _, s := range qs {
		t, okT := ts[s.Time]
		p, okP := ps[s.Time]
		if !okT || !okP {
			continue
		}
		out = append(out, Sample{
			Site:     site,
			Time:     s.Time,
			Variable: cfg.RHVar,
			Value:    RelativeHumidity(s.Value, t, p),
		})
	}
	return out
}

// findCDFVar returns the first variable in the file whose name
// case-insensitively equals one of hints or contains one of the
// contains substrings. Classic-format files are flat, so this is the
// degenerate single-group case of FindVariable.
func findCDFVar(ff *cdf.File, hints, contains []string) string {
	vars := ff.Header.Variables()
	sort.Strings(vars)
	for _, v := range vars {
		if matchName(v, hints, contains) {
			return v
		}
	}
	return ""
}

// readCDFVar reads the whole named variable into a dense array.
func readCDFVar(ff *cdf.File, name string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %v not in file", name)
	}
	r := ff.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", name, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int8:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", name, buf)
	}
	return data, nil
}

// cdfTimes reads the file's time coordinate, interpreting its units
// attribute ("minutes since 2025-01-01 00:30:00" and similar).
// Timestamps are returned in UTC, which is the zone reanalysis
// products are published in; daily buckets downstream follow it.
func cdfTimes(ff *cdf.File) ([]time.Time, error) {
	name := findCDFVar(ff, []string{"time"}, nil)
	if name == "" {
		return nil, fmt.Errorf("no time coordinate in file")
	}
	units, _ := ff.Header.GetAttribute(name, "units").(string)
	base, step, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	vals, err := readCDFVar(ff, name)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(vals.Elements))
	for i, v := range vals.Elements {
		out[i] = base.Add(time.Duration(v * float64(step)))
	}
	return out, nil
}

// parseTimeUnits parses a CF-style time units attribute such as
// "minutes since 2025-01-01 00:30:00" into a base time and a step
// duration.
func parseTimeUnits(units string) (time.Time, time.Duration, error) {
	fields := strings.SplitN(units, " since ", 2)
	if len(fields) != 2 {
		return time.Time{}, 0, fmt.Errorf("unparsable time units %q", units)
	}
	var step time.Duration
	switch strings.TrimSpace(strings.ToLower(fields[0])) {
	case "seconds", "second", "s":
		step = time.Second
	case "minutes", "minute", "min":
		step = time.Minute
	case "hours", "hour", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return time.Time{}, 0, fmt.Errorf("unsupported time unit %q", fields[0])
	}
	stamp := strings.TrimSpace(fields[1])
	for _, layout := range []string{
		"2006-1-2 15:4:5",
		"2006-1-2T15:4:5Z",
		"2006-1-2 15:4",
		"2006-1-2",
	} {
		if base, err := time.Parse(layout, stamp); err == nil {
			return base.UTC(), step, nil
		}
	}
	return time.Time{}, 0, fmt.Errorf("unparsable time origin %q", stamp)
}

// attrFloat reads a numeric variable attribute, accommodating the
// scalar-versus-slice ambiguity of NetCDF attribute storage.
func attrFloat(ff *cdf.File, varName, attr string) (float64, bool) {
	switch a := ff.Header.GetAttribute(varName, attr).(type) {
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case float32:
		return float64(a), true
	case float64:
		return a, true
	}
	return 0, false
}

func containsString(a []string, s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}
