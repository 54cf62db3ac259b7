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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
)

// AODConfig configures extraction of a satellite-imagery variable
// (typically aerosol optical depth) from a folder of hierarchical
// NetCDF-4/HDF5 files, one acquisition per file.
type AODConfig struct {
	// Folder holds the imagery files.
	Folder string
	// Pattern is the file glob within Folder; "*.h5" if empty.
	Pattern string
	// Variable is the name of the variable to extract. It is also
	// the primary name hint when searching each file.
	Variable string
	// Sites are the ground locations to sample at.
	Sites []Site
	// Range bounds plausible values; out-of-range samples are
	// dropped and counted.
	Range ValidRange
}

// fileTimePattern matches the _DDMMMYYYY_ acquisition-date token in
// imagery file names, e.g. 3RIMG_04SEP2025_0545_L2G_AOD.h5.
var fileTimePattern = regexp.MustCompile(`_(\d{2}[A-Za-z]{3}\d{4})_`)

// fileDate extracts the acquisition date from an imagery file name.
// When the name carries no date token the file's last-modified time
// is used instead.
func fileDate(name string, modTime time.Time) time.Time {
	m := fileTimePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Date(modTime.Year(), modTime.Month(), modTime.Day(), 0, 0, 0, 0, time.UTC)
	}
	token := strings.ToUpper(m[1])
	token = token[:2] + token[2:3] + strings.ToLower(token[3:5]) + token[5:]
	t, err := time.Parse("02Jan2006", token)
	if err != nil {
		return time.Date(modTime.Year(), modTime.Month(), modTime.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t
}

// ExtractAOD samples the nearest grid cell to every site in every
// imagery file in cfg.Folder and reduces the samples to one mean per
// site and calendar day. A folder with no matching files, or a file
// missing its latitude, longitude, or data array, aborts the run;
// individual invalid samples are dropped and summarized.
func ExtractAOD(cfg AODConfig) (*DailyTable, error) {
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "*.h5"
	}
	files, err := filepath.Glob(filepath.Join(cfg.Folder, pattern))
	if err != nil {
		return nil, fmt.Errorf("aqdata: listing %s: %v", cfg.Folder, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("aqdata: no %s files in %s", pattern, cfg.Folder)
	}
	sort.Strings(files)

	var samples []Sample
	var dropped int
	for _, file := range files {
		fileSamples, nDropped, err := extractAODFile(file, cfg)
		if err != nil {
			return nil, err
		}
		samples = append(samples, fileSamples...)
		dropped += nDropped
	}
	if dropped > 0 {
		log.Printf("aqdata: %s: dropped %d invalid samples", cfg.Variable, dropped)
	}
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	return AggregateDaily(samples), nil
}

func extractAODFile(file string, cfg AODConfig) ([]Sample, int, error) {
	nc, err := netcdf.Open(file)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: opening %s: %v", file, err)
	}
	defer nc.Close()

	latPath, err := FindVariable(nc, []string{"Latitude"}, []string{"lat"})
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}
	lonPath, err := FindVariable(nc, []string{"Longitude"}, []string{"lon"})
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}
	varPath, err := FindVariable(nc, []string{cfg.Variable}, []string{strings.ToLower(cfg.Variable)})
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}
	if latPath == "" {
		return nil, 0, &DatasetNotFoundError{File: file, Hints: []string{"Latitude"}, Contains: []string{"lat"}}
	}
	if lonPath == "" {
		return nil, 0, &DatasetNotFoundError{File: file, Hints: []string{"Longitude"}, Contains: []string{"lon"}}
	}
	if varPath == "" {
		return nil, 0, &DatasetNotFoundError{File: file, Hints: []string{cfg.Variable}, Contains: []string{strings.ToLower(cfg.Variable)}}
	}

	lat, err := readVariable(nc, latPath)
	if err != nil {
		return nil, 0, err
	}
	lon, err := readVariable(nc, lonPath)
	if err != nil {
		return nil, 0, err
	}
	data, err := readVariable(nc, varPath)
	if err != nil {
		return nil, 0, err
	}
	grid, err := NewGrid(lat, lon)
	if err != nil {
		return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
	}

	var mtime time.Time
	if info, err := os.Stat(file); err == nil {
		mtime = info.ModTime()
	}
	date := fileDate(file, mtime)

	var samples []Sample
	var dropped int
	for _, site := range cfg.Sites {
		row, col, _ := grid.Nearest(site.Lat(), site.Lon())
		v, err := grid.ValueAt(data, row, col)
		if err != nil {
			return nil, 0, fmt.Errorf("aqdata: %s: %v", file, err)
		}
		if !cfg.Range.Valid(v) {
			dropped++
			continue
		}
		samples = append(samples, Sample{Site: site.Name, Time: date, Variable: cfg.Variable, Value: v})
	}
	return samples, dropped, nil
}
