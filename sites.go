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
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// A Site is a fixed ground-monitoring location. Site names are the
// join keys between every table produced by this package, so they
// must be unique and stable across a run.
type Site struct {
	Name string
	// Loc is the site location, where X is longitude and Y is
	// latitude, both in degrees.
	Loc geom.Point
}

// Lat returns the site latitude [degrees].
func (s Site) Lat() float64 { return s.Loc.Y }

// Lon returns the site longitude [degrees].
func (s Site) Lon() float64 { return s.Loc.X }

// ReadSites reads a site table: a CSV file with the header columns
// "site", "lat", and "lon" (in any order, case-insensitive). Each
// site must appear exactly once, with latitude in [-90,90] and
// longitude in [-180,180]. Any violation is a configuration error;
// sites are the anchor of every join, and a bad table here would
// silently mis-assign features downstream.
func ReadSites(r io.Reader) ([]Site, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("aqdata: reading site table: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("aqdata: site table is empty")
	}
	iSite, iLat, iLon := -1, -1, -1
	for i, c := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "site":
			iSite = i
		case "lat", "latitude":
			iLat = i
		case "lon", "longitude":
			iLon = i
		}
	}
	if iSite < 0 || iLat < 0 || iLon < 0 {
		return nil, &MissingColumnError{File: "site table", Columns: []string{"site", "lat", "lon"}}
	}
	seen := make(map[string]bool)
	var sites []Site
	for _, row := range rows[1:] {
		name := strings.TrimSpace(row[iSite])
		if name == "" {
			return nil, fmt.Errorf("aqdata: site table: empty site name")
		}
		if seen[name] {
			return nil, fmt.Errorf("aqdata: site table: duplicate site %q", name)
		}
		seen[name] = true
		lat, err := strconv.ParseFloat(strings.TrimSpace(row[iLat]), 64)
		if err != nil {
			return nil, fmt.Errorf("aqdata: site table: site %q: parsing latitude: %v", name, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[iLon]), 64)
		if err != nil {
			return nil, fmt.Errorf("aqdata: site table: site %q: parsing longitude: %v", name, err)
		}
		if lat < -90 || lat > 90 {
			return nil, fmt.Errorf("aqdata: site table: site %q: latitude %g out of range [-90,90]", name, lat)
		}
		if lon < -180 || lon > 180 {
			return nil, fmt.Errorf("aqdata: site table: site %q: longitude %g out of range [-180,180]", name, lon)
		}
		sites = append(sites, Site{Name: name, Loc: geom.Point{X: lon, Y: lat}})
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("aqdata: site table has no sites")
	}
	return sites, nil
}

// ReadSiteFile reads the site table at path with ReadSites.
func ReadSiteFile(path string) ([]Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aqdata: opening site table: %v", err)
	}
	defer f.Close()
	return ReadSites(f)
}
