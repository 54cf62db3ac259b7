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
	"strings"
	"testing"
)

func TestReadSites(t *testing.T) {
	table := `site,lat,lon
chennai,13.1278,80.2642
kanpur,26.428282,80.327067
`
	sites, err := ReadSites(strings.NewReader(table))
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 2 {
		t.Fatalf("want 2 sites but have %d", len(sites))
	}
	if sites[0].Name != "chennai" {
		t.Errorf("want chennai but have %s", sites[0].Name)
	}
	if sites[0].Lat() != 13.1278 || sites[0].Lon() != 80.2642 {
		t.Errorf("want (13.1278, 80.2642) but have (%g, %g)", sites[0].Lat(), sites[0].Lon())
	}
}

func TestReadSitesColumnOrder(t *testing.T) {
	table := `Longitude,SITE,Latitude
80.2642,chennai,13.1278
`
	sites, err := ReadSites(strings.NewReader(table))
	if err != nil {
		t.Fatal(err)
	}
	if sites[0].Lat() != 13.1278 || sites[0].Lon() != 80.2642 {
		t.Errorf("want (13.1278, 80.2642) but have (%g, %g)", sites[0].Lat(), sites[0].Lon())
	}
}

func TestReadSitesErrors(t *testing.T) {
	tests := []struct {
		name, table string
	}{
		{"missing columns", "site,x,y\na,1,2\n"},
		{"duplicate site", "site,lat,lon\na,1,2\na,3,4\n"},
		{"empty name", "site,lat,lon\n,1,2\n"},
		{"latitude range", "site,lat,lon\na,91,2\n"},
		{"longitude range", "site,lat,lon\na,10,181\n"},
		{"bad latitude", "site,lat,lon\na,north,2\n"},
		{"no rows", "site,lat,lon\n"},
		{"empty file", ""},
	}
	for _, test := range tests {
		if _, err := ReadSites(strings.NewReader(test.table)); err == nil {
			t.Errorf("%s: want an error but have nil", test.name)
		}
	}
}
