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
	"testing"
	"time"
)

func TestFileDate(t *testing.T) {
	mtime := time.Date(2024, 2, 3, 11, 30, 0, 0, time.Local)
	tests := []struct {
		name string
		want time.Time
	}{
		{"3RIMG_04SEP2025_0545_L2G_AOD.h5",
			time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC)},
		{"/data/insat/3RIMG_17jun2023_1015_L2G_AOD.h5",
			time.Date(2023, 6, 17, 0, 0, 0, 0, time.UTC)},
		{"granule_without_token.h5",
			time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"3RIMG_99ZZZ2025_0545_L2G_AOD.h5",
			time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, test := range tests {
		if have := fileDate(test.name, mtime); !have.Equal(test.want) {
			t.Errorf("%s: want %v but have %v", test.name, test.want, have)
		}
	}
}

func TestExtractAODNoFiles(t *testing.T) {
	_, err := ExtractAOD(AODConfig{Folder: t.TempDir(), Variable: "AOD"})
	if err == nil {
		t.Error("want an error for an empty folder but have nil")
	}
}
