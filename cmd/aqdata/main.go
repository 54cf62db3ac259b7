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

// Command aqdata is a command-line interface for assembling daily
// air-quality feature tables from ground-station, satellite, and
// reanalysis data.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/aqdata/aqdatautil"
)

func main() {
	if err := aqdatautil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
