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

// Package aqdata attaches gridded satellite and reanalysis values to
// fixed ground-station locations and joins them with ground-truth
// pollutant measurements into per-site daily feature tables.
//
// The pipeline runs leaf to root: a locator finds latitude,
// longitude, and data arrays inside hierarchical grid files; a
// nearest-point resolver maps each station to its closest grid cell
// by great-circle distance; an aggregator reduces the sampled values
// to one mean per station and calendar day; and a joiner left-joins
// the daily features onto the ground-truth measurement tables.
// All of it is synchronous, in-memory computation over data already
// on disk; the sibling packages openaq, mosdac, and earthdata put
// that data on disk in the first place.
package aqdata

// Version gives the current version.
const Version = "0.1.0"
