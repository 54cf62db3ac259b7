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
	"math"
	"testing"
	"time"
)

func TestRelativeHumidity(t *testing.T) {
	// q=0.01 kg/kg at 25 degC and standard pressure:
	// e = 0.01*101325/(0.622+0.378*0.01) ~ 1619.2 Pa,
	// es = 611.2*exp(17.67*25/(25+243.5)) ~ 3167.5 Pa,
	// so RH ~ 51.1%.
	rh := RelativeHumidity(0.01, 298.15, 101325)
	if math.Abs(rh-51.12) > 0.1 {
		t.Errorf("want roughly 51.12 but have %g", rh)
	}
}

func TestRelativeHumidityClamp(t *testing.T) {
	// Cold saturated air oversaturates the formula.
	if rh := RelativeHumidity(0.05, 263.15, 101325); rh != 100 {
		t.Errorf("supersaturation: want clamp to 100 but have %g", rh)
	}
	if rh := RelativeHumidity(0, 298.15, 101325); rh != 0 {
		t.Errorf("dry air: want 0 but have %g", rh)
	}
}

func TestDedupeSeries(t *testing.T) {
	t0 := time.Date(2023, 6, 15, 0, 30, 0, 0, time.UTC)
	s := []Sample{
		{Site: "a", Time: t0.Add(time.Hour), Variable: "T2M", Value: 301},
		{Site: "a", Time: t0, Variable: "T2M", Value: 300},
		{Site: "a", Time: t0, Variable: "T2M", Value: 999},
		{Site: "a", Time: t0.Add(2 * time.Hour), Variable: "T2M", Value: 302},
	}
	out := dedupeSeries(s)
	if len(out) != 3 {
		t.Fatalf("want 3 samples but have %d", len(out))
	}
	if out[0].Value != 300 {
		t.Errorf("duplicate timestamp: want the first sample after sorting (300) but have %g", out[0].Value)
	}
	for i := 1; i < len(out); i++ {
		if !out[i-1].Time.Before(out[i].Time) {
			t.Errorf("want strictly increasing timestamps but have %v then %v", out[i-1].Time, out[i].Time)
		}
	}
}

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		units string
		base  time.Time
		step  time.Duration
	}{
		{"minutes since 2025-01-01 00:30:00",
			time.Date(2025, 1, 1, 0, 30, 0, 0, time.UTC), time.Minute},
		{"hours since 1980-1-1",
			time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour},
		{"seconds since 2023-06-15T12:00:00Z",
			time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC), time.Second},
		{"days since 2000-01-01 00:00",
			time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 24 * time.Hour},
	}
	for _, test := range tests {
		base, step, err := parseTimeUnits(test.units)
		if err != nil {
			t.Errorf("%q: %v", test.units, err)
			continue
		}
		if !base.Equal(test.base) {
			t.Errorf("%q: want base %v but have %v", test.units, test.base, base)
		}
		if step != test.step {
			t.Errorf("%q: want step %v but have %v", test.units, test.step, step)
		}
	}
	for _, bad := range []string{"minutes", "fortnights since 2000-01-01", "hours since yesterday"} {
		if _, _, err := parseTimeUnits(bad); err == nil {
			t.Errorf("%q: want an error but have nil", bad)
		}
	}
}

func TestSynthesizeRHSeries(t *testing.T) {
	cfg := ReanalysisConfig{SynthesizeRH: true}
	cfg.setDefaults()
	t0 := time.Date(2023, 6, 15, 0, 30, 0, 0, time.UTC)
	series := map[seriesKey][]Sample{
		{"a", "QV2M"}: {
			{Site: "a", Time: t0, Variable: "QV2M", Value: 0.01},
			{Site: "a", Time: t0.Add(time.Hour), Variable: "QV2M", Value: 0.01},
		},
		{"a", "T2M"}: {
			{Site: "a", Time: t0, Variable: "T2M", Value: 298.15},
		},
		{"a", "PS"}: {
			{Site: "a", Time: t0, Variable: "PS", Value: 101325},
			{Site: "a", Time: t0.Add(time.Hour), Variable: "PS", Value: 101325},
		},
	}
	out := synthesizeRHSeries(cfg, "a", series)
	// The second hour is missing temperature, so only one sample
	// can be derived.
	if len(out) != 1 {
		t.Fatalf("want 1 sample but have %d", len(out))
	}
	if out[0].Variable != "RH2M" {
		t.Errorf("want variable RH2M but have %s", out[0].Variable)
	}
	if math.Abs(out[0].Value-51.12) > 0.1 {
		t.Errorf("want roughly 51.12 but have %g", out[0].Value)
	}
}

func TestReanalysisConfigDefaults(t *testing.T) {
	var cfg ReanalysisConfig
	cfg.setDefaults()
	if cfg.Pattern != "*.nc4" {
		t.Errorf("want pattern *.nc4 but have %s", cfg.Pattern)
	}
	if cfg.RHVar != "RH2M" || cfg.QVar != "QV2M" || cfg.TVar != "T2M" || cfg.PVar != "PS" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestExtractReanalysisNoFiles(t *testing.T) {
	_, err := ExtractReanalysis(ReanalysisConfig{Folder: t.TempDir()})
	if err == nil {
		t.Error("want an error for an empty folder but have nil")
	}
}
