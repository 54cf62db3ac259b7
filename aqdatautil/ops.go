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

package aqdatautil

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/aqdata"
	"github.com/spatialmodel/aqdata/earthdata"
	"github.com/spatialmodel/aqdata/mosdac"
	"github.com/spatialmodel/aqdata/openaq"
	"github.com/spf13/cast"
)

func runDownloadOpenAQ() error {
	locations, err := cast.ToIntSliceE(Cfg.Get("OpenAQ.Locations"))
	if err != nil || len(locations) == 0 {
		return fmt.Errorf("aqdata: OpenAQ.Locations must list at least one location ID")
	}
	from, err := parseDate(Cfg.GetString("OpenAQ.DateFrom"))
	if err != nil {
		return fmt.Errorf("aqdata: OpenAQ.DateFrom: %v", err)
	}
	to, err := parseDate(Cfg.GetString("OpenAQ.DateTo"))
	if err != nil {
		return fmt.Errorf("aqdata: OpenAQ.DateTo: %v", err)
	}
	client := &openaq.Client{
		APIKey: Cfg.GetString("OpenAQ.APIKey"),
		Log:    Log,
	}
	return client.Download(openaq.DownloadConfig{
		Locations: locations,
		From:      from,
		To:        to,
		Dest:      Cfg.GetString("OpenAQ.Dest"),
	})
}

func runDownloadMosdac() error {
	return mosdac.Fetch(mosdac.Config{
		Host:     Cfg.GetString("Mosdac.Host"),
		User:     Cfg.GetString("Mosdac.User"),
		Password: Cfg.GetString("Mosdac.Password"),
		Dest:     Cfg.GetString("Mosdac.Dest"),
		Log:      Log,
	})
}

func runDownloadMerra() error {
	return earthdata.Fetch(earthdata.Config{
		User:      Cfg.GetString("Earthdata.User"),
		Password:  Cfg.GetString("Earthdata.Password"),
		LinksFile: Cfg.GetString("Earthdata.LinksFile"),
		Dest:      Cfg.GetString("Earthdata.Dest"),
		Log:       Log,
	})
}

func runExtractAOD() error {
	sites, err := aqdata.ReadSiteFile(Cfg.GetString("SiteTable"))
	if err != nil {
		return err
	}
	table, err := aqdata.ExtractAOD(aqdata.AODConfig{
		Folder:   Cfg.GetString("AOD.Folder"),
		Pattern:  Cfg.GetString("AOD.Pattern"),
		Variable: Cfg.GetString("AOD.Variable"),
		Sites:    sites,
		Range: aqdata.ValidRange{
			Min: Cfg.GetFloat64("AOD.ValidMin"),
			Max: Cfg.GetFloat64("AOD.ValidMax"),
		},
	})
	if err != nil {
		return err
	}
	out := Cfg.GetString("AOD.Output")
	if err := table.WriteCSVFile(out); err != nil {
		return err
	}
	Log.Infof("aqdata: wrote %d daily records to %s", len(table.Records), out)
	return nil
}

func runExtractMerra() error {
	sites, err := aqdata.ReadSiteFile(Cfg.GetString("SiteTable"))
	if err != nil {
		return err
	}
	ranges, err := readRanges(Cfg.GetString("Merra.RangesFile"))
	if err != nil {
		return err
	}
	table, err := aqdata.ExtractReanalysis(aqdata.ReanalysisConfig{
		Folder:       Cfg.GetString("Merra.Folder"),
		Pattern:      Cfg.GetString("Merra.Pattern"),
		Variables:    Cfg.GetStringSlice("Merra.Variables"),
		Sites:        sites,
		Ranges:       ranges,
		SynthesizeRH: Cfg.GetBool("Merra.SynthesizeRH"),
	})
	if err != nil {
		return err
	}
	out := Cfg.GetString("Merra.Output")
	if err := table.WriteCSVFile(out); err != nil {
		return err
	}
	Log.Infof("aqdata: wrote %d daily records to %s", len(table.Records), out)
	return nil
}

func runMerge() error {
	var features []*aqdata.DailyTable
	for _, path := range Cfg.GetStringSlice("Merge.Features") {
		t, err := aqdata.ReadDailyCSVFile(path)
		if err != nil {
			return err
		}
		features = append(features, t)
	}
	dir := Cfg.GetString("Merge.GroundTruthDir")
	outDir := Cfg.GetString("Merge.OutputDir")
	if outDir == "" {
		outDir = dir
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return fmt.Errorf("aqdata: listing %s: %v", dir, err)
	}
	var ground []string
	for _, f := range files {
		if !strings.HasSuffix(strings.TrimSuffix(filepath.Base(f), ".csv"), "_merged") {
			ground = append(ground, f)
		}
	}
	if len(ground) == 0 {
		return fmt.Errorf("aqdata: no ground-truth CSV files in %s", dir)
	}
	for _, f := range ground {
		site := strings.TrimSuffix(filepath.Base(f), ".csv")
		out := filepath.Join(outDir, site+"_merged.csv")
		Log.Infof("aqdata: merging site %s", site)
		if err := aqdata.MergeFiles(site, f, out, features...); err != nil {
			return err
		}
		Log.Infof("aqdata: wrote %s", out)
	}
	return nil
}

// readRanges reads a TOML file mapping variable names to plausible
// value ranges. An empty path means no bounds.
func readRanges(path string) (map[string]aqdata.ValidRange, error) {
	if path == "" {
		return nil, nil
	}
	ranges := make(map[string]aqdata.ValidRange)
	if _, err := toml.DecodeFile(path, &ranges); err != nil {
		return nil, fmt.Errorf("aqdata: reading ranges file %s: %v", path, err)
	}
	return ranges, nil
}

// parseDate accepts an RFC 3339 timestamp or a bare calendar date.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("no date given")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}
