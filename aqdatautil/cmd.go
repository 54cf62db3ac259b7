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

// Package aqdatautil holds the command-line interface for the aqdata
// feature-assembly toolkit.
package aqdatautil

import (
	"fmt"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/aqdata"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger shared by all commands.
var Log *logrus.Logger

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	Log = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})

	// Options are the configuration options available to aqdata.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SiteTable",
			usage: `
              SiteTable is the path to a CSV file with the columns
              site, lat, and lon, mapping each ground station to its
              coordinates. Every extraction and merge is keyed by the
              site names in this table.`,
			defaultVal: "sites.csv",
			flagsets:   []*pflag.FlagSet{extractAODCmd.Flags(), extractMerraCmd.Flags()},
		},
		{
			name: "AOD.Folder",
			usage: `
              AOD.Folder is the directory holding the satellite
              imagery files, one acquisition per file.`,
			defaultVal: "mosdac",
			flagsets:   []*pflag.FlagSet{extractAODCmd.Flags()},
		},
		{
			name: "AOD.Variable",
			usage: `
              AOD.Variable is the name of the imagery variable to
              extract; it is also the name hint used when searching
              each file's groups.`,
			defaultVal: "AOD",
			flagsets:   []*pflag.FlagSet{extractAODCmd.Flags()},
		},
		{
			name: "AOD.Pattern",
			usage: `
              AOD.Pattern is the file glob within AOD.Folder.`,
			defaultVal: "*.h5",
			flagsets:   []*pflag.FlagSet{extractAODCmd.Flags()},
		},
		{
			name: "AOD.ValidMin",
			usage: `
              AOD.ValidMin is the smallest plausible value of the
              imagery variable; smaller samples are dropped.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{extractAODCmd.Flags()},
		},
		{
			name: "AOD.ValidMax",
			usage: `
              AOD.ValidMax is the largest plausible value of the
              imagery variable; larger samples are dropped.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{extractAODCmd.Flags()},
		},
		{
			name: "AOD.Output",
			usage: `
              AOD.Output is the daily feature CSV written by
              extract-aod.`,
			defaultVal: "aod_daily_features.csv",
			flagsets:   []*pflag.FlagSet{extractAODCmd.Flags()},
		},
		{
			name: "Merra.Folder",
			usage: `
              Merra.Folder is the directory holding the hourly
              reanalysis files.`,
			defaultVal: "Merra-2",
			flagsets:   []*pflag.FlagSet{extractMerraCmd.Flags()},
		},
		{
			name: "Merra.Pattern",
			usage: `
              Merra.Pattern is the file glob within Merra.Folder.`,
			defaultVal: "*.nc4",
			flagsets:   []*pflag.FlagSet{extractMerraCmd.Flags()},
		},
		{
			name: "Merra.Variables",
			usage: `
              Merra.Variables are the reanalysis variables to
              extract.`,
			defaultVal: []string{"T2M", "RH2M", "U2M", "V2M", "PS"},
			flagsets:   []*pflag.FlagSet{extractMerraCmd.Flags()},
		},
		{
			name: "Merra.RangesFile",
			usage: `
              Merra.RangesFile is an optional TOML file bounding the
              plausible values of each variable, e.g.
              [T2M]
              Min = 200.0
              Max = 330.0
              Samples outside the range are dropped.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{extractMerraCmd.Flags()},
		},
		{
			name: "Merra.SynthesizeRH",
			usage: `
              Merra.SynthesizeRH derives relative humidity from
              specific humidity, temperature, and surface pressure
              when the reanalysis files carry no RH variable.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{extractMerraCmd.Flags()},
		},
		{
			name: "Merra.Output",
			usage: `
              Merra.Output is the daily feature CSV written by
              extract-merra.`,
			defaultVal: "merra_daily_features.csv",
			flagsets:   []*pflag.FlagSet{extractMerraCmd.Flags()},
		},
		{
			name: "Merge.GroundTruthDir",
			usage: `
              Merge.GroundTruthDir is the directory of per-site
              ground-truth CSV files; each file's base name is the
              site it belongs to.`,
			defaultVal: "openaq_data",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "Merge.Features",
			usage: `
              Merge.Features are the daily feature CSV files to join
              onto each ground-truth table.`,
			defaultVal: []string{"aod_daily_features.csv", "merra_daily_features.csv"},
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "Merge.OutputDir",
			usage: `
              Merge.OutputDir is where the merged per-site CSV files
              are written; it defaults to Merge.GroundTruthDir.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "OpenAQ.APIKey",
			usage: `
              OpenAQ.APIKey is sent as the x-api-key header; the API
              works unauthenticated at a lower rate limit.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadOpenAQCmd.Flags()},
		},
		{
			name: "OpenAQ.Locations",
			usage: `
              OpenAQ.Locations are the OpenAQ location IDs to fetch.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{downloadOpenAQCmd.Flags()},
		},
		{
			name: "OpenAQ.DateFrom",
			usage: `
              OpenAQ.DateFrom is the start of the date range
              (RFC 3339 or YYYY-MM-DD).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadOpenAQCmd.Flags()},
		},
		{
			name: "OpenAQ.DateTo",
			usage: `
              OpenAQ.DateTo is the end of the date range (RFC 3339 or
              YYYY-MM-DD).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadOpenAQCmd.Flags()},
		},
		{
			name: "OpenAQ.Dest",
			usage: `
              OpenAQ.Dest is the directory per-location CSV files are
              written to.`,
			defaultVal: "openaq_data",
			flagsets:   []*pflag.FlagSet{downloadOpenAQCmd.Flags()},
		},
		{
			name: "Mosdac.Host",
			usage: `
              Mosdac.Host is the MOSDAC SFTP server.`,
			defaultVal: "download.mosdac.gov.in",
			flagsets:   []*pflag.FlagSet{downloadMosdacCmd.Flags()},
		},
		{
			name: "Mosdac.User",
			usage: `
              Mosdac.User is the MOSDAC account name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadMosdacCmd.Flags()},
		},
		{
			name: "Mosdac.Password",
			usage: `
              Mosdac.Password is the MOSDAC account password; prefer
              setting it through the AQDATA_MOSDAC_PASSWORD
              environment variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadMosdacCmd.Flags()},
		},
		{
			name: "Mosdac.Dest",
			usage: `
              Mosdac.Dest is the directory ordered files are written
              to.`,
			defaultVal: "mosdac",
			flagsets:   []*pflag.FlagSet{downloadMosdacCmd.Flags()},
		},
		{
			name: "Earthdata.User",
			usage: `
              Earthdata.User is the Earthdata login name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadMerraCmd.Flags()},
		},
		{
			name: "Earthdata.Password",
			usage: `
              Earthdata.Password is the Earthdata login password;
              prefer setting it through the AQDATA_EARTHDATA_PASSWORD
              environment variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadMerraCmd.Flags()},
		},
		{
			name: "Earthdata.LinksFile",
			usage: `
              Earthdata.LinksFile is a text file with one granule URL
              per line, as produced by the GES DISC subsetter.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadMerraCmd.Flags()},
		},
		{
			name: "Earthdata.Dest",
			usage: `
              Earthdata.Dest is the directory granules are written
              to.`,
			defaultVal: "Merra-2",
			flagsets:   []*pflag.FlagSet{downloadMerraCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("AQDATA")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.String(option.name, v, option.usage)
			case []string:
				set.StringSlice(option.name, v, option.usage)
			case bool:
				set.Bool(option.name, v, option.usage)
			case int:
				set.Int(option.name, v, option.usage)
			case []int:
				set.IntSlice(option.name, v, option.usage)
			case float64:
				set.Float64(option.name, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(downloadOpenAQCmd)
	Root.AddCommand(downloadMosdacCmd)
	Root.AddCommand(downloadMerraCmd)
	Root.AddCommand(extractAODCmd)
	Root.AddCommand(extractMerraCmd)
	Root.AddCommand(mergeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("aqdata: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "aqdata",
	Short: "Assemble daily air-quality feature tables.",
	Long: `aqdata downloads ground-station measurements, satellite aerosol
imagery, and atmospheric reanalysis grids, attaches the gridded data
to ground stations by nearest-neighbor search, and joins everything
into per-site daily feature tables.

Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the
format 'AQDATA_var' where 'var' is the name of the variable to be
set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of aqdata.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("aqdata v%s\n", aqdata.Version)
	},
	DisableAutoGenTag: true,
}

var downloadOpenAQCmd = &cobra.Command{
	Use:   "download-openaq",
	Short: "Download ground-truth measurements from OpenAQ",
	Long: `download-openaq fetches the hourly measurements of every configured
OpenAQ location for the configured date range, keeps the parameters
relevant to particulate-matter prediction, and writes one CSV per
location into OpenAQ.Dest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownloadOpenAQ()
	},
	DisableAutoGenTag: true,
}

var downloadMosdacCmd = &cobra.Command{
	Use:   "download-mosdac",
	Short: "Download ordered satellite products from MOSDAC",
	Long: `download-mosdac connects to the MOSDAC SFTP server and downloads
every file in the newest order directory into Mosdac.Dest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownloadMosdac()
	},
	DisableAutoGenTag: true,
}

var downloadMerraCmd = &cobra.Command{
	Use:   "download-merra",
	Short: "Download MERRA-2 granules from NASA GES DISC",
	Long: `download-merra downloads every granule URL named in
Earthdata.LinksFile into Earthdata.Dest using an Earthdata login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownloadMerra()
	},
	DisableAutoGenTag: true,
}

var extractAODCmd = &cobra.Command{
	Use:   "extract-aod",
	Short: "Extract daily aerosol optical depth at each site",
	Long: `extract-aod samples the grid cell nearest each site in every
imagery file in AOD.Folder and writes the per-site daily means to
AOD.Output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtractAOD()
	},
	DisableAutoGenTag: true,
}

var extractMerraCmd = &cobra.Command{
	Use:   "extract-merra",
	Short: "Extract daily reanalysis variables at each site",
	Long: `extract-merra maps each site to its nearest reanalysis grid cell,
reduces the hourly series of every configured variable to daily
means, and writes the result to Merra.Output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtractMerra()
	},
	DisableAutoGenTag: true,
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Join ground truth with the daily feature tables",
	Long: `merge left-joins each per-site ground-truth CSV in
Merge.GroundTruthDir against the daily feature tables named in
Merge.Features and writes one merged CSV per site. Every ground-truth
row is preserved; missing feature values stay empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge()
	},
	DisableAutoGenTag: true,
}
