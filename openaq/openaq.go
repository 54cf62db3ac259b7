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

// Package openaq downloads ground-station measurements from the
// OpenAQ v3 API and writes per-location CSV tables suitable as the
// ground truth for feature merging.
package openaq

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the production OpenAQ API.
const DefaultBaseURL = "https://api.openaq.org/v3"

// pageLimit is the number of records requested per page.
const pageLimit = 1000

// maxPages caps pagination per sensor.
const maxPages = 100

// retryInterval is the pause between retries after an HTTP 429.
var retryInterval = 5 * time.Second

// ImportantParameters is the set of pollutant and weather parameters
// worth keeping for particulate-matter prediction, keyed by the
// OpenAQ parameter name.
var ImportantParameters = map[string]string{
	"pm25":             "PM2.5",
	"pm10":             "PM10",
	"no2":              "NO2",
	"so2":              "SO2",
	"o3":               "Ozone",
	"temperature":      "Temperature",
	"relativehumidity": "Relative Humidity",
	"pressure":         "Atmospheric Pressure",
	"ws":               "Wind Speed",
	"wd":               "Wind Direction",
}

// A Client accesses the OpenAQ v3 API.
type Client struct {
	// APIKey, if nonempty, is sent as the x-api-key header.
	APIKey string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Delay is a politeness pause before each request; 1s if zero.
	Delay time.Duration
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Log receives progress messages; logrus.StandardLogger() if nil.
	Log *logrus.Logger
}

// A Sensor is one instrument at a location.
type Sensor struct {
	ID        int       `json:"id"`
	Parameter Parameter `json:"parameter"`
}

// A Parameter describes the quantity a sensor measures.
type Parameter struct {
	Name  string `json:"name"`
	Units string `json:"units"`
}

// A Measurement is one aggregated reading.
type Measurement struct {
	Value  *float64 `json:"value"`
	Period Period   `json:"period"`
}

// A Period is the time interval a measurement describes.
type Period struct {
	DatetimeFrom Datetime `json:"datetimeFrom"`
	DatetimeTo   Datetime `json:"datetimeTo"`
}

// A Datetime carries the UTC and local renderings of an instant.
type Datetime struct {
	UTC   string `json:"utc"`
	Local string `json:"local"`
}

type resultsPage struct {
	Results json.RawMessage `json:"results"`
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) log() *logrus.Logger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Client) delay() {
	d := c.Delay
	if d == 0 {
		d = time.Second
	}
	time.Sleep(d)
}

// get fetches one API URL into out, retrying on HTTP 429 with a
// constant backoff. Anything beyond naive retry is deliberately out
// of scope.
func (c *Client) get(u string, out interface{}) error {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	op := func() error {
		c.delay()
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.APIKey != "" {
			req.Header.Set("x-api-key", c.APIKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			c.log().Warnf("openaq: rate limited on %s; retrying", u)
			return fmt.Errorf("openaq: %s: %s", u, resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("openaq: %s: %s", u, resp.Status))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("openaq: decoding %s: %v", u, err))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), 5))
}

// Sensors lists the sensors installed at a location.
func (c *Client) Sensors(locationID int) ([]Sensor, error) {
	var page resultsPage
	u := fmt.Sprintf("%s/locations/%d/sensors", c.baseURL(), locationID)
	if err := c.get(u, &page); err != nil {
		return nil, err
	}
	var sensors []Sensor
	if err := json.Unmarshal(page.Results, &sensors); err != nil {
		return nil, fmt.Errorf("openaq: decoding sensors for location %d: %v", locationID, err)
	}
	return sensors, nil
}

// FilterImportant keeps the sensors whose parameter is in
// ImportantParameters.
func FilterImportant(sensors []Sensor) []Sensor {
	var out []Sensor
	for _, s := range sensors {
		if _, ok := ImportantParameters[s.Parameter.Name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// HourlyMeasurements pages through a sensor's hourly aggregated
// measurements for the given date range.
func (c *Client) HourlyMeasurements(sensorID int, from, to time.Time) ([]Measurement, error) {
	var all []Measurement
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("date_from", from.UTC().Format(time.RFC3339))
		q.Set("date_to", to.UTC().Format(time.RFC3339))
		q.Set("limit", strconv.Itoa(pageLimit))
		q.Set("page", strconv.Itoa(page))
		u := fmt.Sprintf("%s/sensors/%d/measurements/hourly?%s", c.baseURL(), sensorID, q.Encode())
		var p resultsPage
		if err := c.get(u, &p); err != nil {
			return nil, err
		}
		var results []Measurement
		if err := json.Unmarshal(p.Results, &results); err != nil {
			return nil, fmt.Errorf("openaq: decoding measurements for sensor %d: %v", sensorID, err)
		}
		if len(results) == 0 {
			break
		}
		all = append(all, results...)
		c.log().Infof("openaq: sensor %d page %d: %d hourly records", sensorID, page, len(results))
		if len(results) < pageLimit {
			break
		}
		if page == maxPages {
			c.log().Warnf("openaq: sensor %d: reached page limit, stopping", sensorID)
		}
	}
	return all, nil
}

// A Record is one cleaned measurement row.
type Record struct {
	DatetimeFromUTC string
	DatetimeToUTC   string
	Value           float64
	Parameter       string
	Units           string
	SensorID        int
	LocationID      int
}

// Clean drops measurements without a value or timestamp, and
// measurements outside (0, 10000), which are sensor glitches rather
// than air.
func Clean(ms []Measurement, sensor Sensor, locationID int) []Record {
	var out []Record
	for _, m := range ms {
		if m.Value == nil || m.Period.DatetimeTo.UTC == "" {
			continue
		}
		v := *m.Value
		if v < 0 || v > 10000 {
			continue
		}
		out = append(out, Record{
			DatetimeFromUTC: m.Period.DatetimeFrom.UTC,
			DatetimeToUTC:   m.Period.DatetimeTo.UTC,
			Value:           v,
			Parameter:       sensor.Parameter.Name,
			Units:           sensor.Parameter.Units,
			SensorID:        sensor.ID,
			LocationID:      locationID,
		})
	}
	return out
}

// DownloadConfig configures a bulk download.
type DownloadConfig struct {
	// Locations are the OpenAQ location IDs to fetch.
	Locations []int
	// From and To bound the date range.
	From, To time.Time
	// Dest is the output directory; one CSV is written per
	// location, named location_<id>.csv.
	Dest string
}

// Download fetches, cleans, and writes the measurements of every
// configured location. Locations that yield nothing are logged and
// skipped, not fatal: a partial ground-truth set is still usable.
func (c *Client) Download(cfg DownloadConfig) error {
	if len(cfg.Locations) == 0 {
		return fmt.Errorf("openaq: no locations configured")
	}
	if err := os.MkdirAll(cfg.Dest, 0755); err != nil {
		return fmt.Errorf("openaq: creating %s: %v", cfg.Dest, err)
	}
	for _, loc := range cfg.Locations {
		c.log().Infof("openaq: processing location %d", loc)
		sensors, err := c.Sensors(loc)
		if err != nil {
			return err
		}
		important := FilterImportant(sensors)
		if len(important) == 0 {
			c.log().Warnf("openaq: location %d has no important sensors (of %d total)", loc, len(sensors))
			continue
		}
		var records []Record
		for _, s := range important {
			ms, err := c.HourlyMeasurements(s.ID, cfg.From, cfg.To)
			if err != nil {
				return err
			}
			records = append(records, Clean(ms, s, loc)...)
		}
		if len(records) == 0 {
			c.log().Warnf("openaq: location %d yielded no valid records", loc)
			continue
		}
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].DatetimeToUTC < records[j].DatetimeToUTC
		})
		path := filepath.Join(cfg.Dest, fmt.Sprintf("location_%d.csv", loc))
		if err := writeRecords(path, records); err != nil {
			return err
		}
		c.log().Infof("openaq: wrote %d records to %s", len(records), path)
	}
	return nil
}

func writeRecords(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("openaq: creating %s: %v", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"period.datetimeFrom.utc", "period.datetimeTo.utc",
		"value", "parameter", "unit", "sensor_id", "location_id",
	}); err != nil {
		return fmt.Errorf("openaq: writing %s: %v", path, err)
	}
	for _, r := range records {
		row := []string{
			r.DatetimeFromUTC, r.DatetimeToUTC,
			strconv.FormatFloat(r.Value, 'g', -1, 64),
			r.Parameter, r.Units,
			strconv.Itoa(r.SensorID), strconv.Itoa(r.LocationID),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("openaq: writing %s: %v", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
