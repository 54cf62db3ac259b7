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

// Package earthdata downloads MERRA-2 granules from the NASA GES
// DISC archive using an Earthdata login. The archive redirects each
// granule URL through the Earthdata authorization service, which
// sets session cookies, so downloads share one cookie jar and
// re-apply credentials across redirects.
package earthdata

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config configures a link-file download.
type Config struct {
	// User and Password are Earthdata login credentials.
	User, Password string
	// LinksFile names a text file with one granule URL per line,
	// as produced by the GES DISC subsetter.
	LinksFile string
	// Dest is the local directory granules are written to.
	Dest string
	// Log receives progress messages; logrus.StandardLogger() if nil.
	Log *logrus.Logger
}

// Fetch downloads every URL named in cfg.LinksFile into cfg.Dest.
// Per-URL failures are logged and counted; the run only fails when
// nothing at all could be downloaded.
func Fetch(cfg Config) error {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	urls, err := readLinks(cfg.LinksFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("earthdata: no URLs in %s", cfg.LinksFile)
	}
	if err := os.MkdirAll(cfg.Dest, 0755); err != nil {
		return fmt.Errorf("earthdata: creating %s: %v", cfg.Dest, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("earthdata: creating cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		// Go strips the Authorization header when a redirect
		// changes hosts, but the Earthdata login host needs it.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			req.SetBasicAuth(cfg.User, cfg.Password)
			return nil
		},
	}

	log.Infof("earthdata: starting download of %d files", len(urls))
	var fetched, failed int
	for _, u := range urls {
		if err := fetchURL(client, cfg, u); err != nil {
			log.WithError(err).Warnf("earthdata: failed: %s", u)
			failed++
			continue
		}
		fetched++
	}
	log.Infof("earthdata: downloaded %d files (%d failed)", fetched, failed)
	if fetched == 0 {
		return fmt.Errorf("earthdata: all %d downloads failed", len(urls))
	}
	return nil
}

func readLinks(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("earthdata: opening links file: %v", err)
	}
	defer f.Close()
	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("earthdata: reading links file: %v", err)
	}
	return urls, nil
}

func fetchURL(client *http.Client, cfg Config, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	name := path.Base(u.Path)
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(cfg.User, cfg.Password)
	req.Header.Set("User-Agent", "aqdata-merra-downloader/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", rawURL, resp.Status)
	}
	out, err := os.Create(filepath.Join(cfg.Dest, name))
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return out.Close()
}
