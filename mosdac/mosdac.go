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

// Package mosdac fetches ordered satellite products from the MOSDAC
// SFTP server. Orders appear as subdirectories of /Order; the
// newest order is the lexically last one.
package mosdac

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// DefaultHost is the MOSDAC download server.
const DefaultHost = "download.mosdac.gov.in"

// Config configures an order download.
type Config struct {
	// Host defaults to DefaultHost; Port defaults to 22.
	Host string
	Port int
	// User and Password authenticate the MOSDAC account.
	User, Password string
	// OrderDir is the remote order root; "/Order" if empty.
	OrderDir string
	// Dest is the local directory files are written to.
	Dest string
	// Log receives progress messages; logrus.StandardLogger() if nil.
	Log *logrus.Logger
}

// Fetch downloads every file in the newest order directory into
// cfg.Dest. Individual file failures are logged and counted; only a
// connection-level problem, a missing order directory, or every
// single file failing is fatal.
func Fetch(cfg Config) error {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	orderDir := cfg.OrderDir
	if orderDir == "" {
		orderDir = "/Order"
	}

	// The server does not publish a stable host key; connections
	// skip verification the same way the operators' own tooling
	// does.
	conn, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", host, port), &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		return fmt.Errorf("mosdac: connecting to %s: %v", host, err)
	}
	defer conn.Close()
	client, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("mosdac: starting sftp: %v", err)
	}
	defer client.Close()
	log.Infof("mosdac: connected to %s", host)

	entries, err := client.ReadDir(orderDir)
	if err != nil {
		return fmt.Errorf("mosdac: listing %s: %v", orderDir, err)
	}
	var orders []string
	for _, e := range entries {
		if e.IsDir() {
			orders = append(orders, e.Name())
		}
	}
	if len(orders) == 0 {
		return fmt.Errorf("mosdac: no order directories in %s", orderDir)
	}
	sort.Strings(orders)
	order := path.Join(orderDir, orders[len(orders)-1])
	log.Infof("mosdac: fetching order %s", order)

	files, err := client.ReadDir(order)
	if err != nil {
		return fmt.Errorf("mosdac: listing %s: %v", order, err)
	}
	if err := os.MkdirAll(cfg.Dest, 0755); err != nil {
		return fmt.Errorf("mosdac: creating %s: %v", cfg.Dest, err)
	}

	var fetched, failed int
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if err := fetchFile(client, path.Join(order, f.Name()), filepath.Join(cfg.Dest, f.Name())); err != nil {
			log.WithError(err).Warnf("mosdac: failed to download %s", f.Name())
			failed++
			continue
		}
		fetched++
	}
	log.Infof("mosdac: downloaded %d files (%d failed)", fetched, failed)
	if fetched == 0 {
		return fmt.Errorf("mosdac: order %s yielded no files", order)
	}
	return nil
}

func fetchFile(client *sftp.Client, remote, local string) error {
	src, err := client.Open(remote)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(local)
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Close()
}
