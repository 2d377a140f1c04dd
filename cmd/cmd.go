/*
	Roadtrip Map
	Copyright (c) 2025 Roadtrip Map contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package tripcmd facilitates the command line interface (CLI)
// and implements the main().
package tripcmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/SonnyC56/roadtrip-map/trip"
	"github.com/SonnyC56/roadtrip-map/tripapp"
	"go.uber.org/zap"
)

func Main(embeddedWebsite fs.FS) {
	flag.Parse()

	cfg, err := loadConfigFile()
	if err != nil {
		trip.Log.Fatal("failed loading config", zap.Error(err))
	}
	applyFlagOverrides(cfg)

	ctx := context.Background()

	app, err := tripapp.New(ctx, cfg, embeddedWebsite)
	if err != nil {
		trip.Log.Fatal("failed to run application", zap.Error(err))
	}

	// implement standard (CLI-only) commands
	subCommand, subCommandFunc := getStandardSubcommand(app)
	if subCommandFunc != nil {
		if err := checkFlagParsing(); err != nil {
			trip.Log.Fatal("possible syntax error detected", zap.Error(err))
		}
		if err := subCommandFunc(); err != nil {
			trip.Log.Fatal("subcommand failed",
				zap.String("subcommand", subCommand),
				zap.Error(err))
		}
		return
	}

	// check for registered endpoint (API command)
	if remaining := flag.Args(); len(remaining) > 0 {
		if err := app.RunCommand(ctx, remaining); err != nil {
			trip.Log.Fatal("subcommand failed", zap.Error(err))
		}
		return
	}

	// start the application server
	startedServer, err := app.Serve()
	if err != nil {
		trip.Log.Fatal("could not start server", zap.Error(err))
	}

	// once the server is running, open the journal in the web browser
	if err := openWebBrowser("http://" + serveURLHost(cfg)); err != nil {
		trip.Log.Error("could not open web browser", zap.Error(err))
	}

	if startedServer {
		tripapp.TrapSignals()
		select {}
	}
}

func serveURLHost(cfg *tripapp.Config) string {
	cfg.RLock()
	defer cfg.RUnlock()
	if cfg.Listen != "" {
		return cfg.Listen
	}
	return "127.0.0.1:12014"
}

// openWebBrowser opens the web browser to loc, which must be a
// fully-qualified URL including a trailing slash even if there
// is no path (e.g. "http://host/" not "http://host"); if the
// trailing slash is not present, it will be appended.
func openWebBrowser(loc string) error {
	osCommand := map[string][]string{
		"darwin":  {"open"},
		"freebsd": {"xdg-open"},
		"linux":   {"xdg-open"}, // requires xdg-utils
		"netbsd":  {"xdg-open"},
		"openbsd": {"xdg-open"},
		"windows": {"cmd", "/c", "start"},
	}

	// ensure URL is valid and path ends with a trailing slash
	u, err := url.Parse(loc)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	loc = u.String()

	if runtime.GOOS == "windows" {
		// escape characters not allowed by cmd
		loc = strings.ReplaceAll(loc, "&", `^&`)
	}

	all := append(osCommand[runtime.GOOS], loc) //nolint:gocritic
	exe := all[0]
	args := all[1:]

	trip.Log.Info("opening web browser to the journal",
		zap.Strings("command", append([]string{exe}, args...)))

	cmd := exec.Command(exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Gets CLI-only commands.
func getStandardSubcommand(app *tripapp.App) (string, func() error) {
	standardCommands := map[string]func() error{
		"serve": func() error {
			if err := app.MustServe(); err != nil {
				return err
			}
			tripapp.TrapSignals()
			select {}
		},
		"help": func() error { //nolint:unparam
			fmt.Println(app.CommandLineHelp())
			return nil
		},
		"version": func() error {
			fmt.Println(version)
			return nil
		},
	}

	if len(flag.Args()) > 0 {
		subCommand := flag.Arg(0)
		subCommandFunc, ok := standardCommands[subCommand]
		if ok {
			return subCommand, subCommandFunc
		}
	}
	return "", nil
}

// checkFlagParsing returns an error if it looks like the
// program may have been invoked with the flags in the
// wrong place: flags must go before positional arguments,
// or they are silently swallowed as command arguments.
func checkFlagParsing() error {
	if len(os.Args) > 2 && flag.NFlag() == 0 {
		return errors.New("it looks like you intended to specify flags, but none were parsed; make sure flags go before positional arguments")
	}
	return nil
}

func loadConfigFile() (*tripapp.Config, error) {
	cfgBytes, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if configFile == tripapp.DefaultConfigFilePath() {
				err = nil
			}
			return new(tripapp.Config), err
		}
		return nil, err
	}
	cfg := new(tripapp.Config)
	err = json.Unmarshal(cfgBytes, cfg)
	return cfg, err
}

func applyFlagOverrides(cfg *tripapp.Config) {
	cfg.Lock()
	defer cfg.Unlock()
	if listenFlag != "" {
		cfg.Listen = listenFlag
	}
	if datasetFlag != "" {
		cfg.DatasetPath = datasetFlag
	}
	if repoFlag != "" {
		cfg.RepoDir = repoFlag
	}
}

var (
	configFile  string
	listenFlag  string
	datasetFlag string
	repoFlag    string
)

func init() {
	flag.StringVar(&configFile, "config", tripapp.DefaultConfigFilePath(), "path to the config file")
	flag.StringVar(&listenFlag, "listen", "", "the address to listen on")
	flag.StringVar(&datasetFlag, "dataset", "", "location history export to load at startup")
	flag.StringVar(&repoFlag, "repo", "", "directory for the journal database and media")
}

const version = "0.1.0"
