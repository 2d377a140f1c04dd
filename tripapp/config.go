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

package tripapp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/SonnyC56/roadtrip-map/trip"
	"go.uber.org/zap"
)

// Config describes the server configuration.
// Config values must not be copied (i.e. use pointers).
type Config struct {
	sync.RWMutex `json:"-"`

	// The listen address to bind the socket to.
	Listen string `json:"listen,omitempty"`

	// Serves the website from this folder on disk instead of
	// the embedded file system. This can make local, rapid
	// development easier so you don't have to recompile for
	// every website change. If empty, website assets that are
	// compiled into the binary will be used by default.
	WebsiteDir string `json:"website_dir,omitempty"`

	// The directory holding the journal database and uploaded
	// media blobs.
	RepoDir string `json:"repo_dir,omitempty"`

	// Path to a location history export to load at startup. If
	// empty, the server starts with an empty trip and waits for
	// a dataset upload.
	DatasetPath string `json:"dataset_path,omitempty"`

	// The password required for the admin login endpoint. If
	// empty, admin endpoints are disabled entirely.
	AdminPassword string `json:"admin_password,omitempty"`

	// Secret used to sign admin session tokens. Generated and
	// persisted on first start if empty.
	TokenSecret string `json:"token_secret,omitempty"`

	// Additional allowed origins for CORS, for serving the
	// frontend from a different host than the API.
	Origins []string `json:"origins,omitempty"`

	log *zap.Logger
}

func (cfg *Config) listenAddr() string {
	cfg.RLock()
	defer cfg.RUnlock()
	if envVal := os.Getenv("ROADTRIP_ADDR"); envVal != "" {
		return envVal
	}
	if cfg.Listen != "" {
		return cfg.Listen
	}
	return defaultListenAddr
}

func (cfg *Config) repoDir() string {
	cfg.RLock()
	defer cfg.RUnlock()
	if cfg.RepoDir != "" {
		return cfg.RepoDir
	}
	return DefaultRepoDir()
}

func (cfg *Config) adminPassword() string {
	cfg.RLock()
	defer cfg.RUnlock()
	if envVal := os.Getenv("ROADTRIP_ADMIN_PASSWORD"); envVal != "" {
		return envVal
	}
	return cfg.AdminPassword
}

func (cfg *Config) fillDefaults() {
	cfg.Lock()
	defer cfg.Unlock()
	if cfg.log == nil {
		cfg.log = trip.Log.Named("config").With(zap.Time("loaded", time.Now()))
	}
	if cfg.TokenSecret == "" {
		// persisted by the autosave below so tokens survive restarts
		const secretLen = 32
		cfg.TokenSecret = randString(secretLen, false)
	}
}

// autosave persists the config to disk by obtaining a read lock, so it is safe for concurrent use.
func (cfg *Config) autosave() error {
	cfg.RLock()
	defer cfg.RUnlock()
	return cfg.unsyncedSave()
}

func (cfg *Config) unsyncedSave() error {
	filename := DefaultConfigFilePath()
	err := os.MkdirAll(filepath.Dir(filename), 0o755)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	cfgFile, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer cfgFile.Close()
	enc := json.NewEncoder(cfgFile)
	enc.SetIndent("", "\t")
	if err = enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if cfg.log != nil {
		cfg.log.Info("saved config file", zap.String("path", filename))
	}
	return nil
}

// DefaultConfigFilePath returns the file path where
// configuration is persisted.
func DefaultConfigFilePath() string {
	cfgDir, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(cfgDir, "roadtrip-map", "config.json")
	}
	cfgDir, err = os.UserHomeDir()
	if err == nil {
		return filepath.Join(cfgDir, ".roadtrip-map", "config.json")
	}
	return filepath.Join(".roadtrip-map", "config.json")
}

// DefaultRepoDir returns the directory where the journal
// database and media blobs live by default.
func DefaultRepoDir() string {
	dataDir, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(dataDir, "roadtrip-map", "repo")
	}
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".roadtrip-map", "repo")
	}
	return filepath.Join(".roadtrip-map", "repo")
}
