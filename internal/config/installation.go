package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Installation is the daemon-wide configuration that lives outside any
// particular Graph store: listen addresses, the lockfile path, the log
// level, and the persistence DSN. It is parsed from TOML and then
// layered under environment and flag precedence by viper, matching the
// teacher's root-command config wiring.
type Installation struct {
	TCPAddr      string `toml:"tcp_addr"`
	HTTPAddr     string `toml:"http_addr"`
	LockfilePath string `toml:"lockfile_path"`
	LogLevel     string `toml:"log_level"`
	PersistDSN   string `toml:"persist_dsn"`
	TCPToken     string `toml:"tcp_token"`
}

// DefaultInstallation returns the installation defaults.
func DefaultInstallation() Installation {
	home, _ := os.UserHomeDir()
	return Installation{
		TCPAddr:      ":8090",
		HTTPAddr:     "",
		LockfilePath: filepath.Join(home, ".config", "fzcore", "fzcored.lock"),
		LogLevel:     "info",
		PersistDSN:   filepath.Join(home, ".config", "fzcore", "fzcore.db"),
		TCPToken:     "",
	}
}

// LoadInstallation reads the global TOML config at path, if present, and
// layers environment variables (prefixed FZCORE_) and any flags already
// bound to v over it. A missing file yields the defaults.
func LoadInstallation(path string, v *viper.Viper) (Installation, error) {
	cfg := DefaultInstallation()
	if data, err := os.ReadFile(path); err == nil {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	if v == nil {
		return cfg, nil
	}
	v.SetEnvPrefix("FZCORE")
	v.AutomaticEnv()
	if v.IsSet("tcp_addr") {
		cfg.TCPAddr = v.GetString("tcp_addr")
	}
	if v.IsSet("http_addr") {
		cfg.HTTPAddr = v.GetString("http_addr")
	}
	if v.IsSet("lockfile_path") {
		cfg.LockfilePath = v.GetString("lockfile_path")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("persist_dsn") {
		cfg.PersistDSN = v.GetString("persist_dsn")
	}
	if v.IsSet("tcp_token") {
		cfg.TCPToken = v.GetString("tcp_token")
	}
	return cfg, nil
}
