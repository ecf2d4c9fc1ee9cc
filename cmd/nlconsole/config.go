package main

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/nlconsole/internal/backup"
	"github.com/tinytelemetry/nlconsole/internal/model"
	"github.com/tinytelemetry/nlconsole/internal/session"
)

const (
	defaultBindHost     = "127.0.0.1"
	defaultExportDir    = "."
	maxHistoryLimit     = model.DefaultHistoryLimit
	defaultConfigSubdir = "nlconsole"
)

// appConfig is internal runtime configuration.
type appConfig struct {
	APIURL             string        `mapstructure:"api-url"`
	RequestTimeout     time.Duration `mapstructure:"request-timeout"`
	DBPath             string        `mapstructure:"db-path"`
	QueryTimeout       time.Duration `mapstructure:"query-timeout"`
	Ephemeral          bool          `mapstructure:"ephemeral"`
	ExportDir          string        `mapstructure:"export-dir"`
	Skin               string        `mapstructure:"skin"`
	ShareCommand       string        `mapstructure:"share-command"`
	APIEnabled         bool          `mapstructure:"api-enabled"`
	APIPort            int           `mapstructure:"api-port"`
	APIAddr            string        `mapstructure:"api-addr"`
	HistoryLimit       int           `mapstructure:"history-limit"`
	ReverseScrollWheel bool          `mapstructure:"reverse-scroll-wheel"`
	BackupEnabled      bool          `mapstructure:"backup-enabled"`
	BackupInterval     time.Duration `mapstructure:"backup-interval"`
	BackupDir          string        `mapstructure:"backup-dir"`
	BackupKeepLast     int           `mapstructure:"backup-keep-last"`
	ConfigPath         string        `mapstructure:"-"` // not from config file
	ConfigDir          string        `mapstructure:"-"`
}

// loadConfig merges defaults, the config file, NLCONSOLE_* environment
// variables and any flags set on the command line, in increasing priority.
func loadConfig(configPath string, flags *pflag.FlagSet) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", defaultConfigSubdir)
	dataDir := filepath.Join(home, ".local", "share", "nlconsole")
	defaultDBPath := filepath.Join(dataDir, "nlconsole.duckdb")

	v := viper.New()
	v.SetEnvPrefix("NLCONSOLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-url", model.DefaultAPIURL)
	v.SetDefault("request-timeout", model.DefaultRequestTimeout)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("query-timeout", model.DefaultQueryTimeout)
	v.SetDefault("ephemeral", false)
	v.SetDefault("export-dir", defaultExportDir)
	v.SetDefault("skin", "")
	v.SetDefault("share-command", "")
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-port", model.DefaultAPIPort)
	v.SetDefault("api-addr", "") // host:port, overrides api-port
	v.SetDefault("history-limit", model.DefaultHistoryLimit)
	v.SetDefault("reverse-scroll-wheel", false)
	v.SetDefault("backup-enabled", false)
	v.SetDefault("backup-interval", backup.DefaultInterval)
	v.SetDefault("backup-dir", filepath.Join(dataDir, "backups"))
	v.SetDefault("backup-keep-last", backup.DefaultKeepLast)

	if flags != nil {
		for _, name := range []string{"api-url", "ephemeral"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return cfg, fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(configDir, "config.yml"))
	}

	fileRead := true
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
		fileRead = false
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if fileRead {
		cfg.ConfigPath = v.ConfigFileUsed()
	}
	cfg.ConfigDir = configDir
	if configPath != "" {
		cfg.ConfigDir = filepath.Dir(configPath)
	}

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.RequestTimeout < 0 {
		return cfg, fmt.Errorf("invalid request-timeout: %s", cfg.RequestTimeout)
	}
	if cfg.BackupEnabled && cfg.BackupInterval <= 0 {
		return cfg, fmt.Errorf("invalid backup-interval: %s", cfg.BackupInterval)
	}
	cfg.HistoryLimit = max(1, min(cfg.HistoryLimit, maxHistoryLimit))

	// Expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.ExportDir = expandHome(cfg.ExportDir, home)
	cfg.BackupDir = expandHome(cfg.BackupDir, home)

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func (c appConfig) sessionOptions() session.Options {
	return session.Options{
		APIURL:         c.APIURL,
		RequestTimeout: c.RequestTimeout,
		DBPath:         c.DBPath,
		QueryTimeout:   c.QueryTimeout,
		Ephemeral:      c.Ephemeral,
		ExportDir:      c.ExportDir,
		Skin:           c.Skin,
		ConfigDir:      c.ConfigDir,
		ShareCommand:   c.ShareCommand,
		HistoryLimit:   c.HistoryLimit,
	}
}

func (c appConfig) backupConfig() backup.Config {
	return backup.Config{
		Enabled:  c.BackupEnabled,
		Interval: c.BackupInterval,
		Dir:      c.BackupDir,
		KeepLast: c.BackupKeepLast,
	}
}

// startBackups begins rolling snapshots for a persistent session. Failures
// are logged; the console runs without backups.
func startBackups(cfg appConfig, sess *session.Session) *backup.Manager {
	if !cfg.BackupEnabled {
		return nil
	}
	if sess.Store == nil {
		log.Printf("backup: skipped, ephemeral session has no database")
		return nil
	}
	m, err := backup.NewManager(sess.Store, cfg.backupConfig())
	if err != nil {
		log.Printf("backup: %v", err)
		return nil
	}
	return m
}
