package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// ParseFlags parses the command line. Flags explicitly set win over file
// and environment values.
func ParseFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: set}
}

// Load reads the YAML config at path and applies CHATDB_* environment
// overrides. A missing file is not an error: env-only deployments are
// supported.
func Load(path string) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env
	default:
		return nil, err
	}
	applyEnv(&cfg)
	return &cfg, nil
}

// Resolve merges flags into the loaded config. Explicitly set flags win.
func Resolve(cfg *Config, fl Flags) {
	if fl.Set["addr"] {
		host, port, ok := strings.Cut(fl.Addr, ":")
		if ok {
			cfg.Server.Address = host
			if p, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = p
			}
		}
	}
	if fl.Set["db"] || cfg.Server.DBPath == "" {
		cfg.Server.DBPath = fl.DB
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SessionSecret) == "" {
		return fmt.Errorf("auth.session_secret (or CHATDB_SESSION_SECRET) is required")
	}
	if c.Server.DBPath == "" {
		return fmt.Errorf("server.db_path is required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CHATDB_SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("CHATDB_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("CHATDB_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			cfg.Server.Address = host
			if p, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = p
			}
		}
	}
	if v := os.Getenv("CHATDB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
