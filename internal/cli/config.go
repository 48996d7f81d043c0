package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/reconlayout/pkg/server"
)

// Cache and store backends.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"

	storeMemory = "memory"
	storeMongo  = "mongo"
)

// Config is the optional TOML config file:
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	shutdown_timeout = "5s"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
type Config struct {
	Cache  CacheConfig   `toml:"cache"`
	Server server.Config `toml:"server"`
	Store  StoreConfig   `toml:"store"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	Backend  string `toml:"backend"` // file (default), redis, none
	Dir      string `toml:"dir"`     // file backend directory
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"` // key namespace
}

// StoreConfig selects where the server keeps layout runs.
type StoreConfig struct {
	Backend    string `toml:"backend"` // memory (default), mongo
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

func (c *Config) setDefaults() {
	if c.Cache.Backend == "" {
		c.Cache.Backend = cacheFile
	}
	if c.Store.Backend == "" {
		c.Store.Backend = storeMemory
	}
	if c.Store.Database == "" {
		c.Store.Database = appName
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "layouts"
	}
	c.Server.SetDefaults()
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case cacheFile, cacheNone:
	case cacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid cache.backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case storeMemory:
	case storeMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("invalid store.backend: %q (must be one of: memory, mongo)", c.Store.Backend)
	}
	return nil
}

// loadConfig reads path, or the default config file when path is empty. A
// missing default file yields the defaults; a missing explicit file is an
// error.
func loadConfig(path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, os.ErrNotExist) && !explicit:
		case err != nil:
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
