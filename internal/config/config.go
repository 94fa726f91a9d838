package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"formulagrid/internal/calc"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is read from formulagrid.yaml (or .json).
type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Display struct {
		// Precision is the number of significant digits shown for
		// values; -1 means the shortest exact form.
		Precision int `mapstructure:"precision"`
	} `mapstructure:"display"`

	Functions struct {
		Aliases  map[string]string `mapstructure:"aliases"`
		Disabled []string          `mapstructure:"disabled"`
	} `mapstructure:"functions"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Key      string `mapstructure:"key"`
	} `mapstructure:"redis"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.Log.Level = "info"
	c.Display.Precision = -1
	c.Server.Addr = ":8080"
	c.Redis.Addr = "localhost:6379"
	c.Redis.Key = "formulagrid:cells"
	return c
}

// Load reads a YAML or JSON file over the defaults. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Registry builds the function registry: the built-ins, then aliases,
// then removals.
func (c Config) Registry() (calc.Registry, error) {
	funcs := calc.DefaultRegistry()

	names := make([]string, 0, len(c.Functions.Aliases))
	for name := range c.Functions.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := funcs.Alias(name, c.Functions.Aliases[name]); err != nil {
			return nil, err
		}
	}

	for _, name := range c.Functions.Disabled {
		delete(funcs, name)
	}
	return funcs, nil
}
