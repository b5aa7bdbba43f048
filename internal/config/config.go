// Package config holds the conversion settings shared by the CLI and the
// batch driver. Values come from defaults, then GRAF_* environment
// variables (optionally loaded from a .env file), then command-line flags.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/FocuswithJustin/grafstandoff/core/convert"
	graferrors "github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
)

// DefaultStandoffSet is the annotation set loaded standoff records go to.
const DefaultStandoffSet = "Standoff markups"

// Environment variable names.
const (
	EnvSpaceName        = "GRAF_SPACE_NAME"
	EnvSpaceType        = "GRAF_SPACE_TYPE"
	EnvDefaultSpaceType = "GRAF_DEFAULT_SPACE_TYPE"
	EnvStandoffSet      = "GRAF_STANDOFF_SET"
	EnvDefaultSpaceName = "GRAF_DEFAULT_SPACE_NAME"
	EnvFailFast         = "GRAF_FAIL_FAST"
	EnvWorkers          = "GRAF_WORKERS"
	EnvLogLevel         = "GRAF_LOG_LEVEL"
	EnvLogFormat        = "GRAF_LOG_FORMAT"
)

// Config is the full set of conversion settings.
type Config struct {
	SpaceName        string // annotation space for built graphs
	SpaceType        string // type URI of SpaceName
	DefaultSpaceType string // base for spaces declared without a type
	StandoffSet      string // annotation set that receives loaded records
	DefaultSpaceName string // graf:set written for nodes outside any space
	FailFast         bool
	Workers          int
	LogLevel         string
	LogFormat        string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SpaceName:        graf.DefaultSpaceName,
		SpaceType:        graf.DefaultSpaceType,
		DefaultSpaceType: graf.DefaultSpaceTypeBase,
		StandoffSet:      DefaultStandoffSet,
		DefaultSpaceName: convert.DefaultFlatSpaceName,
		FailFast:         false,
		Workers:          runtime.GOMAXPROCS(0),
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// FromEnv loads .env files (missing files are ignored) and overlays any
// GRAF_* variables on Default. With no files named, ./.env is tried.
func FromEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else {
		for _, f := range files {
			if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
				return Config{}, graferrors.NewIO("load env file", f, err)
			}
		}
	}
	cfg := Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays the variables found by lookup on c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvSpaceName, &c.SpaceName)
	str(EnvSpaceType, &c.SpaceType)
	str(EnvDefaultSpaceType, &c.DefaultSpaceType)
	str(EnvStandoffSet, &c.StandoffSet)
	str(EnvDefaultSpaceName, &c.DefaultSpaceName)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)

	if v, ok := lookup(EnvFailFast); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &graferrors.ValidationError{Field: EnvFailFast, Value: v, Message: "not a boolean", Err: err}
		}
		c.FailFast = b
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &graferrors.ValidationError{Field: EnvWorkers, Value: v, Message: "not an integer", Err: err}
		}
		c.Workers = n
	}
	return c.Validate()
}

// Validate checks the settings for values no conversion can use.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return graferrors.NewValidation("workers", fmt.Sprintf("must be at least 1, got %d", c.Workers))
	}
	if c.SpaceName == "" {
		return graferrors.NewValidation("space name", "must not be empty")
	}
	if c.StandoffSet == "" {
		return graferrors.NewValidation("standoff set", "must not be empty")
	}
	return nil
}

// Policy returns the error policy the settings select.
func (c Config) Policy() convert.Policy {
	return convert.Policy{FailFast: c.FailFast}
}

// BuildOptions returns the graph builder options the settings select.
func (c Config) BuildOptions(types ...string) convert.BuildOptions {
	return convert.BuildOptions{
		SpaceName:        c.SpaceName,
		SpaceType:        c.SpaceType,
		DefaultSpaceType: c.DefaultSpaceType,
		Types:            types,
	}
}
