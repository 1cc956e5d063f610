// Package config loads run settings from a YAML file, a .env file and
// ORMODEL_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v2"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/perdasilva/ormodel/api/v1alpha1"
)

const EnvPrefix = "ORMODEL_"

const (
	StrategyAuto       = "auto"
	StrategyExhaustive = "exhaustive"
	StrategyLazy       = "lazy"

	CapacityPerLine = "per-line"
	CapacityUniform = "uniform"

	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceSQL      = "sql"
)

type Routing struct {
	Strategy           string `yaml:"strategy"`
	MaxExhaustiveStops int    `yaml:"maxExhaustiveStops"`
	MaxCutRounds       int    `yaml:"maxCutRounds"`
}

type Rail struct {
	CapacityMode string `yaml:"capacityMode"`
}

type Projects struct {
	// Margin overrides the minimum profit of the dataset when set.
	Margin *float64 `yaml:"margin,omitempty"`
}

// Data selects where datasets are read from.
type Data struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Config struct {
	TimeLimit    time.Duration `yaml:"timeLimit"`
	MaxSolutions int           `yaml:"maxSolutions"`
	LogLevel     string        `yaml:"logLevel"`
	Engine       string        `yaml:"engine"`
	NodeLimit    int           `yaml:"nodeLimit"`

	Routing  Routing  `yaml:"routing"`
	Rail     Rail     `yaml:"rail"`
	Projects Projects `yaml:"projects"`
	Data     Data     `yaml:"data"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		TimeLimit: 30 * time.Second,
		LogLevel:  "info",
		NodeLimit: 200000,
		Routing: Routing{
			Strategy:           StrategyAuto,
			MaxExhaustiveStops: 12,
			MaxCutRounds:       100,
		},
		Rail:     Rail{CapacityMode: CapacityPerLine},
		Data:     Data{Source: SourceEmbedded, Driver: "sqlite"},
	}
}

// Load reads path (if not empty) over the defaults, then the .env file
// at envFile (if present), then the process environment.
func Load(path, envFile string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, c); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// ApplyEnv overrides settings from ORMODEL_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "TIME_LIMIT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIME_LIMIT: %w", EnvPrefix, err))
		} else {
			c.TimeLimit = d
		}
	}
	if v, ok := lookup(EnvPrefix + "PROJECTS_MARGIN"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPROJECTS_MARGIN: %w", EnvPrefix, err))
		} else {
			c.Projects.Margin = &f
		}
	}
	num("MAX_SOLUTIONS", &c.MaxSolutions)
	num("NODE_LIMIT", &c.NodeLimit)
	num("ROUTING_MAX_EXHAUSTIVE_STOPS", &c.Routing.MaxExhaustiveStops)
	num("ROUTING_MAX_CUT_ROUNDS", &c.Routing.MaxCutRounds)
	str("LOG_LEVEL", &c.LogLevel)
	str("ENGINE", &c.Engine)
	str("ROUTING_STRATEGY", &c.Routing.Strategy)
	str("RAIL_CAPACITY_MODE", &c.Rail.CapacityMode)
	str("DATA_SOURCE", &c.Data.Source)
	str("DATA_PATH", &c.Data.Path)
	str("DATA_DRIVER", &c.Data.Driver)
	str("DATA_DSN", &c.Data.DSN)
	return utilerrors.NewAggregate(errs)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.TimeLimit < 0 {
		errs = append(errs, fmt.Errorf("timeLimit must not be negative, got %s", c.TimeLimit))
	}
	if c.MaxSolutions < 0 {
		errs = append(errs, fmt.Errorf("maxSolutions must not be negative, got %d", c.MaxSolutions))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logLevel %q", c.LogLevel))
	}
	switch c.Engine {
	case "", "sat", "mip":
	default:
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}
	switch c.Routing.Strategy {
	case StrategyAuto, StrategyExhaustive, StrategyLazy:
	default:
		errs = append(errs, fmt.Errorf("unknown routing strategy %q", c.Routing.Strategy))
	}
	if c.Routing.MaxExhaustiveStops < 2 {
		errs = append(errs, fmt.Errorf("routing maxExhaustiveStops must be at least 2, got %d", c.Routing.MaxExhaustiveStops))
	}
	if c.Routing.MaxCutRounds < 1 {
		errs = append(errs, fmt.Errorf("routing maxCutRounds must be positive, got %d", c.Routing.MaxCutRounds))
	}
	switch c.Rail.CapacityMode {
	case CapacityPerLine, CapacityUniform:
	default:
		errs = append(errs, fmt.Errorf("unknown rail capacityMode %q", c.Rail.CapacityMode))
	}
	switch c.Data.Source {
	case SourceEmbedded:
	case SourceFile:
		if c.Data.Path == "" {
			errs = append(errs, errors.New("data source file needs a path"))
		}
	case SourceSQL:
		if c.Data.DSN == "" {
			errs = append(errs, errors.New("data source sql needs a dsn"))
		}
		if c.Data.Driver != "sqlite" && c.Data.Driver != "pgx" {
			errs = append(errs, fmt.Errorf("unknown sql driver %q", c.Data.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown data source %q", c.Data.Source))
	}
	return utilerrors.NewAggregate(errs)
}

// RunSpec returns the run parameters for task over dataset.
func (c *Config) RunSpec(task, dataset string, mode v1alpha1.Mode) v1alpha1.RunSpec {
	spec := v1alpha1.RunSpec{
		Task:         task,
		Dataset:      dataset,
		Engine:       c.Engine,
		Mode:         mode,
		MaxSolutions: c.MaxSolutions,
	}
	if c.TimeLimit > 0 {
		spec.TimeLimit = c.TimeLimit.String()
	}
	return spec
}
