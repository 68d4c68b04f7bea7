// Package config loads a swap system description from YAML and builds it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// Config is the root of a swap system file. States are listed from the most
// swapped-out to the most swapped-in, and swappers join them pairwise in the
// same order.
type Config struct {
	Logging  LoggingConfig   `yaml:"logging"`
	Execute  ExecuteConfig   `yaml:"execute"`
	States   []StateConfig   `yaml:"states" validate:"required,min=2,dive"`
	Swappers []SwapperConfig `yaml:"swappers" validate:"required,min=1,dive"`

	// baseDir resolves relative store paths. Set by Load.
	baseDir string
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	Output string `yaml:"output"`
}

type ExecuteConfig struct {
	// Workers bounds parallel page transfers within a hop. Zero means
	// GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0,lte=1024"`
}

type StateConfig struct {
	Name     string      `yaml:"name" validate:"required"`
	PageSize uint64      `yaml:"page_size" validate:"required,gt=0,lte=1073741824"`
	NumPages uint64      `yaml:"num_pages" validate:"required,gt=0"`
	Store    StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Kind       string `yaml:"kind" validate:"required,oneof=memory cache file badger"`
	Path       string `yaml:"path"`
	Capacity   int    `yaml:"capacity" validate:"gte=0"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
	Prefix     string `yaml:"prefix"`
}

type SwapperConfig struct {
	Mapping string `yaml:"mapping" validate:"omitempty,oneof=offset modulo"`
	Offset  int64  `yaml:"offset"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report yaml keys rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads and validates the file at path. Relative store paths in the
// file are taken relative to the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "failed to read config file %s", path).
			WithDetail("%v", err).
			In("Load", "config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes and validates a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "failed to parse config").
			WithDetail("%v", err).
			In("Parse", "config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the relations between states and
// swappers. Chain-level rules such as page size ratios are left to the swap
// system itself.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return swaperr.Wrap(err, swaperr.CodeInvalidConfig, "Validate", "config")
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
		return swaperr.New(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "invalid config").
			WithDetail("%s", strings.Join(problems, "; ")).
			In("Validate", "config")
	}

	if len(c.Swappers) != len(c.States)-1 {
		return swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeInvalidConfig,
			"%d states need %d swappers, got %d", len(c.States), len(c.States)-1, len(c.Swappers)).
			In("Validate", "config")
	}

	names := make(map[string]bool, len(c.States))
	badgerPaths := make(map[string]string)
	for _, st := range c.States {
		if names[st.Name] {
			return swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeDuplicateState, "state %q is listed twice", st.Name).
				In("Validate", "config")
		}
		names[st.Name] = true

		switch st.Store.Kind {
		case "file":
			if st.Store.Path == "" {
				return missingPath(st)
			}
		case "badger":
			if st.Store.InMemory {
				break
			}
			if st.Store.Path == "" {
				return missingPath(st)
			}
			if other, taken := badgerPaths[st.Store.Path]; taken {
				return swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeInvalidConfig,
					"states %q and %q use the same badger directory", other, st.Name).
					WithHint("give each badger state its own path").
					In("Validate", "config")
			}
			badgerPaths[st.Store.Path] = st.Name
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return swaperr.Wrap(err, swaperr.CodeInvalidConfig, "Validate", "config")
	}
	return nil
}

func missingPath(st StateConfig) error {
	return swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeInvalidConfig,
		"state %q: %s store needs a path", st.Name, st.Store.Kind).
		In("Validate", "config")
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param())
	}
}

// LoggerConfig converts the logging section for logging.Init.
func (c *Config) LoggerConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return logging.Config{
		Level:      level,
		Format:     c.Logging.Format,
		OutputPath: primitives.Filepath(c.resolve(c.Logging.Output)),
	}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}
