package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

type Config struct {
	Engine  Engine  `toml:"engine"`
	Scenes  Scenes  `toml:"scenes"`
	Logging Logging `toml:"logging"`
}

type Engine struct {
	MaxEntities int `toml:"max_entities"` // 0 = unbounded
	// SystemPriorities lists system names in execution order. Systems not listed run
	// after all listed ones.
	SystemPriorities []string      `toml:"system_priorities"`
	TickRate         time.Duration `toml:"tick_rate"`
	Scripts          []string      `toml:"scripts"` // Lua system files
}

type Scenes struct {
	Files []string `toml:"files"` // YAML descriptors loaded at startup
	Start string   `toml:"start"` // scene activated after loading, by name
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	Output string `toml:"output"` // file path, stderr when empty
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for anything a file leaves out.
func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxEntities: 0,
			TickRate:    16 * time.Millisecond,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	if c.Engine.MaxEntities < 0 {
		errs = multierr.Append(errs, fmt.Errorf("engine.max_entities must not be negative, got %d", c.Engine.MaxEntities))
	}
	if c.Engine.TickRate <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("engine.tick_rate must be positive, got %s", c.Engine.TickRate))
	}
	seen := make(map[string]bool, len(c.Engine.SystemPriorities))
	for _, name := range c.Engine.SystemPriorities {
		if name == "" {
			errs = multierr.Append(errs, errors.New("engine.system_priorities contains an empty name"))
			continue
		}
		if seen[name] {
			errs = multierr.Append(errs, fmt.Errorf("engine.system_priorities lists %q twice", name))
		}
		seen[name] = true
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errs
}

// Priority returns the priority for the system called name: its position in
// SystemPriorities, or len(SystemPriorities) when it is not listed.
func (e Engine) Priority(name string) int {
	for i, listed := range e.SystemPriorities {
		if listed == name {
			return i
		}
	}
	return len(e.SystemPriorities)
}
