package chip8

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valerio/go-chip8/chip8/timing"
)

// DefaultInstructionsPerFrame gives roughly 420 instructions per second.
const DefaultInstructionsPerFrame = 7

// Config holds the VM settings.
type Config struct {
	InstructionsPerFrame int           `yaml:"instructions_per_frame"`
	TickInterval         time.Duration `yaml:"tick_interval"`
	StartPaused          bool          `yaml:"start_paused"`
	// Seed makes RND deterministic when nonzero.
	Seed uint64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		InstructionsPerFrame: DefaultInstructionsPerFrame,
		TickInterval:         timing.FrameDuration(),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.InstructionsPerFrame <= 0 {
		errs = append(errs, fmt.Errorf("instructions_per_frame must be positive, got %d", c.InstructionsPerFrame))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}
