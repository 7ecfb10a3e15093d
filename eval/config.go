package eval

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// SafepointInterval is how many expression starts pass between interrupt checks
	SafepointInterval int `yaml:"safepoint_interval"`
	// MaxDepth limits nesting of levels
	MaxDepth int `yaml:"max_depth"`
	// Checked aborts on internal consistency violations instead of reporting them as errors
	Checked bool `yaml:"checked"`
	// Trace logs every step and invocation at debug level
	Trace bool `yaml:"trace"`
	// HaltPollPeriod is the resolution of HaltAfter deadlines
	HaltPollPeriod time.Duration `yaml:"halt_poll_period"`
}

const (
	DefaultSafepointInterval = 256
	DefaultMaxDepth          = 2048
	DefaultHaltPollPeriod    = 10 * time.Millisecond
)

func DefaultConfig() Config {
	return Config{
		SafepointInterval: DefaultSafepointInterval,
		MaxDepth:          DefaultMaxDepth,
		HaltPollPeriod:    DefaultHaltPollPeriod,
	}
}

// LoadConfig reads YAML over the defaults
func LoadConfig(data []byte) (Config, error) {
	ret := DefaultConfig()
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return Config{}, fmt.Errorf("LoadConfig: %v", err)
	}
	if err := ret.Validate(); err != nil {
		return Config{}, err
	}
	return ret, nil
}

func (c Config) Validate() error {
	if c.SafepointInterval <= 0 {
		return fmt.Errorf("safepoint_interval must be positive, got %d", c.SafepointInterval)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.HaltPollPeriod <= 0 {
		return fmt.Errorf("halt_poll_period must be positive, got %v", c.HaltPollPeriod)
	}
	return nil
}
