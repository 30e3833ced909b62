package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models dayline.yml.
type Config struct {
	Spaces    []string `yaml:"spaces"`
	WeekStart string   `yaml:"week_start"`
	Agenda    struct {
		HideCompleted bool `yaml:"hide_completed"`
	} `yaml:"agenda"`
	Auth struct {
		JWTSecret string   `yaml:"jwt_secret"`
		APIKeys   []string `yaml:"api_keys"`
	} `yaml:"auth"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Spaces) != 2 {
		return fmt.Errorf("config.spaces must name exactly two spaces")
	}
	seen := map[string]bool{}
	for _, s := range c.Spaces {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("config.spaces contains an empty space")
		}
		if seen[s] {
			return fmt.Errorf("config.spaces contains duplicate space %q", s)
		}
		seen[s] = true
	}
	if _, ok := weekdays[strings.ToLower(c.WeekStart)]; !ok {
		return fmt.Errorf("config.week_start %q is not a weekday name", c.WeekStart)
	}
	return nil
}

// HasSpace reports whether name is one of the configured spaces.
func (c *Config) HasSpace(name string) bool {
	for _, s := range c.Spaces {
		if s == name {
			return true
		}
	}
	return false
}

// WeekStartDay returns the configured week-start weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if d, ok := weekdays[strings.ToLower(c.WeekStart)]; ok {
		return d
	}
	return time.Monday
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dayline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const defaultTemplate = `spaces: [work, personal]

week_start: monday

agenda:
  hide_completed: false

auth:
  jwt_secret: ""
  api_keys: []
`
