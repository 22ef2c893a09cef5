package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"choliday/internal/model"
)

// BaseConfig holds the plain weekday rule used when no calendar event
// decides the day.
type BaseConfig struct {
	// Workday lists ISO weekday numbers (Monday=1 ... Sunday=7) as
	// "1-5", "1,3,5" or "1,3-5".
	Workday string `yaml:"workday" json:"workday"`
}

// CalendarConfig lists the calendar sources.
type CalendarConfig struct {
	// Source entries starting with "http" are fetched over the network;
	// anything else is read as a local file path.
	Source []string `yaml:"source" json:"source"`
	// ExpandRecurrence enables RRULE expansion around the target date.
	ExpandRecurrence bool `yaml:"expand_recurrence" json:"expand_recurrence"`
}

// PredictConfig holds the classification rules.
type PredictConfig struct {
	Work     []string       `yaml:"work" json:"work"`
	Rest     []string       `yaml:"rest" json:"rest"`
	Priority model.Priority `yaml:"priority" json:"priority"`
}

// LogConfig controls internal/log.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the serve API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ServeConfig configures the long-running HTTP mode.
type ServeConfig struct {
	Listen string `yaml:"listen" json:"listen"`
	// Refresh is a cron expression; on every tick the cached events are
	// dropped so the next request re-fetches the sources.
	Refresh   string           `yaml:"refresh" json:"refresh"`
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Base is optional; without it Monday to Friday are work days.
	Base     *BaseConfig    `yaml:"base,omitempty" json:"base,omitempty"`
	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`
	Predict  PredictConfig  `yaml:"predict" json:"predict"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Serve    ServeConfig    `yaml:"serve" json:"serve"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Calendar: CalendarConfig{Source: []string{}},
		Predict: PredictConfig{
			Work:     []string{"补班", "上班"},
			Rest:     []string{"休"},
			Priority: model.WorkOverRest,
		},
		Log: LogConfig{Level: "info"},
		Serve: ServeConfig{
			Listen:  "127.0.0.1:8080",
			Refresh: "0 */6 * * *",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults.
func (c *Config) Normalize() {
	if c.Calendar.Source == nil {
		c.Calendar.Source = []string{}
	}
	if c.Predict.Work == nil {
		c.Predict.Work = []string{}
	}
	if c.Predict.Rest == nil {
		c.Predict.Rest = []string{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Serve.Listen == "" {
		c.Serve.Listen = "127.0.0.1:8080"
	}
	if c.Serve.Refresh == "" {
		c.Serve.Refresh = "0 */6 * * *"
	}
}

// Validate checks the fields whose syntax YAML alone cannot enforce.
func (c *Config) Validate() error {
	if c.Base != nil {
		if _, err := ParseWorkdays(c.Base.Workday); err != nil {
			return fmt.Errorf("base.workday: %w", err)
		}
	}
	for i, src := range c.Calendar.Source {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("calendar.source[%d] is empty", i)
		}
	}
	if _, err := cron.ParseStandard(c.Serve.Refresh); err != nil {
		return fmt.Errorf("serve.refresh: %w", err)
	}
	return nil
}

// Workdays returns the configured work-day set, or nil when the base
// section is absent.
func (c *Config) Workdays() map[time.Weekday]bool {
	if c.Base == nil {
		return nil
	}
	days, err := ParseWorkdays(c.Base.Workday)
	if err != nil {
		return nil
	}
	return days
}

// Load reads configuration from the given YAML path.
//
// Unlike a first-run bootstrap, a missing file is an error: the predict
// rules have no meaningful defaults. Use Save (or `choliday init`) to
// write a starting point.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".choliday-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ParseWorkdays parses an ISO weekday list such as "1-5", "1,3,5" or
// "1,3-5" (Monday=1 ... Sunday=7). Ranges may be written backwards.
func ParseWorkdays(s string) (map[time.Weekday]bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty workday list")
	}

	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)

		if n, err := strconv.Atoi(part); err == nil {
			wd, err := isoWeekday(n)
			if err != nil {
				return nil, err
			}
			days[wd] = true
			continue
		}

		lo, hi, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("invalid workday %q: want a number 1-7 or a range like 1-5", part)
		}
		a, errA := strconv.Atoi(strings.TrimSpace(lo))
		b, errB := strconv.Atoi(strings.TrimSpace(hi))
		if errA != nil || errB != nil {
			return nil, fmt.Errorf("invalid workday range %q", part)
		}
		if _, err := isoWeekday(a); err != nil {
			return nil, err
		}
		if _, err := isoWeekday(b); err != nil {
			return nil, err
		}
		for n := min(a, b); n <= max(a, b); n++ {
			wd, _ := isoWeekday(n)
			days[wd] = true
		}
	}
	return days, nil
}

func isoWeekday(n int) (time.Weekday, error) {
	if n < 1 || n > 7 {
		return 0, fmt.Errorf("workday %d out of range: numbers 1-7 only", n)
	}
	return time.Weekday(n % 7), nil
}
