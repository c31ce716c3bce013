package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const configFileName = "lifeline_config.yaml"

// IntervalRule is the minimum gap between completed donations for one donation
// type. BySex overrides DefaultDays for specific donor sexes (e.g. a longer
// whole-blood interval for female donors).
type IntervalRule struct {
	DefaultDays int            `yaml:"defaultDays" validate:"required,min=1"`
	BySex       map[string]int `yaml:"bySex,omitempty" validate:"omitempty,dive,min=1"`
}

// CampSeries defines a recurring camp drive expanded by the plan-camps command
type CampSeries struct {
	RRule           string  `yaml:"rrule" validate:"required"`
	Name            string  `yaml:"name" validate:"required"`
	Province        string  `yaml:"province" validate:"required"`
	District        string  `yaml:"district" validate:"required"`
	Location        string  `yaml:"location" validate:"required"`
	NearestHospital string  `yaml:"nearestHospital,omitempty"`
	StartTime       string  `yaml:"startTime" validate:"required"`
	EndTime         string  `yaml:"endTime" validate:"required"`
	Capacity        *int    `yaml:"capacity,omitempty" validate:"omitempty,min=1"`
	Lat             float64 `yaml:"lat,omitempty"`
	Lng             float64 `yaml:"lng,omitempty"`
}

// Notify holds the Gmail sender settings. Empty GmailUserID disables email.
type Notify struct {
	GmailUserID string `yaml:"gmailUserID,omitempty" validate:"omitempty,email"`
	GmailSender string `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
}

// Config represents the application configuration
type Config struct {
	ListenAddr         string                  `yaml:"listenAddr" validate:"required"`
	DatabaseURL        string                  `yaml:"databaseURL,omitempty"`
	UnitShelfLifeDays  int                     `yaml:"unitShelfLifeDays" validate:"required,min=1"`
	SlotSpacingMinutes int                     `yaml:"slotSpacingMinutes" validate:"min=0"`
	Intervals          map[string]IntervalRule `yaml:"donationIntervals,omitempty" validate:"omitempty,dive"`
	CampSeries         []CampSeries            `yaml:"campSeries,omitempty" validate:"dive"`
	Notify             Notify                  `yaml:"notify,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when no file is present: in-memory
// storage, 35-day unit shelf life, 15-minute slot spacing, and the standard
// donation interval table.
func Default() *Config {
	return &Config{
		ListenAddr:         ":8080",
		UnitShelfLifeDays:  35,
		SlotSpacingMinutes: 15,
		Intervals: map[string]IntervalRule{
			"whole_blood": {DefaultDays: 84},
			"platelets":   {DefaultDays: 28},
			"plasma":      {DefaultDays: 14},
		},
	}
}

// Load loads and validates the configuration from lifeline_config.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct, the camp series rrules, and
// the time windows
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, series := range cfg.CampSeries {
		if _, err := rrule.StrToRRule(series.RRule); err != nil {
			return fmt.Errorf("invalid rrule in campSeries[%d]: %w", i, err)
		}
		start, err := parseClock(series.StartTime)
		if err != nil {
			return fmt.Errorf("invalid startTime in campSeries[%d]: %w", i, err)
		}
		end, err := parseClock(series.EndTime)
		if err != nil {
			return fmt.Errorf("invalid endTime in campSeries[%d]: %w", i, err)
		}
		if !end.After(start) {
			return fmt.Errorf("campSeries[%d]: endTime must be after startTime", i)
		}
	}

	return nil
}

// IntervalDays returns the required gap in days for a donation type and donor
// sex, falling back to the type default, then to the whole-blood default.
func (c *Config) IntervalDays(donationType, sex string) int {
	rule, ok := c.Intervals[donationType]
	if !ok {
		rule, ok = c.Intervals["whole_blood"]
		if !ok {
			return 84
		}
	}
	if days, ok := rule.BySex[sex]; ok {
		return days
	}
	return rule.DefaultDays
}

func parseClock(clock string) (time.Time, error) {
	return time.Parse("15:04", clock)
}

func findConfigFile() (string, error) {
	// Current directory first
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(home, configFileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("config file %s not found in current or home directory", configFileName)
}
