// Package config loads the two layers of configuration the scheduler
// family recognizes: a per-store "fz.yaml" carrying the scheduler's own
// tunable surface (spec §6), loaded directly with gopkg.in/yaml.v3 in
// the same minimal, no-framework style as the teacher's LoadLocalConfig;
// and a global installation file in TOML, layered under flag and
// environment precedence by spf13/viper, in the teacher's root-command
// style.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scheduler is the configuration surface recognized by the EPS
// scheduler and the day-packing scheduler (spec §6).
type Scheduler struct {
	ChunkMinutes int `yaml:"chunk_minutes"`

	MapMultiplier int `yaml:"map_multiplier"`
	MapDays       int `yaml:"map_days"`

	DolaterEndOfDay   string `yaml:"dolater_endofday"`   // "HH:MM"
	DoearlierEndOfDay string `yaml:"doearlier_endofday"` // "HH:MM"

	EndOfDayPriorities bool `yaml:"endofday_priorities"`
	EPSGroupOffsetMins int  `yaml:"eps_group_offset_mins"`

	UpdateToEarlierAllowed bool `yaml:"update_to_earlier_allowed"`
	FetchDaysBeyondTLimit  int  `yaml:"fetch_days_beyond_t_limit"`

	WarnRepeatingTooTight bool `yaml:"warn_repeating_too_tight"`
	TimezoneOffsetHours   int  `yaml:"timezone_offset_hours"`

	PackMoveable       bool `yaml:"pack_moveable"`
	PackIntervalBeyond int  `yaml:"pack_interval_beyond"` // seconds
}

// Default returns the scheduler configuration with every field at the
// value spec.md §6 names as the default, or as a reasonable default
// where none is named.
func Default() Scheduler {
	return Scheduler{
		ChunkMinutes:           20,
		MapMultiplier:          1,
		MapDays:                30,
		DolaterEndOfDay:        "22:00",
		DoearlierEndOfDay:      "20:00",
		EndOfDayPriorities:     true,
		EPSGroupOffsetMins:     1,
		UpdateToEarlierAllowed: true,
		FetchDaysBeyondTLimit:  150,
		WarnRepeatingTooTight:  true,
		TimezoneOffsetHours:    0,
		PackMoveable:           false,
		PackIntervalBeyond:     86400,
	}
}

// DolaterEndOfDayDuration parses DolaterEndOfDay ("HH:MM") into a
// duration since midnight.
func (s Scheduler) DolaterEndOfDayDuration() (time.Duration, error) {
	return parseClock(s.DolaterEndOfDay)
}

// DoearlierEndOfDayDuration parses DoearlierEndOfDay ("HH:MM") into a
// duration since midnight.
func (s Scheduler) DoearlierEndOfDayDuration() (time.Duration, error) {
	return parseClock(s.DoearlierEndOfDay)
}

func parseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("bad HH:MM clock value %q: %w", s, err)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// LoadSchedulerConfig reads a per-store "fz.yaml" file, falling back to
// Default for any field the file omits. A missing file is not an error:
// it simply yields the defaults, mirroring the teacher's
// LoadLocalConfig tolerance of an absent per-repo config file.
func LoadSchedulerConfig(path string) (Scheduler, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// SaveSchedulerConfig writes cfg to path as YAML, creating or
// overwriting the file.
func SaveSchedulerConfig(path string, cfg Scheduler) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
