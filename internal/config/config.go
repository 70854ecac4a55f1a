// Package config resolves runtime settings from flags, an optional YAML file
// and LIFTSESSION_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/store"
	"github.com/lowaak/liftsession/internal/watchdog"
)

const envPrefix = "LIFTSESSION"

// Config holds every setting the binary needs
type Config struct {
	PlanFile string
	DBPath   string

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	WatchdogTimeout  time.Duration
	ManualEditWindow time.Duration
	Interval         interval.Defaults

	// ConfigFileUsed is empty when no file was read
	ConfigFileUsed string
}

// Load parses args (without the program name) and merges the other sources.
// pflag.ErrHelp is returned unchanged when -h is given.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("liftsession", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("plan", "", "path to a YAML workout plan (built-in sample when empty)")
	fs.String("db", "", "path to the session database")
	fs.String("log-file", "", "path to the rotating log file")
	fs.Duration("watchdog-timeout", watchdog.DefaultTimeout, "how long a save may stay pending")
	fs.Int("work", interval.DefaultWorkSeconds, "default interval work seconds")
	fs.Int("rest", interval.DefaultRestSeconds, "default interval rest seconds")
	fs.Int("set-rest", interval.DefaultSetRestSeconds, "default rest between interval sets in seconds")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	binds := map[string]string{
		"plan":                      "plan",
		"db":                        "db",
		"log.file":                  "log-file",
		"watchdog.timeout":          "watchdog-timeout",
		"interval.work_seconds":     "work",
		"interval.rest_seconds":     "rest",
		"interval.set_rest_seconds": "set-rest",
	}
	for key, flag := range binds {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		PlanFile:         v.GetString("plan"),
		DBPath:           v.GetString("db"),
		LogFile:          v.GetString("log.file"),
		LogMaxSizeMB:     v.GetInt("log.max_size_mb"),
		LogMaxBackups:    v.GetInt("log.max_backups"),
		WatchdogTimeout:  v.GetDuration("watchdog.timeout"),
		ManualEditWindow: v.GetDuration("drop_set.manual_edit_window"),
		Interval: interval.Defaults{
			WorkSeconds:    v.GetInt("interval.work_seconds"),
			RestSeconds:    v.GetInt("interval.rest_seconds"),
			SetRestSeconds: v.GetInt("interval.set_rest_seconds"),
		},
		ConfigFileUsed: v.ConfigFileUsed(),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("plan", "")
	v.SetDefault("db", store.DefaultDBPath())
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("watchdog.timeout", watchdog.DefaultTimeout)
	v.SetDefault("drop_set.manual_edit_window", protocol.DefaultManualEditWindow)
	v.SetDefault("interval.work_seconds", interval.DefaultWorkSeconds)
	v.SetDefault("interval.rest_seconds", interval.DefaultRestSeconds)
	v.SetDefault("interval.set_rest_seconds", interval.DefaultSetRestSeconds)
}

func defaultLogFile() string {
	return filepath.Join(store.DataDir(), "liftsession.log")
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return errors.New("db path cannot be empty")
	}
	if c.WatchdogTimeout <= 0 {
		return fmt.Errorf("watchdog.timeout must be positive, got %v", c.WatchdogTimeout)
	}
	if c.ManualEditWindow < 0 {
		return fmt.Errorf("drop_set.manual_edit_window cannot be negative, got %v", c.ManualEditWindow)
	}
	if c.LogMaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive, got %d", c.LogMaxSizeMB)
	}
	if c.Interval.WorkSeconds < 0 || c.Interval.RestSeconds < 0 || c.Interval.SetRestSeconds < 0 {
		return errors.New("interval durations cannot be negative")
	}
	return nil
}
