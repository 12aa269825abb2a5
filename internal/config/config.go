package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"github.com/username/prodcalendar/internal/calendar"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL    = 60 * 24 * time.Hour
	defaultHTTPTimeout = 10 * time.Second
	defaultSchedule    = "0 4 * * *"
)

// Config represents application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
}

// CalendarConfig represents production calendar configuration
type CalendarConfig struct {
	Cache         bool           `mapstructure:"cache"`
	CacheDir      string         `mapstructure:"cache_dir"`
	PreloadYear   int            `mapstructure:"preload_year"` // 0 = current year, -1 = disabled
	CacheTTL      string         `mapstructure:"cache_ttl"`
	BaseURL       string         `mapstructure:"base_url"`
	Country       string         `mapstructure:"country"`
	HTTPTimeout   string         `mapstructure:"http_timeout"`
	OverridesFile string         `mapstructure:"overrides_file"`
	Overrides     map[string]int `mapstructure:"overrides"` // "YYYY-MM-DD" -> 0 (workday) | 1 (holiday)
}

// DaemonConfig represents refresh daemon configuration
type DaemonConfig struct {
	Schedule        string `mapstructure:"schedule"` // cron spec, local time
	RefreshNextYear bool   `mapstructure:"refresh_next_year"`
	LogFile         string `mapstructure:"log_file"`
	LogLevel        string `mapstructure:"log_level"`
}

// Load loads configuration from file. Without an explicit path a missing
// config file is not an error and defaults are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.prodcalendar")
		v.AddConfigPath("/etc/prodcalendar")
	}

	// Read environment variables, e.g. PRODCAL_CALENDAR_CACHE_DIR
	v.SetEnvPrefix("PRODCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("calendar.cache", true)
	v.SetDefault("calendar.cache_dir", calendar.DefaultCacheDir)
	v.SetDefault("calendar.preload_year", 0)
	v.SetDefault("calendar.cache_ttl", defaultCacheTTL.String())
	v.SetDefault("calendar.base_url", calendar.DefaultBaseURL)
	v.SetDefault("calendar.country", calendar.DefaultCountry)
	v.SetDefault("calendar.http_timeout", defaultHTTPTimeout.String())
	v.SetDefault("daemon.schedule", defaultSchedule)
	v.SetDefault("daemon.refresh_next_year", true)
	v.SetDefault("daemon.log_level", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate Calendar config
	if c.Calendar.Country == "" {
		return fmt.Errorf("calendar.country is required")
	}
	if c.Calendar.BaseURL == "" {
		return fmt.Errorf("calendar.base_url is required")
	}
	if u, err := url.Parse(c.Calendar.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("calendar.base_url must be an absolute URL, got '%s'", c.Calendar.BaseURL)
	}
	if c.Calendar.PreloadYear < -1 {
		return fmt.Errorf("calendar.preload_year must be a year, 0 or -1, got %d", c.Calendar.PreloadYear)
	}
	if _, err := parseDuration(c.Calendar.CacheTTL); err != nil {
		return fmt.Errorf("calendar.cache_ttl: %w", err)
	}
	if _, err := c.Calendar.overrideDates(); err != nil {
		return err
	}

	// Validate Daemon config
	if _, err := cron.ParseStandard(c.Daemon.Schedule); err != nil {
		return fmt.Errorf("daemon.schedule '%s' is invalid: %w", c.Daemon.Schedule, err)
	}

	return nil
}

// GetCacheTTL returns cache TTL duration
func (c *CalendarConfig) GetCacheTTL() time.Duration {
	duration, err := parseDuration(c.CacheTTL)
	if err != nil || c.CacheTTL == "" {
		return defaultCacheTTL
	}
	return duration
}

// GetHTTPTimeout returns the download timeout
func (c *CalendarConfig) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout == "" {
		return defaultHTTPTimeout
	}
	duration, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || duration <= 0 {
		return defaultHTTPTimeout
	}
	return duration
}

// GetPreloadYear resolves the preload setting against now, 0 means no preloading
func (c *CalendarConfig) GetPreloadYear(now time.Time) int {
	switch c.PreloadYear {
	case 0:
		return now.Year()
	case -1:
		return 0
	default:
		return c.PreloadYear
	}
}

// Options converts the configuration into calendar options, loading the
// overrides file if one is configured. Inline overrides win over the file.
func (c *CalendarConfig) Options(logger *zap.Logger) (calendar.Options, error) {
	opts := calendar.DefaultOptions()
	opts.EnableCache = c.Cache
	opts.CacheDir = c.CacheDir
	opts.PreloadYear = c.GetPreloadYear(time.Now())
	opts.CacheTTL = c.GetCacheTTL()
	opts.Country = strings.ToUpper(c.Country)

	dates, err := c.overrideDates()
	if err != nil {
		return calendar.Options{}, err
	}
	inline, err := calendar.NewOverrides(dates)
	if err != nil {
		return calendar.Options{}, fmt.Errorf("calendar.overrides: %w", err)
	}
	opts.Overrides = inline

	if c.OverridesFile != "" {
		fromFile, err := calendar.LoadOverrides(c.OverridesFile, logger)
		if err != nil {
			return calendar.Options{}, err
		}
		opts.Overrides = fromFile.Merge(inline)
	}

	return opts, nil
}

func (c *CalendarConfig) overrideDates() (map[civil.Date]calendar.OverrideFlag, error) {
	dates := make(map[civil.Date]calendar.OverrideFlag, len(c.Overrides))
	for key, value := range c.Overrides {
		d, err := civil.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("calendar.overrides: invalid date '%s'", key)
		}
		if value != 0 && value != 1 {
			return nil, fmt.Errorf("calendar.overrides: value for %s must be 0 (workday) or 1 (holiday), got %d", key, value)
		}
		dates[d] = calendar.OverrideFlag(value)
	}
	return dates, nil
}

// parseDuration accepts time.ParseDuration strings plus a "d" suffix for days
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if strings.HasSuffix(s, "d") {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil || days < 0 {
			return 0, fmt.Errorf("invalid duration '%s'", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative, got '%s'", s)
	}
	return d, nil
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Calendar.CacheDir = os.ExpandEnv(c.Calendar.CacheDir)
	c.Calendar.OverridesFile = os.ExpandEnv(c.Calendar.OverridesFile)
	c.Daemon.LogFile = os.ExpandEnv(c.Daemon.LogFile)
}
