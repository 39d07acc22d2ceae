package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/internal/bot"
)

const (
	defaultWizardTTL      = 30 * time.Minute
	defaultDeliverTimeout = 30 * time.Second
)

// SchedulerConfig describes where posts go and who may schedule them.
type SchedulerConfig struct {
	// Channel is the destination: numeric chat id or @username.
	Channel      string  `yaml:"channel" envconfig:"CHANNEL"`
	AllowedUsers []int64 `yaml:"allowed_users" envconfig:"ALLOWED_USERS"`
	// Timezone is an IANA zone name used for date buttons and rendering.
	Timezone       string        `yaml:"timezone" envconfig:"TZ_NAME"`
	NotifyOrigin   bool          `yaml:"notify_origin" envconfig:"NOTIFY_ORIGIN"`
	RecheckAuth    bool          `yaml:"recheck_auth" envconfig:"RECHECK_AUTH"`
	// WizardTTL drops idle conversations; 30m when the key is absent, 0 disables expiry.
	WizardTTL      time.Duration `yaml:"wizard_ttl" envconfig:"WIZARD_TTL"`
	DeliverTimeout time.Duration `yaml:"deliver_timeout" envconfig:"DELIVER_TIMEOUT"`

	location  *time.Location
	recipient helpers.ChatRecipient
}

// Location returns the loaded timezone.
func (s SchedulerConfig) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// Recipient returns the parsed destination channel.
func (s SchedulerConfig) Recipient() helpers.ChatRecipient {
	return s.recipient
}

// MetricsConfig controls the Prometheus endpoint; an empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Scheduler SchedulerConfig     `yaml:"scheduler"`
	Database  coredatabase.Config `yaml:"database"`
	Metrics   MetricsConfig       `yaml:"metrics"`
}

// LoadConfig reads and validates the configuration at path.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaultConfig holds values kept when the file and environment leave a key unset.
func defaultConfig() Config {
	return Config{Scheduler: SchedulerConfig{WizardTTL: defaultWizardTTL}}
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	s := &cfg.Scheduler
	to, err := bot.ParseChannel(s.Channel)
	if err != nil {
		return fmt.Errorf("scheduler.channel: %w", err)
	}
	s.recipient = to

	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	s.Timezone, s.location = tz, loc

	for _, id := range s.AllowedUsers {
		if id <= 0 {
			return fmt.Errorf("scheduler.allowed_users: invalid user id %d", id)
		}
	}

	if s.WizardTTL < 0 {
		return fmt.Errorf("scheduler.wizard_ttl must be >= 0")
	}
	switch {
	case s.DeliverTimeout < 0:
		return fmt.Errorf("scheduler.deliver_timeout must be >= 0")
	case s.DeliverTimeout == 0:
		s.DeliverTimeout = defaultDeliverTimeout
	}

	cfg.Metrics.Listen = strings.TrimSpace(cfg.Metrics.Listen)
	return nil
}
