package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure returned from LoadConfig.
var ErrInvalidConfig = errors.New("invalid configuration")

const defaultEnvFile = ".env"

type Config struct {
	Hostname     string              `json:"hostname"`
	MetricsAddr  string              `json:"metrics-addr"`
	Thresholds   *ThresholdConfig    `json:"thresholds"`
	Notification *NotificationConfig `json:"notification"`
	Log          *LogConfig          `json:"log"`
}

type ThresholdConfig struct {
	CPUPercent          float64 `json:"cpu-threshold-percent"`
	MemPercent          float64 `json:"mem-threshold-percent"`
	DiskPercent         float64 `json:"disk-threshold-percent"`
	DiskPartition       string  `json:"disk-partition"`
	TopN                int     `json:"top-n-processes"`
	PollIntervalSeconds int     `json:"poll-interval-seconds"`
}

type NotificationConfig struct {
	SMTP    *SMTPConfig    `json:"smtp"`
	Webhook *WebhookConfig `json:"webhook"`
}

type SMTPConfig struct {
	Enabled  bool     `json:"enabled"`
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	User     string   `json:"user"`
	Password string   `json:"-"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type WebhookConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

type LogConfig struct {
	File       string `json:"log-file"`
	Level      string `json:"log-level"`
	MaxSizeMB  int    `json:"log-max-size-mb"`
	MaxBackups int    `json:"log-max-backups"`
}

func (tc *ThresholdConfig) PollInterval() time.Duration {
	return time.Duration(tc.PollIntervalSeconds) * time.Second
}

// LoadConfig builds the configuration from the environment, optionally
// overlaid on filePath (yaml, json, toml or dotenv). When filePath is empty a
// .env file in the working directory is read if present. Environment
// variables always take precedence over file values.
func LoadConfig(filePath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if filePath == "" {
		if _, err := os.Stat(defaultEnvFile); err == nil {
			filePath = defaultEnvFile
		}
	}
	if filePath != "" {
		v.SetConfigFile(filePath)
		if isDotEnv(filePath) {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
	}

	config, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// defaultConfig returns the configuration used when nothing is set in the
// environment.
func defaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	config, err := fromViper(v)
	if err != nil {
		// defaults are constants; a parse failure here is a programming error
		panic(err)
	}
	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MONITOR_INTERVAL", 30)
	v.SetDefault("CPU_THRESHOLD_PERCENT", 85)
	v.SetDefault("MEM_THRESHOLD_PERCENT", 85)
	v.SetDefault("DISK_THRESHOLD_PERCENT", 90)
	v.SetDefault("DISK_PARTITION", "/")
	v.SetDefault("TOP_N_PROCESSES", 5)

	v.SetDefault("SMTP_ENABLED", "false")
	v.SetDefault("SMTP_HOST", "smtp.example.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "alerts@example.com")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_TO", "admin@example.com")

	v.SetDefault("WEBHOOK_ENABLED", "false")
	v.SetDefault("WEBHOOK_URL", "")

	v.SetDefault("LOG_FILE", "system-health-monitor.log")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOG_MAX_SIZE_MB", 5)
	v.SetDefault("LOG_MAX_BACKUPS", 3)

	v.SetDefault("METRICS_ADDR", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var errs []error
	intOf := func(key string) int {
		n, err := parseInt(v, key)
		errs = append(errs, err)
		return n
	}
	floatOf := func(key string) float64 {
		f, err := parseFloat(v, key)
		errs = append(errs, err)
		return f
	}

	thresholds := &ThresholdConfig{
		CPUPercent:          floatOf("CPU_THRESHOLD_PERCENT"),
		MemPercent:          floatOf("MEM_THRESHOLD_PERCENT"),
		DiskPercent:         floatOf("DISK_THRESHOLD_PERCENT"),
		DiskPartition:       v.GetString("DISK_PARTITION"),
		TopN:                intOf("TOP_N_PROCESSES"),
		PollIntervalSeconds: intOf("MONITOR_INTERVAL"),
	}

	smtpUser := v.GetString("SMTP_USER")
	smtpFrom := v.GetString("SMTP_FROM")
	if smtpFrom == "" {
		smtpFrom = smtpUser
	}
	notification := &NotificationConfig{
		SMTP: &SMTPConfig{
			Enabled:  parseBool(v, "SMTP_ENABLED"),
			Host:     v.GetString("SMTP_HOST"),
			Port:     intOf("SMTP_PORT"),
			User:     smtpUser,
			Password: v.GetString("SMTP_PASSWORD"),
			From:     smtpFrom,
			To:       ParseRecipients(v.GetString("SMTP_TO")),
		},
		Webhook: &WebhookConfig{
			Enabled: parseBool(v, "WEBHOOK_ENABLED"),
			URL:     strings.TrimSpace(v.GetString("WEBHOOK_URL")),
		},
	}

	logConfig := &LogConfig{
		File:       v.GetString("LOG_FILE"),
		Level:      v.GetString("LOG_LEVEL"),
		MaxSizeMB:  intOf("LOG_MAX_SIZE_MB"),
		MaxBackups: intOf("LOG_MAX_BACKUPS"),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Config{
		Hostname:     hostname(v),
		MetricsAddr:  v.GetString("METRICS_ADDR"),
		Thresholds:   thresholds,
		Notification: notification,
		Log:          logConfig,
	}, nil
}

// Validate checks the invariants every component relies on.
func (config *Config) Validate() error {
	tc := config.Thresholds
	for _, p := range []struct {
		key   string
		value float64
	}{
		{"CPU_THRESHOLD_PERCENT", tc.CPUPercent},
		{"MEM_THRESHOLD_PERCENT", tc.MemPercent},
		{"DISK_THRESHOLD_PERCENT", tc.DiskPercent},
	} {
		if p.value < 0 || p.value > 100 {
			return fmt.Errorf("%w: %s must be between 0 and 100 (got %v)", ErrInvalidConfig, p.key, p.value)
		}
	}
	if tc.PollIntervalSeconds < 1 {
		return fmt.Errorf("%w: MONITOR_INTERVAL must be at least 1 (got %d)", ErrInvalidConfig, tc.PollIntervalSeconds)
	}
	if tc.TopN < 0 {
		return fmt.Errorf("%w: TOP_N_PROCESSES cannot be negative (got %d)", ErrInvalidConfig, tc.TopN)
	}
	if tc.DiskPartition == "" {
		return fmt.Errorf("%w: DISK_PARTITION must not be empty", ErrInvalidConfig)
	}

	smtp := config.Notification.SMTP
	if smtp.Enabled {
		if smtp.Host == "" {
			return fmt.Errorf("%w: SMTP_HOST is required when SMTP_ENABLED is set", ErrInvalidConfig)
		}
		if smtp.Port < 1 || smtp.Port > 65535 {
			return fmt.Errorf("%w: SMTP_PORT out of range (got %d)", ErrInvalidConfig, smtp.Port)
		}
		if len(smtp.To) == 0 {
			return fmt.Errorf("%w: SMTP_TO has no recipients", ErrInvalidConfig)
		}
	}
	if config.Notification.Webhook.Enabled && config.Notification.Webhook.URL == "" {
		return fmt.Errorf("%w: WEBHOOK_URL is required when WEBHOOK_ENABLED is set", ErrInvalidConfig)
	}
	if config.Log.MaxSizeMB < 1 {
		return fmt.Errorf("%w: LOG_MAX_SIZE_MB must be at least 1 (got %d)", ErrInvalidConfig, config.Log.MaxSizeMB)
	}
	if config.Log.MaxBackups < 0 {
		return fmt.Errorf("%w: LOG_MAX_BACKUPS cannot be negative (got %d)", ErrInvalidConfig, config.Log.MaxBackups)
	}
	return nil
}

// ParseRecipients splits a comma or semicolon separated address list,
// dropping blanks and repeated addresses while keeping the original order.
func ParseRecipients(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';'
	})
	seen := make(map[string]struct{}, len(fields))
	recipients := make([]string, 0, len(fields))
	for _, field := range fields {
		addr := strings.TrimSpace(field)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		recipients = append(recipients, addr)
	}
	return recipients
}

func parseBool(v *viper.Viper, key string) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func parseInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer (got %q)", ErrInvalidConfig, key, raw)
	}
	return n, nil
}

func parseFloat(v *viper.Viper, key string) (float64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number (got %q)", ErrInvalidConfig, key, raw)
	}
	return f, nil
}

func hostname(v *viper.Viper) string {
	if name := strings.TrimSpace(v.GetString("HOSTNAME")); name != "" {
		return name
	}
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown-host"
	}
	return name
}

func isDotEnv(path string) bool {
	base := filepath.Base(path)
	return base == defaultEnvFile || filepath.Ext(base) == ".env"
}
