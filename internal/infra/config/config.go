package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Directory DirectorySettings `mapstructure:"directory"`
	Mail      MailSettings      `mapstructure:"mail"`
	Session   SessionSettings   `mapstructure:"session"`
	Sweep     SweepSettings     `mapstructure:"sweep"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name      string `mapstructure:"name"`
	Env       string `mapstructure:"env"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// DirectorySettings configures the LDAP directory connection and tree layout.
type DirectorySettings struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	BindUsername       string        `mapstructure:"bind_username"`
	BindPassword       string        `mapstructure:"bind_password"`
	Domain             string        `mapstructure:"domain"`
	BaseDN             string        `mapstructure:"base_dn"`
	RequiredGroupDN    string        `mapstructure:"required_group_dn"`
	DefaultGroups      []string      `mapstructure:"default_groups"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// AdminUPN returns the userPrincipalName used for the service-account bind.
func (s DirectorySettings) AdminUPN() string {
	return fmt.Sprintf("%s@%s", s.BindUsername, s.Domain)
}

// MailSettings configures the SMTP relay and fixed recipients.
type MailSettings struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Sender           string `mapstructure:"sender"`
	Recipient        string `mapstructure:"recipient"`
	SupportRecipient string `mapstructure:"support_recipient"`
	LogoPath         string `mapstructure:"logo_path"`
}

// SessionSettings configures the signed session cookie.
type SessionSettings struct {
	Secret       string        `mapstructure:"secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

// SweepSettings configures the expiry sweep job.
type SweepSettings struct {
	WindowDays int    `mapstructure:"window_days"`
	LogFile    string `mapstructure:"log_file"`
	Schedule   string `mapstructure:"schedule"`
}

// Window returns the acceptance window as a duration on each side of now.
func (s SweepSettings) Window() time.Duration {
	days := s.WindowDays
	if days <= 0 {
		days = 180
	}
	return time.Duration(days) * 24 * time.Hour
}

// RedisSettings configures the optional rate-limit backend. An empty host
// disables rate limiting entirely.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the lifecycle event producer. Without brokers the
// stub publisher is used.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

type RateLimitSettings struct {
	WindowDuration   time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("DIRADMIN")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.static_dir",
		"directory.host",
		"directory.port",
		"directory.insecure_skip_verify",
		"directory.bind_username",
		"directory.bind_password",
		"directory.domain",
		"directory.base_dn",
		"directory.required_group_dn",
		"directory.default_groups",
		"directory.request_timeout",
		"mail.host",
		"mail.port",
		"mail.username",
		"mail.password",
		"mail.sender",
		"mail.recipient",
		"mail.support_recipient",
		"mail.logo_path",
		"session.secret",
		"session.token_ttl",
		"session.cookie_name",
		"session.cookie_secure",
		"sweep.window_days",
		"sweep.log_file",
		"sweep.schedule",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ldap-user-manager")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 5000)
	v.SetDefault("app.static_dir", "")

	v.SetDefault("directory.host", "localhost")
	v.SetDefault("directory.port", 636)
	v.SetDefault("directory.insecure_skip_verify", false)
	v.SetDefault("directory.request_timeout", "10s")

	v.SetDefault("mail.port", 587)

	v.SetDefault("session.secret", "changeme")
	v.SetDefault("session.token_ttl", "2h")
	v.SetDefault("session.cookie_name", "authToken")
	v.SetDefault("session.cookie_secure", true)

	v.SetDefault("sweep.window_days", 180)
	v.SetDefault("sweep.log_file", "deferred_deletion.log")
	v.SetDefault("sweep.schedule", "0 2 * * *")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "directory")
	v.SetDefault("kafka.async", true)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "DIRADMIN_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
