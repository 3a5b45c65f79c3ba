// Package config maps viper settings onto typed configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yolodolo42/safebot/internal/goplus"
	"github.com/yolodolo42/safebot/internal/lark"
)

// EnvPrefix namespaces environment variables, e.g. SAFEBOT_LARK_APP_ID.
const EnvPrefix = "SAFEBOT"

// Config is the full bot configuration.
type Config struct {
	Lark   LarkConfig
	GoPlus GoPlusConfig
	Server ServerConfig
	Cache  CacheConfig
	Dedup  DedupConfig
	Chains ChainsConfig
	Log    LogConfig
}

type LarkConfig struct {
	AppID             string
	AppSecret         string
	VerificationToken string
	Host              string
}

type GoPlusConfig struct {
	BaseURL string
	// Timeout bounds each upstream request. Zero means no bound.
	Timeout time.Duration
}

type ServerConfig struct {
	Addr        string
	WebhookPath string
}

type CacheConfig struct {
	TTL time.Duration
}

type DedupConfig struct {
	Window time.Duration
}

type ChainsConfig struct {
	// RefreshInterval reloads the chain list periodically. Zero disables it.
	RefreshInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("lark.host", lark.DefaultHost)
	v.SetDefault("goplus.base_url", goplus.DefaultBaseURL)
	v.SetDefault("goplus.timeout", time.Duration(0))
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.webhook_path", "/webhook/event")
	v.SetDefault("cache.ttl", 12*time.Hour)
	v.SetDefault("dedup.window", 5*time.Minute)
	v.SetDefault("chains.refresh_interval", time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// BindEnv makes every key readable from SAFEBOT_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{"lark.app_id", "lark.app_secret", "lark.verification_token"} {
		_ = v.BindEnv(key)
	}
}

// Load reads a Config from v, applying defaults for unset keys.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Lark: LarkConfig{
			AppID:             v.GetString("lark.app_id"),
			AppSecret:         v.GetString("lark.app_secret"),
			VerificationToken: v.GetString("lark.verification_token"),
			Host:              v.GetString("lark.host"),
		},
		GoPlus: GoPlusConfig{
			BaseURL: v.GetString("goplus.base_url"),
			Timeout: v.GetDuration("goplus.timeout"),
		},
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			WebhookPath: v.GetString("server.webhook_path"),
		},
		Cache:  CacheConfig{TTL: v.GetDuration("cache.ttl")},
		Dedup:  DedupConfig{Window: v.GetDuration("dedup.window")},
		Chains: ChainsConfig{RefreshInterval: v.GetDuration("chains.refresh_interval")},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if cfg.Cache.TTL <= 0 {
		return nil, fmt.Errorf("cache.ttl must be positive, got %s", cfg.Cache.TTL)
	}
	if cfg.Dedup.Window <= 0 {
		return nil, fmt.Errorf("dedup.window must be positive, got %s", cfg.Dedup.Window)
	}
	if cfg.GoPlus.Timeout < 0 || cfg.Chains.RefreshInterval < 0 {
		return nil, errors.New("durations must not be negative")
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return nil, fmt.Errorf("log.format must be console or json, got %q", cfg.Log.Format)
	}
	if !strings.HasPrefix(cfg.Server.WebhookPath, "/") {
		cfg.Server.WebhookPath = "/" + cfg.Server.WebhookPath
	}
	return cfg, nil
}

// Validate checks the settings the webhook server cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.Lark.AppID == "" {
		missing = append(missing, "lark.app_id")
	}
	if c.Lark.AppSecret == "" {
		missing = append(missing, "lark.app_secret")
	}
	if c.Lark.VerificationToken == "" {
		missing = append(missing, "lark.verification_token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s (set them in config.yaml or as %s_* environment variables)",
			strings.Join(missing, ", "), EnvPrefix)
	}
	return nil
}
