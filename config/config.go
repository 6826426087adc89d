package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/Shadownc/favicon-api/internal/favicon"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// Address is the listen address for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type FetchConfig struct {
	UserAgent    string `mapstructure:"user_agent"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

type ProbeConfig struct {
	Concurrent  bool          `mapstructure:"concurrent"`
	Paths       []string      `mapstructure:"paths"`
	PathTimeout time.Duration `mapstructure:"path_timeout"`
	Ceiling     time.Duration `mapstructure:"ceiling"`
}

type ServiceConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Name           string        `mapstructure:"name"`
	URLTemplate    string        `mapstructure:"url_template"`
	Timeout        time.Duration `mapstructure:"timeout"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

type HTMLConfig struct {
	PageTimeout time.Duration `mapstructure:"page_timeout"`
	IconTimeout time.Duration `mapstructure:"icon_timeout"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Threshold    int           `mapstructure:"threshold"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

type SpecialDomainConfig struct {
	Domain  string        `mapstructure:"domain"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type Config struct {
	Server         ServerConfig          `mapstructure:"server"`
	Logging        LoggingConfig         `mapstructure:"logging"`
	Fetch          FetchConfig           `mapstructure:"fetch"`
	Probe          ProbeConfig           `mapstructure:"probe"`
	Service        ServiceConfig         `mapstructure:"service"`
	HTML           HTMLConfig            `mapstructure:"html"`
	CircuitBreaker CircuitBreakerConfig  `mapstructure:"circuit_breaker"`
	SpecialDomains []SpecialDomainConfig `mapstructure:"special_domains"`
	Metrics        MetricsConfig         `mapstructure:"metrics"`
}

// Load reads config.yaml from ./config or the working directory, applies
// environment overrides (server.port -> SERVER_PORT, also PORT) and
// validates the result. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36")
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("probe.concurrent", true)
	v.SetDefault("probe.paths", []string{})
	v.SetDefault("probe.path_timeout", "3s")
	v.SetDefault("probe.ceiling", "4s")
	v.SetDefault("service.enabled", true)
	v.SetDefault("service.name", "google-s2")
	v.SetDefault("service.url_template", "https://www.google.com/s2/favicons?sz=64&domain_url={domain}")
	v.SetDefault("service.timeout", "3s")
	v.SetDefault("service.health_interval", "1m")
	v.SetDefault("html.page_timeout", "5s")
	v.SetDefault("html.icon_timeout", "5s")
	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.threshold", 5)
	v.SetDefault("circuit_breaker.reset_timeout", "30s")
	v.SetDefault("metrics.buffer_size", 1000)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// Rules converts the special-domain table into normalized override rules.
func (c *Config) Rules() ([]favicon.Rule, error) {
	rules := make([]favicon.Rule, 0, len(c.SpecialDomains))
	for _, sd := range c.SpecialDomains {
		domain, err := favicon.NormalizeHost(sd.Domain)
		if err != nil {
			return nil, err
		}
		rules = append(rules, favicon.Rule{
			Domain:  domain,
			URL:     sd.URL,
			Timeout: sd.Timeout,
		})
	}
	return rules, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Port,
						validation.Required,
						validation.Min(1),
						validation.Max(65535),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Fetch,
			validation.By(func(value interface{}) error {
				fc, ok := value.(FetchConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a FetchConfig")
				}
				return validation.ValidateStruct(&fc,
					validation.Field(&fc.UserAgent, validation.Required),
					validation.Field(&fc.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
				)
			}),
		),
		validation.Field(&c.Probe,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProbeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProbeConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Paths, validation.Each(validation.By(validatePath))),
					validation.Field(&pc.PathTimeout, validation.By(validatePositiveDuration)),
					validation.Field(&pc.Ceiling, validation.By(validatePositiveDuration)),
				)
			}),
		),
		validation.Field(&c.Service,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServiceConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServiceConfig")
				}
				if !sc.Enabled {
					return nil
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Name, validation.Required),
					validation.Field(&sc.URLTemplate,
						validation.Required,
						validation.By(validateTemplate),
					),
					validation.Field(&sc.Timeout, validation.By(validatePositiveDuration)),
					validation.Field(&sc.HealthInterval, validation.By(validatePositiveDuration)),
				)
			}),
		),
		validation.Field(&c.HTML,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HTMLConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HTMLConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.PageTimeout, validation.By(validatePositiveDuration)),
					validation.Field(&hc.IconTimeout, validation.By(validatePositiveDuration)),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker,
			validation.By(func(value interface{}) error {
				cb, ok := value.(CircuitBreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CircuitBreakerConfig")
				}
				if !cb.Enabled {
					return nil
				}
				return validation.ValidateStruct(&cb,
					validation.Field(&cb.Threshold, validation.Required, validation.Min(1)),
					validation.Field(&cb.ResetTimeout, validation.By(validatePositiveDuration)),
				)
			}),
		),
		validation.Field(&c.SpecialDomains,
			validation.Each(validation.By(validateSpecialDomain)),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
	)
}

func validatePositiveDuration(value interface{}) error {
	d, ok := value.(time.Duration)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a duration")
	}

	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be a positive duration (e.g., 500ms, 3s)")
	}

	return nil
}

func validatePath(value interface{}) error {
	p, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if !strings.HasPrefix(p, "/") {
		return validation.NewError("validation_invalid_path", "path must start with /")
	}

	return nil
}

func validateTemplate(value interface{}) error {
	tpl, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if !strings.Contains(tpl, "{domain}") {
		return validation.NewError("validation_missing_placeholder", "template must contain {domain}")
	}

	return validateHTTPURL(strings.ReplaceAll(tpl, "{domain}", "example.com"))
}

func validateSpecialDomain(value interface{}) error {
	sd, ok := value.(SpecialDomainConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a SpecialDomainConfig")
	}

	return validation.ValidateStruct(&sd,
		validation.Field(&sd.Domain, validation.Required, is.Host),
		validation.Field(&sd.URL, validation.Required, validation.By(validateHTTPURL)),
		validation.Field(&sd.Timeout, validation.By(validatePositiveDuration)),
	)
}

func validateHTTPURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if err := is.URL.Validate(raw); err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	return nil
}
