// Package config loads the notifier configuration.
//
// Values are layered: built-in defaults, then an optional YAML file named by
// WIKINOTIFY_CONFIG, then WIKINOTIFY_* environment variables. The result is
// validated once; an invalid configuration stops the process at startup.
//
// Environment names follow the YAML tree, e.g. webhook.endpoint_url is
// WIKINOTIFY_WEBHOOK_ENDPOINT_URL and events.user_blocked is
// WIKINOTIFY_EVENTS_USER_BLOCKED.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"wikinotify/internal/domain/entity"
	"wikinotify/internal/observability/logging"
	"wikinotify/internal/observability/tracing"
	"wikinotify/internal/resilience/circuitbreaker"
	"wikinotify/internal/usecase/notify"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "WIKINOTIFY"

	// PathEnv names the variable holding the optional YAML file path.
	PathEnv = "WIKINOTIFY_CONFIG"
)

// Config is the complete process configuration.
type Config struct {
	Webhook  WebhookConfig           `yaml:"webhook" envconfig:"WEBHOOK"`
	Wiki     entity.LinkConfig       `yaml:"wiki" envconfig:"WIKI"`
	Events   EventsConfig            `yaml:"events" envconfig:"EVENTS"`
	Dispatch notify.DispatcherConfig `yaml:"dispatch" envconfig:"DISPATCH"`
	Breaker  circuitbreaker.Config   `yaml:"breaker" envconfig:"BREAKER"`
	Server   ServerConfig            `yaml:"server" envconfig:"SERVER"`
	Log      logging.Config          `yaml:"log" envconfig:"LOG"`
	Tracing  tracing.Config          `yaml:"tracing" envconfig:"TRACING"`
}

// WebhookConfig describes the incoming webhook and how to reach it.
type WebhookConfig struct {
	// EndpointURL is the incoming webhook URL. It embeds a secret; never log it.
	EndpointURL string `yaml:"endpoint_url" envconfig:"ENDPOINT_URL" validate:"omitempty,url"`

	// SenderName is shown as the message author. It is sent verbatim inside
	// a JSON string, so double quotes are refused here rather than per message.
	SenderName string `yaml:"sender_name" envconfig:"SENDER_NAME" validate:"required,excludes=\""`

	// Channel overrides the webhook's default channel, e.g. "#wiki".
	Channel string `yaml:"channel" envconfig:"CHANNEL" validate:"excludes=\""`

	// Transport is direct or streaming; curl and file_get_contents are accepted aliases.
	Transport string `yaml:"transport" envconfig:"TRANSPORT" validate:"transport_kind"`

	Timeout            time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" envconfig:"INSECURE_SKIP_VERIFY"`

	// DryRun logs payloads instead of posting them.
	DryRun bool `yaml:"dry_run" envconfig:"DRY_RUN"`

	// RatePerSecond caps posts per second. Zero disables limiting.
	RatePerSecond float64 `yaml:"rate_per_second" envconfig:"RATE_PER_SECOND" validate:"gte=0"`
	Burst         int     `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
}

// EventsConfig switches notifications per event kind.
type EventsConfig struct {
	ArticleSaved   bool `yaml:"article_saved" envconfig:"ARTICLE_SAVED"`
	ArticleCreated bool `yaml:"article_created" envconfig:"ARTICLE_CREATED"`
	ArticleDeleted bool `yaml:"article_deleted" envconfig:"ARTICLE_DELETED"`
	ArticleMoved   bool `yaml:"article_moved" envconfig:"ARTICLE_MOVED"`
	AccountCreated bool `yaml:"account_created" envconfig:"ACCOUNT_CREATED"`
	UserBlocked    bool `yaml:"user_blocked" envconfig:"USER_BLOCKED"`
	FileUploaded   bool `yaml:"file_uploaded" envconfig:"FILE_UPLOADED"`
}

// ServerConfig holds the listeners.
type ServerConfig struct {
	// IngestAddr serves POST /v1/events.
	IngestAddr string `yaml:"ingest_addr" envconfig:"INGEST_ADDR" validate:"required,hostname_port"`

	// MetricsAddr serves /metrics and the health probes.
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR" validate:"required,hostname_port"`

	// IngestSecret enables HS256 bearer authentication on the ingest endpoint.
	IngestSecret string `yaml:"ingest_secret" envconfig:"INGEST_SECRET" validate:"omitempty,min=32"`

	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"gte=1024"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// Default returns the configuration used when nothing overrides it.
// Every event kind is enabled and Slack's posting limit is respected.
func Default() Config {
	return Config{
		Webhook: WebhookConfig{
			SenderName:    "MediaWiki",
			Transport:     string(entity.TransportDirectPost),
			Timeout:       10 * time.Second,
			RatePerSecond: 1,
			Burst:         1,
		},
		Wiki: entity.DefaultLinkConfig(),
		Events: EventsConfig{
			ArticleSaved:   true,
			ArticleCreated: true,
			ArticleDeleted: true,
			ArticleMoved:   true,
			AccountCreated: true,
			UserBlocked:    true,
			FileUploaded:   true,
		},
		Dispatch: notify.DefaultDispatcherConfig(),
		Breaker:  circuitbreaker.WebhookConfig("webhook"),
		Server: ServerConfig{
			IngestAddr:      ":8080",
			MetricsAddr:     ":9090",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Log:     logging.Config{Level: "info", Format: "json"},
		Tracing: tracing.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, the file named by
// WIKINOTIFY_CONFIG (if set) and the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(PathEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 -- path comes from the operator, not from requests
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	configMetrics.RecordLoad(&cfg)
	return &cfg, nil
}

// Validate checks the configuration. Field errors are counted per field.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			configMetrics.RecordValidationError(fe.Namespace())
			errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), redact(fe)))
		}
	}

	if !c.Webhook.DryRun {
		if err := entity.ValidateEndpointURL(c.Webhook.EndpointURL); err != nil {
			configMetrics.RecordValidationError("Config.Webhook.EndpointURL")
			errs = append(errs, fmt.Errorf("webhook.endpoint_url: %w", err))
		}
	}

	if len(c.EnabledKinds()) == 0 {
		errs = append(errs, errors.New("events: at least one event kind must be enabled"))
	}

	return errors.Join(errs...)
}

// TransportConfig returns the delivery settings for the notifier.
func (c *Config) TransportConfig() entity.TransportConfig {
	// Validate has already rejected unknown names.
	kind, _ := entity.ParseTransportKind(c.Webhook.Transport)
	return entity.TransportConfig{
		EndpointURL:        c.Webhook.EndpointURL,
		SenderName:         c.Webhook.SenderName,
		Channel:            c.Webhook.Channel,
		Kind:               kind,
		Timeout:            c.Webhook.Timeout,
		InsecureSkipVerify: c.Webhook.InsecureSkipVerify,
	}
}

// EnabledKinds lists the event kinds switched on, in entity.Kinds order.
func (c *Config) EnabledKinds() []entity.Kind {
	switches := map[entity.Kind]bool{
		entity.KindArticleSaved:   c.Events.ArticleSaved,
		entity.KindArticleCreated: c.Events.ArticleCreated,
		entity.KindArticleDeleted: c.Events.ArticleDeleted,
		entity.KindArticleMoved:   c.Events.ArticleMoved,
		entity.KindAccountCreated: c.Events.AccountCreated,
		entity.KindUserBlocked:    c.Events.UserBlocked,
		entity.KindFileUploaded:   c.Events.FileUploaded,
	}

	kinds := make([]entity.Kind, 0, len(switches))
	for _, k := range entity.Kinds() {
		if switches[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
