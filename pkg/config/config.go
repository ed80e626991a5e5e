package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	applogger "PerfectRatio/pkg/logger"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"500ms"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log     applogger.Config `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
	} `yaml:"metrics"`
	Curve struct {
		TargetSuccessRate float64 `yaml:"target_success_rate" default:"85" validate:"gt=0,lt=100"`
		TurnRule          string  `yaml:"turn_rule" default:"round" validate:"oneof=round ceil"`
		DrawConvention    string  `yaml:"draw_convention" default:"inclusive" validate:"oneof=inclusive before"`
		Model             string  `yaml:"model" default:"hypergeometric" validate:"oneof=hypergeometric binomial"`
		OpeningHandSize   int     `yaml:"opening_hand_size" default:"7" validate:"gte=0,lte=60"`
		RequiredDeckSize  int     `yaml:"required_deck_size" validate:"gte=0"`
	} `yaml:"curve"`
	RateLimit struct {
		Enabled     bool          `yaml:"enabled" default:"true"`
		Requests    int           `yaml:"requests" default:"120" validate:"gte=0"`
		Window      time.Duration `yaml:"window" default:"1m"`
		WSPerSecond float64       `yaml:"ws_per_second" default:"5" validate:"gte=0"`
		WSBurst     int           `yaml:"ws_burst" default:"10" validate:"gte=0"`
	} `yaml:"rate_limit"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379" validate:"required_if=Enabled true"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		PoolSize int    `yaml:"pool_size" default:"10" validate:"gte=1"`
		Prefix   string `yaml:"prefix" default:"perfectratio"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers" validate:"required_if=Enabled true"`
		SolveEventsTopic string   `yaml:"solve_events_topic" default:"perfectratio.solve_events"`
		LogsTopic        string   `yaml:"logs_topic" default:"perfectratio.logs"`
		RequiredAcks     int      `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
		Compression      string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"perfectratio-events"`
			Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"256" validate:"gte=1"`
			RetryMax   int           `yaml:"retry_max" default:"3" validate:"gte=0"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"perfectratio.solve_events.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"perfectratio" validate:"required,excludesall=;. "`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert" default:"true"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
		InitSchema       bool          `yaml:"init_schema" default:"true"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides it with PR_* environment
// variables. An empty path starts from the defaults.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("PR_ENV"); ok {
		c.Environment = v
	}
	if v, ok := get("PR_HTTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PR_HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := get("PR_LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("PR_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v, ok := get("PR_REDIS_ADDR"); ok {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := get("PR_CLICKHOUSE_HOST"); ok {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	return nil
}

var validate = validator.New()

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("kafka.consumer.enabled requires kafka.enabled")
	}
	if c.Kafka.Consumer.Enabled && !c.ClickHouse.Enabled {
		return fmt.Errorf("kafka.consumer.enabled requires clickhouse.enabled")
	}
	if c.Kafka.Consumer.BackoffMax < c.Kafka.Consumer.BackoffMin {
		return fmt.Errorf("kafka.consumer.backoff_max must not be below backoff_min")
	}
	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
