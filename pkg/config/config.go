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
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Logging     struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Error logs are aggregated and published to kafka.log_topic when
		// Kafka is enabled.
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		// Token bucket per client IP on the forecast routes.
		ForecastRate struct {
			Capacity     float64 `yaml:"capacity" default:"10" validate:"gt=0"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"2" validate:"gt=0"`
		} `yaml:"forecast_rate"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	// Sources lists transaction locations: *.csv, *.xlsx or clickhouse://db.table.
	Sources     []string `yaml:"sources" validate:"required,min=1,dive,required"`
	Aggregation struct {
		ZeroFillGaps bool `yaml:"zero_fill_gaps"`
		RankLimit    int  `yaml:"rank_limit" default:"10" validate:"gte=1"`
	} `yaml:"aggregation"`
	Selection struct {
		// Only products in the ranking may be forecast.
		RestrictToRanked bool `yaml:"restrict_to_ranked" default:"true"`
	} `yaml:"selection"`
	Analytics struct {
		TrendServiceURL string        `yaml:"trend_service_url"`
		Timeout         time.Duration `yaml:"timeout" default:"5s"`
		Retries         int           `yaml:"retries" default:"1"`
		ARIMA           struct {
			MaxP      int    `yaml:"max_p" default:"5" validate:"gte=0"`
			MaxQ      int    `yaml:"max_q" default:"5" validate:"gte=0"`
			MaxOrder  int    `yaml:"max_order" default:"5" validate:"gte=0"`
			Criterion string `yaml:"criterion" default:"aic" validate:"oneof=aic aicc bic"`
			// Exhaustive disables the stepwise search.
			Exhaustive bool `yaml:"exhaustive"`
		} `yaml:"arima"`
	} `yaml:"analytics"`
	Export struct {
		Cache struct {
			Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered none"`
			TTL     time.Duration `yaml:"ttl" default:"10m"`
			Prefix  string        `yaml:"prefix" default:"demandcast:export:"`
		} `yaml:"cache"`
	} `yaml:"export"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"demandcast.forecasts"`
		LogTopic     string   `yaml:"log_topic" default:"demandcast.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file, applying defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("DEMANDCAST_SOURCES"); v != "" {
		c.Sources = splitList(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("TREND_SERVICE_URL"); v != "" {
		c.Analytics.TrendServiceURL = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if (c.Export.Cache.Backend == "redis" || c.Export.Cache.Backend == "layered") && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the %s export cache", c.Export.Cache.Backend)
	}
	for _, s := range c.Sources {
		if strings.HasPrefix(s, "clickhouse://") && !c.ClickHouse.Enabled {
			return fmt.Errorf("source %q needs clickhouse.enabled", s)
		}
	}
	return nil
}
