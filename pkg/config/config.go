package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"PippyDesk/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Finnhub     FinnhubConfig    `yaml:"finnhub"`
	Calendar    CalendarConfig   `yaml:"calendar"`
	Gemini      GeminiConfig     `yaml:"gemini"`
	Groq        GroqConfig       `yaml:"groq"`
	Quotes      QuotesConfig     `yaml:"quotes"`
	News        NewsConfig       `yaml:"news"`
	Charts      ChartsConfig     `yaml:"charts"`
	Debate      DebateConfig     `yaml:"debate"`
	Aggregator  AggregatorConfig `yaml:"aggregator"`
	Chat        ChatConfig       `yaml:"chat"`
	RateLimit   RateLimitConfig  `yaml:"ratelimit"`
	Redis       RedisConfig      `yaml:"redis"`
	Events      EventsConfig     `yaml:"events"`
	Journal     JournalConfig    `yaml:"journal"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
	BodyLimit       string        `yaml:"body_limit" default:"1M"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
	Output string `yaml:"output" default:"stdout"`
}

type MetricsConfig struct {
	Enabled       bool          `yaml:"enabled" default:"true"`
	SlowThreshold time.Duration `yaml:"slow_threshold" default:"45s"`
}

type FinnhubConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

type CalendarConfig struct {
	Enabled bool          `yaml:"enabled" default:"true"`
	URL     string        `yaml:"url" default:"https://nfs.faireconomy.media/ff_calendar_thisweek.json"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
	TTL     time.Duration `yaml:"ttl" default:"15m"`
	Limit   int           `yaml:"limit" default:"15"`
	Retry   RetryConfig   `yaml:"retry"`
}

type GeminiConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url" default:"https://generativelanguage.googleapis.com/v1beta"`
	Model           string        `yaml:"model" default:"gemini-2.0-flash"`
	Timeout         time.Duration `yaml:"timeout" default:"60s"`
	Temperature     float32       `yaml:"temperature" default:"0.7"`
	MaxOutputTokens int           `yaml:"max_output_tokens" default:"2048"`
}

type GroqConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url" default:"https://api.groq.com/openai/v1"`
	Model       string        `yaml:"model" default:"llama-3.1-8b-instant"`
	Timeout     time.Duration `yaml:"timeout" default:"60s"`
	Temperature float32       `yaml:"temperature" default:"0.7"`
	MaxTokens   int           `yaml:"max_tokens" default:"800"`
}

// RetryConfig is the per-source retry budget.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" default:"3"`
	Delay          time.Duration `yaml:"delay" default:"1s"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" default:"10s"`
}

type QuotesConfig struct {
	TTL       time.Duration `yaml:"ttl" default:"30s"`
	WatchList []string      `yaml:"watch_list" default:"[\"SPY\",\"QQQ\",\"DIA\",\"GLD\"]"`
	Retry     RetryConfig   `yaml:"retry"`
}

type NewsConfig struct {
	LookbackDays int           `yaml:"lookback_days" default:"7"`
	Limit        int           `yaml:"limit" default:"10"`
	TTL          time.Duration `yaml:"ttl" default:"5m"`
	Retry        RetryConfig   `yaml:"retry"`
}

type ChartsConfig struct {
	Dir       string        `yaml:"dir" default:"uploads/charts"`
	MaxCharts int           `yaml:"max_charts" default:"3"`
	TTL       time.Duration `yaml:"ttl" default:"1h"`
	Retry     RetryConfig   `yaml:"retry"`
}

type DebateConfig struct {
	Refine bool `yaml:"refine" default:"true"`
	// MaxAttempts applies to each generator call.
	MaxAttempts int           `yaml:"max_attempts" default:"2"`
	BackoffMin  time.Duration `yaml:"backoff_min" default:"500ms"`
	BackoffMax  time.Duration `yaml:"backoff_max" default:"4s"`
	CallTimeout time.Duration `yaml:"call_timeout" default:"60s"`
}

type AggregatorConfig struct {
	TaskTimeout time.Duration `yaml:"task_timeout" default:"45s"`
}

type ChatConfig struct {
	DefaultSymbol string `yaml:"default_symbol" default:"SPY"`
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" default:"true"`
	Backend  string        `yaml:"backend" default:"memory"`
	Requests int           `yaml:"requests" default:"20"`
	Window   time.Duration `yaml:"window" default:"1m"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EventsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"pippydesk.analysis"`
	RequiredAcks int           `yaml:"required_acks" default:"1"`
	Compression  string        `yaml:"compression" default:"snappy"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	Linger       time.Duration `yaml:"linger" default:"50ms"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
	Async        bool          `yaml:"async" default:"true"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	DSN     string `yaml:"dsn" default:"file:data/journal.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"`
}

// Parse applies defaults and then the YAML document on top.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads .env, the YAML file, then environment overrides, and validates.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := getenv("GROQ_API_KEY"); v != "" {
		c.Groq.APIKey = v
	}
	if v := getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := getenv("SYMBOLS"); v != "" {
		c.Quotes.WatchList = util.SplitCSV(v)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = util.SplitCSV(v)
		c.Events.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("JOURNAL_DSN"); v != "" {
		c.Journal.DSN = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	return nil
}

// Validate checks if the configuration is valid.
// Provider keys are optional; a missing key degrades that provider.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("environment must be development, staging, production or test, got '%s'", c.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console', got '%s'", c.Log.Format)
	}
	if c.Quotes.TTL <= 0 {
		return fmt.Errorf("quotes.ttl must be positive")
	}
	for name, r := range map[string]RetryConfig{
		"quotes": c.Quotes.Retry, "news": c.News.Retry, "calendar": c.Calendar.Retry, "charts": c.Charts.Retry,
	} {
		if r.MaxAttempts < 1 {
			return fmt.Errorf("%s.retry.max_attempts must be >= 1", name)
		}
	}
	if c.Debate.MaxAttempts < 1 {
		return fmt.Errorf("debate.max_attempts must be >= 1")
	}
	if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
		return fmt.Errorf("ratelimit.backend must be 'memory' or 'redis', got '%s'", c.RateLimit.Backend)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("ratelimit.requests and ratelimit.window must be positive")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events are enabled")
	}
	if c.Journal.Enabled && c.Journal.DSN == "" {
		return fmt.Errorf("journal.dsn is required when the journal is enabled")
	}
	return nil
}

// MissingKeys lists providers without credentials.
func (c *Config) MissingKeys() []string {
	var out []string
	if c.Gemini.APIKey == "" {
		out = append(out, "GEMINI_API_KEY")
	}
	if c.Groq.APIKey == "" {
		out = append(out, "GROQ_API_KEY")
	}
	if c.Finnhub.APIKey == "" {
		out = append(out, "FINNHUB_API_KEY")
	}
	return out
}
