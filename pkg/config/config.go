package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	xutil "AlphaCast/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Sentiment struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"sentiment"`
	Forecast struct {
		Symbols    []string      `yaml:"symbols"`
		Timeframe  string        `yaml:"timeframe"`
		Steps      int           `yaml:"steps"`
		Lookback   int           `yaml:"lookback"`
		Holdout    int           `yaml:"holdout"`
		Interval   time.Duration `yaml:"interval"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
		Seed       int64         `yaml:"seed"`
		P          int           `yaml:"p"`
		Q          int           `yaml:"q"`
		TimeSteps  int           `yaml:"time_steps"`
		TrainSplit float64       `yaml:"train_split"`
		LSTM       struct {
			HiddenSize   int     `yaml:"hidden_size"`
			Epochs       int     `yaml:"epochs"`
			BatchSize    int     `yaml:"batch_size"`
			Patience     int     `yaml:"patience"`
			LearningRate float64 `yaml:"learning_rate"`
			Dropout      float64 `yaml:"dropout"`
		} `yaml:"lstm"`
	} `yaml:"forecast"`
	Portfolio struct {
		Objective    string  `yaml:"objective"` // min_volatility or max_sharpe
		TargetReturn float64 `yaml:"target_return"`
		RiskFreeRate float64 `yaml:"risk_free_rate"`
	} `yaml:"portfolio"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

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

	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Server.Port = xutil.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Forecast.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SENTIMENT_SERVICE_URL"); v != "" {
		c.Sentiment.ServiceURL = v
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}

	return c, nil
}

// applyDefaults fills forecast hyperparameters left at their zero value.
func (c *Config) applyDefaults() {
	f := &c.Forecast
	if f.Timeframe == "" {
		f.Timeframe = "1d"
	}
	if f.Steps == 0 {
		f.Steps = 1
	}
	if f.Lookback == 0 {
		f.Lookback = 500
	}
	if f.Holdout == 0 {
		f.Holdout = 20
	}
	if f.P == 0 {
		f.P = 2
	}
	if f.Q == 0 {
		f.Q = 1
	}
	if f.TimeSteps == 0 {
		f.TimeSteps = 60
	}
	if f.TrainSplit == 0 {
		f.TrainSplit = 0.8
	}
	if f.Seed == 0 {
		f.Seed = 42
	}
	l := &f.LSTM
	if l.HiddenSize == 0 {
		l.HiddenSize = 32
	}
	if l.Epochs == 0 {
		l.Epochs = 100
	}
	if l.BatchSize == 0 {
		l.BatchSize = 16
	}
	if l.Patience == 0 {
		l.Patience = 10
	}
	if l.LearningRate == 0 {
		l.LearningRate = 0.001
	}
	k := &c.Kafka.Consumer
	if k.GroupID == "" {
		k.GroupID = "alphacast"
	}
	if k.Workers == 0 {
		k.Workers = 2
	}
	if c.Portfolio.Objective == "" {
		c.Portfolio.Objective = "min_volatility"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Forecast.Symbols) == 0 {
		return fmt.Errorf("forecast.symbols cannot be empty")
	}
	if c.Forecast.TrainSplit <= 0 || c.Forecast.TrainSplit >= 1 {
		return fmt.Errorf("forecast.train_split must be in (0,1), got %v", c.Forecast.TrainSplit)
	}
	if c.Forecast.TimeSteps < 1 {
		return fmt.Errorf("forecast.time_steps must be >= 1")
	}
	if o := c.Portfolio.Objective; o != "min_volatility" && o != "max_sharpe" {
		return fmt.Errorf("portfolio.objective must be 'min_volatility' or 'max_sharpe', got '%s'", o)
	}
	return nil
}
