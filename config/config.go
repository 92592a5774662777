package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// HTTP server configuration
	HTTP struct {
		// Port the API listens on
		Port int `env:"HTTP_PORT" envDefault:"5280"`

		// Origins allowed by CORS, comma separated
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	// Logging configuration
	Logging struct {
		// Minimum level emitted: debug, info, warn or error
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	// Database configuration
	Database struct {
		// Path to the sqlite database file
		Path string `env:"DATABASE_PATH" envDefault:"database/cenometr.db"`
	}

	// Ingest pipeline configuration
	Ingest struct {
		// Maximum number of pending batches the queue buffers
		QueueSize int `env:"INGEST_QUEUE_SIZE" envDefault:"64"`

		// Maximum number of listings accepted in a single batch
		MaxBatchSize int `env:"INGEST_MAX_BATCH_SIZE" envDefault:"500"`

		// Number of concurrent batch workers
		WorkerCount int `env:"INGEST_WORKER_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"INGEST_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"INGEST_RETRY_DELAY" envDefault:"5"`
	}

	// Aggregation configuration
	Aggregation struct {
		// Trailing listing window in days feeding each snapshot
		WindowDays int `env:"AGGREGATION_WINDOW_DAYS" envDefault:"30"`

		// Number of concurrent aggregation workers
		WorkerCount int `env:"AGGREGATION_WORKER_COUNT" envDefault:"4"`

		// Maximum number of retries for a snapshot write hitting a locked database
		MaxRetries int `env:"AGGREGATION_MAX_RETRIES" envDefault:"3"`

		// Base delay between write retries in seconds
		RetryDelay int `env:"AGGREGATION_RETRY_DELAY" envDefault:"2"`

		// Per-task timeout in seconds
		TaskTimeout int `env:"AGGREGATION_TASK_TIMEOUT" envDefault:"30"`

		// Hour of day (UTC) the daily run starts
		DailyHour int `env:"AGGREGATION_DAILY_HOUR" envDefault:"2"`

		// Run an aggregation pass when the server boots
		RunOnStartup bool `env:"AGGREGATION_RUN_ON_STARTUP" envDefault:"false"`
	}

	// Retention configuration
	Retention struct {
		// Days a listing survives after its last scrape
		ListingDays int `env:"RETENTION_LISTING_DAYS" envDefault:"30"`
	}

	// Trend configuration
	Trend struct {
		// How far back the previous snapshot must lie, in days
		LookbackDays int `env:"TREND_LOOKBACK_DAYS" envDefault:"30"`
	}

	// Telegram notification configuration
	Notify struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`

		// Alert when a listing is priced at least this far below the district median, in percent
		BelowMedianPct float64 `env:"TELEGRAM_BELOW_MEDIAN_PCT" envDefault:"10"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
