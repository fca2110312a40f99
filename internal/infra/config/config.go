package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

var hundred = decimal.NewFromInt(100)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StoreMode          string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	TaxRate            decimal.Decimal
	DefaultCurrency    string
	CancellationWindow time.Duration
	LateRefundPercent  int
	RoomFixtures       string
	CORSOrigins        []string
}

// Load parses configuration from the current environment. Values from a
// .env file in the working directory fill in variables that are not set.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files; missing files are ignored.
func LoadFiles(files ...string) (Config, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StoreMode:        strings.ToLower(getEnv("STORE_MODE", StoreMemory)),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "homestay"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "VND")),
		RoomFixtures:     getEnv("ROOM_FIXTURES", ""),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "*")),
	}
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	window, err := parseDurationEnv("FREE_CANCELLATION_WINDOW", 48*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.CancellationWindow = window

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	percent, err := parseDecimalEnv("TAX_RATE_PERCENT", decimal.NewFromInt(10))
	if err != nil {
		return Config{}, err
	}
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return Config{}, fmt.Errorf("TAX_RATE_PERCENT must be between 0 and 100, got %s", percent)
	}
	cfg.TaxRate = percent.Div(hundred)

	late, err := parseDecimalEnv("LATE_REFUND_PERCENT", decimal.NewFromInt(50))
	if err != nil {
		return Config{}, err
	}
	if late.IsNegative() || late.GreaterThan(hundred) || !late.Equal(late.Truncate(0)) {
		return Config{}, fmt.Errorf("LATE_REFUND_PERCENT must be a whole number between 0 and 100, got %s", late)
	}
	cfg.LateRefundPercent = int(late.IntPart())

	if len(cfg.DefaultCurrency) != 3 {
		return Config{}, fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", cfg.DefaultCurrency)
	}
	switch cfg.StoreMode {
	case StoreMemory:
	case StoreMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_MODE %q", cfg.StoreMode)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseDecimalEnv(key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return d, nil
}
