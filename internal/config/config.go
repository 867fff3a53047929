package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	ServicesSim  = "sim"
	ServicesREST = "rest"

	EventsMemory = "memory"
	EventsKafka  = "kafka"
)

type Config struct {
	Addr        string
	ServiceName string
	Env         string

	DedupBackend string
	DedupWindow  time.Duration
	RedisAddr    string

	ServicesMode string
	InventoryURL string
	PaymentURL   string
	NotifyURL    string
	CallTimeout  time.Duration

	SimInitialStock int
	SimDeclineOver  int64

	EventsBackend string
	KafkaBroker   string
	KafkaTopic    string

	TraceStdout bool
}

// Load reads configuration from the environment and validates the
// combinations that need extra settings (redis address, kafka broker,
// service URLs in rest mode).
func Load() (*Config, error) {
	cfg := &Config{
		Addr:          getenvDefault("ADDR", ":8080"),
		ServiceName:   getenvDefault("SERVICE_NAME", "orderpipeline"),
		Env:           getenvDefault("ENV", "dev"),
		DedupBackend:  getenvDefault("DEDUP_BACKEND", BackendMemory),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		ServicesMode:  getenvDefault("SERVICES_MODE", ServicesSim),
		InventoryURL:  os.Getenv("INVENTORY_URL"),
		PaymentURL:    os.Getenv("PAYMENT_URL"),
		NotifyURL:     os.Getenv("NOTIFY_URL"),
		EventsBackend: getenvDefault("EVENTS_BACKEND", EventsMemory),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    getenvDefault("KAFKA_TOPIC", "order.events"),
		TraceStdout:   getenvDefault("TRACE_STDOUT", "false") == "true",
	}

	var err error
	if cfg.DedupWindow, err = getenvDuration("DEDUP_WINDOW", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CallTimeout, err = getenvDuration("CALL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SimInitialStock, err = getenvInt("SIM_INITIAL_STOCK", 100); err != nil {
		return nil, err
	}
	declineOver, err := getenvInt("SIM_DECLINE_OVER", 0)
	if err != nil {
		return nil, err
	}
	cfg.SimDeclineOver = int64(declineOver)

	switch cfg.DedupBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("config: REDIS_ADDR is required when DEDUP_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("config: unknown DEDUP_BACKEND %q", cfg.DedupBackend)
	}

	switch cfg.ServicesMode {
	case ServicesSim:
	case ServicesREST:
		if cfg.InventoryURL == "" || cfg.PaymentURL == "" || cfg.NotifyURL == "" {
			return nil, fmt.Errorf("config: INVENTORY_URL, PAYMENT_URL and NOTIFY_URL are required when SERVICES_MODE=rest")
		}
	default:
		return nil, fmt.Errorf("config: unknown SERVICES_MODE %q", cfg.ServicesMode)
	}

	switch cfg.EventsBackend {
	case EventsMemory:
	case EventsKafka:
		if cfg.KafkaBroker == "" {
			return nil, fmt.Errorf("config: KAFKA_BROKER is required when EVENTS_BACKEND=kafka")
		}
	default:
		return nil, fmt.Errorf("config: unknown EVENTS_BACKEND %q", cfg.EventsBackend)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return n, nil
}
