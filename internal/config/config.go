package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	PostgresDSN  string // empty disables the order archive
	RedisAddr    string
	KafkaBrokers []string
	ServiceName  string
	LogLevel     string

	MaxQtyPerLine    int           // clamp for a single basket line
	SweepInterval    time.Duration // how often orphaned holds are checked
	ReservationGrace time.Duration // age before a HELD reservation counts as orphaned
}

func Load() Config {
	return Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		RedisAddr:        getenv("REDIS_ADDR", "redis:6379"),
		KafkaBrokers:     splitCSV(getenv("KAFKA_BROKERS", "kafka:9092")),
		ServiceName:      getenv("SERVICE_NAME", "commerce-core"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		MaxQtyPerLine:    getint("BASKET_MAX_QTY_PER_LINE", 99),
		SweepInterval:    getdur("RESERVATION_SWEEP_INTERVAL", 30*time.Second),
		ReservationGrace: getdur("RESERVATION_GRACE", 2*time.Minute),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getdur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
