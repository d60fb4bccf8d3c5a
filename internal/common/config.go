package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    int
	MetricsPort int

	EvolutionBaseURL string
	EvolutionAPIKey  string
	EvolutionTimeout time.Duration
	DefaultInstance  string

	CountryPrefix string
	LocalDigits   int

	KafkaBrokers []string
	SendTopic    string
	DLQTopic     string

	OTLPEndpoint string
	ServiceName  string
}

func LoadConfig(service string) (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{ServiceName: service}

	httpPort, err := getEnvInt("HTTP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.HTTPPort = httpPort

	metricsPort, err := getEnvInt("METRICS_PORT", httpPort+1000)
	if err != nil {
		return nil, err
	}
	cfg.MetricsPort = metricsPort

	cfg.EvolutionBaseURL = getEnv("EVOLUTION_BASE_URL", "http://localhost:8080")
	cfg.EvolutionAPIKey = os.Getenv("EVOLUTION_API_KEY")
	cfg.DefaultInstance = os.Getenv("EVOLUTION_DEFAULT_INSTANCE")

	timeoutSecs, err := getEnvInt("EVOLUTION_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.EvolutionTimeout = time.Duration(timeoutSecs) * time.Second

	cfg.CountryPrefix = getEnv("PHONE_COUNTRY_PREFIX", "1")
	localDigits, err := getEnvInt("PHONE_LOCAL_DIGITS", 10)
	if err != nil {
		return nil, err
	}
	cfg.LocalDigits = localDigits

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	} else {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	cfg.SendTopic = getEnv("SEND_TOPIC", "whatsapp.send")
	cfg.DLQTopic = getEnv("DLQ_TOPIC", "dlq.whatsapp.send")
	cfg.OTLPEndpoint = os.Getenv("OTLP_ENDPOINT")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return parsed, nil
	}
	return fallback, nil
}
