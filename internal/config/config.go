package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type CheckoutConfig struct {
	Env          string `yaml:"env" env:"CHECKOUT_ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	CheckoutDB   `yaml:"checkout_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka_service"`
	Redis        `yaml:"redis"`
	Stripe       `yaml:"stripe"`
	Delivery     `yaml:"delivery"`
	Auth         `yaml:"auth"`
	Checkout     `yaml:"checkout"`
}

type HTTPServer struct {
	Host         string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"30s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type CheckoutDB struct {
	Dsn            string `yaml:"dsn" env:"CHECKOUT_DB_DSN" env-required:"true"`
	MigrationsPath string `yaml:"migrations_path" env:"CHECKOUT_MIGRATIONS_PATH"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Host                string `yaml:"host" env:"KAFKA_HOST"`
	Port                string `yaml:"port" env:"KAFKA_PORT"`
	CheckoutEventsTopic string `yaml:"checkout_events_topic" env-default:"checkout-events"`
	DeliveryStatusTopic string `yaml:"delivery_status_topic" env-default:"delivery-status"`
	GroupID             string `yaml:"group_id" env-default:"checkout-service"`
}

// Enabled reports whether a broker address is configured.
func (k KafkaService) Enabled() bool {
	return k.Host != ""
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type Stripe struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `yaml:"currency" env-default:"myr"`
	SuccessURL    string `yaml:"success_url" env:"STRIPE_SUCCESS_URL"`
	CancelURL     string `yaml:"cancel_url" env:"STRIPE_CANCEL_URL"`
	// APIBase points the client at stripe-mock or another compatible backend.
	APIBase string `yaml:"api_base" env:"STRIPE_API_BASE"`
}

type Delivery struct {
	FlatFee    string        `yaml:"flat_fee" env:"DELIVERY_FLAT_FEE" env-default:"5.00"`
	CourierURL string        `yaml:"courier_url" env:"DELIVERY_COURIER_URL"`
	Timeout    time.Duration `yaml:"timeout" env-default:"5s"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

type Checkout struct {
	TransactionTTLMinutes int `yaml:"transaction_ttl_minutes" env:"TRANSACTION_TTL_MINUTES" env-default:"15"`
}

func (c Checkout) TransactionTTL() time.Duration {
	return time.Duration(c.TransactionTTLMinutes) * time.Minute
}

func MustLoad() *CheckoutConfig {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return cfg
}

// Load reads .env (if any), then the YAML file named by CHECKOUT_CONFIG_PATH.
// Environment variables override the file.
func Load() (*CheckoutConfig, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("CHECKOUT_CONFIG_PATH")
	if configPath == "" {
		return nil, errConfigPathMissing
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg CheckoutConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg.Checkout.TransactionTTLMinutes <= 0 {
		return nil, fmt.Errorf("transaction_ttl_minutes must be positive, got %d", cfg.Checkout.TransactionTTLMinutes)
	}

	return &cfg, nil
}

var errConfigPathMissing = errors.New("CHECKOUT_CONFIG_PATH was not found")
