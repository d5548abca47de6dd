// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Stripe                  `yaml:"stripe"`
	AMQPConnection          `yaml:"amqp_connection"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"ADDRESS_HTTP" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"30m"`
}

// Stripe структура для работы с платёжным процессором:
// ключи API, секрет подписи webhook и отображение план -> price id.
type Stripe struct {
	SecretKey      string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret  string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	MonthlyPriceID string `yaml:"monthly_price_id" env:"STRIPE_MONTHLY_PRICE_ID"`
	AnnualPriceID  string `yaml:"annual_price_id" env:"STRIPE_ANNUAL_PRICE_ID"`
	BaseURL        string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
}

// AMQPConnection структура для настройки подключения к RabbitMQ.
// Пустой адрес отключает публикацию биллинговых уведомлений.
type AMQPConnection struct {
	AddressAMQP string `yaml:"addressamqp" env:"ADDRESS_AMQP"`
	Exchange    string `yaml:"exchange" env-default:"billing"`
	RoutingKey  string `yaml:"routing_key" env-default:"billing.events"`
}

// MustLoad функция для загрузки конфига, завершает процесс при любой ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
