package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

type Config struct {
	Env        string `envconfig:"ENV" default:"production"`
	Port       string `envconfig:"PORT" default:"8080"`
	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"*"`

	Tokens

	MySQL      MySQL
	Redis      Redis
	RabbitMQ   RabbitMQ
	Kafka      Kafka
	Razorpay   Razorpay
	Cloudinary Cloudinary
	Order      Order
	RateLimit  RateLimit `envconfig:"RATE_LIMIT"`
}

type MySQL struct {
	User     string `envconfig:"USER" required:"true"`
	Password string `envconfig:"PASSWORD"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"3306"`
	Database string `envconfig:"DATABASE" required:"true"`

	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"100"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"20"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"CONN_MAX_IDLE_TIME" default:"1m"`
}

type Redis struct {
	Addr     string `envconfig:"ADDR" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type RabbitMQ struct {
	URL      string `envconfig:"URL"`
	Exchange string `envconfig:"EXCHANGE" default:"order.exchange"`
}

type Kafka struct {
	Brokers    []string `envconfig:"BROKERS"`
	EmailTopic string   `envconfig:"EMAIL_TOPIC" default:"notifications.email"`
}

// Tokens is embedded so its variables keep their unprefixed names.
type Tokens struct {
	AccessSecret  string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	AccessTTL     time.Duration `envconfig:"ACCESS_TOKEN_EXPIRY" default:"15m"`
	RefreshSecret string        `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	RefreshTTL    time.Duration `envconfig:"REFRESH_TOKEN_EXPIRY" default:"168h"`
	Issuer        string        `envconfig:"TOKEN_ISSUER" default:"shop-service"`
}

type Razorpay struct {
	KeyID     string        `envconfig:"KEY_ID"`
	KeySecret string        `envconfig:"KEY_SECRET"`
	BaseURL   string        `envconfig:"BASE_URL" default:"https://api.razorpay.com/v1"`
	Currency  string        `envconfig:"CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

type Cloudinary struct {
	CloudName string        `envconfig:"CLOUD_NAME"`
	APIKey    string        `envconfig:"API_KEY"`
	APISecret string        `envconfig:"API_SECRET"`
	Folder    string        `envconfig:"FOLDER" default:"products"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

type Order struct {
	NumberPrefix       string `envconfig:"NUMBER_PREFIX" default:"GRJ"`
	RepriceFromCatalog bool   `envconfig:"REPRICE_FROM_CATALOG" default:"false"`
	CompensateAttempts int    `envconfig:"COMPENSATE_ATTEMPTS" default:"3"`
}

type RateLimit struct {
	AuthPerMinute int `envconfig:"AUTH_PER_MINUTE" default:"20"`
	AuthBurst     int `envconfig:"AUTH_BURST" default:"5"`
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads .env (if present) and the process environment. Missing required
// variables stop the process.
func Load(log *zap.Logger) *Config {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.Order.CompensateAttempts < 1 {
		cfg.Order.CompensateAttempts = 1
	}
	return &cfg
}

// LoadMySQL reads only the MYSQL_* variables, for tools that need nothing else.
func LoadMySQL() (MySQL, error) {
	_ = godotenv.Load()

	var cfg MySQL
	if err := envconfig.Process("MYSQL", &cfg); err != nil {
		return MySQL{}, err
	}
	return cfg, nil
}
