package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jsm-masala/storefront/pkg/messaging"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	NotifierQueue = "queue"
	NotifierLog   = "log"

	MailerLog  = "log"
	MailerSMTP = "smtp"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	Port     int    `yaml:"port"`

	StoreName     string `yaml:"store_name"`
	OrderIDPrefix string `yaml:"order_id_prefix"`
	// Notifier selects how the storefront hands off emails.
	Notifier string `yaml:"notifier"`

	Database Database                 `yaml:"database"`
	RabbitMQ messaging.RabbitMQConfig `yaml:"rabbitmq"`
	Mailer   Mailer                   `yaml:"mailer"`
}

type Database struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the SQLite file, or ":memory:".
	Path string `yaml:"path"`
}

// DSN returns the connection string for the configured driver.
func (d Database) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Mailer struct {
	Kind     string `yaml:"kind"`
	Host     string `yaml:"smtp_host"`
	Port     int    `yaml:"smtp_port"`
	Username string `yaml:"smtp_username"`
	Password string `yaml:"smtp_password"`
	From     string `yaml:"from"`
}

func Default() Config {
	return Config{
		AppEnv:        "dev",
		LogLevel:      "info",
		Port:          8080,
		StoreName:     "JSM Masala",
		OrderIDPrefix: "JSM",
		Notifier:      NotifierLog,
		Database: Database{
			Driver:   DriverSQLite,
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "storefront",
			SSLMode:  "disable",
			Path:     "storefront.db",
		},
		RabbitMQ: messaging.DefaultRabbitMQConfig(),
		Mailer: Mailer{
			Kind: MailerLog,
			Port: 587,
			From: "orders@jsmmasala.example",
		},
	}
}

// Load layers the YAML file named by CONFIG_FILE (if any) and then the
// environment over the defaults.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing YAML config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Port = getEnvInt("PORT", c.Port)
	c.StoreName = getEnv("STORE_NAME", c.StoreName)
	c.OrderIDPrefix = getEnv("ORDER_ID_PREFIX", c.OrderIDPrefix)
	c.Notifier = getEnv("NOTIFIER", c.Notifier)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)

	c.RabbitMQ.Host = getEnv("RABBITMQ_HOST", c.RabbitMQ.Host)
	c.RabbitMQ.Port = getEnvInt("RABBITMQ_PORT", c.RabbitMQ.Port)
	c.RabbitMQ.Username = getEnv("RABBITMQ_USERNAME", c.RabbitMQ.Username)
	c.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", c.RabbitMQ.Password)
	c.RabbitMQ.VHost = getEnv("RABBITMQ_VHOST", c.RabbitMQ.VHost)
	c.RabbitMQ.Exchange = getEnv("RABBITMQ_EXCHANGE", c.RabbitMQ.Exchange)
	c.RabbitMQ.RetryCount = getEnvInt("RABBITMQ_RETRY_COUNT", c.RabbitMQ.RetryCount)
	c.RabbitMQ.RetryDelay = getEnvDuration("RABBITMQ_RETRY_DELAY", c.RabbitMQ.RetryDelay)
	c.RabbitMQ.MaxDeliveries = getEnvInt("RABBITMQ_MAX_DELIVERIES", c.RabbitMQ.MaxDeliveries)

	c.Mailer.Kind = getEnv("MAILER", c.Mailer.Kind)
	c.Mailer.Host = getEnv("SMTP_HOST", c.Mailer.Host)
	c.Mailer.Port = getEnvInt("SMTP_PORT", c.Mailer.Port)
	c.Mailer.Username = getEnv("SMTP_USERNAME", c.Mailer.Username)
	c.Mailer.Password = getEnv("SMTP_PASSWORD", c.Mailer.Password)
	c.Mailer.From = getEnv("SMTP_FROM", c.Mailer.From)
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Notifier {
	case NotifierQueue, NotifierLog:
	default:
		return fmt.Errorf("unsupported NOTIFIER %q", c.Notifier)
	}
	switch c.Mailer.Kind {
	case MailerLog:
	case MailerSMTP:
		if c.Mailer.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when MAILER=smtp")
		}
	default:
		return fmt.Errorf("unsupported MAILER %q", c.Mailer.Kind)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if strings.TrimSpace(c.StoreName) == "" {
		return fmt.Errorf("STORE_NAME must not be empty")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
