package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"library/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig          `yaml:"app"`
	Telegram      TelegramConfig     `yaml:"telegram"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Backup        BackupConfig       `yaml:"backup"`
	Monitoring    MonitoringConfig   `yaml:"monitoring"`
	Logging       LoggingConfig      `yaml:"logging"`
	Payments      PaymentsConfig     `yaml:"payments"`
	Borrowing     BorrowingConfig    `yaml:"borrowing"`
	Notifications NotificationConfig `yaml:"notifications"`
	Bot           BotConfig          `yaml:"bot"`
	Staff         []int64            `yaml:"staff"`
	BooksFile     string             `yaml:"books_file"`
}

type BotConfig struct {
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
	ListLimit         int `yaml:"list_limit"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken           string `yaml:"bot_token"`
	NotificationChatID int64  `yaml:"notification_chat_id"`
	Enabled            bool   `yaml:"enabled"`
	Debug              bool   `yaml:"debug"`
	// секунды на один запрос к Bot API
	RequestTimeout int `yaml:"request_timeout"`
}

func (t TelegramConfig) Timeout() time.Duration {
	return time.Duration(t.RequestTimeout) * time.Second
}

type DatabaseConfig struct {
	// sqlite3 или pgx
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
	// URL overrides the individual connection fields when set.
	URL string `yaml:"url"`
}

// DSN builds a pgx connection string.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type PaymentsConfig struct {
	SecretKey  string `yaml:"secret_key"`
	Currency   string `yaml:"currency"`
	SuccessURL string `yaml:"success_url"`
	CancelURL  string `yaml:"cancel_url"`
}

type BorrowingConfig struct {
	FineMultiplier int `yaml:"fine_multiplier"`
	// интервал проверки просроченных выдач в секундах
	OverdueCheckInterval int `yaml:"overdue_check_interval"`
}

func (b BorrowingConfig) OverdueInterval() time.Duration {
	return time.Duration(b.OverdueCheckInterval) * time.Second
}

type NotificationConfig struct {
	QueueSize  int     `yaml:"queue_size"`
	MaxRetries int     `yaml:"max_retries"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE") {
		return errors.New("telegram bot token is required")
	}

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case "pgx":
		if c.Database.Postgres.URL == "" && (c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "") {
			return errors.New("postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Borrowing.FineMultiplier < 1 {
		return fmt.Errorf("fine multiplier must be positive, got %d", c.Borrowing.FineMultiplier)
	}

	return ValidateStaff(c.Staff)
}

func ValidateStaff(ids []int64) error {
	seen := make(map[int64]bool)
	for _, id := range ids {
		if id == 0 {
			return errors.New("staff list contains invalid telegram id 0")
		}
		if seen[id] {
			return fmt.Errorf("duplicate staff telegram id: %d", id)
		}
		seen[id] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Telegram.RequestTimeout == 0 {
		c.Telegram.RequestTimeout = 70
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Payments.Currency == "" {
		c.Payments.Currency = "usd"
	}
	if c.Payments.SuccessURL == "" {
		c.Payments.SuccessURL = "http://localhost:8000/payments/success"
	}
	if c.Payments.CancelURL == "" {
		c.Payments.CancelURL = "http://localhost:8000/payments/cancel"
	}

	if c.Borrowing.FineMultiplier == 0 {
		c.Borrowing.FineMultiplier = models.DefaultFineMultiplier
	}
	if c.Borrowing.OverdueCheckInterval == 0 {
		c.Borrowing.OverdueCheckInterval = models.DefaultOverdueCheckInterval
	}

	if c.Notifications.QueueSize == 0 {
		c.Notifications.QueueSize = models.WorkerQueueSize
	}
	if c.Notifications.MaxRetries == 0 {
		c.Notifications.MaxRetries = 5
	}
	if c.Notifications.RatePerSec == 0 {
		c.Notifications.RatePerSec = 1
	}
	if c.Notifications.Burst == 0 {
		c.Notifications.Burst = 1
	}

	// Bot defaults
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.ListLimit == 0 {
		c.Bot.ListLimit = models.DefaultListLimit
	}
}

// IsStaff reports whether the telegram id is listed in the staff section.
func (c *Config) IsStaff(telegramID int64) bool {
	for _, id := range c.Staff {
		if id == telegramID {
			return true
		}
	}
	return false
}
