package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"library/internal/models"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("LIBRARY_TEST_STRIPE_KEY", "sk_test_123")

	yamlContent := `
telegram:
  enabled: true
  bot_token: "test_token"
  notification_chat_id: -100
database:
  path: "test.db"
payments:
  secret_key: "${LIBRARY_TEST_STRIPE_KEY}"
staff:
  - 42
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.NotificationChatID != -100 {
		t.Errorf("expected notification chat id -100, got %d", cfg.Telegram.NotificationChatID)
	}
	if cfg.Payments.SecretKey != "sk_test_123" {
		t.Errorf("expected secret key from env, got %q", cfg.Payments.SecretKey)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("expected default driver sqlite3, got %s", cfg.Database.Driver)
	}
	if !cfg.IsStaff(42) || cfg.IsStaff(7) {
		t.Errorf("unexpected staff membership: %v", cfg.Staff)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Telegram:  TelegramConfig{Enabled: true, BotToken: "token"},
				Database:  DatabaseConfig{Driver: "sqlite3", Path: "path"},
				Borrowing: BorrowingConfig{FineMultiplier: 2},
			},
			wantErr: false,
		},
		{
			name: "telegram disabled without token",
			cfg: Config{
				Database:  DatabaseConfig{Driver: "sqlite3", Path: "path"},
				Borrowing: BorrowingConfig{FineMultiplier: 2},
			},
			wantErr: false,
		},
		{
			name: "missing token",
			cfg: Config{
				Telegram:  TelegramConfig{Enabled: true, BotToken: ""},
				Database:  DatabaseConfig{Driver: "sqlite3", Path: "path"},
				Borrowing: BorrowingConfig{FineMultiplier: 2},
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			cfg: Config{
				Database:  DatabaseConfig{Driver: "mysql", Path: "path"},
				Borrowing: BorrowingConfig{FineMultiplier: 2},
			},
			wantErr: true,
		},
		{
			name: "postgres without host",
			cfg: Config{
				Database:  DatabaseConfig{Driver: "pgx"},
				Borrowing: BorrowingConfig{FineMultiplier: 2},
			},
			wantErr: true,
		},
		{
			name: "duplicate staff id",
			cfg: Config{
				Database:  DatabaseConfig{Driver: "sqlite3", Path: "path"},
				Borrowing: BorrowingConfig{FineMultiplier: 2},
				Staff:     []int64{1, 1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Borrowing.FineMultiplier != models.DefaultFineMultiplier {
		t.Errorf("expected default fine multiplier %d, got %d", models.DefaultFineMultiplier, cfg.Borrowing.FineMultiplier)
	}
	if cfg.Borrowing.OverdueInterval() != time.Minute {
		t.Errorf("expected default overdue interval 1m, got %s", cfg.Borrowing.OverdueInterval())
	}
	if cfg.Telegram.Timeout() != 70*time.Second {
		t.Errorf("expected default telegram timeout 70s, got %s", cfg.Telegram.Timeout())
	}
	if cfg.Payments.Currency != "usd" {
		t.Errorf("expected default currency usd, got %s", cfg.Payments.Currency)
	}
	if cfg.Bot.RateLimitMessages != models.RateLimitMessages {
		t.Errorf("expected default rate limit messages %d, got %d", models.RateLimitMessages, cfg.Bot.RateLimitMessages)
	}
	if cfg.Notifications.QueueSize != models.WorkerQueueSize {
		t.Errorf("expected default queue size %d, got %d", models.WorkerQueueSize, cfg.Notifications.QueueSize)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "lib", Password: "secret", DBName: "library", SSLMode: "disable"}
	want := "postgres://lib:secret@db:5432/library?sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %s, want %s", got, want)
	}
}
