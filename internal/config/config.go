package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the panel's runtime configuration.
type Config struct {
	Port      int    `mapstructure:"PORT"`
	DBPath    string `mapstructure:"DB_PATH"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Bootstrap accounts, created on first start if missing.
	AdminUsername    string  `mapstructure:"ADMIN_USERNAME"`
	AdminPassword    string  `mapstructure:"ADMIN_PASSWORD"`
	ResellerUsername string  `mapstructure:"RESELLER_USERNAME"`
	ResellerPassword string  `mapstructure:"RESELLER_PASSWORD"`
	ResellerBalance  float64 `mapstructure:"RESELLER_BALANCE"`

	// SeedDemoData controls whether the sample product and plans are
	// inserted alongside the bootstrap accounts.
	SeedDemoData bool `mapstructure:"SEED_DEMO_DATA"`

	// Encrypted off-site backups. Disabled unless the bucket,
	// credentials, and passphrase are all set.
	BackupS3Endpoint    string `mapstructure:"BACKUP_S3_ENDPOINT"`
	BackupS3Bucket      string `mapstructure:"BACKUP_S3_BUCKET"`
	BackupS3Region      string `mapstructure:"BACKUP_S3_REGION"`
	BackupS3AccessKey   string `mapstructure:"BACKUP_S3_ACCESS_KEY"`
	BackupS3SecretKey   string `mapstructure:"BACKUP_S3_SECRET_KEY"`
	BackupPassphrase    string `mapstructure:"BACKUP_PASSPHRASE"`
	BackupScheduleHour  int    `mapstructure:"BACKUP_SCHEDULE_HOUR"`
	BackupRetentionDays int    `mapstructure:"BACKUP_RETENTION_DAYS"`
}

// Load reads configuration from config.yaml (if present) and
// PANEL_-prefixed environment variables, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.AutomaticEnv()
	v.SetEnvPrefix("PANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "panel.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("RESELLER_USERNAME", "")
	v.SetDefault("RESELLER_PASSWORD", "")
	v.SetDefault("RESELLER_BALANCE", 150.0)
	v.SetDefault("SEED_DEMO_DATA", true)
	v.SetDefault("BACKUP_S3_ENDPOINT", "")
	v.SetDefault("BACKUP_S3_BUCKET", "")
	v.SetDefault("BACKUP_S3_REGION", "us-east-1")
	v.SetDefault("BACKUP_S3_ACCESS_KEY", "")
	v.SetDefault("BACKUP_S3_SECRET_KEY", "")
	v.SetDefault("BACKUP_PASSPHRASE", "")
	v.SetDefault("BACKUP_SCHEDULE_HOUR", 3)
	v.SetDefault("BACKUP_RETENTION_DAYS", 30)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
