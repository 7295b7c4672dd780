// Package config loads application settings from defaults, an optional YAML
// file, a .env file and FEEBILL_* environment variables, in increasing order
// of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmynk/feebill/internal/models"
)

// EnvPrefix prefixes every environment override, e.g. FEEBILL_SERVER_PORT.
const EnvPrefix = "FEEBILL"

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Institution InstitutionConfig `mapstructure:"institution"`
	Bill        BillConfig        `mapstructure:"bill"`
	Layout      LayoutConfig      `mapstructure:"layout"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// InstitutionConfig is printed in the bill header and footer.
type InstitutionConfig struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
}

// BillConfig holds bill presentation settings.
type BillConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Locale         string `mapstructure:"locale"` // BCP 47 tag used for number grouping
	DueDays        int    `mapstructure:"due_days"`
	AcademicYear   string `mapstructure:"academic_year"` // empty derives it from the issue date
	DefaultType    string `mapstructure:"default_type"`
	AutoPrint      bool   `mapstructure:"auto_print"`
}

// LayoutConfig holds the copy counts offered on the print page.
type LayoutConfig struct {
	Copies []int `mapstructure:"copies"`
}

// ScheduleConfig points at an alternative fee schedule document.
type ScheduleConfig struct {
	Path string `mapstructure:"path"` // empty uses the embedded schedule
}

// Load reads configuration. configPath may be empty, in which case only
// defaults and the environment apply.
func Load(configPath string) (*Config, error) {
	// .env is optional; a broken one is an error
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Logger defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Institution defaults
	v.SetDefault("institution.name", "Tagsol Education Institute")
	v.SetDefault("institution.address", "123 Education Street, Knowledge City, KC 12345")
	v.SetDefault("institution.phone", "+1 (555) 123-4567")
	v.SetDefault("institution.email", "billing@excellence-edu.com")

	// Bill defaults
	v.SetDefault("bill.currency_symbol", "$")
	v.SetDefault("bill.locale", "en-US")
	v.SetDefault("bill.due_days", 30)
	v.SetDefault("bill.academic_year", "")
	v.SetDefault("bill.default_type", "3-part")
	v.SetDefault("bill.auto_print", true)

	// Layout defaults
	v.SetDefault("layout.copies", []int{1, 2, 3, 4, 5, 6})

	v.SetDefault("schedule.path", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Institution.Name == "" {
		return fmt.Errorf("institution.name is required")
	}

	if c.Bill.DueDays < 0 {
		return fmt.Errorf("bill.due_days must not be negative")
	}

	if _, err := models.ParseBillType(c.Bill.DefaultType); err != nil {
		return fmt.Errorf("bill.default_type: %w", err)
	}

	if len(c.Layout.Copies) == 0 {
		return fmt.Errorf("layout.copies must list at least one copy count")
	}

	return nil
}
