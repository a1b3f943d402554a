package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	MongoURL           string   `mapstructure:"MONGO_URL"`
	MongoDatabase      string   `mapstructure:"MONGO_DATABASE"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	AIBaseURL          string   `mapstructure:"AI_BASE_URL"`
	AIAPIKey           string   `mapstructure:"AI_API_KEY"`
	AIChatModel        string   `mapstructure:"AI_CHAT_MODEL"`
	AIVisionModel      string   `mapstructure:"AI_VISION_MODEL"`
	ServiceSlotMinutes int      `mapstructure:"SERVICE_SLOT_MINUTES"`
	SessionSecret      string   `mapstructure:"SESSION_SECRET"`
	SessionTTLHours    int      `mapstructure:"SESSION_TTL_HOURS"`
	InventoryCSV       string   `mapstructure:"INVENTORY_CSV"`
	PharmacyURL        string   `mapstructure:"PHARMACY_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MONGO_URL", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "hospital_ai")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AI_BASE_URL", "http://localhost:11434/v1")
	v.SetDefault("AI_CHAT_MODEL", "deepseek-v3.1:671b-cloud")
	v.SetDefault("AI_VISION_MODEL", "qwen3-vl:235b-instruct-cloud")
	v.SetDefault("SERVICE_SLOT_MINUTES", 5)
	v.SetDefault("SESSION_TTL_HOURS", 12)
	v.SetDefault("INVENTORY_CSV", "./medicines.csv")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MONGO_URL")
	v.BindEnv("MONGO_DATABASE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AI_BASE_URL")
	v.BindEnv("AI_API_KEY")
	v.BindEnv("AI_CHAT_MODEL")
	v.BindEnv("AI_VISION_MODEL")
	v.BindEnv("SERVICE_SLOT_MINUTES")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_TTL_HOURS")
	v.BindEnv("INVENTORY_CSV")
	v.BindEnv("PHARMACY_URL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production refuses
// to start without an explicit session secret, since doctor dashboard tokens
// would otherwise be signed with a per-boot random key and every deploy would
// log all doctors out.
func (c *Config) Validate() error {
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.ServiceSlotMinutes <= 0 {
		return fmt.Errorf("SERVICE_SLOT_MINUTES must be positive, got %d", c.ServiceSlotMinutes)
	}
	if c.IsProduction() && c.PharmacyURL == "" {
		return fmt.Errorf("PHARMACY_URL is required in production")
	}
	return nil
}
