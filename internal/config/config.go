package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string `mapstructure:"PORT"`
	Env                 string `mapstructure:"ENV"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	SMSPrefix           string `mapstructure:"SMS_PREFIX"`
	GatewayURL          string `mapstructure:"GATEWAY_URL"`
	GatewayToken        string `mapstructure:"GATEWAY_TOKEN"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	GrowthReferencePath string `mapstructure:"GROWTH_REFERENCE_PATH"`
	PatientSource       string `mapstructure:"PATIENT_SOURCE"`
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
	v.SetDefault("SMS_PREFIX", "nutrition")
	v.SetDefault("PATIENT_SOURCE", "nutrition")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("SMS_PREFIX")
	v.BindEnv("GATEWAY_URL")
	v.BindEnv("GATEWAY_TOKEN")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("GROWTH_REFERENCE_PATH")
	v.BindEnv("PATIENT_SOURCE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside of
// development the admin API must be protected, so JWT_SECRET is required.
// A gateway URL without a token is almost always a misconfiguration and is
// rejected the same way.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV is %q", c.Env)
	}
	if c.GatewayURL != "" && c.GatewayToken == "" && !c.IsDev() {
		return fmt.Errorf("GATEWAY_TOKEN is required when GATEWAY_URL is set")
	}
	return nil
}
