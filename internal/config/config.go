package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	AuthMode     string
	OIDCIssuer   string
	OIDCClientID string

	MinSessionDuration time.Duration
	MaxSessionDuration time.Duration
	SuspiciousWindow   time.Duration
}

func Load() Config {

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("AUTH_MODE", "redis")
	v.SetDefault("MIN_SESSION_SECONDS", 1)
	v.SetDefault("MAX_SESSION_SECONDS", 86400)
	v.SetDefault("SUSPICIOUS_WINDOW_SECONDS", 30)

	cfg := Config{

		AppPort: v.GetString("APP_PORT"),

		DatabaseDSN: v.GetString("DATABASE_DSN"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		AuthMode:     v.GetString("AUTH_MODE"),
		OIDCIssuer:   v.GetString("OIDC_ISSUER"),
		OIDCClientID: v.GetString("OIDC_CLIENT_ID"),

		MinSessionDuration: time.Duration(v.GetInt("MIN_SESSION_SECONDS")) * time.Second,
		MaxSessionDuration: time.Duration(v.GetInt("MAX_SESSION_SECONDS")) * time.Second,
		SuspiciousWindow:   time.Duration(v.GetInt("SUSPICIOUS_WINDOW_SECONDS")) * time.Second,
	}

	return cfg

}
