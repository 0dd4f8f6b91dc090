package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	SessionTTL           time.Duration
	BootstrapAdminEmail  string
	BootstrapAdminName   string
	BootstrapAdminSecret string
	ObjectStoreEndpoint  string
	ObjectStoreRegion    string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreBucket    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ASSESSLY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Assessly API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("objectstore.region", "us-east-1")
	v.SetDefault("objectstore.bucket", "assessly-artefacts")

	ttlString := v.GetString("session.ttl")
	if ttlString == "" {
		ttlString = "24h"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		SessionTTL:           ttl,
		BootstrapAdminEmail:  v.GetString("admin.email"),
		BootstrapAdminName:   v.GetString("admin.name"),
		BootstrapAdminSecret: v.GetString("admin.password"),
		ObjectStoreEndpoint:  v.GetString("objectstore.endpoint"),
		ObjectStoreRegion:    v.GetString("objectstore.region"),
		ObjectStoreAccessKey: v.GetString("objectstore.access_key"),
		ObjectStoreSecretKey: v.GetString("objectstore.secret_key"),
		ObjectStoreBucket:    v.GetString("objectstore.bucket"),
	}

	return cfg, nil
}
