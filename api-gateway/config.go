package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
)

// Config holds the gateway settings.
type Config struct {
	Env               string
	Port              string
	AuthServiceURL    string
	CatalogServiceURL string
	JWTSecret         string
	CORSOrigins       string
	UpstreamTimeout   time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		AuthServiceURL:    strings.TrimSuffix(getEnv("AUTH_SERVICE_URL", "http://localhost:8081"), "/"),
		CatalogServiceURL: strings.TrimSuffix(getEnv("CATALOG_SERVICE_URL", "http://localhost:8082"), "/"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		CORSOrigins:       getEnv("CORS_ORIGINS", getEnv("FRONTEND_URL", "http://localhost:3000")),
		UpstreamTimeout:   30 * time.Second,
	}
	if raw := os.Getenv("UPSTREAM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		cfg.UpstreamTimeout = d
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			awspkg.OverrideFromSecrets(context.Background(), awspkg.NewSecretsClient(awsCfg), map[string]*string{
				"gateway/JWT_SECRET": &cfg.JWTSecret,
			})
		}
	}

	// The gateway only reads sessions to decide when to refresh them.
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
