package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
)

// Config holds all environment variables for the auth-service.
type Config struct {
	Env         string
	Port        string
	MongoURL    string
	MongoDBName string

	JWTSecret          string
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	PublicBaseURL      string // base of the Google callback URL
	FrontendURL        string
	CookieDomain       string
	CookieSecure       bool
	AdminEmails        string

	// BlobProvider is "s3" (default) or "minio"; profile images share the
	// catalog bucket.
	BlobProvider    string
	Bucket          string
	S3Endpoint      string
	CDNDomain       string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioSecure     bool
	MinioPublicBase string

	SNSTopicARN string
}

// LoadConfig loads environment variables into Config struct and validates them.
func LoadConfig() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:                env,
		Port:               getEnv("PORT", "8081"),
		MongoURL:           getEnv("MONGO_DB_URL", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "laptop_admin"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		PublicBaseURL:      strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		FrontendURL:        strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		CookieDomain:       os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:       env == "production",
		AdminEmails:        os.Getenv("ADMIN_EMAILS"),
		BlobProvider:       strings.ToLower(getEnv("BLOB_PROVIDER", "s3")),
		Bucket:             getEnv("AWS_S3_BUCKET", "laptop-admin"),
		S3Endpoint:         awspkg.Endpoint("AWS_S3_ENDPOINT"),
		CDNDomain:          os.Getenv("AWS_CLOUDFRONT_DOMAIN"),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioSecure:        os.Getenv("MINIO_USE_SSL") == "true",
		MinioPublicBase:    os.Getenv("MINIO_PUBLIC_BASE_URL"),
		SNSTopicARN:        os.Getenv("AUTH_SNS_TOPIC_ARN"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			awspkg.OverrideFromSecrets(context.Background(), sm, map[string]*string{
				"auth/JWT_SECRET":           &cfg.JWTSecret,
				"auth/SESSION_SECRET":       &cfg.SessionSecret,
				"auth/GOOGLE_CLIENT_SECRET": &cfg.GoogleClientSecret,
				"auth/MINIO_SECRET_KEY":     &cfg.MinioSecretKey,
			})
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if (cfg.GoogleClientID == "") != (cfg.GoogleClientSecret == "") {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	switch cfg.BlobProvider {
	case "s3":
	case "minio":
		if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio provider")
		}
	default:
		return nil, fmt.Errorf("unknown BLOB_PROVIDER %q", cfg.BlobProvider)
	}
	return cfg, nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// BlobConfig is the profile image store selection.
func (c *Config) BlobConfig() storage.ProviderConfig {
	return storage.ProviderConfig{
		Provider:        c.BlobProvider,
		Bucket:          c.Bucket,
		S3Endpoint:      c.S3Endpoint,
		CDNDomain:       c.CDNDomain,
		MinioEndpoint:   c.MinioEndpoint,
		MinioAccessKey:  c.MinioAccessKey,
		MinioSecretKey:  c.MinioSecretKey,
		MinioSecure:     c.MinioSecure,
		MinioPublicBase: c.MinioPublicBase,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
