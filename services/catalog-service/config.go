package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/services"
)

// Config holds all environment variables for the catalog-service.
type Config struct {
	Env       string
	Port      string
	JWTSecret string

	MongoURL    string
	MongoDBName string
	RedisURL    string

	// BlobProvider is "s3" (default) or "minio".
	BlobProvider string
	Bucket       string
	S3Endpoint   string
	CDNDomain    string

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioSecure     bool
	MinioPublicBase string

	SNSTopicARN  string
	FilterPolicy services.FilterPolicy
}

// LoadConfig loads environment variables into Config and validates them.
// With AWS_USE_SECRETS=true the JWT secret is read from Secrets Manager,
// falling back to the environment on failure.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8082"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		MongoURL:        getEnv("MONGO_DB_URL", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "laptop_admin"),
		RedisURL:        os.Getenv("REDIS_URL"),
		BlobProvider:    strings.ToLower(getEnv("BLOB_PROVIDER", "s3")),
		Bucket:          getEnv("AWS_S3_BUCKET", "laptop-admin"),
		S3Endpoint:      awspkg.Endpoint("AWS_S3_ENDPOINT"),
		CDNDomain:       os.Getenv("AWS_CLOUDFRONT_DOMAIN"),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		MinioSecure:     os.Getenv("MINIO_USE_SSL") == "true",
		MinioPublicBase: os.Getenv("MINIO_PUBLIC_BASE_URL"),
		SNSTopicARN:     os.Getenv("CATALOG_SNS_TOPIC_ARN"),
	}

	policy, err := services.ParseFilterPolicy(os.Getenv("COMPONENT_FILTER_POLICY"))
	if err != nil {
		return nil, err
	}
	cfg.FilterPolicy = policy

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			awspkg.OverrideFromSecrets(context.Background(), sm, map[string]*string{
				"catalog/JWT_SECRET":       &cfg.JWTSecret,
				"catalog/MINIO_SECRET_KEY": &cfg.MinioSecretKey,
			})
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
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

// BlobConfig is the image store selection.
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
