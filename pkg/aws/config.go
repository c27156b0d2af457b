package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"
)

// DefaultRegion is used when neither the shared config nor AWS_REGION set one.
const DefaultRegion = "us-east-1"

// Endpoint returns the custom endpoint for LocalStack style setups.
// Service-specific variables win over the generic AWS_ENDPOINT.
func Endpoint(serviceVars ...string) string {
	for _, key := range serviceVars {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return os.Getenv("AWS_ENDPOINT")
}

// LoadAWSConfig loads the SDK config from the environment. Static keys from
// AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY are used when present, and
// AWS_ENDPOINT redirects every client to a single edge URL (LocalStack).
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}

	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, os.Getenv("AWS_SESSION_TOKEN")),
		))
	}

	if endpoint := os.Getenv("AWS_ENDPOINT"); endpoint != "" {
		resolver := sdkaws.EndpointResolverWithOptionsFunc(func(service, r string, options ...interface{}) (sdkaws.Endpoint, error) {
			return sdkaws.Endpoint{
				URL:               endpoint,
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		})
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))
		zap.L().Info("AWS custom endpoint configured",
			zap.String("endpoint", endpoint),
			zap.String("region", region),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, nil
}
