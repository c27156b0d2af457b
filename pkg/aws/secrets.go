package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// SecretGetter is the part of Secrets Manager the config loaders use.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SecretsAPI is the Secrets Manager call the client makes.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient reads string secrets and caches them for the process
// lifetime. Each service keeps one secret per bundle (auth, catalog,
// gateway) holding a JSON object of values.
type SecretsClient struct {
	client SecretsAPI
	prefix string

	mu    sync.RWMutex
	cache map[string]string
}

// NewSecretsClient reads secrets under SECRETS_PREFIX (default
// "laptop-admin/"), so "auth" resolves to "laptop-admin/auth".
func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	prefix, ok := os.LookupEnv("SECRETS_PREFIX")
	if !ok {
		prefix = "laptop-admin/"
	}
	return NewSecretsClientWithAPI(secretsmanager.NewFromConfig(cfg), prefix)
}

func NewSecretsClientWithAPI(client SecretsAPI, prefix string) *SecretsClient {
	return &SecretsClient{client: client, prefix: prefix, cache: make(map[string]string)}
}

func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	id := s.prefix + name

	s.mu.RLock()
	v, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(id)})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	s.mu.Lock()
	s.cache[id] = *out.SecretString
	s.mu.Unlock()
	return *out.SecretString, nil
}

// OverrideFromSecrets replaces each target with the value its key names.
// A key "bundle/FIELD" reads FIELD from the JSON secret "bundle"; a key
// without a slash is a plain string secret. Missing or empty values leave
// the env-provided value in place.
func OverrideFromSecrets(ctx context.Context, sm SecretGetter, targets map[string]*string) {
	bundles := map[string]map[string]string{}
	for key, dst := range targets {
		bundle, field, nested := strings.Cut(key, "/")
		if !nested {
			if v, err := sm.GetSecret(ctx, key); err == nil && v != "" {
				*dst = v
			}
			continue
		}

		values, seen := bundles[bundle]
		if !seen {
			values = readBundle(ctx, sm, bundle)
			bundles[bundle] = values
		}
		if v := values[field]; v != "" {
			*dst = v
		}
	}
}

func readBundle(ctx context.Context, sm SecretGetter, name string) map[string]string {
	raw, err := sm.GetSecret(ctx, name)
	if err != nil {
		zap.L().Warn("Secret bundle unavailable, using environment", zap.String("bundle", name), zap.Error(err))
		return nil
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		zap.L().Warn("Secret bundle is not a JSON object", zap.String("bundle", name))
		return nil
	}
	return values
}
