package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// DefaultField is the JSON key read from structured secrets.
const DefaultField = "API_KEY"

// ErrEmptySecret is returned when a provider resolves to an empty value.
var ErrEmptySecret = errors.New("secret resolved to an empty value")

// Provider resolves the API key the query endpoint expects.
type Provider interface {
	APIKey(ctx context.Context) (string, error)
}

// Static returns a fixed key, typically from config or the environment.
type Static string

func (s Static) APIKey(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrEmptySecret
	}
	return string(s), nil
}

// SecretsManager reads the key from AWS Secrets Manager.
// JSON secrets are read by field; plain string secrets are used as-is.
type SecretsManager struct {
	client   secretsmanageriface.SecretsManagerAPI
	secretID string
	field    string
}

// NewSecretsManager builds a provider with a client for region.
func NewSecretsManager(region, secretID, field string) (*SecretsManager, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewSecretsManagerWithClient(secretsmanager.New(sess), secretID, field), nil
}

// NewSecretsManagerWithClient wraps an existing client.
func NewSecretsManagerWithClient(client secretsmanageriface.SecretsManagerAPI, secretID, field string) *SecretsManager {
	if field == "" {
		field = DefaultField
	}
	return &SecretsManager{client: client, secretID: secretID, field: field}
}

func (s *SecretsManager) APIKey(ctx context.Context) (string, error) {
	out, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve secret %q: %w", s.secretID, err)
	}

	raw := aws.StringValue(out.SecretString)
	value := raw
	if strings.HasPrefix(strings.TrimSpace(raw), "{") {
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return "", fmt.Errorf("secret %q is not valid JSON: %w", s.secretID, err)
		}
		v, ok := fields[s.field].(string)
		if !ok {
			return "", fmt.Errorf("secret %q has no string field %q", s.secretID, s.field)
		}
		value = v
	}

	if value == "" {
		return "", fmt.Errorf("secret %q: %w", s.secretID, ErrEmptySecret)
	}
	return value, nil
}
