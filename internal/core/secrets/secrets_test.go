package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/require"
)

type fakeSecretsManager struct {
	secretsmanageriface.SecretsManagerAPI
	secrets map[string]string
	err     error
}

func (f *fakeSecretsManager) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.secrets[aws.StringValue(in.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestStatic(t *testing.T) {
	key, err := Static("test-api-key").APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "test-api-key", key)

	_, err = Static("").APIKey(context.Background())
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestSecretsManager_APIKey(t *testing.T) {
	fake := &fakeSecretsManager{secrets: map[string]string{
		"json":      `{"API_KEY":"from-json","AWS_ACCOUNT_ID":"123456789012"}`,
		"custom":    `{"token":"custom-field"}`,
		"plain":     "plain-value",
		"empty":     `{"API_KEY":""}`,
		"nonstring": `{"API_KEY":42}`,
		"broken":    `{"API_KEY":`,
	}}

	tests := []struct {
		name     string
		secretID string
		field    string
		want     string
		wantErr  string
	}{
		{name: "json default field", secretID: "json", want: "from-json"},
		{name: "json custom field", secretID: "custom", field: "token", want: "custom-field"},
		{name: "plain string", secretID: "plain", want: "plain-value"},
		{name: "empty value", secretID: "empty", wantErr: ErrEmptySecret.Error()},
		{name: "non string field", secretID: "nonstring", wantErr: `no string field "API_KEY"`},
		{name: "invalid json", secretID: "broken", wantErr: "not valid JSON"},
		{name: "missing secret", secretID: "missing", wantErr: "failed to retrieve secret"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewSecretsManagerWithClient(fake, tc.secretID, tc.field).APIKey(context.Background())
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
