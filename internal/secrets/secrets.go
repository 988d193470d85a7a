// Package secrets resolves service credentials from AWS Secrets Manager.
//
// Secrets are JSON objects keyed by logical name (openai, mongodb,
// twitter_api). Resolution happens once at process start; credentials
// already present in the environment take precedence so local runs work
// without AWS access.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// ErrSecretNotFound indicates the named secret does not exist.
// This is fatal at startup: no external call can proceed without credentials.
var ErrSecretNotFound = errors.New("secret not found")

// Fetcher retrieves a named secret as a string map.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (map[string]string, error)
}

// Store is the AWS Secrets Manager backed Fetcher.
type Store struct {
	client *secretsmanager.Client
}

var _ Fetcher = (*Store)(nil)

// NewStore creates a Secrets Manager client using the default AWS
// credential chain for the given region.
func NewStore(ctx context.Context, region string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Store{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// Fetch retrieves and decodes the named secret.
func (s *Store) Fetch(ctx context.Context, name string) (map[string]string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &name,
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return nil, fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("%w: %s has no string payload", ErrSecretNotFound, name)
	}
	return decode(*out.SecretString)
}

func decode(payload string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decode secret payload: %w", err)
	}
	return m, nil
}

// Credentials holds the resolved key material for the external services.
type Credentials struct {
	OpenAIAPIKey       string
	MongoURI           string
	TwitterBearerToken string
}

// SecretNames maps each credential to its logical secret name.
type SecretNames struct {
	OpenAI  string
	Mongo   string
	Twitter string
}

// Resolve fills in any credential not already set, fetching the
// corresponding secret by logical name. A missing secret for a missing
// credential is fatal.
func Resolve(ctx context.Context, f Fetcher, names SecretNames, creds Credentials) (Credentials, error) {
	if creds.OpenAIAPIKey == "" {
		m, err := f.Fetch(ctx, names.OpenAI)
		if err != nil {
			return creds, err
		}
		creds.OpenAIAPIKey = m["api_key"]
	}
	if creds.MongoURI == "" {
		m, err := f.Fetch(ctx, names.Mongo)
		if err != nil {
			return creds, err
		}
		creds.MongoURI = m["connection_string"]
	}
	if creds.TwitterBearerToken == "" {
		m, err := f.Fetch(ctx, names.Twitter)
		if err != nil {
			return creds, err
		}
		creds.TwitterBearerToken = m["bearer_token"]
	}
	return creds, nil
}
