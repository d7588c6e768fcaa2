// Package secret retrieves secrets from SSM Parameter Store or the environment.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/crypto"
)

// SSMClient is the subset of *ssm.Client methods used by SSMResolver.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Resolver retrieves secret values by name.
type Resolver interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SSMResolver fetches secrets from AWS Systems Manager Parameter Store.
type SSMResolver struct {
	client SSMClient
}

// NewSSMResolver returns a Resolver backed by SSM Parameter Store.
func NewSSMResolver(client SSMClient) Resolver {
	return &SSMResolver{client: client}
}

// GetSecret retrieves a SecureString parameter from SSM with decryption.
func (r *SSMResolver) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// EnvResolver fetches secrets from environment variables.
// "/pastq/drive-api-key" is read from DRIVE_API_KEY.
type EnvResolver struct{}

// NewEnvResolver returns a Resolver that reads from environment variables.
func NewEnvResolver() Resolver {
	return &EnvResolver{}
}

// GetSecret reads from the environment variable derived from the parameter name.
func (r *EnvResolver) GetSecret(_ context.Context, name string) (string, error) {
	envName := paramNameToEnvVar(name)
	val := os.Getenv(envName)
	if val == "" {
		return "", fmt.Errorf("environment variable %q (from param %q) is not set", envName, name)
	}
	return val, nil
}

// paramNameToEnvVar converts an SSM parameter name to an environment variable name.
func paramNameToEnvVar(name string) string {
	parts := strings.Split(name, "/")
	last := parts[len(parts)-1]
	return strings.ToUpper(strings.ReplaceAll(last, "-", "_"))
}

// DecryptingResolver opens values that were sealed with an Encryptor
// before being stored, e.g. by `pastq secret seal`.
type DecryptingResolver struct {
	next      Resolver
	encryptor crypto.Encryptor
}

// NewDecryptingResolver wraps next so every value is decrypted before use.
func NewDecryptingResolver(next Resolver, encryptor crypto.Encryptor) Resolver {
	return &DecryptingResolver{next: next, encryptor: encryptor}
}

func (r *DecryptingResolver) GetSecret(ctx context.Context, name string) (string, error) {
	sealed, err := r.next.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	val, err := r.encryptor.Decrypt(ctx, sealed)
	if err != nil {
		return "", fmt.Errorf("decrypt %q: %w", name, err)
	}
	return val, nil
}

// CachingResolver memoizes successful lookups for the life of the process.
// Warm Lambda containers reuse it across invocations.
type CachingResolver struct {
	next Resolver

	mu     sync.Mutex
	values map[string]string
}

// NewCachingResolver wraps next with a process-lifetime cache.
func NewCachingResolver(next Resolver) *CachingResolver {
	return &CachingResolver{next: next, values: make(map[string]string)}
}

func (r *CachingResolver) GetSecret(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	val, ok := r.values[name]
	r.mu.Unlock()
	if ok {
		return val, nil
	}

	val, err := r.next.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.values[name] = val
	r.mu.Unlock()
	return val, nil
}
