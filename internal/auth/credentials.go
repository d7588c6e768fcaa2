// Package auth builds read-only Google Drive credentials from stored secrets.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/secret"
)

// CredentialSource resolves the Drive credentials of the gateway.
// A service-account key takes precedence over an API key.
type CredentialSource struct {
	resolver            secret.Resolver
	apiKeyParam         string
	serviceAccountParam string
}

// NewCredentialSource creates a CredentialSource. Either param may be empty.
func NewCredentialSource(resolver secret.Resolver, apiKeyParam, serviceAccountParam string) *CredentialSource {
	return &CredentialSource{
		resolver:            resolver,
		apiKeyParam:         apiKeyParam,
		serviceAccountParam: serviceAccountParam,
	}
}

// ClientOptions returns the Drive client options carrying the credentials.
func (s *CredentialSource) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	if s.serviceAccountParam != "" {
		keyJSON, err := s.resolver.GetSecret(ctx, s.serviceAccountParam)
		if err != nil {
			return nil, fmt.Errorf("%w: service account key: %w", adapter.ErrConfiguration, err)
		}
		conf, err := google.JWTConfigFromJSON([]byte(keyJSON), drive.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("%w: parse service account key: %w", adapter.ErrConfiguration, err)
		}
		return []option.ClientOption{option.WithTokenSource(conf.TokenSource(ctx))}, nil
	}

	if s.apiKeyParam == "" {
		return nil, fmt.Errorf("%w: no Drive credentials configured", adapter.ErrConfiguration)
	}
	key, err := s.resolver.GetSecret(ctx, s.apiKeyParam)
	if err != nil {
		return nil, fmt.Errorf("%w: drive api key: %w", adapter.ErrConfiguration, err)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %w", adapter.ErrConfiguration, errEmptyKey)
	}
	return []option.ClientOption{option.WithAPIKey(key)}, nil
}

var errEmptyKey = errors.New("drive api key is empty")
