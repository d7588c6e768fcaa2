package googledrive

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/auth"
)

// NewProvider creates a DriveAdapter authenticated with the credentials
// resolved by src.
func NewProvider(ctx context.Context, src *auth.CredentialSource, limiter *rate.Limiter) (*DriveAdapter, error) {
	opts, err := src.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	d, err := NewDriveAdapter(ctx, limiter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive adapter: %w", err)
	}
	return d, nil
}
