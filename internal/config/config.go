// Package config loads gateway configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/policy"
)

// Config holds all gateway and local-server settings.
type Config struct {
	DevMode bool `env:"DEV_MODE"`

	// Drive
	RootFolderID          string  `env:"DRIVE_ROOT_FOLDER_ID"`
	DriveAPIKeyParam      string  `env:"DRIVE_API_KEY_PARAM" envDefault:"/pastq/drive-api-key"`
	DriveCredentialsParam string  `env:"DRIVE_CREDENTIALS_PARAM"`
	DriveRateLimit        float64 `env:"DRIVE_RATE_LIMIT" envDefault:"10"`
	DriveRateBurst        int     `env:"DRIVE_RATE_BURST" envDefault:"10"`

	// Secrets
	SecretsEncrypted bool   `env:"SECRETS_ENCRYPTED"`
	KMSKeyID         string `env:"KMS_KEY_ID" envDefault:"alias/pastq-secrets"`

	// Department policy
	PolicyFile    string `env:"DEPARTMENT_POLICY_FILE"`
	PolicyJSON    string `env:"DEPARTMENT_POLICY"`
	DefaultLevels []int  `env:"DEFAULT_LEVELS" envDefault:"100,200,300,400,500"`

	// Gateway cache
	RemoteCacheTTL        time.Duration `env:"REMOTE_CACHE_TTL" envDefault:"10m"`
	RemoteCacheMaxEntries int           `env:"REMOTE_CACHE_MAX_ENTRIES" envDefault:"500"`
	RemoteCacheTable      string        `env:"REMOTE_CACHE_TABLE"`
	FillLeaseTTL          time.Duration `env:"FILL_LEASE_TTL" envDefault:"30s"`
	FillLeaseWait         time.Duration `env:"FILL_LEASE_WAIT" envDefault:"2s"`

	// HTTP surface
	FrontendURL       string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	OriginSecretParam string `env:"ORIGIN_SECRET_PARAM"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Local server
	ListenAddr   string  `env:"LISTEN_ADDR" envDefault:":8080"`
	MetricsAddr  string  `env:"METRICS_ADDR" envDefault:":9090"`
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`

	DevFixtureFile string `env:"DEV_FIXTURE_FILE"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Policy builds the department policy from the inline JSON or policy file,
// falling back to the defaults.
func (c *Config) Policy() (*policy.Policy, error) {
	var (
		p   *policy.Policy
		err error
	)
	switch {
	case c.PolicyJSON != "":
		p, err = policy.Parse([]byte(c.PolicyJSON))
	case c.PolicyFile != "":
		p, err = policy.Load(c.PolicyFile)
	default:
		p = policy.Default()
	}
	if err != nil {
		return nil, err
	}
	return p.WithDefaultLevels(c.DefaultLevels), nil
}
