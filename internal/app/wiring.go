package app

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter/googledrive"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter/memory"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/auth"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/config"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/crypto"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/gateway"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/handler"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/lease"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/remotecache"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/secret"
)

// NewApp initializes the application dependencies from cfg.
//
// Missing Drive credentials or root folder do not fail startup: browse
// requests answer 500 until the configuration is fixed.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.L()

	pol, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	needAWS := !cfg.DevMode || cfg.RemoteCacheTable != ""
	var awsCfg *awsAPIs
	if needAWS {
		awsCfg, err = loadAWS(ctx)
		if err != nil {
			return nil, err
		}
	}

	// ---------- Secret Resolver ----------
	var resolver secret.Resolver
	if cfg.DevMode {
		resolver = secret.NewEnvResolver()
		log.Info("using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.NewSSMResolver(awsCfg.ssm)
		log.Info("using SSMResolver (SSM Parameter Store)")
	}
	if cfg.SecretsEncrypted {
		var enc crypto.Encryptor = crypto.NewMockEncryptor()
		if !cfg.DevMode {
			enc = crypto.NewKMSService(awsCfg.kms, cfg.KMSKeyID)
		}
		resolver = secret.NewDecryptingResolver(resolver, enc)
	}
	resolver = secret.NewCachingResolver(resolver)

	// ---------- Storage Provider ----------
	rootID := cfg.RootFolderID
	var provider adapter.Provider
	if cfg.DevMode {
		m := memory.NewAdapter()
		if cfg.DevFixtureFile != "" {
			m, err = memory.LoadFixture(cfg.DevFixtureFile)
			if err != nil {
				return nil, err
			}
		}
		if rootID == "" {
			rootID = memory.RootID
		}
		provider = m
		log.Info("using in-memory provider (DEV_MODE=true)", zap.String("fixture", cfg.DevFixtureFile))
	} else {
		limiter := rate.NewLimiter(rate.Limit(cfg.DriveRateLimit), cfg.DriveRateBurst)
		creds := auth.NewCredentialSource(resolver, cfg.DriveAPIKeyParam, cfg.DriveCredentialsParam)
		drive, err := googledrive.NewProvider(ctx, creds, limiter)
		switch {
		case errors.Is(err, adapter.ErrConfiguration):
			log.Error("drive credentials unavailable; browse requests will fail", zap.Error(err))
		case err != nil:
			return nil, err
		default:
			provider = drive
		}
	}
	if rootID == "" {
		log.Error("DRIVE_ROOT_FOLDER_ID is not set; browse requests will fail")
	}

	// ---------- Gateway Cache ----------
	var cache remotecache.Cache = remotecache.NewMemory(cfg.RemoteCacheTTL, cfg.RemoteCacheMaxEntries)
	gatewayOpts := []gateway.Option{}
	if cfg.RemoteCacheTable != "" {
		shared := remotecache.NewDynamoCache(awsCfg.dynamo, cfg.RemoteCacheTable, cfg.RemoteCacheTTL)
		cache = remotecache.NewTiered(cache, shared)
		leases := lease.NewDynamoManager(awsCfg.dynamo, cfg.RemoteCacheTable, cfg.FillLeaseTTL)
		gatewayOpts = append(gatewayOpts, gateway.WithFillLease(leases, cfg.FillLeaseWait))
		log.Info("using tiered gateway cache", zap.String("table", cfg.RemoteCacheTable))
	}
	gatewayOpts = append(gatewayOpts, gateway.WithCache(cache))

	var browser handler.Browser
	if provider != nil {
		browser = gateway.New(provider, rootID, pol, gatewayOpts...)
	}

	// ---------- Origin lock ----------
	var originSecret string
	if cfg.OriginSecretParam != "" {
		originSecret, err = resolver.GetSecret(ctx, cfg.OriginSecretParam)
		if err != nil {
			return nil, fmt.Errorf("resolve origin secret: %w", err)
		}
	}

	return New(browser, Options{AllowOrigin: cfg.FrontendURL, OriginSecret: originSecret}), nil
}

type awsAPIs struct {
	ssm    *ssm.Client
	kms    *kms.Client
	dynamo *dynamodb.Client
}

func loadAWS(ctx context.Context) (*awsAPIs, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &awsAPIs{
		ssm:    ssm.NewFromConfig(cfg),
		kms:    kms.NewFromConfig(cfg),
		dynamo: dynamodb.NewFromConfig(cfg),
	}, nil
}
