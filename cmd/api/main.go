package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/app"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/config"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		panic(err)
	}
	defer logging.Sync()

	application, err := app.NewApp(context.Background(), cfg)
	if err != nil {
		logging.L().Fatal("failed to initialize app", zap.Error(err))
	}
	lambda.Start(application.HandleRequest)
}
