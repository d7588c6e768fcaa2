package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cli.Execute(ctx)
}
