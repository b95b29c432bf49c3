// Command gateway is the AI Gateway server.
//
// It reads configuration from environment variables (or a .env file in the
// working directory) and starts the data-plane (chat dispatch) and
// control-plane (admin) listeners.
//
// Quick-start:
//
//	OPENAI_API_KEY=sk-... OPENAI_ENDPOINT=https://api.openai.com/v1 ./gateway
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/wx-yz/ai-gateway/internal/app"
	"github.com/wx-yz/ai-gateway/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.Printf("starting gateway: %s", cfg.String())

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("app: %v", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("gateway stopped: %v", err)
	}
}
