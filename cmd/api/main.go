package main

import (
	"context"
	"log"

	"github.com/onlinemarketplace/order-orchestrator/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("order API failed: %v", err)
	}
}
