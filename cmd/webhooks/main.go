// Command webhooks is a one-shot tool for inspecting and registering Helius
// webhooks for the tracked mint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"solana-trade-relay/internal/helius"
	"solana-trade-relay/internal/solana"
)

func main() {
	action := flag.String("action", "list", "Action: list or create")
	url := flag.String("url", "", "Public webhook URL (required for create)")
	mint := flag.String("mint", "", "Mint to watch (defaults to TRACKED_TOKEN_MINT)")
	flag.Parse()

	logger := log.New(os.Stdout, "[webhooks] ", log.LstdFlags)

	_ = godotenv.Load()
	apiKey := os.Getenv("HELIUS_API_KEY")
	if apiKey == "" {
		logger.Fatal("HELIUS_API_KEY is required")
	}
	if *mint == "" {
		*mint = os.Getenv("TRACKED_TOKEN_MINT")
	}

	client := helius.NewClient(apiKey)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch *action {
	case "list":
		webhooks, err := client.ListWebhooks(ctx)
		if err != nil {
			logger.Fatalf("Error listing webhooks: %v", err)
		}
		if len(webhooks) == 0 {
			fmt.Println("No webhooks registered")
			return
		}
		for _, wh := range webhooks {
			fmt.Printf("%s  %s\n", wh.WebhookID, wh.WebhookURL)
			fmt.Printf("    types: %s\n", strings.Join(wh.TransactionTypes, ", "))
			fmt.Printf("    addresses: %d\n", len(wh.AccountAddresses))
		}

	case "create":
		if *url == "" {
			logger.Fatal("--url is required for create")
		}
		if !solana.ValidAddress(*mint) {
			logger.Fatalf("Invalid mint address: %q", *mint)
		}
		wh, err := client.CreateWebhook(ctx, helius.WebhookRequest{
			WebhookURL:       *url,
			TransactionTypes: []string{helius.TxTypeSwap},
			AccountAddresses: []string{*mint},
			WebhookType:      "enhanced",
		})
		if err != nil {
			logger.Fatalf("Error creating webhook: %v", err)
		}
		fmt.Printf("Created webhook %s -> %s\n", wh.WebhookID, wh.WebhookURL)

	default:
		logger.Fatalf("Unknown action: %s", *action)
	}
}
