package main

import (
	"context"
	"os"

	"tanuki/config"
	"tanuki/exchange"
	"tanuki/utils/log"
	"tanuki/utils/pointer"
)

func main() {
	configPath := os.Getenv("TANUKI_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	gopax, err := exchange.NewGopax(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	ticker, err := gopax.FetchTicker(ctx, "BTC/KRW")
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("[GOPAX] BTC/KRW last=%v baseVolume=%v",
		pointer.NotNull(ticker.Last, 0), pointer.NotNull(ticker.BaseVolume, 0))

	if cfg.APIKey != "" {
		account, err := gopax.FetchBalance(ctx)
		if err != nil {
			log.Fatal(err)
		}
		for code, balance := range account.Balances {
			log.Infof("[GOPAX] %s free=%v used=%v", code, balance.Free, balance.Used)
		}
	}
}
