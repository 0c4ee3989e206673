// cmd/token mints an operator token for the mutating ledger routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go-ledger/config"
	"go-ledger/logger"
	"go-ledger/service"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	configPath := flag.String("config", ".", "directory holding config.yml")
	flag.Parse()

	logger.Init()
	if err := config.LoadConfig(*configPath); err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}

	token, err := service.GenerateJWT(*subject, *ttl)
	if err != nil {
		logger.Log.WithError(err).Error("Could not mint token")
		os.Exit(1)
	}
	fmt.Println(token)
}
