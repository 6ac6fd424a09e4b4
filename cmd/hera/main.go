package main

import (
	"os"

	"github.com/SscSPs/hera_engine/internal/cli"
)

// @title HERA Engine API
// @version 1.0
// @description Universal entity and transaction engine behind a single RPC gateway.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description "<subject>:<secret>" as printed by `hera apikey hash`.
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
