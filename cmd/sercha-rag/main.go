// Command sercha-rag indexes local documents and retrieves the passages
// most relevant to a question.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env file in the working directory may supply API keys.
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
