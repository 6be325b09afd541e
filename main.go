package main

import (
	"os"

	"nairobi-rag/cli"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if exists
	_ = godotenv.Load()
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
