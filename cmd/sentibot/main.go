package main

import (
	"github.com/joho/godotenv"

	"github.com/rustyeddy/sentibot/internal/cli"
)

func main() {
	// Optional .env for SEC_USER_AGENT, DATA_DIR, PORT.
	_ = godotenv.Load()

	cli.Execute()
}
