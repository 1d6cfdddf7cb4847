package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"salarizare/internal/cli"
	"salarizare/internal/platform/config"
	"salarizare/internal/platform/logger"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	closer, err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	if err != nil {
		log.Error().Err(err).Msg("logger setup failed")
		os.Exit(1)
	}
	defer closer.Close()

	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("could not load .env file")
	}

	cli.Execute()
}
