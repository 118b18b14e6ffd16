package main

import (
	"condo-whatsapp/internal/config"
	"condo-whatsapp/internal/database"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	config.SetupLogger(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	log.Info().Strs("tables", database.SerialTables).Msg("syncing sequences")
	if err := database.SyncSequences(db); err != nil {
		log.Fatal().Err(err).Msg("sequence sync failed")
	}
	log.Info().Msg("done")
}
