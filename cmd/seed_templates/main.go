package main

import (
	"context"
	"flag"
	"time"

	"condo-whatsapp/internal/config"
	"condo-whatsapp/internal/database"
	"condo-whatsapp/internal/notify"

	"github.com/rs/zerolog/log"
)

// Writes the built-in message templates as global rows.
func main() {
	overwrite := flag.Bool("overwrite", false, "replace the content of existing global templates")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	config.SetupLogger(cfg)

	db, err := database.InitGorm(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	created, updated, err := notify.SeedTemplates(ctx, db, *overwrite)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Int("created", created).Int("updated", updated).Msg("templates seeded")
}
