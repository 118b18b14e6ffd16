package main

import (
	"flag"

	"condo-whatsapp/internal/config"
	"condo-whatsapp/internal/database"

	"github.com/rs/zerolog/log"
)

// Copies a local SQLite database into the configured Postgres one.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	config.SetupLogger(cfg)

	sqlitePath := flag.String("sqlite", cfg.DBPath, "source SQLite file")
	flag.Parse()

	srcCfg := *cfg
	srcCfg.DBDriver, srcCfg.DBPath = "sqlite", *sqlitePath
	src, err := database.Open(&srcCfg)
	if err != nil {
		log.Fatal().Err(err).Str("path", *sqlitePath).Msg("failed to open SQLite")
	}
	log.Info().Str("path", *sqlitePath).Msg("connected to SQLite")

	dstCfg := *cfg
	dstCfg.DBDriver = "postgres"
	dst, err := database.InitGorm(&dstCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open Postgres")
	}

	log.Info().Msg("starting data migration")
	copied, err := database.CopyAll(src, dst)
	if err != nil {
		log.Fatal().Err(err).Msg("migration aborted")
	}
	if err := database.SyncSequences(dst); err != nil {
		log.Fatal().Err(err).Msg("sequence sync failed")
	}

	var total int64
	for _, n := range copied {
		total += n
	}
	log.Info().Int("tables", len(copied)).Int64("rows", total).Msg("migration completed")
}
