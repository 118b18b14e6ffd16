package database

import (
	"fmt"
	"reflect"

	"condo-whatsapp/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const copyBatchSize = 500

// SerialTables are the tables keyed by an auto-increment id. Rows copied with
// explicit ids leave their Postgres sequences behind.
var SerialTables = []string{
	models.UserRole{}.TableName(),
	models.CondominiumPorter{}.TableName(),
	models.WhatsAppConfig{}.TableName(),
	models.WhatsAppTemplate{}.TableName(),
}

// CopyAll copies every model from src into dst in dependency order. Rows that
// already exist in dst are left untouched, so the copy can be re-run.
func CopyAll(src, dst *gorm.DB) (map[string]int64, error) {
	copied := make(map[string]int64)
	for _, m := range models.All() {
		table, err := tableName(dst, m)
		if err != nil {
			return copied, err
		}
		n, err := copyTable(src, dst, m)
		copied[table] = n
		if err != nil {
			return copied, fmt.Errorf("copy %s: %w", table, err)
		}
		log.Info().Str("table", table).Int64("rows", n).Msg("table copied")
	}
	return copied, nil
}

func copyTable(src, dst *gorm.DB, model interface{}) (int64, error) {
	batch := reflect.New(reflect.SliceOf(reflect.TypeOf(model).Elem())).Interface()

	var total int64
	res := src.Model(model).FindInBatches(batch, copyBatchSize, func(tx *gorm.DB, _ int) error {
		total += tx.RowsAffected
		return dst.Clauses(clause.OnConflict{DoNothing: true}).Create(batch).Error
	})
	return total, res.Error
}

// SyncSequences moves each serial table's sequence past its highest id.
// It is a no-op outside Postgres.
func SyncSequences(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		log.Info().Str("dialect", db.Dialector.Name()).Msg("sequence sync skipped")
		return nil
	}
	for _, table := range SerialTables {
		q := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s",
			table)
		if err := db.Exec(q).Error; err != nil {
			return fmt.Errorf("sync sequence %s: %w", table, err)
		}
		log.Info().Str("table", table).Msg("sequence synced")
	}
	return nil
}

func tableName(db *gorm.DB, model interface{}) (string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", err
	}
	return stmt.Schema.Table, nil
}
