package webhook

import (
	"context"
	"fmt"
	"time"

	"condo-whatsapp/internal/models"
	dto "condo-whatsapp/pkg/models"

	"gorm.io/gorm"
)

// logTables are the three audit tables a message id may live in.
var logTables = []interface{}{
	&models.WhatsAppNotificationLog{},
	&models.NotificationSent{},
	&models.PartyHallNotification{},
}

// replaces lists the statuses each status may overwrite. Gateways deliver
// callbacks out of order; a row never moves back along
// pending < sent < delivered < read, and failed only overrides a message
// that was not yet delivered.
var replaces = map[string][]string{
	models.StatusPending:   {""},
	models.StatusSent:      {"", models.StatusPending},
	models.StatusFailed:    {"", models.StatusPending, models.StatusSent},
	models.StatusDelivered: {"", models.StatusPending, models.StatusSent, models.StatusFailed},
	models.StatusRead:      {"", models.StatusPending, models.StatusSent, models.StatusDelivered, models.StatusFailed},
}

// Apply writes one normalized status to every log row carrying its message
// id and returns the number of rows changed. Unknown statuses, unmatched ids
// and stale statuses change nothing.
func Apply(ctx context.Context, db *gorm.DB, u dto.StatusUpdate, at time.Time) (int64, error) {
	older, ok := replaces[u.Status]
	if u.MessageID == "" || !ok {
		return 0, nil
	}

	fields := map[string]interface{}{"status": u.Status}
	switch u.Status {
	case models.StatusDelivered:
		fields["delivered_at"] = gorm.Expr("COALESCE(delivered_at, ?)", at)
	case models.StatusRead:
		fields["read_at"] = at
		fields["delivered_at"] = gorm.Expr("COALESCE(delivered_at, ?)", at)
	}

	var total int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range logTables {
			set := make(map[string]interface{}, len(fields))
			for k, v := range fields {
				set[k] = v
			}
			res := tx.Model(table).
				Where("message_id = ?", u.MessageID).
				Where("(status IN ? OR status IS NULL)", older).
				Updates(set)
			if res.Error != nil {
				return fmt.Errorf("update %T: %w", table, res.Error)
			}
			total += res.RowsAffected
		}
		return nil
	})
	return total, err
}
