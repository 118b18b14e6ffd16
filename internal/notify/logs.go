package notify

import (
	"context"
	"strings"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"
	dto "condo-whatsapp/pkg/models"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// RecentLogs lists the latest package notification log rows, newest first.
// Without a condominium filter only super admins may list.
func (s *Service) RecentLogs(ctx context.Context, u *auth.User, q dto.LogQuery) ([]models.WhatsAppNotificationLog, error) {
	if u == nil {
		return nil, ErrUnauthorized
	}
	q.CondominiumID = strings.TrimSpace(q.CondominiumID)
	if q.Limit <= 0 {
		q.Limit = defaultLogLimit
	}
	if q.Limit > maxLogLimit {
		q.Limit = maxLogLimit
	}

	db := s.db.WithContext(ctx)
	if q.CondominiumID == "" {
		if !u.IsSuperAdmin() {
			return nil, invalid("condominium_id é obrigatório")
		}
	} else {
		var condo models.Condominium
		if err := first(db, &condo, q.CondominiumID); err != nil {
			return nil, wrapLookup(err, "Condomínio não encontrado")
		}
		if err := s.requireManager(u, condo); err != nil {
			return nil, err
		}
		db = db.Where("condominium_id = ?", condo.ID)
	}
	if st := strings.ToLower(strings.TrimSpace(q.Status)); st != "" {
		db = db.Where("status = ?", st)
	}

	logs := []models.WhatsAppNotificationLog{}
	if err := db.Order("created_at desc").Limit(q.Limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
