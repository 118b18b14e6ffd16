package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"
	dto "condo-whatsapp/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// NotifyPackageArrival tells every resident of the apartment that a parcel
// is waiting at the gatehouse.
func (s *Service) NotifyPackageArrival(ctx context.Context, u *auth.User, req dto.PackageArrivalRequest) (*dto.NotificationSummary, error) {
	req.PackageID = strings.TrimSpace(req.PackageID)
	req.ApartmentID = strings.TrimSpace(req.ApartmentID)
	req.PickupCode = strings.TrimSpace(req.PickupCode)
	if req.PackageID == "" || req.ApartmentID == "" || req.PickupCode == "" {
		return nil, invalid("package_id, apartment_id e pickup_code são obrigatórios")
	}

	var pkg models.Package
	if err := first(s.db.WithContext(ctx), &pkg, req.PackageID); err != nil {
		return nil, wrapLookup(err, "Encomenda não encontrada")
	}
	if pkg.ApartmentID != req.ApartmentID {
		return nil, invalid("A encomenda não pertence a este apartamento")
	}
	loc, err := s.resolveApartment(ctx, req.ApartmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, u, loc.Condominium); err != nil {
		return nil, err
	}

	all, err := s.apartmentRecipients(ctx, req.ApartmentID)
	if err != nil {
		return nil, err
	}
	recipients, excluded := splitByPhone(all)
	if len(recipients) == 0 {
		return skipped(excluded, msgNoRecipients), nil
	}

	d, err := s.prepare(ctx, loc.Condominium.ID, SlugPackageArrival)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return skipped(excluded, msgNotConfigured), nil
	}

	if pkg.PhotoURL != "" {
		for i := range recipients {
			recipients[i].ImageURL = pkg.PhotoURL
		}
	}
	shared, err := s.packageVars(ctx, &pkg, loc, req.PickupCode)
	if err != nil {
		return nil, err
	}

	details := d.run(ctx, recipients, shared, func(ctx context.Context, r recipient, out outcome) {
		row := models.WhatsAppNotificationLog{
			ID:              uuid.NewString(),
			CondominiumID:   loc.Condominium.ID,
			PackageID:       strPtr(pkg.ID),
			ResidentID:      strPtr(r.ResidentID),
			Phone:           r.Phone,
			TemplateSlug:    SlugPackageArrival,
			TemplateName:    d.templateName(),
			Provider:        d.provider.Name(),
			Strategy:        out.Strategy,
			RequestPayload:  out.requestJSON(),
			ResponsePayload: out.responseJSON(),
			Success:         out.Result.Success,
			MessageID:       out.Result.MessageID,
			ErrorMessage:    out.Result.Error,
			ErrorCode:       out.Result.Code,
			Status:          out.status(),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			log.Error().Err(err).Str("package_id", pkg.ID).Msg("failed to write notification log")
		}
	})

	sum := summarize(details, excluded)
	if sum.NotificationsSent > 0 {
		ctx = context.WithoutCancel(ctx)
		if err := s.markPackageNotified(ctx, pkg.ID, sum.NotificationsSent); err != nil {
			log.Error().Err(err).Str("package_id", pkg.ID).Msg("failed to update package notification counters")
		}
		for i := 0; i < sum.NotificationsSent; i++ {
			if err := s.incrementUsage(ctx, loc.Condominium.ID); err != nil {
				log.Error().Err(err).Str("condominium_id", loc.Condominium.ID).Msg("failed to increment subscription usage")
			}
		}
	}
	return sum, nil
}

func (s *Service) packageVars(ctx context.Context, pkg *models.Package, loc *location, pickupCode string) (map[string]string, error) {
	vars := map[string]string{
		"condominio":      loc.Condominium.Name,
		"bloco":           loc.Block.Name,
		"apartamento":     loc.Apartment.Number,
		"codigo_rastreio": pkg.TrackingCode,
		"codigo_retirada": pickupCode,
		"tipo_encomenda":  "Encomenda",
		"porteiro":        "Portaria",
		"data":            formatDate(pkg.ReceivedAt),
		"hora":            formatClock(pkg.ReceivedAt),
	}
	if pkg.ReceivedAt.IsZero() {
		now := s.now()
		vars["data"], vars["hora"] = formatDate(now), formatClock(now)
	}

	db := s.db.WithContext(ctx)
	if pkg.PackageTypeID != nil {
		var pt models.PackageType
		if err := first(db, &pt, *pkg.PackageTypeID); err == nil {
			vars["tipo_encomenda"] = pt.Name
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load package type: %w", err)
		}
	}
	if pkg.ReceivedBy != nil {
		var porter models.Profile
		if err := first(db, &porter, *pkg.ReceivedBy); err == nil && porter.FullName != "" {
			vars["porteiro"] = porter.FullName
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load porter: %w", err)
		}
	}
	return vars, nil
}

func (s *Service) markPackageNotified(ctx context.Context, packageID string, sent int) error {
	return s.db.WithContext(ctx).Model(&models.Package{}).
		Where("id = ?", packageID).
		Updates(map[string]interface{}{
			"notification_sent":    true,
			"notification_sent_at": s.now(),
			"notification_count":   gorm.Expr("notification_count + ?", sent),
		}).Error
}

// incrementUsage counts one delivered package notification against the
// condominium's plan. Within the limit it bumps the used counter, beyond it
// the extra counter. The read and the write are separate statements, so two
// concurrent dispatches for the same subscription may lose an increment.
func (s *Service) incrementUsage(ctx context.Context, condominiumID string) error {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("condominium_id = ? AND status = ?", condominiumID, "active").
		Order("updated_at desc").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if sub.PackageNotificationsUsed < sub.PackageNotificationsLimit {
		updates["package_notifications_used"] = sub.PackageNotificationsUsed + 1
	} else {
		updates["package_notifications_extra"] = sub.PackageNotificationsExtra + 1
	}
	return s.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", sub.ID).Updates(updates).Error
}
