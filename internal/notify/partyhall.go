package notify

import (
	"context"
	"strings"
	"time"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"
	dto "condo-whatsapp/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Party hall notification types.
const (
	PartyHallConfirmation = "confirmation"
	PartyHallReminder     = "reminder"
	PartyHallCancellation = "cancellation"
)

var partyHallSlugs = map[string]string{
	PartyHallConfirmation: SlugPartyHallConfirmation,
	PartyHallReminder:     SlugPartyHallReminder,
	PartyHallCancellation: SlugPartyHallCancellation,
}

// Booking statuses that still get a reminder.
var confirmedBookingStatuses = []string{"confirmed", "confirmada", "approved", "aprovada"}

// SendPartyHallNotification messages the resident who booked the hall.
func (s *Service) SendPartyHallNotification(ctx context.Context, u *auth.User, req dto.PartyHallRequest) (*dto.NotificationSummary, error) {
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.NotificationType = strings.ToLower(strings.TrimSpace(req.NotificationType))
	if req.BookingID == "" || req.NotificationType == "" {
		return nil, invalid("booking_id e notification_type são obrigatórios")
	}
	if _, ok := partyHallSlugs[req.NotificationType]; !ok {
		return nil, invalid("notification_type deve ser confirmation, reminder ou cancellation")
	}

	var booking models.PartyHallBooking
	if err := first(s.db.WithContext(ctx), &booking, req.BookingID); err != nil {
		return nil, wrapLookup(err, "Reserva não encontrada")
	}
	var resident models.Resident
	if err := first(s.db.WithContext(ctx), &resident, booking.ResidentID); err != nil {
		return nil, wrapLookup(err, "Morador da reserva não encontrado")
	}
	loc, err := s.resolveApartment(ctx, resident.ApartmentID)
	if err != nil {
		return nil, err
	}

	if u == nil {
		return nil, ErrUnauthorized
	}
	owner := resident.UserID != nil && *resident.UserID == u.ID
	if !owner {
		if err := s.requireStaff(ctx, u, loc.Condominium); err != nil {
			return nil, err
		}
	}

	return s.notifyBooking(ctx, &booking, &resident, loc, req.NotificationType)
}

func (s *Service) notifyBooking(ctx context.Context, booking *models.PartyHallBooking, resident *models.Resident, loc *location, kind string) (*dto.NotificationSummary, error) {
	recipients, excluded := splitByPhone([]recipient{{
		ResidentID: resident.ID,
		Name:       resident.FullName,
		Phone:      resident.Phone,
		Vars:       map[string]string{"nome": firstName(resident.FullName)},
	}})
	if len(recipients) == 0 {
		return skipped(excluded, msgNoRecipients), nil
	}

	d, err := s.prepare(ctx, loc.Condominium.ID, partyHallSlugs[kind])
	if err != nil {
		return nil, err
	}
	if d == nil {
		return skipped(excluded, msgNotConfigured), nil
	}

	vars := map[string]string{
		"condominio":     loc.Condominium.Name,
		"bloco":          loc.Block.Name,
		"apartamento":    loc.Apartment.Number,
		"data":           formatDate(booking.BookingDate),
		"horario_inicio": booking.StartTime,
		"horario_fim":    booking.EndTime,
	}

	details := d.run(ctx, recipients, vars, func(ctx context.Context, r recipient, out outcome) {
		row := models.PartyHallNotification{
			ID:               uuid.NewString(),
			BookingID:        booking.ID,
			ResidentID:       r.ResidentID,
			NotificationType: kind,
			Phone:            r.Phone,
			MessageContent:   out.Content,
			Strategy:         out.Strategy,
			Success:          out.Result.Success,
			MessageID:        out.Result.MessageID,
			ErrorMessage:     out.Result.Error,
			Status:           out.status(),
			SentAt:           s.now(),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to write party hall notification")
		}
	})
	return summarize(details, excluded), nil
}

// SendDueReminders sends the reminder for every confirmed booking of the
// next day that has not been reminded successfully yet. It returns how many
// reminders were delivered.
func (s *Service) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	end := start.AddDate(0, 0, 1)

	reminded := s.db.Model(&models.PartyHallNotification{}).
		Select("booking_id").
		Where("notification_type = ? AND success = ?", PartyHallReminder, true)

	var bookings []models.PartyHallBooking
	err := s.db.WithContext(ctx).
		Where("booking_date >= ? AND booking_date < ?", start, end).
		Where("status IN ?", confirmedBookingStatuses).
		Where("id NOT IN (?)", reminded).
		Order("booking_date asc").
		Find(&bookings).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range bookings {
		b := &bookings[i]
		var resident models.Resident
		if err := first(s.db.WithContext(ctx), &resident, b.ResidentID); err != nil {
			log.Warn().Err(err).Str("booking_id", b.ID).Msg("reminder skipped: resident not found")
			continue
		}
		loc, err := s.resolveApartment(ctx, resident.ApartmentID)
		if err != nil {
			log.Warn().Err(err).Str("booking_id", b.ID).Msg("reminder skipped: apartment not found")
			continue
		}
		sum, err := s.notifyBooking(ctx, b, &resident, loc, PartyHallReminder)
		if err != nil {
			return sent, err
		}
		sent += sum.NotificationsSent
	}
	return sent, nil
}
