package notify

import (
	"context"
	"errors"
	"fmt"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"

	"gorm.io/gorm"
)

// location is the apartment → block → condominium chain of a notification.
type location struct {
	Apartment   models.Apartment
	Block       models.Block
	Condominium models.Condominium
}

func (s *Service) resolveApartment(ctx context.Context, apartmentID string) (*location, error) {
	db := s.db.WithContext(ctx)
	var loc location
	if err := first(db, &loc.Apartment, apartmentID); err != nil {
		return nil, wrapLookup(err, "Apartamento não encontrado")
	}
	if err := first(db, &loc.Block, loc.Apartment.BlockID); err != nil {
		return nil, wrapLookup(err, "Bloco não encontrado")
	}
	if err := first(db, &loc.Condominium, loc.Block.CondominiumID); err != nil {
		return nil, wrapLookup(err, "Condomínio não encontrado")
	}
	return &loc, nil
}

func (s *Service) loadOccurrence(ctx context.Context, id string) (*models.Occurrence, *location, error) {
	var occ models.Occurrence
	if err := first(s.db.WithContext(ctx), &occ, id); err != nil {
		return nil, nil, wrapLookup(err, "Ocorrência não encontrada")
	}
	loc, err := s.resolveApartment(ctx, occ.ApartmentID)
	if err != nil {
		return nil, nil, err
	}
	return &occ, loc, nil
}

// apartmentRecipients lists every resident of the apartment, phone or not.
func (s *Service) apartmentRecipients(ctx context.Context, apartmentID string) ([]recipient, error) {
	var residents []models.Resident
	if err := s.db.WithContext(ctx).
		Where("apartment_id = ?", apartmentID).
		Order("created_at asc").
		Find(&residents).Error; err != nil {
		return nil, fmt.Errorf("load residents: %w", err)
	}
	out := make([]recipient, 0, len(residents))
	for _, r := range residents {
		out = append(out, recipient{
			ResidentID: r.ID,
			Name:       r.FullName,
			Phone:      r.Phone,
			Vars:       map[string]string{"nome": firstName(r.FullName)},
		})
	}
	return out, nil
}

// Access checks. Each answers one relation between the caller and a
// condominium or apartment.

func (s *Service) isSindicoOf(u *auth.User, condo models.Condominium) bool {
	return condo.SindicoID != "" && condo.SindicoID == u.ID
}

func (s *Service) isPorterOf(ctx context.Context, u *auth.User, condominiumID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CondominiumPorter{}).
		Where("user_id = ? AND condominium_id = ?", u.ID, condominiumID).
		Count(&n).Error
	return n > 0, err
}

func (s *Service) isResidentOf(ctx context.Context, u *auth.User, apartmentID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Resident{}).
		Where("user_id = ? AND apartment_id = ?", u.ID, apartmentID).
		Count(&n).Error
	return n > 0, err
}

// requireManager allows super admins and the condominium's síndico.
func (s *Service) requireManager(u *auth.User, condo models.Condominium) error {
	if u == nil {
		return ErrUnauthorized
	}
	if u.IsSuperAdmin() || s.isSindicoOf(u, condo) {
		return nil
	}
	return forbidden("Apenas o síndico do condomínio pode enviar esta notificação")
}

// requireStaff also admits the doormen linked to the condominium.
func (s *Service) requireStaff(ctx context.Context, u *auth.User, condo models.Condominium) error {
	if err := s.requireManager(u, condo); err == nil || errors.Is(err, ErrUnauthorized) {
		return err
	}
	ok, err := s.isPorterOf(ctx, u, condo.ID)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("Usuário sem acesso a este condomínio")
	}
	return nil
}

func first(db *gorm.DB, dest interface{}, id string) error {
	return db.First(dest, "id = ?", id).Error
}

func wrapLookup(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(msg)
	}
	return err
}
