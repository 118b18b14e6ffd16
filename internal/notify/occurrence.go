package notify

import (
	"context"
	"errors"
	"strings"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"
	dto "condo-whatsapp/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Kinds stored in notifications_sent.kind.
const (
	KindOccurrence = "occurrence"
	KindDecision   = "decision"
	KindDefense    = "defense"
)

var decisionLabels = map[string]string{
	"arquivada":    "Arquivada",
	"archived":     "Arquivada",
	"advertencia":  "Advertência",
	"advertência":  "Advertência",
	"warning":      "Advertência",
	"multa":        "Multa",
	"fine":         "Multa",
	"procedente":   "Procedente",
	"accepted":     "Procedente",
	"improcedente": "Improcedente",
	"rejected":     "Improcedente",
}

// NotifyResidentDecision informs the apartment residents of the síndico's
// decision on an occurrence.
func (s *Service) NotifyResidentDecision(ctx context.Context, u *auth.User, req dto.ResidentDecisionRequest) (*dto.NotificationSummary, error) {
	req.OccurrenceID = strings.TrimSpace(req.OccurrenceID)
	if req.OccurrenceID == "" || strings.TrimSpace(req.Decision) == "" {
		return nil, invalid("occurrence_id e decision são obrigatórios")
	}
	label, ok := decisionLabels[strings.ToLower(strings.TrimSpace(req.Decision))]
	if !ok {
		return nil, invalid("Decisão inválida")
	}
	if req.FineAmount != nil && *req.FineAmount < 0 {
		return nil, invalid("fine_amount não pode ser negativo")
	}

	occ, loc, err := s.loadOccurrence(ctx, req.OccurrenceID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(u, loc.Condominium); err != nil {
		return nil, err
	}

	all, err := s.apartmentRecipients(ctx, occ.ApartmentID)
	if err != nil {
		return nil, err
	}
	recipients, excluded := splitByPhone(all)
	if len(recipients) == 0 {
		return skipped(excluded, msgNoRecipients), nil
	}
	d, err := s.prepare(ctx, loc.Condominium.ID, SlugResidentDecision)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return skipped(excluded, msgNotConfigured), nil
	}

	vars := s.occurrenceVars(occ, loc)
	vars["decisao"] = label
	if j := strings.TrimSpace(req.Justification); j != "" {
		vars["justificativa"] = "Justificativa: " + j
	} else {
		vars["justificativa"] = ""
	}
	fine := req.FineAmount
	if fine == nil {
		fine = occ.FineAmount
	}
	vars["valor_multa"] = ""
	if fine != nil && *fine > 0 {
		vars["valor_multa"] = "Valor da multa: " + formatMoney(*fine)
	}

	details := d.run(ctx, recipients, vars, s.recordOccurrence(occ.ID, KindDecision))
	return summarize(details, excluded), nil
}

// NotifySindicoDefense tells the síndico a resident filed a defense.
func (s *Service) NotifySindicoDefense(ctx context.Context, u *auth.User, req dto.SindicoDefenseRequest) (*dto.NotificationSummary, error) {
	req.OccurrenceID = strings.TrimSpace(req.OccurrenceID)
	if req.OccurrenceID == "" {
		return nil, invalid("occurrence_id é obrigatório")
	}

	occ, loc, err := s.loadOccurrence(ctx, req.OccurrenceID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	if err := s.requireManager(u, loc.Condominium); err != nil {
		ok, lookupErr := s.isResidentOf(ctx, u, occ.ApartmentID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if !ok {
			return nil, forbidden("Apenas moradores do apartamento podem notificar o síndico")
		}
	}

	defense, err := s.loadDefense(ctx, occ.ID, strings.TrimSpace(req.DefenseID))
	if err != nil {
		return nil, err
	}

	var sindico models.Profile
	if loc.Condominium.SindicoID == "" {
		return nil, notFound("Síndico não encontrado")
	}
	if err := first(s.db.WithContext(ctx), &sindico, loc.Condominium.SindicoID); err != nil {
		return nil, wrapLookup(err, "Síndico não encontrado")
	}

	author := "Morador"
	var resident models.Resident
	if err := first(s.db.WithContext(ctx), &resident, defense.ResidentID); err == nil {
		author = resident.FullName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// The síndico is not a resident, so the log row carries no resident_id.
	recipients, excluded := splitByPhone([]recipient{{
		Name:  sindico.FullName,
		Phone: sindico.Phone,
		Vars:  map[string]string{"nome": firstName(sindico.FullName)},
	}})
	if len(recipients) == 0 {
		return skipped(excluded, msgNoRecipients), nil
	}
	d, err := s.prepare(ctx, loc.Condominium.ID, SlugSindicoDefense)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return skipped(excluded, msgNotConfigured), nil
	}

	vars := s.occurrenceVars(occ, loc)
	vars["morador"] = author
	vars["defesa"] = truncateText(defense.Content, 500)

	details := d.run(ctx, recipients, vars, s.recordOccurrence(occ.ID, KindDefense))
	return summarize(details, excluded), nil
}

// SendOccurrenceNotification announces a new occurrence to the apartment.
// Every resident receives a personal secure link to view it and reply.
func (s *Service) SendOccurrenceNotification(ctx context.Context, u *auth.User, req dto.OccurrenceNotificationRequest) (*dto.NotificationSummary, error) {
	req.OccurrenceID = strings.TrimSpace(req.OccurrenceID)
	if req.OccurrenceID == "" {
		return nil, invalid("occurrence_id é obrigatório")
	}
	occ, loc, err := s.loadOccurrence(ctx, req.OccurrenceID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(u, loc.Condominium); err != nil {
		return nil, err
	}

	all, err := s.apartmentRecipients(ctx, occ.ApartmentID)
	if err != nil {
		return nil, err
	}
	recipients, excluded := splitByPhone(all)
	if len(recipients) == 0 {
		return skipped(excluded, msgNoRecipients), nil
	}
	d, err := s.prepare(ctx, loc.Condominium.ID, SlugNewOccurrence)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return skipped(excluded, msgNotConfigured), nil
	}

	for i := range recipients {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		recipients[i].Vars["token"] = token
		recipients[i].Vars["link"] = s.secureLink(token)
	}

	vars := s.occurrenceVars(occ, loc)
	vars["descricao"] = truncateText(occ.Description, 700)

	details := d.run(ctx, recipients, vars, s.recordOccurrence(occ.ID, KindOccurrence))
	return summarize(details, excluded), nil
}

func (s *Service) loadDefense(ctx context.Context, occurrenceID, defenseID string) (*models.OccurrenceDefense, error) {
	var def models.OccurrenceDefense
	q := s.db.WithContext(ctx).Where("occurrence_id = ?", occurrenceID)
	if defenseID != "" {
		q = q.Where("id = ?", defenseID)
	}
	if err := q.Order("created_at desc").First(&def).Error; err != nil {
		return nil, wrapLookup(err, "Defesa não encontrada")
	}
	return &def, nil
}

func (s *Service) occurrenceVars(occ *models.Occurrence, loc *location) map[string]string {
	when := occ.CreatedAt
	if occ.OccurredAt != nil {
		when = *occ.OccurredAt
	}
	return map[string]string{
		"condominio":  loc.Condominium.Name,
		"bloco":       loc.Block.Name,
		"apartamento": loc.Apartment.Number,
		"ocorrencia":  occ.Title,
		"tipo":        occurrenceTypeLabel(occ.Type),
		"data":        formatDate(when),
		"link":        s.appURL + "/ocorrencias/" + occ.ID,
	}
}

func (s *Service) secureLink(token string) string {
	return s.appURL + defaultSecureLinkPathStart + token
}

// recordOccurrence writes one notifications_sent row per recipient.
func (s *Service) recordOccurrence(occurrenceID, kind string) func(context.Context, recipient, outcome) {
	return func(ctx context.Context, r recipient, out outcome) {
		row := models.NotificationSent{
			ID:              uuid.NewString(),
			OccurrenceID:    occurrenceID,
			ResidentID:      strPtr(r.ResidentID),
			Kind:            kind,
			Phone:           r.Phone,
			MessageContent:  out.Content,
			SecureLinkToken: r.Vars["token"],
			Strategy:        out.Strategy,
			Success:         out.Result.Success,
			MessageID:       out.Result.MessageID,
			ErrorMessage:    out.Result.Error,
			Status:          out.status(),
			SentAt:          s.now(),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			log.Error().Err(err).Str("occurrence_id", occurrenceID).Str("kind", kind).Msg("failed to write notification log")
		}
	}
}
