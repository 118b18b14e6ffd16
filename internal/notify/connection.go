package notify

import (
	"context"
	"strings"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"
	"condo-whatsapp/internal/whatsapp"
	dto "condo-whatsapp/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TestConnection sends one free-text message through the active gateway and
// reports the raw vendor outcome, including a disconnected session.
func (s *Service) TestConnection(ctx context.Context, u *auth.User, req dto.TestConnectionRequest) (*dto.TestConnectionResult, error) {
	if u == nil {
		return nil, ErrUnauthorized
	}
	if !u.IsSuperAdmin() && !u.HasRole(models.RoleSindico) {
		return nil, forbidden("Apenas síndicos podem testar a conexão")
	}
	if !whatsapp.HasPhone(req.Phone) {
		return nil, invalid("Telefone inválido")
	}
	body := strings.TrimSpace(req.Message)
	if body == "" {
		body = defaultTestConnectionText
	}

	cfg, err := s.activeConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, notFound("Configuração do WhatsApp não encontrada")
	}
	provider, err := s.providers(whatsapp.CredentialsFrom(*cfg))
	if err != nil {
		return nil, invalid("Provedor WhatsApp inválido: " + cfg.Provider)
	}

	res := provider.SendText(context.WithoutCancel(ctx), req.Phone, body)
	messagesTotal.WithLabelValues(provider.Name(), StrategyFreeText, resultLabel(res.Success)).Inc()

	status := models.StatusSent
	if !res.Success {
		status = models.StatusFailed
	}
	row := models.WhatsAppNotificationLog{
		ID:           uuid.NewString(),
		Phone:        req.Phone,
		TemplateSlug: slugTestConnection,
		TemplateName: "Teste de conexão",
		Provider:     provider.Name(),
		Strategy:     StrategyFreeText,
		RequestPayload: toJSON(map[string]interface{}{
			"provider": provider.Name(), "phone": req.Phone, "content": body,
		}),
		ResponsePayload: toJSON(res),
		Success:         res.Success,
		MessageID:       res.MessageID,
		ErrorMessage:    res.Error,
		ErrorCode:       res.Code,
		Status:          status,
	}
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; err != nil {
		log.Error().Err(err).Msg("failed to write test connection log")
	}

	log.Info().
		Str("provider", provider.Name()).
		Bool("success", res.Success).
		Str("code", res.Code).
		Msg("whatsapp connection test")

	return &dto.TestConnectionResult{
		Success:    res.Success,
		Provider:   provider.Name(),
		Phone:      whatsapp.FormatPhoneForWaba(req.Phone),
		MessageID:  res.MessageID,
		Error:      res.Error,
		ErrorCode:  res.Code,
		StatusCode: res.StatusCode,
	}, nil
}
