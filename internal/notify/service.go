// Package notify sends WhatsApp notifications for the condominium workflows
// (packages, occurrences, party hall) through the active gateway and keeps
// the audit log of every attempt.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"condo-whatsapp/internal/models"
	"condo-whatsapp/internal/whatsapp"
	dto "condo-whatsapp/pkg/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Delivery strategies, in the order they are tried.
const (
	StrategyWabaTemplate = "waba_template"
	StrategyFreeText     = "free_text"
)

// DefaultSendInterval is the pause between two recipients of one dispatch.
const DefaultSendInterval = 500 * time.Millisecond

// NoPacing turns the pause between recipients off.
const NoPacing time.Duration = -1

type Options struct {
	// SendInterval defaults to DefaultSendInterval when zero.
	SendInterval time.Duration
	AppURL       string
	Now          func() time.Time
}

type Service struct {
	db           *gorm.DB
	providers    whatsapp.Factory
	sendInterval time.Duration
	appURL       string
	now          func() time.Time
}

func NewService(db *gorm.DB, providers whatsapp.Factory, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SendInterval == 0 {
		opts.SendInterval = DefaultSendInterval
	}
	return &Service{
		db:           db,
		providers:    providers,
		sendInterval: opts.SendInterval,
		appURL:       opts.AppURL,
		now:          opts.Now,
	}
}

// recipient is one person to message. Vars override the dispatch variables.
type recipient struct {
	ResidentID string
	Name       string
	Phone      string
	Vars       map[string]string
	ImageURL   string
}

// attempt is one strategy call, kept for the response payload of the log row.
type attempt struct {
	Strategy   string `json:"strategy"`
	Success    bool   `json:"success"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Raw        string `json:"raw,omitempty"`
}

// outcome is the final result for one recipient: the first successful
// strategy, or the last one tried.
type outcome struct {
	Result   whatsapp.Result
	Strategy string
	Content  string
	Request  map[string]interface{}
	Attempts []attempt
}

func (o outcome) requestJSON() datatypes.JSON  { return toJSON(o.Request) }
func (o outcome) responseJSON() datatypes.JSON { return toJSON(map[string]interface{}{"attempts": o.Attempts}) }

func (o outcome) status() string {
	if o.Result.Success {
		return models.StatusSent
	}
	return models.StatusFailed
}

// dispatch is the per request state: the active config, its provider and
// the resolved template of one slug.
type dispatch struct {
	svc      *Service
	config   models.WhatsAppConfig
	provider whatsapp.Provider
	slug     string
	global   *models.WhatsAppTemplate
	text     *models.WhatsAppTemplate
	fallback string
}

// prepare loads the active configuration and the templates for slug. A nil
// dispatch with a nil error means WhatsApp is not configured.
func (s *Service) prepare(ctx context.Context, condominiumID, slug string) (*dispatch, error) {
	cfg, err := s.activeConfig(ctx)
	if err != nil || cfg == nil {
		return nil, err
	}
	provider, err := s.providers(whatsapp.CredentialsFrom(*cfg))
	if err != nil {
		return nil, fmt.Errorf("whatsapp provider: %w", err)
	}

	d := &dispatch{svc: s, config: *cfg, provider: provider, slug: slug}
	if def, ok := defaultTemplate(slug); ok {
		d.fallback = def.Content
	}

	if d.global, err = s.findTemplate(ctx, slug, nil); err != nil {
		return nil, err
	}
	d.text = d.global
	if condominiumID != "" {
		override, err := s.findTemplate(ctx, slug, &condominiumID)
		if err != nil {
			return nil, err
		}
		if override != nil {
			d.text = override
		}
	}
	return d, nil
}

func (s *Service) activeConfig(ctx context.Context) (*models.WhatsAppConfig, error) {
	var cfg models.WhatsAppConfig
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id desc").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load whatsapp config: %w", err)
	}
	return &cfg, nil
}

func (s *Service) findTemplate(ctx context.Context, slug string, condominiumID *string) (*models.WhatsAppTemplate, error) {
	q := s.db.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true)
	if condominiumID == nil {
		q = q.Where("condominium_id IS NULL")
	} else {
		q = q.Where("condominium_id = ?", *condominiumID)
	}
	var tpl models.WhatsAppTemplate
	err := q.Order("id desc").First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", slug, err)
	}
	return &tpl, nil
}

func (d *dispatch) templateName() string {
	if d.text != nil && d.text.Name != "" {
		return d.text.Name
	}
	if def, ok := defaultTemplate(d.slug); ok {
		return def.Name
	}
	return d.slug
}

// content renders the free-text body.
func (d *dispatch) content(vars map[string]string) string {
	body := d.fallback
	if d.text != nil && d.text.Content != "" {
		body = d.text.Content
	}
	return whatsapp.ApplyVariables(body, vars)
}

// wabaSender returns the template sender when the template path is usable:
// enabled in the config, a real approved name on the global row, a non-empty
// params order and a provider able to relay templates.
func (d *dispatch) wabaSender() (whatsapp.TemplateSender, bool) {
	if !d.config.UseWabaTemplates || d.global == nil {
		return nil, false
	}
	if !whatsapp.IsValidWabaTemplateName(d.global.WabaTemplateName) || len(d.global.ParamsOrder) == 0 {
		return nil, false
	}
	return whatsapp.Templates(d.provider)
}

func (d *dispatch) templateMessage(r recipient, vars map[string]string) whatsapp.TemplateMessage {
	order := []string(d.global.ParamsOrder)
	msg := whatsapp.TemplateMessage{
		Name:           d.global.WabaTemplateName,
		Language:       d.global.WabaLanguage,
		Params:         whatsapp.BuildMetaParams(vars, order),
		HeaderImageURL: r.ImageURL,
		Buttons:        d.buttons(vars),
	}
	if d.global.WabaNamedParams {
		msg.ParamNames = order
	}
	return msg
}

// buttons reads button_config: a list of {sub_type, index, param} where
// param may carry {variable} tokens.
func (d *dispatch) buttons(vars map[string]string) []whatsapp.TemplateButton {
	if len(d.global.ButtonConfig) == 0 {
		return nil
	}
	var buttons []whatsapp.TemplateButton
	if err := json.Unmarshal(d.global.ButtonConfig, &buttons); err != nil {
		log.Warn().Err(err).Str("slug", d.slug).Msg("ignoring invalid button_config")
		return nil
	}
	for i := range buttons {
		buttons[i].Param = whatsapp.ApplyVariables(buttons[i].Param, vars)
	}
	return buttons
}

type strategy struct {
	name string
	send func(ctx context.Context) whatsapp.Result
}

func (d *dispatch) strategies(r recipient, vars map[string]string, out *outcome) []strategy {
	var list []strategy
	if ts, ok := d.wabaSender(); ok {
		msg := d.templateMessage(r, vars)
		out.Request["template"] = map[string]interface{}{
			"name":     msg.Name,
			"language": msg.Language,
			"params":   msg.Params,
			"values":   whatsapp.BuildParamsArray(vars, d.global.ParamsOrder),
		}
		list = append(list, strategy{
			name: StrategyWabaTemplate,
			send: func(ctx context.Context) whatsapp.Result { return ts.SendTemplate(ctx, r.Phone, msg) },
		})
	}

	content := d.content(vars)
	out.Content = content
	out.Request["content"] = content
	list = append(list, strategy{
		name: StrategyFreeText,
		send: func(ctx context.Context) whatsapp.Result {
			if r.ImageURL != "" {
				return d.provider.SendImage(ctx, r.Phone, r.ImageURL, content)
			}
			return d.provider.SendText(ctx, r.Phone, content)
		},
	})
	return list
}

// deliver runs the strategies in order; the first success wins.
func (d *dispatch) deliver(ctx context.Context, r recipient, shared map[string]string) outcome {
	vars := mergeVars(shared, r.Vars)
	out := outcome{Request: map[string]interface{}{
		"provider": d.provider.Name(),
		"phone":    r.Phone,
		"slug":     d.slug,
	}}
	if r.ImageURL != "" {
		out.Request["image_url"] = r.ImageURL
	}

	provider := d.provider.Name()
	for i, st := range d.strategies(r, vars, &out) {
		start := time.Now()
		res := st.send(ctx)
		sendDuration.WithLabelValues(provider, st.name).Observe(time.Since(start).Seconds())
		messagesTotal.WithLabelValues(provider, st.name, resultLabel(res.Success)).Inc()

		out.Attempts = append(out.Attempts, attempt{
			Strategy:   st.name,
			Success:    res.Success,
			MessageID:  res.MessageID,
			Error:      res.Error,
			Code:       res.Code,
			StatusCode: res.StatusCode,
			Raw:        res.Raw,
		})
		out.Result = res
		out.Strategy = st.name
		if res.Success {
			break
		}
		if st.name == StrategyWabaTemplate {
			fallbacksTotal.WithLabelValues(provider).Inc()
			log.Warn().
				Str("provider", provider).
				Str("slug", d.slug).
				Str("code", res.Code).
				Str("error", res.Error).
				Int("attempt", i+1).
				Msg("template send failed, falling back to free text")
		}
	}
	return out
}

// run messages each recipient in turn, paced by the send interval, and hands
// every outcome to record before moving on. A failure never stops the loop.
func (d *dispatch) run(ctx context.Context, recipients []recipient, shared map[string]string, record func(context.Context, recipient, outcome)) []dto.RecipientResult {
	// Sends and log writes must outlive a caller that hangs up mid batch.
	ctx = context.WithoutCancel(ctx)

	limit := rate.Inf
	if d.svc.sendInterval > 0 {
		limit = rate.Every(d.svc.sendInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]dto.RecipientResult, 0, len(recipients))
	for _, r := range recipients {
		if err := limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("send pacing interrupted")
		}

		out := d.deliver(ctx, r, shared)
		record(ctx, r, out)

		log.Info().
			Str("provider", d.provider.Name()).
			Str("slug", d.slug).
			Str("resident_id", r.ResidentID).
			Str("strategy", out.Strategy).
			Bool("success", out.Result.Success).
			Str("message_id", out.Result.MessageID).
			Str("code", out.Result.Code).
			Msg("whatsapp notification")

		results = append(results, dto.RecipientResult{
			ResidentID: r.ResidentID,
			Name:       r.Name,
			Phone:      r.Phone,
			Success:    out.Result.Success,
			MessageID:  out.Result.MessageID,
			Strategy:   out.Strategy,
			Error:      out.Result.Error,
			ErrorCode:  out.Result.Code,
		})
	}
	return results
}

// splitByPhone separates recipients that can be messaged from the excluded.
func splitByPhone(all []recipient) ([]recipient, []dto.ExcludedRecipient) {
	var ok []recipient
	excluded := []dto.ExcludedRecipient{}
	for _, r := range all {
		if whatsapp.HasPhone(r.Phone) {
			ok = append(ok, r)
			continue
		}
		excludedTotal.Inc()
		excluded = append(excluded, dto.ExcludedRecipient{
			ResidentID: r.ResidentID,
			Name:       r.Name,
			Reason:     "sem telefone cadastrado",
		})
	}
	return ok, excluded
}

func summarize(details []dto.RecipientResult, excluded []dto.ExcludedRecipient) *dto.NotificationSummary {
	sum := &dto.NotificationSummary{
		Success:  true,
		Excluded: excluded,
		Details:  details,
	}
	if sum.Excluded == nil {
		sum.Excluded = []dto.ExcludedRecipient{}
	}
	if sum.Details == nil {
		sum.Details = []dto.RecipientResult{}
	}
	for _, d := range details {
		if d.Success {
			sum.NotificationsSent++
		} else {
			sum.NotificationsFailed++
		}
	}
	if sum.NotificationsSent == 0 && sum.NotificationsFailed > 0 {
		sum.Message = msgNoneDelivered
	}
	return sum
}

func skipped(excluded []dto.ExcludedRecipient, msg string) *dto.NotificationSummary {
	sum := summarize(nil, excluded)
	sum.Message = msg
	return sum
}

// Messages of the non-error empty outcomes.
const (
	msgNoRecipients  = "Nenhum destinatário com telefone cadastrado"
	msgNotConfigured = "WhatsApp não configurado; notificação não enviada"
	msgNoneDelivered = "Nenhuma notificação foi entregue"
)

func mergeVars(shared, own map[string]string) map[string]string {
	out := make(map[string]string, len(shared)+len(own))
	for k, v := range shared {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

func toJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
