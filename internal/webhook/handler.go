package webhook

import (
	"net/http"
	"time"

	"condo-whatsapp/internal/middleware"
	dto "condo-whatsapp/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// EventStatus is the websocket event type of a status change.
const EventStatus = "message_status"

var statusUpdates = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "whatsapp_webhook_status_total",
		Help: "Delivery status callbacks received, by provider, status and whether a log row matched.",
	},
	[]string{"provider", "status", "matched"},
)

func init() {
	prometheus.MustRegister(statusUpdates)
}

// Notifier receives every applied status change.
type Notifier interface {
	NotifyStatus(dto.StatusEvent)
}

type Handler struct {
	DB          *gorm.DB
	VerifyToken string
	Notifier    Notifier
	Now         func() time.Time
}

func NewHandler(db *gorm.DB, verifyToken string, notifier Notifier) *Handler {
	return &Handler{DB: db, VerifyToken: verifyToken, Notifier: notifier, Now: time.Now}
}

// VerifyWebhook answers the Meta subscription challenge.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if mode == "subscribe" && h.VerifyToken != "" && token == h.VerifyToken {
		middleware.LoggerFrom(c).Info().Msg("webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// HandleStatus applies a delivery status callback. It always answers 200 so
// gateways do not retry payloads this service cannot use.
func (h *Handler) HandleStatus(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	body, err := c.GetRawData()
	if err != nil {
		lg.Warn().Err(err).Msg("webhook body unreadable")
		c.JSON(http.StatusOK, dto.WebhookResponse{Success: false, Message: "corpo inválido"})
		return
	}
	updates, err := Parse(body)
	if err != nil {
		lg.Warn().Err(err).Int("bytes", len(body)).Msg("webhook payload ignored")
		c.JSON(http.StatusOK, dto.WebhookResponse{Success: true, Message: "payload ignorado"})
		return
	}

	resp := dto.WebhookResponse{Success: true}
	now := h.Now()
	for _, u := range updates {
		n, err := Apply(c.Request.Context(), h.DB, u, now)
		if err != nil {
			lg.Error().Err(err).Str("message_id", u.MessageID).Msg("failed to apply webhook status")
			resp.Success = false
			resp.Message = middleware.InternalErrorMessage
			continue
		}
		resp.Updated += n
		resp.Status = u.Status

		matched := "false"
		if n > 0 {
			matched = "true"
		}
		statusUpdates.WithLabelValues(u.Provider, u.Status, matched).Inc()

		lg.Info().
			Str("provider", u.Provider).
			Str("message_id", u.MessageID).
			Str("raw_status", u.RawStatus).
			Str("status", u.Status).
			Int64("updated", n).
			Msg("webhook status")

		if n > 0 && h.Notifier != nil {
			h.Notifier.NotifyStatus(dto.StatusEvent{
				Type:      EventStatus,
				MessageID: u.MessageID,
				Status:    u.Status,
				Provider:  u.Provider,
				Updated:   n,
				At:        now,
			})
		}
	}
	c.JSON(http.StatusOK, resp)
}
