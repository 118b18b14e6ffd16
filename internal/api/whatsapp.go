package api

import (
	"net/http"

	"condo-whatsapp/internal/middleware"
	"condo-whatsapp/internal/notify"
	dto "condo-whatsapp/pkg/models"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Service *notify.Service
}

func NewNotificationHandler(svc *notify.Service) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

// bind decodes the JSON body into req, answering 400 on failure.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.LoggerFrom(c).Debug().Err(err).Msg("invalid request body")
		fail(c, http.StatusBadRequest, CodeInvalidInput, "JSON inválido")
		return false
	}
	return true
}

func respond(c *gin.Context, sum *dto.NotificationSummary, err error) {
	if err != nil {
		failFromError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// NotifyPackageArrival handles POST /functions/v1/notify-package-arrival
func (h *NotificationHandler) NotifyPackageArrival(c *gin.Context) {
	var req dto.PackageArrivalRequest
	if !bind(c, &req) {
		return
	}
	sum, err := h.Service.NotifyPackageArrival(c.Request.Context(), middleware.UserFrom(c), req)
	respond(c, sum, err)
}

// NotifyResidentDecision handles POST /functions/v1/notify-resident-decision
func (h *NotificationHandler) NotifyResidentDecision(c *gin.Context) {
	var req dto.ResidentDecisionRequest
	if !bind(c, &req) {
		return
	}
	sum, err := h.Service.NotifyResidentDecision(c.Request.Context(), middleware.UserFrom(c), req)
	respond(c, sum, err)
}

// NotifySindicoDefense handles POST /functions/v1/notify-sindico-defense
func (h *NotificationHandler) NotifySindicoDefense(c *gin.Context) {
	var req dto.SindicoDefenseRequest
	if !bind(c, &req) {
		return
	}
	sum, err := h.Service.NotifySindicoDefense(c.Request.Context(), middleware.UserFrom(c), req)
	respond(c, sum, err)
}

// SendPartyHallNotification handles POST /functions/v1/send-party-hall-notification
func (h *NotificationHandler) SendPartyHallNotification(c *gin.Context) {
	var req dto.PartyHallRequest
	if !bind(c, &req) {
		return
	}
	sum, err := h.Service.SendPartyHallNotification(c.Request.Context(), middleware.UserFrom(c), req)
	respond(c, sum, err)
}

// SendOccurrenceNotification handles POST /functions/v1/send-whatsapp-notification
func (h *NotificationHandler) SendOccurrenceNotification(c *gin.Context) {
	var req dto.OccurrenceNotificationRequest
	if !bind(c, &req) {
		return
	}
	sum, err := h.Service.SendOccurrenceNotification(c.Request.Context(), middleware.UserFrom(c), req)
	respond(c, sum, err)
}

// TestConnection handles POST /functions/v1/test-whatsapp-connection. A vendor
// failure is still a 200: the body carries success=false and the error code.
func (h *NotificationHandler) TestConnection(c *gin.Context) {
	var req dto.TestConnectionRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Service.TestConnection(c.Request.Context(), middleware.UserFrom(c), req)
	if err != nil {
		failFromError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RecentLogs handles GET /api/whatsapp/logs?condominium_id=&limit=
func (h *NotificationHandler) RecentLogs(c *gin.Context) {
	var q dto.LogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidInput, "Parâmetros inválidos")
		return
	}
	logs, err := h.Service.RecentLogs(c.Request.Context(), middleware.UserFrom(c), q)
	if err != nil {
		failFromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs})
}
