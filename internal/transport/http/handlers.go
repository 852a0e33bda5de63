package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rendezvous/backend/internal/calendar"
	"rendezvous/backend/internal/domain"
	"rendezvous/backend/internal/service/booking"
)

type handlers struct {
	svc      BookingService
	settings booking.Settings
	log      *slog.Logger
}

type bookRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Service string `json:"service"`
	Notes   string `json:"notes"`
}

type availabilityRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type remindRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Service string `json:"service"`
}

type notificationJSON struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func notificationsJSON(outcomes []domain.NotificationOutcome) []notificationJSON {
	out := make([]notificationJSON, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, notificationJSON{Channel: string(o.Channel), OK: o.OK, Message: o.Message})
	}
	return out
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.settings.BusinessName(),
	})
}

func (h *handlers) businessInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":             h.settings.BusinessName(),
		"hours":            h.settings.BusinessHours(),
		"duration_minutes": int(h.settings.AppointmentDuration() / time.Minute),
		"locale":           h.settings.Locale(),
		"timezone":         h.settings.Location().String(),
	})
}

func (h *handlers) checkAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.CheckAvailability(c.Request.Context(), req.Date, req.Time)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available": res.Available,
		"conflicts": res.Conflicts,
		"message":   res.Message,
	})
}

func (h *handlers) availableSlots(c *gin.Context) {
	day, err := h.svc.AvailableSlots(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	slots := make([]string, 0, len(day.Slots))
	for _, s := range day.Slots {
		slots = append(slots, s.TimeOfDay())
	}
	c.JSON(http.StatusOK, gin.H{
		"date":    day.Date,
		"slots":   slots,
		"count":   len(slots),
		"message": day.Message,
	})
}

func (h *handlers) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.Book(c.Request.Context(), domain.AppointmentRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Date:    req.Date,
		Time:    req.Time,
		Service: req.Service,
		Notes:   req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !res.Success {
		// slot conflict, reported as data
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{
		"success":       res.Success,
		"event_id":      res.EventID,
		"message":       res.Message,
		"notifications": notificationsJSON(res.Notifications),
	})
}

func (h *handlers) cancel(c *gin.Context) {
	res, err := h.svc.Cancel(c.Request.Context(), c.Param("event_id"), c.Query("reason"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": res.Success,
		"message": res.Message,
	})
}

func (h *handlers) remind(c *gin.Context) {
	var req remindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.SendReminder(c.Request.Context(), booking.ReminderInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Date:    req.Date,
		Time:    req.Time,
		Service: req.Service,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       res.Success,
		"message":       res.Message,
		"notifications": notificationsJSON(res.Notifications),
	})
}

func (h *handlers) writeError(c *gin.Context, err error) {
	var vErr *booking.ValidationError
	var gwErr *calendar.GatewayError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "calendar store unavailable"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		h.log.Error("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
