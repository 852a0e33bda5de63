// Package http exposes the booking service over a JSON REST API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rendezvous/backend/internal/domain"
	"rendezvous/backend/internal/service/booking"
)

// BookingService is the slice of the booking service the transport needs.
type BookingService interface {
	CheckAvailability(ctx context.Context, date, timeOfDay string) (domain.AvailabilityResult, error)
	AvailableSlots(ctx context.Context, date string) (booking.DaySlots, error)
	Book(ctx context.Context, req domain.AppointmentRequest) (domain.BookingResult, error)
	Cancel(ctx context.Context, eventID, reason string) (domain.CancellationResult, error)
	SendReminder(ctx context.Context, in booking.ReminderInput) (domain.ReminderResult, error)
}

type Config struct {
	Addr            string
	RequestTimeout  time.Duration
	RateLimitPerMin int
	RateLimitBurst  int
}

type Server struct {
	http *http.Server
	log  *slog.Logger
}

func NewServer(cfg Config, svc BookingService, settings booking.Settings, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(cfg, svc, settings, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func newRouter(cfg Config, svc BookingService, settings booking.Settings, log *slog.Logger) *gin.Engine {
	h := &handlers{svc: svc, settings: settings, log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(rateLimit(newLimiterStore(cfg.RateLimitPerMin, cfg.RateLimitBurst), log))
	r.Use(requestTimeout(cfg.RequestTimeout))

	r.GET("/health", h.health)
	r.GET("/business-info", h.businessInfo)
	r.POST("/availability/check", h.checkAvailability)
	r.GET("/availability/:date", h.availableSlots)
	r.POST("/appointments/book", h.book)
	r.DELETE("/appointments/:event_id", h.cancel)
	r.POST("/appointments/remind", h.remind)

	return r
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
