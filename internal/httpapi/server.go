package httpapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/urlmon/urlmon/internal/domain"
	"github.com/urlmon/urlmon/internal/httpapi/middleware"
)

// Monitor is everything the API layer needs from the engine. The concrete
// implementation lives in internal/monitor.
type Monitor interface {
	Running() bool
	Start() error
	Stop() error
	TargetStatus(name string) (domain.StatusSnapshot, error)
	TargetHistory(name string, limit int) (domain.TargetHistory, error)
	SystemStatus() (domain.SystemStatus, error)
	ExportCSV(w io.Writer, name string) error
}

type Server struct {
	Logger  *zap.Logger
	Monitor Monitor

	RatePerMinute int
	RateBurst     int
}

func NewServer(l *zap.Logger, m Monitor, ratePerMin, rateBurst int) *Server {
	return &Server{Logger: l, Monitor: m, RatePerMinute: ratePerMin, RateBurst: rateBurst}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RequestLogger(s.Logger))
	r.Use(middleware.RateLimit(s.RatePerMinute, s.RateBurst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleSystemStatus)
		r.Get("/status/{name}", s.handleTargetStatus)
		r.Get("/history/{name}", s.handleTargetHistory)
		r.Get("/monitoring/status", s.handleMonitoringStatus)
		r.Post("/monitoring/start", s.handleMonitoringStart)
		r.Post("/monitoring/stop", s.handleMonitoringStop)
		r.Get("/download/csv", s.handleDownloadCSV)
	})

	return r
}
