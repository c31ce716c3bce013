// Package api exposes the donation lifecycle engine over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

// Server holds the shared dependencies of all HTTP handlers
type Server struct {
	database db.Database
	lockMgr  *locks.Manager
	cfg      *config.Config
	logger   *zap.Logger
	notifier services.Notifier
}

// NewServer creates a Server with its dependencies
func NewServer(database db.Database, lockMgr *locks.Manager, cfg *config.Config, logger *zap.Logger, notifier services.Notifier) *Server {
	return &Server{
		database: database,
		lockMgr:  lockMgr,
		cfg:      cfg,
		logger:   logger,
		notifier: notifier,
	}
}

// Router builds the HTTP route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(actorContext)

	r.Get("/_health", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/donors", s.registerDonor)
		r.Get("/donors/{donorID}/eligibility", s.checkEligibility)

		r.Post("/appointments", s.bookAppointment)
		r.Get("/appointments", s.listAppointments)
		r.Put("/appointments/{appointmentID}/status", s.updateAppointmentStatus)
		r.Put("/appointments/{appointmentID}/cancel", s.cancelAppointment)

		r.Get("/camps", s.listCamps)
		r.Post("/camps", s.createCamp)
		r.Delete("/camps/{campID}", s.deleteCamp)
		r.Post("/camps/{campID}/register", s.registerForCamp)
		r.Post("/camps/{campID}/checkin", s.checkIn)

		r.Get("/inventory", s.listInventory)
		r.Post("/inventory", s.addBloodUnit)
		r.Get("/inventory/pending", s.listPendingUnits)
		r.Put("/inventory/{unitID}/test", s.recordLabResults)

		r.Get("/emergency/requests", s.listRequests)
		r.Post("/emergency/requests", s.createRequest)
		r.Put("/emergency/requests/{requestID}/fulfill", s.fulfillRequest)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
