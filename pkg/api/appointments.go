package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
)

type bookAppointmentPayload struct {
	DonorID      string    `json:"donorId"`
	CenterType   string    `json:"centerType"`
	CenterID     string    `json:"centerId"`
	CenterName   string    `json:"centerName"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	DonationType string    `json:"donationType"`
	BloodType    string    `json:"bloodType"`
}

func (p *bookAppointmentPayload) Bind(r *http.Request) error { return nil }

func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	payload := &bookAppointmentPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	// Donors may only book for themselves
	actor := actorFrom(r)
	if actor.Role == model.RoleDonor && actor.DonorID != "" && actor.DonorID != payload.DonorID {
		s.writeError(w, r, &model.ForbiddenError{Message: "donors may only book their own appointments"})
		return
	}

	appt, err := services.BookAppointment(r.Context(), s.database, s.lockMgr, s.cfg, s.logger, s.notifier,
		services.BookingRequest{
			DonorID:      payload.DonorID,
			CenterType:   model.CenterType(payload.CenterType),
			CenterID:     payload.CenterID,
			CenterName:   payload.CenterName,
			ScheduledAt:  payload.ScheduledAt,
			DonationType: model.DonationType(payload.DonationType),
			BloodType:    payload.BloodType,
		})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, appt)
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	filter := db.AppointmentFilter{
		DonorID:    r.URL.Query().Get("donorId"),
		CenterID:   r.URL.Query().Get("centerId"),
		Status:     model.AppointmentStatus(r.URL.Query().Get("status")),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, r, &model.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"})
			return
		}
		filter.Date = &parsed
	}

	appointments, err := services.ListAppointments(r.Context(), s.database, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if appointments == nil {
		appointments = []model.Appointment{}
	}
	render.JSON(w, r, appointments)
}

type statusPayload struct {
	Status string `json:"status"`
}

func (p *statusPayload) Bind(r *http.Request) error { return nil }

func (s *Server) updateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	payload := &statusPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	appt, err := services.UpdateAppointmentStatus(r.Context(), s.database, s.lockMgr, s.cfg, s.logger,
		chi.URLParam(r, "appointmentID"), model.AppointmentStatus(payload.Status), actorFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, appt)
}

func (s *Server) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := services.CancelAppointment(r.Context(), s.database, s.lockMgr, s.cfg, s.logger,
		chi.URLParam(r, "appointmentID"), actorFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, appt)
}
