package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
)

func (s *Server) listInventory(w http.ResponseWriter, r *http.Request) {
	units, err := services.ListInventory(r.Context(), s.database, r.URL.Query().Get("bloodType"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if units == nil {
		units = []model.BloodUnit{}
	}
	render.JSON(w, r, units)
}

func (s *Server) listPendingUnits(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only staff may view pending units"})
		return
	}

	units, err := services.ListPendingUnits(r.Context(), s.database)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if units == nil {
		units = []model.BloodUnit{}
	}
	render.JSON(w, r, units)
}

type addUnitPayload struct {
	BloodType  string    `json:"bloodType"`
	ExpiryDate time.Time `json:"expiryDate"`
}

func (p *addUnitPayload) Bind(r *http.Request) error { return nil }

func (s *Server) addBloodUnit(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only staff may add inventory"})
		return
	}

	payload := &addUnitPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	unit, err := services.AddBloodUnit(r.Context(), s.database, s.logger, payload.BloodType, payload.ExpiryDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, unit)
}

type labResultsPayload struct {
	HIV     bool   `json:"hiv"`
	Hep     bool   `json:"hep"`
	Malaria bool   `json:"malaria"`
	Reason  string `json:"reason"`
}

func (p *labResultsPayload) Bind(r *http.Request) error { return nil }

func (s *Server) recordLabResults(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only lab staff may record results"})
		return
	}

	payload := &labResultsPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	unit, err := services.RecordLabResults(r.Context(), s.database, s.lockMgr, s.logger,
		chi.URLParam(r, "unitID"), services.LabResults{
			HIV:     payload.HIV,
			Hep:     payload.Hep,
			Malaria: payload.Malaria,
			Reason:  payload.Reason,
		})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, unit)
}
