package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
)

type registerDonorPayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Sex       string `json:"sex"`
	BloodType string `json:"bloodType"`
	Province  string `json:"province"`
	District  string `json:"district"`
}

func (p *registerDonorPayload) Bind(r *http.Request) error { return nil }

func (s *Server) registerDonor(w http.ResponseWriter, r *http.Request) {
	payload := &registerDonorPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	donor, err := services.RegisterDonor(r.Context(), s.database, s.logger, services.RegisterDonorRequest{
		Name:      payload.Name,
		Email:     payload.Email,
		Sex:       payload.Sex,
		BloodType: payload.BloodType,
		Province:  payload.Province,
		District:  payload.District,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, donor)
}

func (s *Server) checkEligibility(w http.ResponseWriter, r *http.Request) {
	donorID := chi.URLParam(r, "donorID")
	donationType := model.DonationType(r.URL.Query().Get("donationType"))

	onDate := time.Now()
	if raw := r.URL.Query().Get("onDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, r, &model.ValidationError{Field: "onDate", Message: "must be YYYY-MM-DD"})
			return
		}
		onDate = parsed
	}

	verdict, err := services.CheckEligibility(r.Context(), s.database, s.lockMgr, s.cfg, s.logger,
		donorID, donationType, onDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.JSON(w, r, verdict)
}
