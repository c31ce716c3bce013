package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
)

func (s *Server) listCamps(w http.ResponseWriter, r *http.Request) {
	views, err := services.ListCamps(r.Context(), s.database)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if views == nil {
		views = []services.CampView{}
	}
	render.JSON(w, r, views)
}

type createCampPayload struct {
	Name            string  `json:"name"`
	Province        string  `json:"province"`
	District        string  `json:"district"`
	Location        string  `json:"location"`
	NearestHospital string  `json:"nearestHospital"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	Capacity        *int    `json:"capacity"`
}

func (p *createCampPayload) Bind(r *http.Request) error { return nil }

func (s *Server) createCamp(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only staff may create camps"})
		return
	}

	payload := &createCampPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	var date time.Time
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			s.writeError(w, r, &model.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	camp, err := services.CreateCamp(r.Context(), s.database, s.logger, services.CreateCampRequest{
		Name:            payload.Name,
		Province:        payload.Province,
		District:        payload.District,
		Location:        payload.Location,
		NearestHospital: payload.NearestHospital,
		Lat:             payload.Lat,
		Lng:             payload.Lng,
		Date:            date,
		StartTime:       payload.StartTime,
		EndTime:         payload.EndTime,
		Capacity:        payload.Capacity,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, camp)
}

func (s *Server) deleteCamp(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only staff may delete camps"})
		return
	}

	if err := services.DeleteCamp(r.Context(), s.database, s.logger, chi.URLParam(r, "campID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

type campDonorPayload struct {
	DonorID string `json:"donorId"`
}

func (p *campDonorPayload) Bind(r *http.Request) error { return nil }

func (s *Server) registerForCamp(w http.ResponseWriter, r *http.Request) {
	payload := &campDonorPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	actor := actorFrom(r)
	if actor.Role == model.RoleDonor && actor.DonorID != "" && actor.DonorID != payload.DonorID {
		s.writeError(w, r, &model.ForbiddenError{Message: "donors may only register themselves"})
		return
	}

	reg, err := services.RegisterForCamp(r.Context(), s.database, s.lockMgr, s.cfg, s.logger,
		chi.URLParam(r, "campID"), payload.DonorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, reg)
}

func (s *Server) checkIn(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only staff may check donors in"})
		return
	}

	payload := &campDonorPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	reg, err := services.CheckIn(r.Context(), s.database, s.lockMgr, s.logger,
		chi.URLParam(r, "campID"), payload.DonorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, reg)
}
