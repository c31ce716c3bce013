package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
)

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := services.ListRequests(r.Context(), s.database, r.URL.Query().Get("active") == "true")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []model.EmergencyRequest{}
	}
	render.JSON(w, r, requests)
}

type createRequestPayload struct {
	Hospital  string `json:"hospital"`
	BloodType string `json:"bloodType"`
	Urgency   string `json:"urgency"`
	Units     int    `json:"units"`
}

func (p *createRequestPayload) Bind(r *http.Request) error { return nil }

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only staff may open emergency requests"})
		return
	}

	payload := &createRequestPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	req, err := services.CreateEmergencyRequest(r.Context(), s.database, s.logger,
		payload.Hospital, payload.BloodType, payload.Urgency, payload.Units)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, req)
}

type fulfillPayload struct {
	Units int `json:"units"`
}

func (p *fulfillPayload) Bind(r *http.Request) error { return nil }

func (s *Server) fulfillRequest(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff() {
		s.writeError(w, r, &model.ForbiddenError{Message: "only staff may dispatch inventory"})
		return
	}

	payload := &fulfillPayload{}
	if err := render.Bind(r, payload); err != nil {
		s.writeError(w, r, &model.ValidationError{Message: "malformed request body"})
		return
	}

	req, err := services.FulfillRequest(r.Context(), s.database, s.lockMgr, s.logger,
		chi.URLParam(r, "requestID"), payload.Units)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, req)
}
