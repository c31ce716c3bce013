package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// errorResponse is the JSON body returned for every failed request
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeError maps a domain error onto an HTTP status and JSON body.
// The mapping is: validation 400, forbidden 403, not found 404, capacity,
// transition and fulfillment conflicts 409, eligibility 422. Anything
// unmatched is a 500 and gets logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound    *model.ErrNotFound
		validation  *model.ValidationError
		capacity    *model.CapacityError
		eligibility *model.EligibilityError
		transition  *model.TransitionError
		forbidden   *model.ForbiddenError
		fulfillment *model.FulfillmentError
		duplicate   *model.DuplicateError
	)

	switch {
	case errors.As(err, &validation):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "validation", Message: validation.Message, Field: validation.Field})
	case errors.As(err, &forbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, errorResponse{Error: "forbidden", Message: forbidden.Message})
	case errors.As(err, &notFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "not_found", Message: notFound.Error()})
	case errors.As(err, &capacity):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorResponse{Error: "capacity_exceeded", Message: capacity.Error()})
	case errors.As(err, &transition):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorResponse{Error: "invalid_transition", Message: transition.Error()})
	case errors.As(err, &fulfillment):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorResponse{Error: "over_fulfillment", Message: fulfillment.Error()})
	case errors.As(err, &duplicate):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorResponse{Error: "duplicate", Message: duplicate.Error()})
	case errors.As(err, &eligibility):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{Error: "eligibility_blocked", Message: eligibility.Error()})
	default:
		s.logger.Error("Unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "internal", Message: "internal server error"})
	}
}
