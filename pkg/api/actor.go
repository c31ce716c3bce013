package api

import (
	"context"
	"net/http"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

type actorKey struct{}

// actorContext reads the caller's role and donor identity from the
// X-Actor-Role and X-Actor-ID headers set by the auth gateway. A missing
// role defaults to DONOR.
func actorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := model.Actor{
			Role:    model.Role(r.Header.Get("X-Actor-Role")),
			DonorID: r.Header.Get("X-Actor-ID"),
		}
		switch actor.Role {
		case model.RoleDonor, model.RoleStaff, model.RoleLab:
		default:
			actor.Role = model.RoleDonor
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(r *http.Request) model.Actor {
	actor, _ := r.Context().Value(actorKey{}).(model.Actor)
	return actor
}
