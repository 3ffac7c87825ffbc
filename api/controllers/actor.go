package controllers

import (
	"net/http"

	"github.com/angelmondragon/supplychain-backend/api/middleware"
	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

// requireActor loads the authenticated caller or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (types.Actor, bool) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return types.Actor{}, false
	}
	return actor, true
}
