package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/middlewares"
	utypes "zemon/zemon/utils/types"
)

func SearchRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))
	r.Post("/", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		var req utypes.SearchRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		resp, err := ctrl.Search(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return resp, http.StatusOK, nil
	}))
	return r
}
