package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/middlewares"
)

func UserRoutes(ctrl *controllers.UserController, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/me", handleJSON(cfg, func(r *http.Request) (any, int, error) {
			id, err := userID(r)
			if err != nil {
				return nil, 0, err
			}
			profile, err := ctrl.GetProfile(r.Context(), id)
			if err != nil {
				return nil, 0, err
			}
			return profile, http.StatusOK, nil
		}))
	})

	return r
}
