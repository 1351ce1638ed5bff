package routes

import (
	"github.com/go-chi/chi/v5"

	"zemon/zemon/controllers"
)

func HealthRoutes(ctrl *controllers.HealthController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", ctrl.HealthCheck)
	return r
}
