// zemon/routes/auth.go
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	utypes "zemon/zemon/utils/types"
)

func AuthRoutes(ctrl *controllers.AuthController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		var req utypes.SignupRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		profile, err := ctrl.Signup(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return profile, http.StatusCreated, nil
	}))
	r.Post("/login", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		var req utypes.LoginRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		token, err := ctrl.Login(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return map[string]string{"token": token}, http.StatusOK, nil
	}))
	return r
}
