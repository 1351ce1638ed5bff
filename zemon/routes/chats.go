package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/middlewares"
	utypes "zemon/zemon/utils/types"
)

// ChatsRoutes serves the stored chat collection. Every route is owner-scoped.
func ChatsRoutes(ctrl *controllers.ChatsController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	r.Get("/", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		uid, err := userID(r)
		if err != nil {
			return nil, 0, err
		}
		chats, err := ctrl.List(r.Context(), uid)
		if err != nil {
			return nil, 0, err
		}
		return chats, http.StatusOK, nil
	}))

	r.Post("/", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		uid, err := userID(r)
		if err != nil {
			return nil, 0, err
		}
		var req utypes.CreateChatRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		chat, err := ctrl.Create(r.Context(), uid, req)
		if err != nil {
			return nil, 0, err
		}
		return chat, http.StatusCreated, nil
	}))

	r.Get("/{id}", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		uid, err := userID(r)
		if err != nil {
			return nil, 0, err
		}
		chat, err := ctrl.Get(r.Context(), uid, chi.URLParam(r, "id"))
		if err != nil {
			return nil, 0, err
		}
		return chat, http.StatusOK, nil
	}))

	r.Put("/{id}", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		uid, err := userID(r)
		if err != nil {
			return nil, 0, err
		}
		var req utypes.UpdateChatRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		chat, err := ctrl.Update(r.Context(), uid, chi.URLParam(r, "id"), req)
		if err != nil {
			return nil, 0, err
		}
		return chat, http.StatusOK, nil
	}))

	r.Delete("/{id}", handleJSON(cfg, func(r *http.Request) (any, int, error) {
		uid, err := userID(r)
		if err != nil {
			return nil, 0, err
		}
		if err := ctrl.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
			return nil, 0, err
		}
		return map[string]string{"message": "Chat deleted successfully"}, http.StatusOK, nil
	}))

	return r
}
