package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/middlewares"
)

type Controllers struct {
	Auth   *controllers.AuthController
	User   *controllers.UserController
	Chat   *controllers.ChatController
	Chats  *controllers.ChatsController
	Health *controllers.HealthController
}

// NewRouter mounts every route. Streaming routes stay outside the timeout group.
func NewRouter(cfg config.Config, c Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Mount("/auth", AuthRoutes(c.Auth, cfg))
		r.Mount("/users", UserRoutes(c.User, cfg))
		r.Mount("/chats", ChatsRoutes(c.Chats, cfg))
		r.Mount("/search", SearchRoutes(c.Chat, cfg))
		r.Mount("/health", HealthRoutes(c.Health))
	})
	r.Mount("/chat", ChatRoutes(c.Chat, cfg))

	return r
}
