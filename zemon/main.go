package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/routes"
	"zemon/zemon/services/assistant"
	"zemon/zemon/services/llm"
	"zemon/zemon/services/search"
	"zemon/zemon/services/transcript"
	"zemon/zemon/sources"
	"zemon/zemon/sources/cache"
	"zemon/zemon/sources/mongo"
	"zemon/zemon/sources/psql"
	"zemon/zemon/sources/psql/dao"
	"zemon/zemon/sources/storage"
	"zemon/zemon/utils/logging"
)

type stores struct {
	users sources.UserStore
	chats sources.ChatStore
	ping  controllers.Check
	close func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case "mongo":
		db, err := mongo.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			users: mongo.NewUserDAO(db.DB),
			chats: mongo.NewChatDAO(db.DB),
			ping:  db.Ping,
			close: db.Close,
		}, nil
	default:
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			users: dao.NewUserDAO(db.DB),
			chats: dao.NewChatDAO(db.DB),
			ping:  db.Ping,
			close: db.Close,
		}, nil
	}
}

func newLLMClient(cfg config.Config) llm.Client {
	if cfg.LLMProvider == "ollama" {
		return llm.NewOllamaClient(cfg.LLMBaseURL)
	}
	return llm.NewGPTClient(cfg.LLMBaseURL, cfg.LLMAPIKey)
}

func newSearchProvider(ctx context.Context, cfg config.Config) (search.Provider, func(), error) {
	var p search.Provider = search.NewSerpAPI(cfg.SearchAPIKey)
	if cfg.SearchProvider == "duckduckgo" {
		p = search.NewDuckDuckGo()
	}
	switch cfg.SearchCache {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return search.NewCached(p, c), func() { c.Close() }, nil
	case "minio":
		c, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return search.NewCached(p, c), func() {}, nil
	}
	return p, func() {}, nil
}

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		logging.ErrorLogger.Error("prompt templates", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := openStores(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer st.close()

	provider, closeCache, err := newSearchProvider(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("search cache connection error", zap.Error(err))
		os.Exit(1)
	}
	defer closeCache()

	persister := transcript.NewPersister(st.chats)
	a := assistant.New(cfg, prompts, newLLMClient(cfg), provider, persister)

	health := controllers.NewHealthController()
	health.AddCheck("store", st.ping)

	handler := routes.NewRouter(cfg, routes.Controllers{
		Auth:   controllers.NewAuthController(st.users, cfg),
		User:   controllers.NewUserController(st.users),
		Chat:   controllers.NewChatController(a),
		Chats:  controllers.NewChatsController(persister),
		Health: health,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening",
			zap.String("addr", cfg.ServerAddr),
			zap.String("llm", cfg.LLMProvider),
			zap.String("search", cfg.SearchProvider),
			zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
