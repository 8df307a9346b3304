package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pxy05/ownMi-websocket/internal/auth"
	"github.com/pxy05/ownMi-websocket/internal/config"
	"github.com/pxy05/ownMi-websocket/internal/focus"
	"github.com/pxy05/ownMi-websocket/internal/logger"
	"github.com/pxy05/ownMi-websocket/internal/ws"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	var store focus.Store
	if infra.DB != nil {
		store = focus.NewPGStore(infra.DB)
	} else {
		logger.Warn("no database configured, session records are held in memory", nil)
		store = focus.NewMemoryStore()
	}

	emitter := logger.NewEmitter(logger.EmitterOptions{
		PrintDate:   true,
		PrintUserID: true,
	})

	policy := focus.Policy{
		MinDuration:      cfg.MinSessionDuration,
		MaxDuration:      cfg.MaxSessionDuration,
		SuspiciousWindow: cfg.SuspiciousWindow,
	}

	engine := focus.NewEngine(store, emitter, policy)
	reconciler := focus.NewReconciler(store, emitter, policy.SuspiciousWindow)
	sessions := focus.NewService(engine, reconciler)

	verifier, err := setupVerifier(ctx, cfg, infra)
	if err != nil {
		return nil, nil, err
	}

	wsHandler := ws.NewHandler(sessions, verifier)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	wsHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		if infra.DB != nil {
			return infra.DB.Close()
		}
		return nil
	}, nil
}

func setupVerifier(ctx context.Context, cfg config.Config, infra *Infra) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case "oidc":
		return auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	case "redis":
		if infra.Redis == nil {
			return nil, errors.New("auth mode redis requires REDIS_ADDR")
		}
		return auth.NewRedisVerifier(infra.Redis.Client), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.AuthMode)
	}
}
