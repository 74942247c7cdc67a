package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danmuck/tpkit/client"
	"github.com/danmuck/tpkit/internal/auth"
	"github.com/danmuck/tpkit/internal/config"
	"github.com/danmuck/tpkit/internal/observability"
)

const adminNode = "tpclient"

type clientSource interface {
	Load() *client.Client
}

type adminServer struct {
	srv *http.Server
}

func newAdminServer(cfg config.AdminConfig, source clientSource) *adminServer {
	return &adminServer{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newAdminRouter(cfg, source),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (a *adminServer) ListenAndServe() error {
	if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *adminServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = a.srv.Shutdown(ctx)
}

func newAdminRouter(cfg config.AdminConfig, source clientSource) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	startedAt := time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminRequests(adminNode, observability.InitLogger(adminNode, zerolog.DebugLevel)))
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": adminNode,
			"version": version,
		}
		cl := source.Load()
		if cl == nil {
			body["state"] = client.StateIdle.String()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["plugin_id"] = cl.PluginID()
		body["state"] = cl.State().String()
		body["paired"] = cl.Paired()
		if cl.State() != client.StateConnected {
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	})
	guarded := r.Group("/")
	if cfg.Token != "" {
		guarded.Use(requireToken(auth.StaticToken{Token: cfg.Token}))
	}
	guarded.GET("/states", func(c *gin.Context) {
		states := []client.CustomState{}
		if cl := source.Load(); cl != nil {
			states = append(states, cl.States()...)
		}
		c.JSON(http.StatusOK, gin.H{"count": len(states), "states": states})
	})
	guarded.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func requireToken(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.CheckHeader(v, c.GetHeader("Authorization")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}
