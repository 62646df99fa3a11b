// Package webapi exposes the widget-facing HTTP API.
package webapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchboard/internal/relay"
)

// StartOpts holds configuration for the widget API server.
type StartOpts struct {
	Relay           *relay.Service
	Port            int
	StaticDir       string // optional directory of widget assets
	PollIntervalSec int    // advertised to the widget via /api/config
	Out             io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Relay == nil {
		return fmt.Errorf("webapi: relay service is required")
	}
	if opts.Port <= 0 {
		opts.Port = 3000
	}

	router := NewRouter(opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Widget API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webapi: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all widget API routes.
func NewRouter(opts StartOpts) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/api/message", handleMessage(opts.Relay))
	router.GET("/api/messages/pending", handlePending(opts.Relay))
	router.POST("/api/messages/confirm", handleConfirm(opts.Relay))
	router.GET("/api/config", handleConfig(opts.PollIntervalSec))

	// Widget assets, when configured. Served as a fallback so the /api
	// routes keep priority.
	if opts.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(opts.StaticDir))))
	}

	return router
}

// messageRequest is the POST /api/message body.
type messageRequest struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	OpenlineCode string `json:"openlineCode"`
	URL          string `json:"url"`
}

// confirmRequest is the POST /api/messages/confirm body.
type confirmRequest struct {
	IDs []uint64 `json:"ids"`
}

func handleMessage(svc *relay.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req messageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		id, err := svc.RelayClientMessage(c.Request.Context(), req.Message, req.Type, req.OpenlineCode, req.URL)
		switch {
		case errors.Is(err, relay.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		case errors.Is(err, relay.ErrDeliveryFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"result": true, "messageId": id})
		}
	}
}

func handlePending(svc *relay.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pending []relay.PendingReply
		if session := c.Query("session"); session != "" {
			pending = svc.ListPendingSession(session)
		} else {
			pending = svc.ListPending()
		}
		if pending == nil {
			pending = []relay.PendingReply{}
		}
		c.JSON(http.StatusOK, gin.H{"messages": pending})
	}
}

func handleConfirm(svc *relay.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		svc.Acknowledge(req.IDs)
		c.JSON(http.StatusOK, gin.H{"result": true})
	}
}

func handleConfig(pollIntervalSec int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pollIntervalSec": pollIntervalSec})
	}
}
