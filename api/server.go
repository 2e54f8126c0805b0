package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NethermindEth/basesociety/api/handlers"
	"github.com/NethermindEth/basesociety/communication"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with logging, metrics and recovery.
func NewRouter(h *handlers.Handler, hub *communication.WebSocketManager, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Metrics(), RequestLogger(logger), gin.Recovery())
	SetupRoutes(router, h, hub, logger)
	return router
}

// Serve runs the HTTP server on addr until ctx is done, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, router http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("API server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info().Msg("Shutting down API server")
	return srv.Shutdown(shutdownCtx)
}
