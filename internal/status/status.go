// Package status serves the local HTTP surface exposing channel health and
// the synchronized state.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/connsync/internal/connection"
	"github.com/rickgao/connsync/internal/model"
	"github.com/rickgao/connsync/internal/session"
	"github.com/rickgao/connsync/internal/version"
)

// Source provides the data served. *session.Session satisfies it.
type Source interface {
	State() connection.State
	Stats() session.Stats
	View() model.View
}

// Health is the /health response body.
type Health struct {
	Status  string           `json:"status"` // healthy, degraded or unhealthy
	State   connection.State `json:"state"`
	Version string           `json:"version"`
	Stats   session.Stats    `json:"stats"`
}

// NewHandler creates the HTTP handler.
//
//	GET /health         channel state and statistics, 503 unless OPEN
//	GET /state          the full read model
//	GET /notifications  notifications, newest first
func NewHandler(src Source, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		st := src.State()
		health := Health{
			Status:  healthStatus(st),
			State:   st,
			Version: version.String(),
			Stats:   src.Stats(),
		}

		code := http.StatusOK
		if st != connection.StateOpen {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, health, logger)
	})

	mux.HandleFunc("GET /state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.View(), logger)
	})

	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.View().Notifications, logger)
	})

	return mux
}

// Serve runs the handler on port until ctx is cancelled.
func Serve(ctx context.Context, port int, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting status server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	logger.Info("status server stopped")
	return nil
}

func healthStatus(st connection.State) string {
	switch st {
	case connection.StateOpen:
		return "healthy"
	case connection.StateConnecting, connection.StateReconnecting:
		return "degraded"
	default:
		return "unhealthy"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}
