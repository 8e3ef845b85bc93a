package bot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/keepmind9/villabot/internal/logger"
	"github.com/keepmind9/villabot/pkg/constants"
)

// Server is the HTTP boundary of the dispatcher: one POST route per
// registered bot's callback path. It owns nothing but transport;
// authentication and dispatch decisions live in the Dispatcher.
type Server struct {
	httpServer *http.Server
	dispatcher *Dispatcher
}

// NewServer builds a webhook server for every identity currently in
// the registry. Register all bots before constructing the server.
func NewServer(addr string, registry *Registry, dispatcher *Dispatcher) *Server {
	s := &Server{dispatcher: dispatcher}

	mux := http.NewServeMux()
	for _, identity := range registry.Identities() {
		botID := identity.BotID
		mux.HandleFunc(identity.CallbackPath, func(w http.ResponseWriter, r *http.Request) {
			s.handleWebhook(botID, w, r)
		})
		logger.WithField("path", identity.CallbackPath).Info("webhook-route-registered")
	}

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) ListenAndServe() error {
	logger.WithField("address", s.httpServer.Addr).Info("webhook-server-listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, then waits for in-flight
// background dispatches to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.dispatcher.Wait()
	logger.Info("webhook-server-stopped")
	return err
}

// handleWebhook adapts one HTTP request into a dispatcher call.
func (s *Server) handleWebhook(botID string, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxWebhookBodySize))
	if err != nil {
		logger.WithField("error", err).Warn("webhook-body-read-failed")
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	outcome := s.dispatcher.HandleRequest(botID, headers, body)
	writeOutcome(w, outcome)
}

func writeOutcome(w http.ResponseWriter, outcome Outcome) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(outcome.Status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"retcode": outcome.Retcode,
		"message": outcome.Message,
	})
}
