package api

import (
	"net/http"

	"github.com/seenimoa/marketradar/internal/config"
)

const redacted = "[redacted]"

// handleGetConfig returns the running configuration with credentials
// replaced by a placeholder.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    redactConfig(s.cfg),
	})
}

// handleGetConfigKeys returns the status of all sensitive API keys.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// redactConfig returns a copy of cfg that is safe to expose.
func redactConfig(cfg *config.Config) config.Config {
	out := *cfg
	for _, field := range []*string{
		&out.LLM.AnthropicKey,
		&out.LLM.OpenAIKey,
		&out.Sources.PolygonKey,
		&out.Notify.WebhookURL,
	} {
		if *field != "" {
			*field = redacted
		}
	}
	return out
}
