package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nanophoto/nanophoto/internal/analysis"
	"github.com/nanophoto/nanophoto/internal/settings"
)

type Handler struct {
	analysisService *analysis.Service
	settingsManager *settings.Manager
}

func New(analysisService *analysis.Service, settingsManager *settings.Manager) *Handler {
	return &Handler{
		analysisService: analysisService,
		settingsManager: settingsManager,
	}
}

// Routes registers every API endpoint on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/analyses", h.HandleAnalyses)
	mux.HandleFunc("/api/analyses/", h.HandleAnalysisDetail)
	mux.HandleFunc("/api/settings", h.HandleSettings)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

// Auth helpers
func (h *Handler) userOrError(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := userID(r)
	if id == "" {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
