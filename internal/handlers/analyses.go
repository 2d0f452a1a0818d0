package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nanophoto/nanophoto/internal/analysis"
	"github.com/nanophoto/nanophoto/internal/storage"
)

type analyzeRequest struct {
	Image       string   `json:"image"`
	Mode        string   `json:"mode"`
	Constraints []string `json:"constraints"`
}

type analyzeResponse struct {
	AnalysisID string `json:"analysisId"`
}

func (h *Handler) HandleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		userID, ok := h.userOrError(w, r)
		if !ok {
			return
		}
		summaries, err := h.analysisService.List(r.Context(), userID)
		if err != nil {
			h.writeError(w, "Failed to list analyses", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, summaries)
	case "POST":
		userID, ok := h.userOrError(w, r)
		if !ok {
			return
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := h.analysisService.Analyze(r.Context(), analysis.Request{
			UserID:      userID,
			Image:       req.Image,
			Mode:        req.Mode,
			Constraints: req.Constraints,
		})
		if err != nil {
			var rejection *analysis.RejectionError
			switch {
			case errors.As(err, &rejection):
				h.writeError(w, rejection.Reason, http.StatusUnprocessableEntity)
			case errors.Is(err, analysis.ErrInvalidInput):
				h.writeError(w, err.Error(), http.StatusBadRequest)
			default:
				h.writeError(w, "Analysis failed", http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, analyzeResponse{AnalysisID: id})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleAnalysisDetail(w http.ResponseWriter, r *http.Request) {
	analysisID := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	if analysisID == "" || strings.Contains(analysisID, "/") {
		h.writeError(w, "Analysis not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		record, err := h.analysisService.Get(r.Context(), analysisID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				h.writeError(w, "Analysis not found", http.StatusNotFound)
			} else {
				h.writeError(w, "Failed to load analysis", http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, record)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
