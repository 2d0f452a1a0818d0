package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nanophoto/nanophoto/internal/settings"
)

func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userOrError(w, r)
	if !ok {
		return
	}
	store, err := h.settingsManager.For(userID)
	if err != nil {
		h.writeError(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, store.Get())
	case "PUT":
		var next settings.Settings
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.Update(next); err != nil {
			h.writeError(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, store.Get())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
