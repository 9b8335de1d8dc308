package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/registry"
)

// PlateLookup resolves a license plate to vehicle data.
type PlateLookup interface {
	LookupPlate(ctx context.Context, plate string) (*registry.VehicleData, error)
}

// RegistryHandler proxies license plate lookups to the RDW registry.
type RegistryHandler struct {
	lookup PlateLookup
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(lookup PlateLookup) *RegistryHandler {
	return &RegistryHandler{lookup: lookup}
}

// Lookup handles GET /api/registry/lookup?plate=
func (h *RegistryHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plate := r.URL.Query().Get("plate")
	if plate == "" {
		http.Error(w, "Plate query parameter is required", http.StatusBadRequest)
		return
	}

	data, err := h.lookup.LookupPlate(r.Context(), plate)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidPlate):
			http.Error(w, "Invalid license plate", http.StatusBadRequest)
		case errors.Is(err, registry.ErrNotFound):
			http.Error(w, "Plate not registered", http.StatusNotFound)
		default:
			log.WithError(err).Error("Registry lookup failed")
			http.Error(w, "Registry lookup failed", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
