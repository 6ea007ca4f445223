package http

import (
	"net/http"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/utils"
	"github.com/MKhiriev/go-audio-vault/models"
)

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	principal, ok := utils.GetPrincipalFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	records, err := h.services.VaultService.List(ctx, principal)
	if err != nil {
		log.Err(err).Msg("unexpected error occurred during listing")
		utils.WriteJSON(w, models.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, records, http.StatusOK)
}

func (h *Handler) deleteFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	principal, ok := utils.GetPrincipalFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	objectID := r.URL.Query().Get("object_id")
	originalName := r.URL.Query().Get("original_name")
	if objectID == "" || originalName == "" {
		utils.WriteJSON(w, models.ErrorResponse{Error: "object_id and original_name are required"}, http.StatusBadRequest)
		return
	}

	resp, err := h.services.VaultService.Delete(ctx, principal, objectID, originalName)
	if err != nil {
		log.Err(err).Msg("unexpected error occurred during deletion")
		utils.WriteJSON(w, models.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError)
		return
	}

	// Deleting something already gone is still a 200; the body says so.
	utils.WriteJSON(w, resp, http.StatusOK)
}
