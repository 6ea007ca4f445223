package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/service"
	"github.com/MKhiriev/go-audio-vault/internal/utils"
	"github.com/MKhiriev/go-audio-vault/models"
)

func (h *Handler) validatePassphrase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.ValidatePassphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSON(w, models.ErrorResponse{Error: "invalid JSON"}, http.StatusBadRequest)
		return
	}

	s, err := h.services.AuthService.ValidatePassphrase(ctx, req.Passphrase)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthFailure):
			// Deliberately generic; no hint whether the passphrase exists.
			writeUnauthorized(w)
			return
		default:
			log.Err(err).Msg("unexpected error occurred during passphrase validation")
			utils.WriteJSON(w, models.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError)
			return
		}
	}

	utils.WriteJSON(w, models.ValidatePassphraseResponse{Validated: true, Token: s.Token}, http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := utils.GetSessionTokenFromContext(ctx)
	if !ok {
		// auth middleware always sets the token; reaching here means the
		// route was wired without it.
		writeUnauthorized(w)
		return
	}

	h.services.AuthService.Logout(ctx, token)
	w.WriteHeader(http.StatusOK)
}
