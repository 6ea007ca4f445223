package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/service"
	"github.com/MKhiriev/go-audio-vault/internal/utils"
	"github.com/MKhiriev/go-audio-vault/models"
)

// multipartMemoryLimit is how much of the form may stay in RAM before parts
// spill to temp files. The file part itself is far larger than this; the
// standard library spools it to disk.
const multipartMemoryLimit = 32 << 20

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	principal, ok := utils.GetPrincipalFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.WriteJSON(w, models.ErrorResponse{Error: "upload too large"}, http.StatusRequestEntityTooLarge)
			return
		}
		log.Err(err).Msg("multipart form rejected")
		utils.WriteJSON(w, models.ErrorResponse{Error: "invalid multipart form"}, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	email := r.FormValue("email")
	passphrase := r.FormValue("passphrase")
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteJSON(w, models.ErrorResponse{Error: "missing file field"}, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if email == "" || passphrase == "" || header.Filename == "" {
		utils.WriteJSON(w, models.ErrorResponse{Error: "missing required fields"}, http.StatusBadRequest)
		return
	}

	resp, err := h.services.IngestService.Upload(ctx, service.UploadInput{
		Principal:    principal,
		Email:        email,
		Passphrase:   passphrase,
		OriginalName: header.Filename,
		Body:         file,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthFailure):
			writeUnauthorized(w)
			return
		case errors.Is(err, service.ErrVerificationFailed):
			utils.WriteJSON(w, models.ErrorResponse{Error: "upload could not be verified"}, http.StatusBadRequest)
			return
		case errors.Is(err, service.ErrInvalidInput):
			utils.WriteJSON(w, models.ErrorResponse{Error: "missing required fields"}, http.StatusBadRequest)
			return
		default:
			log.Err(err).Msg("unexpected error occurred during ingest")
			utils.WriteJSON(w, models.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError)
			return
		}
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}
