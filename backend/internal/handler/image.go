package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/imagestore/shared/logger"
	"github.com/itchan-dev/imagestore/shared/utils"
	"github.com/itchan-dev/imagestore/shared/validation"
)

const (
	imageField = "image"
	ownerField = "id"
)

type uploadForm struct {
	OwnerId string `validate:"required"`
}

// UploadImage stores the multipart "image" part for the owner given in the "id" field
// and answers 201 with the new image id as the body.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := validation.ValidateAndParseMultipart(r, w, h.cfg.Public.MaxUploadSize); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := uploadForm{OwnerId: r.FormValue(ownerField)}
	if err := utils.Validate(&form); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	ownerId, err := utils.ParseUUID(form.OwnerId, "owner id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	file, header, contentType, err := validation.FormFile(r, imageField)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Public.MaxUploadSize {
		utils.WriteErrorAndStatusCode(w, fmt.Errorf("%w: limit is %.0f MB", validation.ErrPayloadTooLarge, validation.FormatSizeMB(h.cfg.Public.MaxUploadSize)))
		return
	}

	id, err := h.image.UploadForPlace(r.Context(), file, contentType, ownerId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeText(w, http.StatusCreated, id)
}

// DownloadImage sends the stored file as an attachment, or 204 when the id is unknown.
func (h *Handler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	file, err := h.image.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if file == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	defer file.Content.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file.Content); err != nil {
		logger.Log.Warn("failed to send image", "name", file.Name, "error", err)
	}
}

// RemoveImage deletes the image. Unknown ids succeed as well.
func (h *Handler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	if err := h.image.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
