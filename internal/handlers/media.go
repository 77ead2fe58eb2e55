package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/middleware"
)

// UploadMediaHandler stores an uploaded file in the media store under the
// requesting user's namespace and returns its URL.
func UploadMediaHandler(store *media.LocalStore, maxUploadSize int64, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading upload failed")
			return
		}

		user := middleware.UserFrom(r.Context())
		name := time.Now().UTC().Format("20060102_150405") + filepath.Ext(header.Filename)

		url, err := store.Store(data, user.ID+"/"+name)
		switch {
		case errors.Is(err, media.ErrFileTooLarge), errors.Is(err, media.ErrTypeNotAllowed):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			log.Error("Storing media: %v", err)
			writeError(w, http.StatusInternalServerError, "storing file failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message":  "file uploaded",
			"url":      url,
			"filename": user.ID + "/" + name,
		})
	}
}

// DeleteMediaHandler removes a stored file owned by the requesting user.
func DeleteMediaHandler(store *media.LocalStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		path := chi.URLParam(r, "*")

		err := store.Delete(path, user.ID)
		switch {
		case errors.Is(err, media.ErrNotOwner):
			writeError(w, http.StatusForbidden, "not authorized to delete this file")
			return
		case err != nil:
			log.Error("Deleting media %s: %v", path, err)
			writeError(w, http.StatusInternalServerError, "deleting file failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
	}
}
