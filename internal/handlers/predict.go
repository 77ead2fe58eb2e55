package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"roadwatch/internal/logger"
	"roadwatch/internal/middleware"
	"roadwatch/internal/models"
	"roadwatch/internal/vision"
)

// Predictor classifies an uploaded frame and performs the incident side
// effects on positive detections.
type Predictor interface {
	HandleUpload(ctx context.Context, raw []byte, user *models.User) (models.PredictionResult, error)
}

// PredictHandler accepts a multipart image upload, runs it through the
// detection pipeline and returns the prediction. Undecodable uploads are a
// client error; a failed forward pass is a server error. Side-effect
// failures after a successful detection do not change the response.
func PredictHandler(pipeline Predictor, maxUploadSize int64, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing image file")
			return
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading upload failed")
			return
		}

		user := middleware.UserFrom(r.Context())
		result, err := pipeline.HandleUpload(r.Context(), raw, user)
		switch {
		case errors.Is(err, vision.ErrDecode):
			writeError(w, http.StatusBadRequest, "invalid image file")
			return
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away before inference started.
			return
		case err != nil:
			log.Error("Prediction failed: %v", err)
			writeError(w, http.StatusInternalServerError, "prediction failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
