package vision

import (
	"errors"
	"fmt"
	"os"

	"roadwatch/internal/config"
	"roadwatch/internal/logger"
	"roadwatch/internal/models"
)

// ErrInference reports that the classifier's forward pass could not complete.
// Engine state is immutable after load, so a failed pass leaves nothing to
// roll back.
var ErrInference = errors.New("vision: inference failed")

// accidentThreshold is the decision boundary on the classifier's confidence
// output.
const accidentThreshold = 0.5

// Engine produces a confidence score from a preprocessed tensor. The loaded
// weights are immutable, so implementations are safe for concurrent Predict
// calls; any call serialization a backend runtime needs is handled internally.
type Engine interface {
	Predict(t *Tensor) (models.PredictionResult, error)
	Device() string
	Close() error
}

// Load constructs the process-wide engine instance. If a trained weight
// artifact exists at the configured path it is served through ONNX Runtime;
// otherwise the fixed default architecture is instantiated untrained.
func Load(cfg *config.Config, log *logger.Logger) (Engine, error) {
	if _, err := os.Stat(cfg.ModelPath); err == nil {
		eng, err := newONNXEngine(cfg.ModelPath, cfg.OnnxLibPath)
		if err != nil {
			return nil, fmt.Errorf("vision: loading model %s: %w", cfg.ModelPath, err)
		}
		log.Info("Classifier loaded from %s on %s", cfg.ModelPath, eng.Device())
		return eng, nil
	}

	log.Warning("No trained model found at %s, using default untrained network", cfg.ModelPath)
	return newNativeEngine(), nil
}

// resultFrom converts a raw confidence score into a PredictionResult,
// clamping into [0,1].
func resultFrom(confidence float64) models.PredictionResult {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	isAccident := confidence > accidentThreshold
	label := models.LabelNormal
	if isAccident {
		label = models.LabelAccident
	}
	return models.PredictionResult{
		IsAccident: isAccident,
		Confidence: confidence,
		Label:      label,
	}
}
