package vision

import "roadwatch/internal/models"

// Detector couples the frame preprocessor with the loaded engine into the
// image-to-decision path: decode, preprocess, infer.
type Detector struct {
	engine Engine
}

func NewDetector(engine Engine) *Detector {
	return &Detector{engine: engine}
}

// Classify turns a raw image buffer into a prediction. It returns ErrDecode
// for buffers that are not images and ErrInference when the forward pass
// fails; neither leaves any state behind.
func (d *Detector) Classify(raw []byte) (models.PredictionResult, error) {
	t, err := Preprocess(raw)
	if err != nil {
		return models.PredictionResult{}, err
	}
	return d.engine.Predict(t)
}
