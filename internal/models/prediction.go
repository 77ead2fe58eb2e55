package models

// Prediction labels.
const (
	LabelAccident = "Accident"
	LabelNormal   = "Normal"
)

// PredictionResult is the outcome of classifying a single frame.
// IsAccident holds exactly when Confidence is above 0.5, and Label follows
// IsAccident.
type PredictionResult struct {
	IsAccident bool    `json:"isAccident"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}
