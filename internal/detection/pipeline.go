package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"roadwatch/internal/hub"
	"roadwatch/internal/logger"
	"roadwatch/internal/metrics"
	"roadwatch/internal/models"
)

// placeholderLocation is used when no positioning metadata accompanies an
// upload.
const placeholderLocation = "Detected via AI"

// Classifier turns a raw image buffer into a prediction.
type Classifier interface {
	Classify(raw []byte) (models.PredictionResult, error)
}

// IncidentStore is the persistence collaborator. The pipeline only inserts.
type IncidentStore interface {
	Insert(ctx context.Context, inc *models.Incident) (*models.Incident, error)
}

// Broadcaster fans an event out to all live sessions except the originator.
type Broadcaster interface {
	Broadcast(event hub.Event, origin *hub.Session) error
}

// MediaStore keeps a copy of the frame that triggered a positive detection.
type MediaStore interface {
	Store(data []byte, path string) (string, error)
}

// Pipeline orchestrates decode → preprocess → infer → threshold →
// persist + broadcast. No state survives across requests.
type Pipeline struct {
	classifier Classifier
	store      IncidentStore
	hub        Broadcaster
	media      MediaStore

	log     *logger.Logger
	metrics *metrics.Metrics

	// sem bounds concurrent inference so the CPU/GPU-heavy forward pass
	// cannot starve connection handling.
	sem          chan struct{}
	storeTimeout time.Duration
}

func NewPipeline(classifier Classifier, store IncidentStore, broadcaster Broadcaster, media MediaStore, log *logger.Logger, m *metrics.Metrics, workers int, storeTimeout time.Duration) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		classifier:   classifier,
		store:        store,
		hub:          broadcaster,
		media:        media,
		log:          log,
		metrics:      m,
		sem:          make(chan struct{}, workers),
		storeTimeout: storeTimeout,
	}
}

// HandleUpload classifies one uploaded frame on behalf of user. On a positive
// detection it creates an incident record exactly once and, only after the
// record is persisted, broadcasts it to all connected sessions. Persistence
// and broadcast failures are logged but never change the returned prediction;
// the caller always learns the detection outcome. Decode and inference
// failures end the request with no side effects.
func (p *Pipeline) HandleUpload(ctx context.Context, raw []byte, user *models.User) (models.PredictionResult, error) {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return models.PredictionResult{}, ctx.Err()
	}

	start := time.Now()
	result, err := p.classifier.Classify(raw)
	if err != nil {
		return models.PredictionResult{}, err
	}
	p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	p.metrics.PredictionsTotal.WithLabelValues(result.Label).Inc()

	if !result.IsAccident {
		return result, nil
	}

	// The detection happened; the side effects below must complete even if
	// the uploader has gone away, so they run on a detached context.
	p.recordIncident(raw, result, user)

	return result, nil
}

// recordIncident persists and then broadcasts a positive detection. Exactly
// one insert is attempted; the broadcast happens only after the insert
// committed, and neither step is retried.
func (p *Pipeline) recordIncident(raw []byte, result models.PredictionResult, user *models.User) {
	now := time.Now().UTC()
	inc := &models.Incident{
		ID:          uuid.NewString(),
		Location:    placeholderLocation,
		Description: fmt.Sprintf("AI-detected accident with %.1f%% confidence", result.Confidence*100),
		Severity:    models.SeverityHigh,
		Status:      models.StatusPending,
		UserID:      user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if p.media != nil {
		url, err := p.media.Store(raw, user.ID+"/"+inc.ID+".jpg")
		if err != nil {
			p.log.Warning("Storing frame for incident %s: %v", inc.ID, err)
		} else {
			inc.ImageURL = url
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.storeTimeout)
	defer cancel()

	persisted, err := p.store.Insert(ctx, inc)
	if err != nil {
		p.metrics.StoreFailures.Inc()
		p.log.Error("Persisting incident %s: %v", inc.ID, err)
		return
	}
	p.metrics.IncidentsCreated.Inc()
	p.log.Info("Incident %s created (confidence %.3f)", persisted.ID, result.Confidence)

	if err := p.hub.Broadcast(hub.Event{Type: hub.EventIncident, Payload: persisted}, nil); err != nil {
		p.metrics.BroadcastFailures.Inc()
		p.log.Error("Broadcasting incident %s: %v", persisted.ID, err)
	}
}
