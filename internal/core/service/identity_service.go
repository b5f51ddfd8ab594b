package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

const (
	// DefaultDetectionConfidence is the detector-confidence floor below which
	// a detection is discarded.
	DefaultDetectionConfidence = 0.20
	// DefaultMatchThreshold is the calibrated probability a frame's best
	// candidate must reach to be accepted as a match.
	DefaultMatchThreshold = 0.15

	// minCropPixels is the minimum width and height of a usable face crop.
	minCropPixels = 20
	// minEnrollSamples is the minimum number of usable images per enrollment.
	minEnrollSamples = 3
)

// trainedModel pairs a classifier with the class label mapping it was
// trained with. The two are always swapped together.
type trainedModel struct {
	classifier ports.FaceClassifier
	classes    []int
}

// IdentityService turns per-frame detection, embedding, and classification
// output into a single ranked decision, and retrains the classifier on
// enrollment. The live model is held behind an atomic pointer so concurrent
// recognition never observes a half-updated classifier.
type IdentityService struct {
	detector ports.FaceDetector
	embedder ports.FaceEmbedder
	trainer  ports.ClassifierTrainer
	models   ports.ModelStore
	samples  ports.SampleStore
	logger   zerolog.Logger

	detectionConfidence float64
	matchThreshold      float64

	model   atomic.Pointer[trainedModel]
	trainMu sync.Mutex
}

// IdentityConfig carries the tunable thresholds. Zero values fall back to
// the defaults.
type IdentityConfig struct {
	DetectionConfidence float64
	MatchThreshold      float64
}

func NewIdentityService(
	detector ports.FaceDetector,
	embedder ports.FaceEmbedder,
	trainer ports.ClassifierTrainer,
	models ports.ModelStore,
	samples ports.SampleStore,
	cfg IdentityConfig,
	logger zerolog.Logger,
) *IdentityService {
	if cfg.DetectionConfidence <= 0 {
		cfg.DetectionConfidence = DefaultDetectionConfidence
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultMatchThreshold
	}
	s := &IdentityService{
		detector:            detector,
		embedder:            embedder,
		trainer:             trainer,
		models:              models,
		samples:             samples,
		logger:              logger,
		detectionConfidence: cfg.DetectionConfidence,
		matchThreshold:      cfg.MatchThreshold,
	}
	// Best effort: pick up previously trained artifacts at startup.
	if model, classes, err := models.Load(); err == nil {
		s.model.Store(&trainedModel{classifier: model, classes: classes})
		logger.Info().Ints("classes", classes).Msg("recognition model loaded")
	}
	return s
}

// Recognize runs the full per-frame pipeline: detect, filter, embed,
// classify, and keep the single best candidate. The candidate is accepted
// only when its probability reaches the match threshold.
func (s *IdentityService) Recognize(ctx context.Context, image []byte) (*domain.IdentityMatch, error) {
	detections, err := s.detector.Detect(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	usable := s.filterDetections(detections)
	if len(usable) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	model := s.currentModel()
	if model == nil {
		return nil, domain.ErrModelsUnavailable
	}

	var best *domain.IdentityCandidate
	for _, det := range usable {
		embedding, err := s.embedder.Embed(ctx, det.Crop)
		if err != nil {
			s.logger.Warn().Err(err).Msg("embedding failed, skipping detection")
			continue
		}
		probs, err := model.classifier.PredictProba(embedding)
		if err != nil {
			s.logger.Warn().Err(err).Msg("classification failed, skipping detection")
			continue
		}
		idx, prob := argMax(probs)
		if idx < 0 || idx >= len(model.classes) {
			continue
		}
		// Strict comparison keeps the first-seen candidate on ties.
		if best == nil || prob > best.Probability {
			best = &domain.IdentityCandidate{AccountID: model.classes[idx], Probability: prob}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no detection produced a candidate", domain.ErrNoMatch)
	}
	if best.Probability < s.matchThreshold {
		s.logger.Info().Float64("best_probability", best.Probability).Msg("frame below match threshold")
		return nil, fmt.Errorf("%w: best probability %.4f", domain.ErrNoMatch, best.Probability)
	}

	s.logger.Info().
		Int("account_id", best.AccountID).
		Float64("probability", best.Probability).
		Msg("face matched")
	return &domain.IdentityMatch{AccountID: best.AccountID, Probability: best.Probability}, nil
}

// Enroll validates the supplied images, stores the usable crops, and
// retrains the classifier from scratch over the full accumulated set.
func (s *IdentityService) Enroll(ctx context.Context, accountID int, images [][]byte) error {
	var crops [][]byte
	for i, image := range images {
		detections, err := s.detector.Detect(ctx, image)
		if err != nil {
			s.logger.Warn().Err(err).Int("image", i).Msg("detection failed, skipping image")
			continue
		}
		usable := s.filterDetections(detections)
		if len(usable) == 0 {
			continue
		}
		crops = append(crops, largestDetection(usable).Crop)
	}
	if len(crops) < minEnrollSamples {
		return fmt.Errorf("%w: %d of %d images usable, need %d",
			domain.ErrInsufficientSamples, len(crops), len(images), minEnrollSamples)
	}

	if err := s.samples.Add(accountID, crops); err != nil {
		return fmt.Errorf("store face samples: %w", err)
	}

	return s.retrain(ctx, accountID)
}

// retrain re-embeds every accumulated crop, trains a fresh classifier, saves
// the artifacts, and swaps the live model pointer. Retrains are serialized.
func (s *IdentityService) retrain(ctx context.Context, triggerAccountID int) error {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	started := time.Now()
	all, err := s.samples.All()
	if err != nil {
		return fmt.Errorf("load face samples: %w", err)
	}

	embeddings := make([][]float32, 0, len(all))
	labels := make([]int, 0, len(all))
	for _, sample := range all {
		embedding, err := s.embedder.Embed(ctx, sample.Crop)
		if err != nil {
			s.logger.Warn().Err(err).Int("account_id", sample.AccountID).Msg("embedding failed during training")
			continue
		}
		embeddings = append(embeddings, embedding)
		labels = append(labels, sample.AccountID)
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("%w: no embeddable samples", domain.ErrInsufficientSamples)
	}

	classifier, classes, err := s.trainer.Train(embeddings, labels)
	if err != nil {
		return fmt.Errorf("train classifier: %w", err)
	}
	if err := s.models.Save(classifier, classes); err != nil {
		return fmt.Errorf("persist recognition model: %w", err)
	}

	s.model.Store(&trainedModel{classifier: classifier, classes: classes})

	s.logger.Info().
		Int("trigger_account", triggerAccountID).
		Int("samples", len(embeddings)).
		Ints("classes", classes).
		Dur("took", time.Since(started)).
		Msg("recognition model retrained")
	return nil
}

// currentModel returns the live model, attempting one lazy reload from the
// artifact store when none is in memory.
func (s *IdentityService) currentModel() *trainedModel {
	if m := s.model.Load(); m != nil {
		return m
	}
	classifier, classes, err := s.models.Load()
	if err != nil {
		return nil
	}
	m := &trainedModel{classifier: classifier, classes: classes}
	s.model.Store(m)
	s.logger.Info().Ints("classes", classes).Msg("recognition model lazily reloaded")
	return m
}

// filterDetections drops detections below the confidence floor or smaller
// than the minimum usable crop size.
func (s *IdentityService) filterDetections(detections []ports.Detection) []ports.Detection {
	usable := detections[:0:0]
	for _, det := range detections {
		if det.Confidence < s.detectionConfidence {
			continue
		}
		if det.Width < minCropPixels || det.Height < minCropPixels {
			continue
		}
		usable = append(usable, det)
	}
	return usable
}

// largestDetection picks the detection with the largest pixel area.
func largestDetection(detections []ports.Detection) ports.Detection {
	best := detections[0]
	for _, det := range detections[1:] {
		if det.Width*det.Height > best.Width*best.Height {
			best = det
		}
	}
	return best
}

// argMax returns the index and value of the largest probability, keeping the
// first index on ties.
func argMax(probs []float64) (int, float64) {
	idx, best := -1, 0.0
	for i, p := range probs {
		if idx == -1 || p > best {
			idx, best = i, p
		}
	}
	return idx, best
}
