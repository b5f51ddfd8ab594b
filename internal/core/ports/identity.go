package ports

import (
	"context"

	"github.com/centbank/facebank/internal/core/domain"
)

// Detection is one face found by the external detector: the cropped face
// pixels plus the detector's own confidence and the crop size in pixels.
type Detection struct {
	Crop       []byte
	Confidence float64
	Width      int
	Height     int
}

// FaceDetector is the opaque neural face detector: pixel buffer in, zero or
// more detections out.
type FaceDetector interface {
	Detect(ctx context.Context, image []byte) ([]Detection, error)
}

// FaceEmbedder turns a cropped face into a fixed-length embedding vector.
type FaceEmbedder interface {
	Embed(ctx context.Context, crop []byte) ([]float32, error)
}

// FaceClassifier yields a probability distribution over trained classes for
// one embedding. The returned slice is index-aligned with the class list the
// classifier was trained with.
type FaceClassifier interface {
	PredictProba(embedding []float32) ([]float64, error)
}

// ClassifierTrainer builds a probabilistic classifier from scratch over the
// full accumulated embedding set. The returned classes slice maps classifier
// output indexes back to account ids.
type ClassifierTrainer interface {
	Train(embeddings [][]float32, labels []int) (FaceClassifier, []int, error)
}

// ModelStore persists the trained classifier together with its class label
// mapping. Load returns both or neither.
type ModelStore interface {
	Save(classifier FaceClassifier, classes []int) error
	Load() (FaceClassifier, []int, error)
}

// FaceSample is one stored face crop for an enrolled account.
type FaceSample struct {
	AccountID int
	Crop      []byte
}

// SampleStore accumulates face crops across enrollments. All returns the
// full set used when retraining from scratch.
type SampleStore interface {
	Add(accountID int, crops [][]byte) error
	All() ([]FaceSample, error)
}

// IdentityService collapses per-frame detection output into one accept or
// reject decision, and handles enrollment-time training ingestion.
type IdentityService interface {
	// Recognize returns the frame's best candidate when its probability
	// clears the match threshold. Failure modes: domain.ErrNoFaceDetected,
	// domain.ErrModelsUnavailable, domain.ErrNoMatch.
	Recognize(ctx context.Context, image []byte) (*domain.IdentityMatch, error)
	// Enroll ingests training images for an account and retrains the
	// classifier over the full accumulated sample set. Fails with
	// domain.ErrInsufficientSamples when fewer than the minimum number of
	// images contain a usable face.
	Enroll(ctx context.Context, accountID int, images [][]byte) error
}
