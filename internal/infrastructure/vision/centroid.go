package vision

import (
	"fmt"
	"math"
	"sort"

	"github.com/centbank/facebank/internal/core/ports"
)

// CentroidClassifier scores an embedding against one L2-normalized centroid
// per class and converts cosine similarities into a probability distribution
// with a softmax. It stands behind the opaque-classifier port; fields are
// exported for gob serialization.
type CentroidClassifier struct {
	Centroids [][]float32
	// Sharpness scales similarities before the softmax so that distributions
	// over near-identical centroids still separate.
	Sharpness float64
}

const defaultSharpness = 8.0

// PredictProba returns one probability per trained class, index-aligned with
// the class list the classifier was trained with. Probabilities sum to 1.
func (c *CentroidClassifier) PredictProba(embedding []float32) ([]float64, error) {
	if len(c.Centroids) == 0 {
		return nil, fmt.Errorf("classifier has no trained classes")
	}
	normalized := normalize(embedding)

	sharpness := c.Sharpness
	if sharpness <= 0 {
		sharpness = defaultSharpness
	}

	scores := make([]float64, len(c.Centroids))
	maxScore := math.Inf(-1)
	for i, centroid := range c.Centroids {
		scores[i] = sharpness * cosine(normalized, centroid)
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}

	// Softmax with the max subtracted for numeric stability.
	var sum float64
	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

// CentroidTrainer trains a CentroidClassifier from scratch over the full
// accumulated embedding set.
type CentroidTrainer struct{}

// Train groups embeddings by label, averages each group into a normalized
// centroid, and returns the classifier together with the sorted class list
// mapping output indexes to account ids.
func (CentroidTrainer) Train(embeddings [][]float32, labels []int) (ports.FaceClassifier, []int, error) {
	if len(embeddings) == 0 || len(embeddings) != len(labels) {
		return nil, nil, fmt.Errorf("train: %d embeddings for %d labels", len(embeddings), len(labels))
	}
	dim := len(embeddings[0])

	sums := make(map[int][]float64)
	counts := make(map[int]int)
	for i, embedding := range embeddings {
		if len(embedding) != dim {
			return nil, nil, fmt.Errorf("train: embedding %d has dimension %d, want %d", i, len(embedding), dim)
		}
		label := labels[i]
		if sums[label] == nil {
			sums[label] = make([]float64, dim)
		}
		for j, v := range embedding {
			sums[label][j] += float64(v)
		}
		counts[label]++
	}

	classes := make([]int, 0, len(sums))
	for label := range sums {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	centroids := make([][]float32, len(classes))
	for i, label := range classes {
		mean := make([]float32, dim)
		for j, v := range sums[label] {
			mean[j] = float32(v / float64(counts[label]))
		}
		centroids[i] = normalize(mean)
	}

	return &CentroidClassifier{Centroids: centroids, Sharpness: defaultSharpness}, classes, nil
}

func cosine(a, b []float32) float64 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	// Inputs are L2-normalized, so the dot product is the cosine.
	return dot
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
