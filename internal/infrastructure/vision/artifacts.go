package vision

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/centbank/facebank/internal/core/ports"
)

const (
	classifierFile = "recognizer.gob"
	classesFile    = "classes.gob"
)

// ArtifactStore persists the trained classifier and its class label mapping
// side by side in a model directory. The two files are written via tmp +
// rename and are only ever used together: Load refuses to return a
// classifier without its label mapping or vice versa.
type ArtifactStore struct {
	dir string
}

func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

func (s *ArtifactStore) Save(classifier ports.FaceClassifier, classes []int) error {
	concrete, ok := classifier.(*CentroidClassifier)
	if !ok {
		return fmt.Errorf("artifact store: unsupported classifier type %T", classifier)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := writeGob(filepath.Join(s.dir, classifierFile), concrete); err != nil {
		return fmt.Errorf("save classifier: %w", err)
	}
	if err := writeGob(filepath.Join(s.dir, classesFile), classes); err != nil {
		return fmt.Errorf("save class mapping: %w", err)
	}
	return nil
}

func (s *ArtifactStore) Load() (ports.FaceClassifier, []int, error) {
	var classifier CentroidClassifier
	if err := readGob(filepath.Join(s.dir, classifierFile), &classifier); err != nil {
		return nil, nil, fmt.Errorf("load classifier: %w", err)
	}
	var classes []int
	if err := readGob(filepath.Join(s.dir, classesFile), &classes); err != nil {
		return nil, nil, fmt.Errorf("load class mapping: %w", err)
	}
	if len(classifier.Centroids) != len(classes) {
		return nil, nil, fmt.Errorf("artifact store: %d centroids for %d classes", len(classifier.Centroids), len(classes))
	}
	return &classifier, classes, nil
}

func writeGob(path string, v any) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}
