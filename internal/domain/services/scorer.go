package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"phishscan/pkg/logger"
)

//go:embed artifacts/model.json
var defaultArtifactJSON []byte

// ModelArtifact is the frozen classifier bundle produced at training time.
// FeatureNames pins the exact extraction order; the scorer refuses to load
// an artifact whose internal shapes disagree with it.
type ModelArtifact struct {
	Version      string             `json:"version"`
	FeatureNames []string           `json:"feature_names"`
	Imputer      *ImputerArtifact   `json:"imputer,omitempty"`
	Scaler       *ScalerArtifact    `json:"scaler,omitempty"`
	Model        ClassifierArtifact `json:"model"`
}

// ImputerArtifact replaces missing values with the training medians
type ImputerArtifact struct {
	Statistics []float64 `json:"statistics"`
}

// ScalerArtifact standardizes features to the training distribution
type ScalerArtifact struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ClassifierArtifact is the classifier itself. Type "logistic" uses
// Coefficients/Intercept; type "forest" averages the leaf probabilities of
// Trees.
type ClassifierArtifact struct {
	Type         string      `json:"type"`
	Coefficients []float64   `json:"coefficients,omitempty"`
	Intercept    float64     `json:"intercept,omitempty"`
	Trees        []*TreeNode `json:"trees,omitempty"`
}

// TreeNode is one node of a decision tree. Leaves carry the phishing
// probability in Value.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Value     float64   `json:"value,omitempty"`
}

// LoadArtifact reads a model artifact from disk, or the embedded default
// when path is empty.
func LoadArtifact(path string) (*ModelArtifact, error) {
	data := defaultArtifactJSON
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read model artifact: %w", err)
		}
	}

	var artifact ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	return &artifact, nil
}

// ModelScorer maps a feature vector to a phishing probability using the
// frozen artifact. It is immutable after construction and safe for
// concurrent use.
type ModelScorer struct {
	artifact *ModelArtifact
	arity    int
	logger   *logger.Logger
}

// NewModelScorer validates the artifact shapes and builds a scorer. Any
// arity disagreement is fatal: the caller must refuse to start.
func NewModelScorer(artifact *ModelArtifact, log *logger.Logger) (*ModelScorer, error) {
	n := len(artifact.FeatureNames)
	if n == 0 {
		return nil, fmt.Errorf("%w: artifact has no feature names", ErrScoring)
	}

	if artifact.Imputer != nil && len(artifact.Imputer.Statistics) != n {
		return nil, fmt.Errorf("%w: imputer arity %d does not match %d features",
			ErrScoring, len(artifact.Imputer.Statistics), n)
	}
	if artifact.Scaler != nil {
		if len(artifact.Scaler.Mean) != n || len(artifact.Scaler.Scale) != n {
			return nil, fmt.Errorf("%w: scaler arity does not match %d features", ErrScoring, n)
		}
	}

	switch artifact.Model.Type {
	case "logistic":
		if len(artifact.Model.Coefficients) != n {
			return nil, fmt.Errorf("%w: classifier arity %d does not match %d features",
				ErrScoring, len(artifact.Model.Coefficients), n)
		}
	case "forest":
		if len(artifact.Model.Trees) == 0 {
			return nil, fmt.Errorf("%w: forest artifact has no trees", ErrScoring)
		}
		for i, tree := range artifact.Model.Trees {
			if err := validateTree(tree, n); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", ErrScoring, i, err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown classifier type %q", ErrScoring, artifact.Model.Type)
	}

	log.WithComponent("scorer").Info().
		Str("model_version", artifact.Version).
		Str("model_type", artifact.Model.Type).
		Int("features", n).
		Msg("model artifact loaded")

	return &ModelScorer{
		artifact: artifact,
		arity:    n,
		logger:   log.WithComponent("scorer"),
	}, nil
}

// Arity returns the expected feature vector length
func (s *ModelScorer) Arity() int {
	return s.arity
}

// FeatureNames returns the ordered schema pinned by the artifact
func (s *ModelScorer) FeatureNames() []string {
	return s.artifact.FeatureNames
}

// Score maps a feature vector to (phishing, legitimate) probabilities
// summing to 1. A wrong-length vector is a ScoringError.
func (s *ModelScorer) Score(features []float64) (phishing, legitimate float64, err error) {
	if len(features) != s.arity {
		return 0, 0, fmt.Errorf("%w: got %d features, expected %d", ErrScoring, len(features), s.arity)
	}

	vec := make([]float64, s.arity)
	copy(vec, features)

	if s.artifact.Imputer != nil {
		for i, v := range vec {
			if math.IsNaN(v) {
				vec[i] = s.artifact.Imputer.Statistics[i]
			}
		}
	}

	if s.artifact.Scaler != nil {
		for i := range vec {
			scale := s.artifact.Scaler.Scale[i]
			if scale == 0 {
				scale = 1
			}
			vec[i] = (vec[i] - s.artifact.Scaler.Mean[i]) / scale
		}
	}

	var p float64
	switch s.artifact.Model.Type {
	case "logistic":
		z := s.artifact.Model.Intercept
		for i, v := range vec {
			z += s.artifact.Model.Coefficients[i] * v
		}
		p = sigmoid(z)
	case "forest":
		sum := 0.0
		for _, tree := range s.artifact.Model.Trees {
			sum += predictTree(tree, vec)
		}
		p = sum / float64(len(s.artifact.Model.Trees))
	}

	p = clamp01(p)
	return p, 1 - p, nil
}

func validateTree(node *TreeNode, arity int) error {
	if node == nil {
		return fmt.Errorf("nil node")
	}
	if node.Leaf {
		return nil
	}
	if node.Feature < 0 || node.Feature >= arity {
		return fmt.Errorf("split on feature %d out of range", node.Feature)
	}
	if err := validateTree(node.Left, arity); err != nil {
		return err
	}
	return validateTree(node.Right, arity)
}

func predictTree(node *TreeNode, vec []float64) float64 {
	for !node.Leaf {
		if vec[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
