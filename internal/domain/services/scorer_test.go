package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishscan/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func logisticArtifact() *ModelArtifact {
	return &ModelArtifact{
		Version:      "test",
		FeatureNames: []string{"a", "b"},
		Imputer:      &ImputerArtifact{Statistics: []float64{1, 2}},
		Scaler:       &ScalerArtifact{Mean: []float64{0, 0}, Scale: []float64{1, 1}},
		Model: ClassifierArtifact{
			Type:         "logistic",
			Coefficients: []float64{1, -1},
			Intercept:    0,
		},
	}
}

func TestLoadArtifact_EmbeddedDefault(t *testing.T) {
	artifact, err := LoadArtifact("")
	require.NoError(t, err)

	assert.NotEmpty(t, artifact.Version)
	assert.NotEmpty(t, artifact.FeatureNames)

	scorer, err := NewModelScorer(artifact, testLogger())
	require.NoError(t, err)
	assert.Equal(t, len(artifact.FeatureNames), scorer.Arity())
}

func TestLoadArtifact_MissingFile(t *testing.T) {
	_, err := LoadArtifact("/nonexistent/model.json")
	assert.Error(t, err)
}

func TestNewModelScorer_ArityMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelArtifact)
	}{
		{"no feature names", func(a *ModelArtifact) { a.FeatureNames = nil }},
		{"imputer mismatch", func(a *ModelArtifact) { a.Imputer.Statistics = []float64{1} }},
		{"scaler mismatch", func(a *ModelArtifact) { a.Scaler.Mean = []float64{0} }},
		{"coefficient mismatch", func(a *ModelArtifact) { a.Model.Coefficients = []float64{1} }},
		{"unknown type", func(a *ModelArtifact) { a.Model.Type = "svm" }},
		{"empty forest", func(a *ModelArtifact) { a.Model.Type = "forest"; a.Model.Trees = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := logisticArtifact()
			tt.mutate(artifact)

			_, err := NewModelScorer(artifact, testLogger())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrScoring), "expected ErrScoring, got %v", err)
		})
	}
}

func TestModelScorer_Score_Logistic(t *testing.T) {
	scorer, err := NewModelScorer(logisticArtifact(), testLogger())
	require.NoError(t, err)

	phishing, legitimate, err := scorer.Score([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, phishing, 1e-9)
	assert.InDelta(t, 1.0, phishing+legitimate, 1e-9)

	// Positive coefficient on feature a pushes toward phishing.
	high, _, err := scorer.Score([]float64{10, 0})
	require.NoError(t, err)
	assert.Greater(t, high, phishing)

	low, _, err := scorer.Score([]float64{0, 10})
	require.NoError(t, err)
	assert.Less(t, low, phishing)
}

func TestModelScorer_Score_ImputesNaN(t *testing.T) {
	scorer, err := NewModelScorer(logisticArtifact(), testLogger())
	require.NoError(t, err)

	fromNaN, _, err := scorer.Score([]float64{math.NaN(), math.NaN()})
	require.NoError(t, err)

	fromMedians, _, err := scorer.Score([]float64{1, 2})
	require.NoError(t, err)

	assert.InDelta(t, fromMedians, fromNaN, 1e-9)
}

func TestModelScorer_Score_WrongArity(t *testing.T) {
	scorer, err := NewModelScorer(logisticArtifact(), testLogger())
	require.NoError(t, err)

	_, _, err = scorer.Score([]float64{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScoring))

	_, _, err = scorer.Score(nil)
	assert.Error(t, err)
}

func TestModelScorer_Score_Forest(t *testing.T) {
	artifact := &ModelArtifact{
		Version:      "test-forest",
		FeatureNames: []string{"a"},
		Model: ClassifierArtifact{
			Type: "forest",
			Trees: []*TreeNode{
				{
					Feature:   0,
					Threshold: 0.5,
					Left:      &TreeNode{Leaf: true, Value: 0.2},
					Right:     &TreeNode{Leaf: true, Value: 0.8},
				},
				{Leaf: true, Value: 0.6},
			},
		},
	}

	scorer, err := NewModelScorer(artifact, testLogger())
	require.NoError(t, err)

	phishing, _, err := scorer.Score([]float64{0})
	require.NoError(t, err)
	assert.InDelta(t, (0.2+0.6)/2, phishing, 1e-9)

	phishing, _, err = scorer.Score([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, (0.8+0.6)/2, phishing, 1e-9)
}

func TestModelScorer_Score_ForestOutOfRangeSplit(t *testing.T) {
	artifact := &ModelArtifact{
		FeatureNames: []string{"a"},
		Model: ClassifierArtifact{
			Type: "forest",
			Trees: []*TreeNode{
				{
					Feature:   3,
					Threshold: 0.5,
					Left:      &TreeNode{Leaf: true, Value: 0},
					Right:     &TreeNode{Leaf: true, Value: 1},
				},
			},
		},
	}

	_, err := NewModelScorer(artifact, testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScoring))
}
