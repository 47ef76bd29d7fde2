// Package modeltest builds small, fully valid artifacts for tests.
package modeltest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gyaneshwarpardhi/churn/internal/model"
)

// FeatureNames is the stored column order used by the fixtures.
var FeatureNames = []string{
	"Age",
	"Gender",
	"Tenure",
	"MonthlyCharges",
	"InternetService_Fiber Optic",
	"InternetService_No Internet",
	"TechSupport_Yes",
}

const featureNamesYAML = `- Age
- Gender
- Tenure
- MonthlyCharges
- InternetService_Fiber Optic
- InternetService_No Internet
- TechSupport_Yes
`

const scalerYAML = `columns: [Age, Tenure, MonthlyCharges]
mean: [44.5, 18.0, 74.4]
scale: [15.2, 17.5, 25.5]
`

// Fiber customers without tech support churn; everyone else mostly stays.
const modelYAML = `objective: binary:logistic
base_score: 0
trees:
  - nodes:
      - {feature: 4, threshold: 0.5, left: 1, right: 2, cover: 100}
      - {value: -1.5, cover: 60}
      - {feature: 6, threshold: 0.5, left: 3, right: 4, cover: 40}
      - {value: 2.5, cover: 25}
      - {value: -0.5, cover: 15}
  - nodes:
      - {feature: 2, threshold: -0.5, left: 1, right: 2, cover: 100}
      - {value: 0.4, cover: 30}
      - {value: -0.3, cover: 70}
`

// Scaler returns the fixture scaler.
func Scaler() *model.StandardScaler {
	return &model.StandardScaler{
		Columns: []string{"Age", "Tenure", "MonthlyCharges"},
		Mean:    []float64{44.5, 18.0, 74.4},
		Scale:   []float64{15.2, 17.5, 25.5},
	}
}

// Ensemble returns the fixture classifier, matching modelYAML.
func Ensemble() *model.Ensemble {
	return &model.Ensemble{
		Objective: model.ObjectiveLogistic,
		Trees: []model.Tree{
			{Nodes: []model.Node{
				{Feature: 4, Threshold: 0.5, Left: 1, Right: 2, Cover: 100},
				{Value: -1.5, Cover: 60},
				{Feature: 6, Threshold: 0.5, Left: 3, Right: 4, Cover: 40},
				{Value: 2.5, Cover: 25},
				{Value: -0.5, Cover: 15},
			}},
			{Nodes: []model.Node{
				{Feature: 2, Threshold: -0.5, Left: 1, Right: 2, Cover: 100},
				{Value: 0.4, Cover: 30},
				{Value: -0.3, Cover: 70},
			}},
		},
	}
}

// Artifacts returns a validated in-memory artifact set.
func Artifacts(t testing.TB) *model.Artifacts {
	t.Helper()
	a, err := model.New(Ensemble(), Scaler(), FeatureNames)
	if err != nil {
		t.Fatalf("modeltest: build artifacts: %v", err)
	}
	return a
}

// WriteFiles writes the fixture artifacts into dir and returns their paths.
func WriteFiles(t testing.TB, dir string) model.Paths {
	t.Helper()
	p := model.Paths{
		Model:        filepath.Join(dir, "model.yaml"),
		Scaler:       filepath.Join(dir, "scaler.yaml"),
		FeatureNames: filepath.Join(dir, "feature_names.yaml"),
	}
	write(t, p.Model, modelYAML)
	write(t, p.Scaler, scalerYAML)
	write(t, p.FeatureNames, featureNamesYAML)
	return p
}

func write(t testing.TB, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("modeltest: write %s: %v", path, err)
	}
}
