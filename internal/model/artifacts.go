package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/churn/internal/features"
)

// Paths locates the three fitted artifacts on disk.
type Paths struct {
	Model        string `json:"model"`
	Scaler       string `json:"scaler"`
	FeatureNames string `json:"feature_names"`
}

// List returns the paths in a stable order, for watchers.
func (p Paths) List() []string {
	return []string{p.Model, p.Scaler, p.FeatureNames}
}

// Artifacts is a consistent, validated set of classifier, scaler and feature order.
// Treat it as read-only.
type Artifacts struct {
	Model        *Ensemble
	Scaler       *StandardScaler
	FeatureNames []string // as stored, i.e. model column order
	Paths        Paths
	LoadedAt     time.Time
}

// Load reads and cross-checks all artifacts. Either everything loads or an
// error is returned; there is no partially loaded state.
func Load(p Paths) (*Artifacts, error) {
	var names []string
	if err := decodeFile(p.FeatureNames, &names); err != nil {
		return nil, err
	}
	perm, err := permutation(names)
	if err != nil {
		return nil, fmt.Errorf("feature names %s: %w", p.FeatureNames, err)
	}

	var sc StandardScaler
	if err := decodeFile(p.Scaler, &sc); err != nil {
		return nil, err
	}
	if err := checkScaler(&sc); err != nil {
		return nil, fmt.Errorf("scaler %s: %w", p.Scaler, err)
	}

	var ens Ensemble
	if err := decodeFile(p.Model, &ens); err != nil {
		return nil, err
	}
	if err := ens.validate(len(names)); err != nil {
		return nil, fmt.Errorf("model %s: %w", p.Model, err)
	}
	ens.remap(perm)

	return &Artifacts{
		Model:        &ens,
		Scaler:       &sc,
		FeatureNames: names,
		Paths:        p,
		LoadedAt:     time.Now(),
	}, nil
}

// New assembles artifacts from in-memory values, applying the same checks as Load.
// names gives the column order the model's split features refer to.
func New(ens *Ensemble, sc *StandardScaler, names []string) (*Artifacts, error) {
	perm, err := permutation(names)
	if err != nil {
		return nil, err
	}
	if err := checkScaler(sc); err != nil {
		return nil, err
	}
	if err := ens.validate(len(names)); err != nil {
		return nil, err
	}
	ens.remap(perm)
	return &Artifacts{Model: ens, Scaler: sc, FeatureNames: names, LoadedAt: time.Now()}, nil
}

// permutation maps each stored column position to its encoder index and
// rejects anything that is not a reordering of the encoder's columns.
func permutation(names []string) ([]int, error) {
	if len(names) != features.Width {
		return nil, fmt.Errorf("got %d feature names, want %d", len(names), features.Width)
	}
	perm := make([]int, len(names))
	seen := make(map[int]string, len(names))
	for i, n := range names {
		idx, ok := features.Index(n)
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", n)
		}
		if prev, dup := seen[idx]; dup {
			return nil, fmt.Errorf("duplicate feature %q (also %q)", n, prev)
		}
		seen[idx] = n
		perm[i] = idx
	}
	return perm, nil
}

func checkScaler(sc *StandardScaler) error {
	if err := sc.validate(); err != nil {
		return err
	}
	if len(sc.Columns) != len(features.NumericColumns) {
		return fmt.Errorf("scaler fitted on %v, want %v", sc.Columns, features.NumericColumns)
	}
	for i, c := range sc.Columns {
		idx, ok := features.Index(c)
		want, _ := features.Index(features.NumericColumns[i])
		if !ok || idx != want {
			return fmt.Errorf("scaler column %d is %q, want %q", i, c, features.NumericColumns[i])
		}
	}
	return nil
}

// decodeFile reads a YAML (or JSON, which YAML accepts) artifact.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return nil
}
