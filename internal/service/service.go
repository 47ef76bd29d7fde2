// Package service owns the loaded artifacts and scores customers against
// them. Artifacts live in an immutable Snapshot that is swapped atomically,
// so a reload never exposes a half-loaded model to a request.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/churn/internal/config"
	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/explain"
	"github.com/gyaneshwarpardhi/churn/internal/features"
	"github.com/gyaneshwarpardhi/churn/internal/logging"
	"github.com/gyaneshwarpardhi/churn/internal/metrics"
	"github.com/gyaneshwarpardhi/churn/internal/model"
	"github.com/gyaneshwarpardhi/churn/internal/risk"
	"github.com/gyaneshwarpardhi/churn/internal/traces"
)

// ErrQueueFull is returned when a batch does not fit in the scoring queue.
var ErrQueueFull = errors.New("batch queue full")

// ErrBatchTimeout is returned when a queued batch does not finish in time.
var ErrBatchTimeout = errors.New("batch scoring timeout")

// Snapshot is one consistent artifact set plus the assessor built on it.
type Snapshot struct {
	Artifacts *model.Artifacts
	assessor  *risk.Assessor
}

// NewSnapshot wraps a. clf overrides the classifier; nil means a.Model.
func NewSnapshot(a *model.Artifacts, clf risk.Classifier) *Snapshot {
	if clf == nil {
		clf = a.Model
	}
	return &Snapshot{Artifacts: a, assessor: risk.NewAssessor(clf)}
}

// Explanation is an assessment together with its attribution summary.
type Explanation struct {
	Assessment risk.Assessment
	Summary    explain.Summary
	Entries    []explain.Entry // encoder column order
	BaseValue  float64
}

// ModelInfo describes the current artifact state.
type ModelInfo struct {
	Ready        bool        `json:"ready"`
	Error        string      `json:"error,omitempty"`
	Paths        model.Paths `json:"paths"`
	FeatureNames []string    `json:"feature_names,omitempty"`
	Objective    string      `json:"objective,omitempty"`
	Trees        int         `json:"trees,omitempty"`
	LoadedAt     *time.Time  `json:"loaded_at,omitempty"`
}

// Service scores customers. The zero value is not usable; call New.
type Service struct {
	snap    atomic.Pointer[Snapshot]
	loadErr atomic.Pointer[error]

	reloadMu sync.Mutex
	paths    model.Paths

	pool *workerPool[*batchWork]
	conf config.BatchConf
}

// New creates a Service with no artifacts and starts the batch pool.
// Call Reload or Install before scoring.
func New(ctx context.Context, conf config.BatchConf, paths model.Paths) *Service {
	s := &Service{paths: paths, conf: conf}
	s.pool = newWorkerPool[*batchWork](ctx, conf.Workers, conf.QueueDepth, s.runBatchItem)
	metrics.ModelReady.Set(0)
	return s
}

// Install swaps in snap as the current artifact set.
func (s *Service) Install(snap *Snapshot) {
	s.snap.Store(snap)
	s.loadErr.Store(nil)
	metrics.ModelReady.Set(1)
}

// SetPaths changes where the next Reload reads from.
func (s *Service) SetPaths(p model.Paths) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.paths = p
}

// Paths returns the artifact locations Reload reads from.
func (s *Service) Paths() model.Paths {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.paths
}

// Reload reads all artifacts from disk. On failure the previous snapshot,
// if any, stays in service and the error is remembered for Ready.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ctx, span := traces.StartSpan(ctx, "churn.reload", traces.ArtifactPath(s.paths.Model))
	defer span.End()

	a, err := model.Load(s.paths)
	if err != nil {
		traces.Fail(span, err)
		metrics.ModelReloads.WithLabelValues("error").Inc()
		s.loadErr.Store(&err)
		if s.snap.Load() == nil {
			metrics.ModelReady.Set(0)
		}
		return err
	}
	s.Install(NewSnapshot(a, nil))
	metrics.ModelReloads.WithLabelValues("success").Inc()
	logging.L(ctx).Info("artifacts loaded",
		"model", s.paths.Model,
		"objective", a.Model.Objective,
		"trees", len(a.Model.Trees),
	)
	return nil
}

// Ready is nil when a snapshot is installed, otherwise the reason it is not.
func (s *Service) Ready() error {
	if s.snap.Load() != nil {
		return nil
	}
	return s.unavailable()
}

// unavailable wraps ErrModelUnavailable with the last load error, if any.
func (s *Service) unavailable() error {
	if e := s.loadErr.Load(); e != nil {
		return fmt.Errorf("%w: %v", risk.ErrModelUnavailable, *e)
	}
	return risk.ErrModelUnavailable
}

// Info reports the current snapshot and the last load error.
func (s *Service) Info() ModelInfo {
	info := ModelInfo{Paths: s.Paths()}
	if e := s.loadErr.Load(); e != nil {
		info.Error = (*e).Error()
	}
	snap := s.snap.Load()
	if snap == nil {
		return info
	}
	a := snap.Artifacts
	at := a.LoadedAt
	info.Ready = true
	info.FeatureNames = a.FeatureNames
	info.Objective = string(a.Model.Objective)
	info.Trees = len(a.Model.Trees)
	info.LoadedAt = &at
	return info
}

// Predict scores one validated record.
func (s *Service) Predict(ctx context.Context, rec customer.Record) (risk.Assessment, error) {
	start := time.Now()
	_, span := traces.StartSpan(ctx, "churn.predict")
	defer span.End()

	res, _, err := s.assess(s.snap.Load(), rec)
	if err != nil {
		traces.Fail(span, err)
		countError(err)
		return risk.Assessment{}, err
	}
	span.SetAttributes(traces.Probability(res.Probability), traces.Tier(string(res.Tier)))
	metrics.Predictions.WithLabelValues(string(res.Tier)).Inc()
	metrics.PredictionDuration.WithLabelValues("predict").Observe(msSince(start))
	return res, nil
}

// Explain scores rec and attributes the model output to its features.
func (s *Service) Explain(ctx context.Context, rec customer.Record) (*Explanation, error) {
	start := time.Now()
	_, span := traces.StartSpan(ctx, "churn.explain")
	defer span.End()

	snap := s.snap.Load()
	res, v, err := s.assess(snap, rec)
	if err != nil {
		traces.Fail(span, err)
		countError(err)
		return nil, err
	}

	phi, base, err := snap.Artifacts.Model.Contributions(v.Slice())
	if err != nil {
		err = &risk.PredictionError{Err: fmt.Errorf("attribution: %w", err)}
		traces.Fail(span, err)
		countError(err)
		return nil, err
	}
	entries := make([]explain.Entry, features.Width)
	for i := range entries {
		entries[i] = explain.Entry{
			Feature:      features.Columns[i],
			RawValue:     v[i],
			Contribution: phi[i],
		}
	}

	span.SetAttributes(traces.Probability(res.Probability), traces.Tier(string(res.Tier)))
	metrics.Predictions.WithLabelValues(string(res.Tier)).Inc()
	metrics.PredictionDuration.WithLabelValues("explain").Observe(msSince(start))
	return &Explanation{
		Assessment: res,
		Summary:    explain.Summarize(entries, rec),
		Entries:    entries,
		BaseValue:  base,
	}, nil
}

// assess validates, encodes and scores rec against snap. A nil snapshot is
// rejected before any model code runs.
func (s *Service) assess(snap *Snapshot, rec customer.Record) (risk.Assessment, features.Vector, error) {
	if err := rec.Validate(); err != nil {
		return risk.Assessment{}, features.Vector{}, err
	}
	if snap == nil {
		return risk.Assessment{}, features.Vector{}, s.unavailable()
	}
	v, err := features.Encode(rec, snap.Artifacts.Scaler)
	if err != nil {
		return risk.Assessment{}, v, &risk.PredictionError{Err: err}
	}
	res, err := snap.assessor.Assess(v)
	return res, v, err
}

// Shutdown drains the batch pool, finishing queued items. Call it before
// cancelling the context passed to New. Later batches are rejected.
func (s *Service) Shutdown() {
	s.pool.Drain()
}

// QueueUtilization returns batch queue used / capacity (0-1).
func (s *Service) QueueUtilization() float64 {
	if s.pool.QueueCap() == 0 {
		return 0
	}
	return float64(s.pool.QueueLen()) / float64(s.pool.QueueCap())
}

func countError(err error) {
	var verrs customer.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		metrics.PredictionErrors.WithLabelValues("validation").Inc()
	case errors.Is(err, risk.ErrModelUnavailable):
		metrics.PredictionErrors.WithLabelValues("unavailable").Inc()
	case errors.Is(err, ErrQueueFull):
		metrics.PredictionErrors.WithLabelValues("queue_full").Inc()
	case errors.Is(err, ErrBatchTimeout):
		metrics.PredictionErrors.WithLabelValues("timeout").Inc()
	default:
		metrics.PredictionErrors.WithLabelValues("prediction").Inc()
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
