package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/logging"
	"github.com/gyaneshwarpardhi/churn/internal/metrics"
	"github.com/gyaneshwarpardhi/churn/internal/service"
)

// Options tunes the HTTP surface.
type Options struct {
	Logger       *slog.Logger
	MaxBodyBytes int64
	MaxBatchSize int
	UI           http.Handler // serves GET / and POST /; nil leaves them unrouted
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	svc      *service.Service
	maxBatch int
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(svc *service.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 100
	}
	h := &Handler{svc: svc, maxBatch: opts.MaxBatchSize, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /predict", h.predict)
	h.mux.HandleFunc("POST /predict/batch", h.predictBatch)
	h.mux.HandleFunc("POST /explain", h.explain)
	h.mux.HandleFunc("GET /v1/model", h.modelInfo)
	h.mux.HandleFunc("POST /v1/model/reload", h.reloadModel)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())
	if opts.UI != nil {
		h.mux.Handle("GET /{$}", opts.UI)
		h.mux.Handle("POST /{$}", opts.UI)
	}

	return loggingMiddleware(opts.Logger, limitBody(opts.MaxBodyBytes, h.mux))
}

// POST /predict: score one customer.
func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeCustomer(r)
	if err != nil {
		countRequestError(err)
		writeServiceError(w, r, err)
		return
	}
	res, err := h.svc.Predict(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictResponse(res))
}

// POST /predict/batch: score up to maxBatch customers on the worker pool.
func (h *Handler) predictBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []customerRequest
	if err := decodeBody(r, &reqs); err != nil {
		countRequestError(err)
		writeServiceError(w, r, err)
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one customer")
		return
	}
	if len(reqs) > h.maxBatch {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(reqs), h.maxBatch))
		return
	}

	results := make([]batchResult, len(reqs))
	raws := make([]customer.Raw, 0, len(reqs))
	positions := make([]int, 0, len(reqs))
	for i, req := range reqs {
		results[i].Index = i
		raw, errs := req.raw()
		if len(errs) > 0 {
			metrics.PredictionErrors.WithLabelValues("validation").Inc()
			results[i].Error = errs
			continue
		}
		raws = append(raws, raw)
		positions = append(positions, i)
	}

	if len(raws) > 0 {
		items, err := h.svc.ScoreBatch(r.Context(), raws)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		for j, item := range items {
			res := &results[positions[j]]
			if item.Err != nil {
				res.Error = itemError(item.Err)
				continue
			}
			p := newPredictResponse(item.Assessment)
			res.predictResponse = &p
		}
	}

	resp := batchResponse{BatchID: uuid.NewString(), Total: len(reqs), Results: results}
	for _, res := range results {
		if res.Error != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	logging.L(r.Context()).Debug("batch scored", "batch_id", resp.BatchID, "total", resp.Total, "failed", resp.Failed)
	writeJSON(w, http.StatusOK, resp)
}

// POST /explain: score one customer and attribute the score to its features.
func (h *Handler) explain(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeCustomer(r)
	if err != nil {
		countRequestError(err)
		writeServiceError(w, r, err)
		return
	}
	ex, err := h.svc.Explain(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExplainResponse(ex))
}

// GET /v1/model: describe the loaded artifacts.
func (h *Handler) modelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Info())
}

// POST /v1/model/reload: re-read artifacts from disk.
func (h *Handler) reloadModel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reload(r.Context()); err != nil {
		logging.L(r.Context()).Warn("artifact reload failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"model":    h.svc.Info(),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 when no artifacts are loaded or the batch queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.svc.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if err := h.svc.Ready(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "model_unavailable",
			"detail": err.Error(),
		})
		return
	}
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// countRequestError records failures that never reach the service.
func countRequestError(err error) {
	var verrs customer.ValidationErrors
	if errors.As(err, &verrs) {
		metrics.PredictionErrors.WithLabelValues("validation").Inc()
		return
	}
	metrics.PredictionErrors.WithLabelValues("malformed").Inc()
}

func itemError(err error) any {
	var verrs customer.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return err.Error()
}
