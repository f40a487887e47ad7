// Package server exposes the decision engine over an HTTP JSON API for
// external dashboards and tooling.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairscore/fairscore/internal/applicant"
	"github.com/fairscore/fairscore/internal/dataset"
	"github.com/fairscore/fairscore/internal/engine"
	"github.com/fairscore/fairscore/internal/fairness"
	"github.com/fairscore/fairscore/internal/result"
	"github.com/fairscore/fairscore/pkg/constants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	defaultRate   float64
	metrics       *metrics
}

// NewHandler constructs the HTTP handler that serves the analysis API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, defaultRate float64) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	registry := prometheus.NewRegistry()
	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		defaultRate:   defaultRate,
		metrics:       newMetrics(registry),
	}

	mux := http.NewServeMux()

	// Analysis API endpoint (CSV upload)
	mux.HandleFunc("/api/analyze", h.handleAnalyze)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return mux
}

type analyzeResponse struct {
	Result   result.Result `json:"result"`
	Warnings []string      `json:"warnings,omitempty"`
	Duration string        `json:"duration"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize))
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing applicant CSV file")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleAnalyze"),
				zap.Error(closeErr),
			)
		}
	}()

	rate := h.defaultRate
	var warnings []string
	if rateValue := strings.TrimSpace(r.FormValue("rate")); rateValue != "" {
		parsed, err := strconv.ParseFloat(rateValue, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid rate %q: %v", rateValue, err))
			return
		}
		rate = parsed
	} else {
		warnings = append(warnings, fmt.Sprintf("no rate supplied; using default %.2f", rate))
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	table, err := dataset.LoadFromReader(h.logger, &buf)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to load applicants: %v", err))
		return
	}

	res, err := h.runAnalysis(table, rate)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	elapsed := time.Since(start)
	h.metrics.analyses.WithLabelValues("success").Inc()
	h.metrics.duration.Observe(elapsed.Seconds())

	h.logger.Info("analysis computed",
		zap.String("op", "server.handleAnalyze"),
		zap.String("runId", res.RunID),
		zap.Int("applicants", res.Applicants),
		zap.Float64("targetRate", rate),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, analyzeResponse{
		Result:   res,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) runAnalysis(table applicant.Table, rate float64) (result.Result, error) {
	oppDecisions, oppSummary, err := engine.Decide(h.logger, table, rate, engine.PolicyOpportunity)
	if err != nil {
		return result.Result{}, err
	}
	outDecisions, outSummary, err := engine.Decide(h.logger, table, rate, engine.PolicyOutcomes)
	if err != nil {
		return result.Result{}, err
	}

	oppReport, err := fairness.Aggregate(oppDecisions, table)
	if err != nil {
		return result.Result{}, err
	}
	outReport, err := fairness.Aggregate(outDecisions, table)
	if err != nil {
		return result.Result{}, err
	}

	return result.Assemble(rate, len(table),
		oppDecisions, oppSummary, oppReport,
		outDecisions, outSummary, outReport,
		fairness.ScoreParity(table)), nil
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.metrics.analyses.WithLabelValues("error").Inc()
	h.logger.Error("analysis request failed",
		zap.String("op", "server.handleAnalyze"),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
