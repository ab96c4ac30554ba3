package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/metrics"
	"github.com/verte-zerg/neurosense/internal/model"
	"github.com/verte-zerg/neurosense/internal/stats"
	"github.com/verte-zerg/neurosense/internal/store"
)

const welcomeMessage = "Welcome to NeuroSense API"

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryEntry)
	mux.HandleFunc("GET /ws/analyze", s.handleLive)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	a := s.analyzer.Load()

	events, err := s.decodeRequest(w, r)
	if err != nil {
		s.writeAnalyzeError(w, r, err)
		return
	}
	result, err := analyzeSafely(a, events)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.writeAnalyzeError(w, r, err)
		return
	}

	normalized := analysis.Normalize(events)
	metrics.ObserveSession(len(normalized), result.Speed, result.Pattern)
	if s.recorder != nil && len(normalized) > 0 {
		rec := store.NewRecord(model.SourceAPI, len(normalized), analysis.DurationMs(normalized), result, s.now())
		if err := s.recorder.InsertSession(r.Context(), rec); err != nil {
			metrics.HistoryWriteErrors.Inc()
			s.logger.Error("failed to save session", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeRequest reads the request body, validates it against the envelope
// schema and decodes the events.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) ([]model.KeyEvent, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &analysis.InvalidInputError{
				Reason: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Index:  -1,
			}
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &analysis.InvalidInputError{Reason: "malformed JSON: " + err.Error(), Index: -1}
	}
	if dec.More() {
		return nil, &analysis.InvalidInputError{Reason: "trailing data after JSON value", Index: -1}
	}
	if err := validateEnvelope(s.schema, doc); err != nil {
		return nil, err
	}
	// The schema guarantees an object with typingData.
	return analysis.DecodeValue(doc.(map[string]any)["typingData"])
}

// analyzeSafely converts a panic in analysis into an error so the handler can
// answer with a 500 body instead of dropping the connection.
func analyzeSafely(a *analysis.Analyzer, events []model.KeyEvent) (result model.TypingMetrics, err error) {
	if a == nil {
		return model.TypingMetrics{}, errors.New("no analyzer configured")
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("analysis panicked: %v", p)
		}
	}()
	return a.Analyze(events), nil
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *analysis.InvalidInputError
	if errors.As(err, &invalid) {
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		s.logger.Debug("rejected analysis request", "reason", invalid.Reason, "index", invalid.Index)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input", Details: err.Error()})
		return
	}
	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeError).Inc()
	s.logger.Error("analysis failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Analysis failed", Details: err.Error()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "History disabled"})
		return
	}
	q, err := parseHistoryQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid query", Details: err.Error()})
		return
	}
	report, err := stats.BuildReport(r.Context(), s.history, q)
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "History unavailable", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report.Entries)
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "History disabled"})
		return
	}
	rec, err := s.history.GetSession(r.Context(), r.PathValue("id"))
	if errors.Is(err, model.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to load session", "id", r.PathValue("id"), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "History unavailable", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseHistoryQuery(r *http.Request) (model.HistoryQuery, error) {
	values := r.URL.Query()
	q := model.HistoryQuery{Source: values.Get("source")}
	if raw := values.Get("last"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, fmt.Errorf("last must be a non-negative integer, got %q", raw)
		}
		q.Last = n
	}
	if raw := values.Get("since"); raw != "" {
		since, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			return q, fmt.Errorf("since must be YYYY-MM-DD, got %q", raw)
		}
		q.Since = &since
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
