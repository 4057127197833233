package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Tutortoise/tryon-compositor-service/config"
	"github.com/Tutortoise/tryon-compositor-service/models"
)

const (
	ServiceName    = "Virtual Try-On API"
	ServiceVersion = "1.0.0"

	RouteIndex    = "/"
	RouteHealth   = "/health"
	RouteMetrics  = "/metrics"
	RouteGenerate = "/api/tryon/generate"
)

var availableEndpoints = []string{
	"GET " + RouteIndex,
	"GET " + RouteHealth,
	"GET " + RouteMetrics,
	"POST " + RouteGenerate,
}

// Compositor renders the try-on image for two encoded uploads.
type Compositor interface {
	CompositeTo(w io.Writer, person, garment []byte, timings *models.ProcessingTimings) error
}

type AppState struct {
	Config     *config.Config
	Logger     *zap.SugaredLogger
	Pool       *BufferPool
	Compositor Compositor
	StartedAt  time.Time
}

type ServiceInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

type MemoryUsage struct {
	MaxRSS    uint64 `json:"maxRss"`
	HeapAlloc uint64 `json:"heapAlloc"`
	HeapSys   uint64 `json:"heapSys"`
	Sys       uint64 `json:"sys"`
}

type HealthResponse struct {
	Status    string      `json:"status"`
	Uptime    float64     `json:"uptime"`
	Memory    MemoryUsage `json:"memory"`
	Timestamp string      `json:"timestamp"`
}

type TryOnMetadata struct {
	ProcessingTime string `json:"processingTime"`
	ResultSize     int    `json:"resultSize"`
	Timestamp      string `json:"timestamp"`
}

type TryOnResponse struct {
	Success  bool          `json:"success"`
	Result   string        `json:"result"`
	Metadata TryOnMetadata `json:"metadata"`
}

type ErrorResponse struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error"`
	Details            string   `json:"details,omitempty"`
	Required           []string `json:"required,omitempty"`
	AvailableEndpoints []string `json:"availableEndpoints,omitempty"`
}

func (s *AppState) newRouter() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(RouteIndex, s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc(RouteHealth, s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc(RouteGenerate, s.handleGenerate).Methods(http.MethodPost)
	s.addMonitoringRoutes(r)

	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	// mux middlewares skip unmatched routes, so wrap the whole router
	var h http.Handler = r
	h = s.corsMiddleware()(h)
	h = s.recoveryMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.requestIDMiddleware(h)
	return h
}

func (s *AppState) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ServiceInfo{
		Name:    ServiceName,
		Version: ServiceVersion,
		Status:  "running",
		Endpoints: map[string]string{
			"health":   "GET " + RouteHealth,
			"metrics":  "GET " + RouteMetrics,
			"generate": "POST " + RouteGenerate,
		},
	})
}

func (s *AppState) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Uptime: time.Since(s.StartedAt).Seconds(),
		Memory: MemoryUsage{
			MaxRSS:    maxResidentSetSize(),
			HeapAlloc: ms.HeapAlloc,
			HeapSys:   ms.HeapSys,
			Sys:       ms.Sys,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *AppState) handleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := requestIDFrom(r.Context())
	timings := &models.ProcessingTimings{RequestID: requestID}

	uploads, err := readUploads(w, r, s.Config.MaxFileSize)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.Logger.Warnw("rejected upload", "request_id", requestID, "reason", verr.Message)
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:    verr.Message,
				Required: verr.Required,
			})
			return
		}
		s.Logger.Errorw("read uploads", "request_id", requestID, "error", err)
		s.sendErrorResponse(w, http.StatusInternalServerError, MsgGenerateFailed, err)
		return
	}

	s.Logger.Infow("generating try-on",
		"request_id", requestID,
		"person_bytes", len(uploads.Person),
		"dress_bytes", len(uploads.Dress),
	)

	buf := s.Pool.Acquire()
	defer s.Pool.Release(buf)

	if err := s.Compositor.CompositeTo(buf, uploads.Person, uploads.Dress, timings); err != nil {
		s.Logger.Errorw("composite failed", "request_id", requestID, "error", err)
		s.sendErrorResponse(w, http.StatusInternalServerError, MsgGenerateFailed, err)
		return
	}
	s.logTimings(timings)

	elapsed := time.Since(start)
	writeJSON(w, http.StatusOK, TryOnResponse{
		Success: true,
		Result:  "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Metadata: TryOnMetadata{
			ProcessingTime: fmt.Sprintf("%dms", elapsed.Milliseconds()),
			ResultSize:     buf.Len(),
			Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

func (s *AppState) addMonitoringRoutes(r *mux.Router) {
	r.HandleFunc(RouteMetrics, s.handleMetrics).Methods(http.MethodGet)
}

func (s *AppState) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Pool.GetMetrics())
}

func (s *AppState) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:              MsgRouteNotFound,
		AvailableEndpoints: availableEndpoints,
	})
}

func (s *AppState) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:              MsgMethodNotAllowed,
		AvailableEndpoints: availableEndpoints,
	})
}

func (s *AppState) logTimings(t *models.ProcessingTimings) {
	if !s.Config.Debug {
		return
	}
	s.Logger.Debugw("processing times",
		"request_id", t.RequestID,
		"decode", t.Decode,
		"resize", t.Resize,
		"patch", t.Patch,
		"composite", t.Composite,
		"encode", t.Encode,
		"total", t.Total,
	)
}

// sendErrorResponse hides the cause from clients in production.
func (s *AppState) sendErrorResponse(w http.ResponseWriter, status int, message string, cause any) {
	resp := ErrorResponse{Error: message}
	if cause != nil && !s.Config.IsProduction() {
		resp.Details = fmt.Sprint(cause)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
