// Package server exposes the service over HTTP with gorilla/mux.
package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mishradev1/Dev-PlotTest/apperrors"
	"github.com/mishradev1/Dev-PlotTest/catalog"
	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/logging"
	"github.com/mishradev1/Dev-PlotTest/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UserHeader carries the requester id on every /api request.
const UserHeader = "X-User-ID"

const multipartMemory = 32 << 20

// multipartOverhead covers form fields and part headers on top of the file.
const multipartOverhead = 1 << 20

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithGatherer mounts /metrics for g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithMaxUploadBytes bounds how much of an uploaded file is read. The
// service enforces its own limit on what is read.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// Server routes HTTP requests to a service.Service.
type Server struct {
	svc            *service.Service
	log            logrus.FieldLogger
	gatherer       prometheus.Gatherer
	maxUploadBytes int64
	router         *mux.Router
}

// New builds the router.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:            svc,
		log:            logging.Discard(),
		maxUploadBytes: service.DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireUser)

	api.HandleFunc("/datasets", s.ingest).Methods(http.MethodPost)
	api.HandleFunc("/datasets", s.listDatasets).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{id}", s.getDataset).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{id}", s.deleteDataset).Methods(http.MethodDelete)
	api.HandleFunc("/datasets/{id}/rows", s.previewDataset).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{id}/stats", s.datasetStats).Methods(http.MethodGet)

	api.HandleFunc("/plots", s.generatePlot).Methods(http.MethodPost)
	api.HandleFunc("/plots", s.listPlots).Methods(http.MethodGet)
	api.HandleFunc("/plots/{id}", s.getPlot).Methods(http.MethodGet)
	api.HandleFunc("/plots/{id}", s.updatePlot).Methods(http.MethodPatch)
	api.HandleFunc("/plots/{id}", s.deletePlot).Methods(http.MethodDelete)
	api.HandleFunc("/plots/{id}/data", s.regeneratePlot).Methods(http.MethodGet)
	return r
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get(UserHeader)) == "" {
			s.writeJSON(w, r, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "missing " + UserHeader + " header"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

// ============================================================================
// DATASETS
// ============================================================================

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, apperrors.Validation("file too large"))
			return
		}
		s.writeError(w, r, apperrors.Validation("expected multipart form"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, apperrors.Validation("file is required"))
		return
	}
	defer file.Close()

	// one extra byte lets the service see the upload is too large
	raw, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		s.writeError(w, r, apperrors.Validation("unable to read file"))
		return
	}

	ds, err := s.svc.Ingest(r.Context(), userID(r), r.FormValue("name"), r.FormValue("description"), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, ds)
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListDatasets(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.GetDataset(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ds)
}

func (s *Server) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDataset(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) previewDataset(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	table, err := s.svc.PreviewDataset(r.Context(), userID(r), mux.Vars(r)["id"], skip, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, table)
}

func (s *Server) datasetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.DatasetStats(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, stats)
}

// ============================================================================
// PLOTS
// ============================================================================

func (s *Server) generatePlot(w http.ResponseWriter, r *http.Request) {
	var req engine.PlotRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run")); dryRun {
		result, err := s.svc.PreviewPlot(r.Context(), userID(r), req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, result)
		return
	}

	result, err := s.svc.GeneratePlot(r.Context(), userID(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, result)
}

func (s *Server) listPlots(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListPlots(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) getPlot(w http.ResponseWriter, r *http.Request) {
	spec, err := s.svc.GetPlot(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, spec)
}

func (s *Server) updatePlot(w http.ResponseWriter, r *http.Request) {
	var patch catalog.PlotPatch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	spec, err := s.svc.UpdatePlot(r.Context(), userID(r), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, spec)
}

func (s *Server) deletePlot(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePlot(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) regeneratePlot(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.RegeneratePlot(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

// ============================================================================
// ENCODING
// ============================================================================

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindParse, apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	body := errorBody{
		Error:   kind.String(),
		Message: apperrors.Message(err),
		Line:    apperrors.LineOf(err),
	}
	if kind == apperrors.KindUnknown {
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("request failed")
		body.Message = "internal error"
	}
	s.writeJSON(w, r, statusFor(kind), body)
}

// writeJSON encodes v before any header is sent, so an encoding failure
// still reaches the client as a 500.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("encode response")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: apperrors.KindUnknown.String(), Message: "internal error"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.WithError(err).Debug("write response")
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Validationf("invalid request body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validationf("%s must be an integer", key)
	}
	return n, nil
}
