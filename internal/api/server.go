// Package api exposes the upload and classification entry points over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/engine"
	"github.com/Veraticus/spice-ledger/internal/ingest"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/pipeline"
)

const maxUploadBytes = 32 << 20

// StagingReader is the read access the API needs to the staging area.
type StagingReader interface {
	GetStagingCounts(ctx context.Context) (*model.StagingCounts, error)
}

// Server serves the HTTP API. Uploads and classification passes are
// serialized: the staging area assumes a single writer.
type Server struct {
	uploader *pipeline.Uploader
	runner   pipeline.Runner
	staging  StagingReader
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewServer creates a server around the given pipeline pieces. Background
// classification passes run until Close.
func NewServer(uploader *pipeline.Uploader, runner pipeline.Runner, staging StagingReader) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{uploader: uploader, staging: staging, ctx: ctx, cancel: cancel}
	s.runner = lockedRunner{mu: &s.mu, runner: runner}
	return s
}

// lockedRunner holds the server's writer lock for the length of a pass.
type lockedRunner struct {
	mu     *sync.Mutex
	runner pipeline.Runner
}

func (r lockedRunner) Run(ctx context.Context) (*engine.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runner.Run(ctx)
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/uploads", s.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/api/classify", s.handleClassify).Methods(http.MethodPost)
	router.HandleFunc("/api/staging", s.handleStaging).Methods(http.MethodGet)
	router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	router.Use(logRequests)

	return router
}

// Wait blocks until background classification passes started by the server finish.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close cancels background classification passes and waits for them to
// return. Batches already committed stay committed; the rest stays staged.
func (s *Server) Close() {
	s.cancel()
	s.Wait()
}

// ClassifyNow runs one classification pass under the server's writer lock.
// It is what the scheduler calls.
func (s *Server) ClassifyNow(ctx context.Context) *engine.Summary {
	return pipeline.Classify(ctx, s.runner)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := uploadRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, pipeline.Result{
			Status:  model.UploadError,
			Message: common.UserMessage(err, "Could not read uploaded file"),
		})
		return
	}
	defer cleanup()

	s.mu.Lock()
	result := s.uploader.Upload(r.Context(), req)
	s.mu.Unlock()

	if !result.OK() {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	if classify, _ := strconv.ParseBool(r.URL.Query().Get("classify")); classify {
		s.classifyInBackground()
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClassify(w http.ResponseWriter, _ *http.Request) {
	s.classifyInBackground()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) classifyInBackground() {
	s.wg.Add(1)
	done := pipeline.ClassifyAsync(s.ctx, s.runner)
	go func() {
		defer s.wg.Done()
		<-done
	}()
}

func (s *Server) handleStaging(w http.ResponseWriter, r *http.Request) {
	counts, err := s.staging.GetStagingCounts(r.Context())
	if err != nil {
		slog.Error("Failed to read staging counts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "Failed to read staging area"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadRequest accepts either a multipart form with a "file" field or a raw
// body named by the filename query parameter.
func uploadRequest(w http.ResponseWriter, r *http.Request) (pipeline.UploadRequest, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	noop := func() {}

	var format ingest.Format
	if name := r.URL.Query().Get("format"); name != "" {
		f, err := ingest.ParseFormat(name)
		if err != nil {
			return pipeline.UploadRequest{}, noop, common.NewUserError("Unsupported format "+strconv.Quote(name), err)
		}
		format = f
	}

	if isMultipart(r) {
		file, header, err := r.FormFile("file")
		if err != nil {
			return pipeline.UploadRequest{}, noop, common.NewUserError("Multipart upload must include a \"file\" field", err)
		}
		return pipeline.UploadRequest{Data: file, Filename: header.Filename, Format: format}, func() { _ = file.Close() }, nil
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "upload.csv"
	}
	var body io.Reader = r.Body
	return pipeline.UploadRequest{Data: body, Filename: filename, Format: format}, noop, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(started))
	})
}
