package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/convoml/intent-classifier-go/internal/domain"
	"github.com/convoml/intent-classifier-go/internal/output"
	cerrors "github.com/convoml/intent-classifier-go/pkg/errors"
	"go.uber.org/zap"
)

// Classifier is the batch orchestrator as the HTTP layer sees it.
type Classifier interface {
	ClassifyBatch(ctx context.Context, conversations []domain.Conversation) (*domain.BatchReport, error)
}

// ModelInfo reports loaded models for health output.
type ModelInfo interface {
	Loaded() bool
	ModelIDs() []string
}

// Server exposes the classifier over HTTP: a JSON file upload in, a JSON
// result list or zip archive out.
type Server struct {
	httpServer     *http.Server
	classifier     Classifier
	models         ModelInfo
	intents        []string
	maxUploadBytes int64
	logger         *zap.Logger
}

func New(addr string, classifier Classifier, models ModelInfo, intents []string, maxUploadBytes int64, logger *zap.Logger) *Server {
	s := &Server{
		classifier:     classifier,
		models:         models,
		intents:        intents,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /intents", s.handleIntents)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleClassify accepts a multipart upload of a JSON conversation batch.
// Malformed input is rejected with a 400 before any model work begins.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Please upload a file under the 'file' field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		s.writeError(w, http.StatusBadRequest, "Please upload a valid JSON file")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	conversations, err := parseConversations(content)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	report, err := s.classifier.ClassifyBatch(r.Context(), conversations)
	if err != nil {
		var notLoaded *cerrors.EngineNotLoadedError
		if errors.As(err, &notLoaded) {
			s.writeError(w, http.StatusServiceUnavailable, "Classifier is still loading, retry shortly")
			return
		}

		s.logger.Error("Error classifying conversations", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if r.URL.Query().Get("format") == "zip" {
		zipData, err := output.BuildZip(report.Results)
		if err != nil {
			s.logger.Error("Failed to build zip archive", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+output.ZipFileName+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(zipData)
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !s.models.Loaded() {
		status = "loading"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]any{
		"status": status,
		"models": s.models.ModelIDs(),
	})
}

func (s *Server) handleIntents(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"intents": s.intents,
	})
}

// parseConversations accepts either a bare array of conversations or an
// object wrapping one under "conversations".
func parseConversations(content []byte) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	if err := json.Unmarshal(content, &conversations); err == nil {
		return conversations, nil
	}

	var wrapped struct {
		Conversations []domain.Conversation `json:"conversations"`
	}
	if err := json.Unmarshal(content, &wrapped); err != nil {
		return nil, cerrors.NewMalformedInputError("batch input is not valid JSON", err)
	}
	if wrapped.Conversations == nil {
		return nil, cerrors.NewMalformedInputError("batch input is missing conversations", nil)
	}

	return wrapped.Conversations, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"detail": message})
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}
