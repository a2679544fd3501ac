package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nijaru/pitch-analyzer/config"
	"github.com/nijaru/pitch-analyzer/middleware"
	"github.com/nijaru/pitch-analyzer/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	MsgEmptyTranscript = "Transcript cannot be empty."
	MsgTextFileOnly    = "Only .txt files are supported."
	MsgAudioOnly       = "Only audio files (.wav, .mp3, .m4a, .ogg) are supported."
	MsgPdfOnly         = "Only .pdf files are supported."
	MsgVideoOnly       = "Only video files (.mp4, .mov, .mkv, .avi) are supported."
	MsgVideoRequired   = "Provide a video file or YouTube link."
	MsgRateLimited     = "Rate limit exceeded"
	WelcomeMessage     = "Welcome to the Startup Pitch Analyzer API"

	maxUploadMemory = 32 << 20
)

var (
	audioExtensions = []string{".wav", ".mp3", ".m4a", ".ogg"}
	videoExtensions = []string{".mp4", ".mov", ".mkv", ".avi"}
)

// Handler is a stand-in analysis backend. It applies the real backend's
// request checks and answers with canned, deterministic documents.
type Handler struct {
	cfg     config.StubConfig
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func New(cfg config.StubConfig, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Handler{cfg: cfg, logger: logger}
	if cfg.RateLimit > 0 && cfg.RateLimitInterval > 0 {
		h.limiter = rate.NewLimiter(rate.Every(cfg.RateLimitInterval), cfg.RateLimit)
	}
	return h
}

// Routes returns the backend's endpoints wrapped in recovery and request
// logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("POST /analyze-text/{$}", h.limited(h.AnalyzeText))
	mux.HandleFunc("POST /analyze-file/{$}", h.limited(h.AnalyzeFile))
	mux.HandleFunc("POST /analyze-audio/{$}", h.limited(h.AnalyzeAudio))
	mux.HandleFunc("POST /analyze-pitch-deck/{$}", h.limited(h.AnalyzePitchDeck))
	mux.HandleFunc("POST /analyze-video/{$}", h.limited(h.AnalyzeVideo))

	return middleware.Chain(mux,
		middleware.RecoveryMiddleware(h.logger),
		middleware.LoggingMiddleware(h.logger),
	)
}

// NewStubServer builds the HTTP server for the stub backend.
func NewStubServer(cfg config.StubConfig, logger *logrus.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      New(cfg, logger).Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func (h *Handler) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			h.logger.WithField("path", r.URL.Path).Warn("Rate limit exceeded")
			utils.WriteDetail(w, MsgRateLimited, http.StatusTooManyRequests)
			return
		}
		if err := h.simulateLatency(r.Context()); err != nil {
			h.logger.WithError(err).Warn("Request cancelled while processing")
			return
		}
		next(w, r)
	}
}

func (h *Handler) simulateLatency(ctx context.Context) error {
	if h.cfg.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(h.cfg.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

func (h *Handler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript *string `json:"transcript"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid transcript request body")
		writeUnprocessable(w, []string{"body"}, "Invalid JSON body", "value_error.jsondecode")
		return
	}
	if req.Transcript == nil {
		writeUnprocessable(w, []string{"body", "transcript"}, "field required", "value_error.missing")
		return
	}
	if strings.TrimSpace(*req.Transcript) == "" {
		utils.WriteDetail(w, MsgEmptyTranscript, http.StatusBadRequest)
		return
	}

	utils.WriteJSON(w, http.StatusOK, analyzeTranscript(*req.Transcript))
}

func (h *Handler) AnalyzeFile(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".txt") {
		utils.WriteDetail(w, MsgTextFileOnly, http.StatusBadRequest)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read uploaded file")
		utils.WriteDetail(w, "Failed to read uploaded file.", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, analyzeTranscript(string(content)))
}

func (h *Handler) AnalyzeAudio(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if !hasExtension(header.Filename, audioExtensions) {
		utils.WriteDetail(w, MsgAudioOnly, http.StatusBadRequest)
		return
	}

	transcript := fmt.Sprintf("Transcribed audio from %s.", header.Filename)
	utils.WriteJSON(w, http.StatusOK, transcriptResponse{
		Transcript: transcript,
		Analysis:   analyzeTranscript(transcript),
	})
}

func (h *Handler) AnalyzePitchDeck(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".pdf") {
		utils.WriteDetail(w, MsgPdfOnly, http.StatusBadRequest)
		return
	}

	utils.WriteJSON(w, http.StatusOK, deckResponse{
		TOC: map[string][]int{"Overview": {1}},
		Analysis: map[string]string{
			"Overview": fmt.Sprintf("Pitch deck %s (%d bytes).", header.Filename, header.Size),
		},
		EmbeddingDimension: 768,
	})
}

func (h *Handler) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && err != http.ErrNotMultipart {
		h.logger.WithError(err).Warn("Invalid multipart body")
		writeUnprocessable(w, []string{"body"}, "Invalid multipart body", "value_error")
		return
	}

	source := strings.TrimSpace(r.FormValue("youtube_url"))
	if source == "" {
		file, header, err := r.FormFile("file")
		if err != nil {
			utils.WriteDetail(w, MsgVideoRequired, http.StatusBadRequest)
			return
		}
		file.Close()
		if !hasExtension(header.Filename, videoExtensions) {
			utils.WriteDetail(w, MsgVideoOnly, http.StatusBadRequest)
			return
		}
		source = header.Filename
	}

	transcript := fmt.Sprintf("Transcribed video from %s.", source)
	utils.WriteJSON(w, http.StatusOK, transcriptResponse{
		Transcript: transcript,
		Analysis:   analyzeTranscript(transcript),
	})
}

func (h *Handler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.WithError(err).Warn("Invalid multipart body")
		writeUnprocessable(w, []string{"body", "file"}, "field required", "value_error.missing")
		return nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeUnprocessable(w, []string{"body", "file"}, "field required", "value_error.missing")
		return nil, nil, false
	}
	return file, header, true
}

func hasExtension(name string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(filepath.Ext(name)))
}

// writeUnprocessable mirrors the structured 422 body of request-model errors.
func writeUnprocessable(w http.ResponseWriter, loc []string, msg, kind string) {
	utils.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []validationIssue{{Loc: loc, Msg: msg, Type: kind}},
	})
}
