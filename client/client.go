package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/nijaru/pitch-analyzer/errors"
	"github.com/nijaru/pitch-analyzer/middleware"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Analyzer sends one submission to the analysis backend.
type Analyzer interface {
	Analyze(ctx context.Context, req models.SubmissionRequest) (models.AnalysisResult, error)
	BaseURL() string
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Limiter *rate.Limiter
	// Transport is the innermost RoundTripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// New builds a client whose transport runs recovery, request IDs, logging
// and the optional throttle around cfg.Transport.
func New(cfg Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	transport := middleware.ChainTransport(cfg.Transport,
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.RateLimit(cfg.Limiter),
	)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze posts req and classifies the outcome. Errors are *errors.AppError
// of kind server (non-2xx with a JSON body) or transport (anything else).
func (c *Client) Analyze(ctx context.Context, req models.SubmissionRequest) (models.AnalysisResult, error) {
	const op = "Client.Analyze"

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return models.AnalysisResult{}, apperrors.Transport(op, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.AnalysisResult{}, apperrors.Transport(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.AnalysisResult{}, apperrors.Transport(op, errors.Wrap(err, "reading response body"))
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			return models.AnalysisResult{}, apperrors.Transport(op, errors.Wrap(err, "decoding response body"))
		}
		payload, _ := doc.(map[string]any)
		c.logger.WithFields(logrus.Fields{
			"channel": req.Channel,
			"status":  resp.StatusCode,
		}).Warn("Backend rejected submission")
		return models.AnalysisResult{}, apperrors.Server(op, resp.StatusCode, detailOf(payload))
	}

	result, err := models.ClassifyResult(body)
	if err != nil {
		return models.AnalysisResult{}, apperrors.Transport(op, errors.Wrap(err, "decoding response body"))
	}
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, req models.SubmissionRequest) (*http.Request, error) {
	url := c.baseURL + req.Path

	if !req.IsMultipart() {
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	}

	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	return httpReq, nil
}

func encodeMultipart(req models.SubmissionRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if req.File != nil {
		if req.File.Open == nil {
			return nil, "", errors.Errorf("file %s has no content", req.File.Name)
		}
		src, err := req.File.Open()
		if err != nil {
			return nil, "", errors.Wrapf(err, "opening %s", req.File.Name)
		}
		part, err := w.CreateFormFile("file", req.File.Name)
		if err != nil {
			src.Close()
			return nil, "", err
		}
		_, err = io.Copy(part, src)
		src.Close()
		if err != nil {
			return nil, "", errors.Wrapf(err, "reading %s", req.File.Name)
		}
	}

	if req.YouTubeURL != "" {
		if err := w.WriteField("youtube_url", req.YouTubeURL); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// detailOf extracts the error detail from a backend error body. Non-string
// details (such as validation error lists) are rendered as compact JSON.
func detailOf(payload map[string]any) string {
	detail, ok := payload["detail"]
	if !ok || detail == nil {
		return ""
	}
	switch d := detail.(type) {
	case string:
		return d
	case bool:
		if !d {
			return ""
		}
	case float64:
		if d == 0 {
			return ""
		}
	}
	encoded, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(encoded)
}
