package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nijaru/pitch-analyzer/config"
	"github.com/nijaru/pitch-analyzer/logger"
)

func testHandler(rateLimit int) http.Handler {
	cfg := config.StubConfig{
		RateLimit:         rateLimit,
		RateLimitInterval: time.Second,
	}
	return New(cfg, logger.Discard()).Routes()
}

func multipartRequest(t *testing.T, path string, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest("POST", path, &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("response is not a JSON object: %v, body: %s", err, rr.Body.String())
	}
	return doc
}

func TestRoot(t *testing.T) {
	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	testHandler(0).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	expected := `{"message":"Welcome to the Startup Pitch Analyzer API"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestAnalyzeText(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{"valid", `{"transcript": "We build rockets. They fly."}`, http.StatusOK, ""},
		{"blank", `{"transcript": "   "}`, http.StatusBadRequest, MsgEmptyTranscript},
		{"missing field", `{}`, http.StatusUnprocessableEntity, ""},
		{"not json", `transcript=hi`, http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest("POST", "/analyze-text/", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Content-Type", "application/json")

			rr := httptest.NewRecorder()
			testHandler(0).ServeHTTP(rr, req)

			if status := rr.Code; status != tt.wantStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", status, tt.wantStatus)
			}
			if tt.wantDetail != "" {
				if detail := decode(t, rr)["detail"]; detail != tt.wantDetail {
					t.Errorf("expected detail %q, got %v", tt.wantDetail, detail)
				}
			}
		})
	}
}

func TestAnalyzeTextResponseIsOpaqueList(t *testing.T) {
	req, _ := http.NewRequest("POST", "/analyze-text/", strings.NewReader(`{"transcript": "We build rockets. They fly."}`))
	rr := httptest.NewRecorder()
	testHandler(0).ServeHTTP(rr, req)

	var insights []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &insights); err != nil {
		t.Fatalf("expected a JSON array, got %s", rr.Body.String())
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
	if insights[0]["summary"] != "We build rockets." {
		t.Errorf("expected summary 'We build rockets.', got %v", insights[0]["summary"])
	}
	if insights[0]["word_count"] != float64(5) {
		t.Errorf("expected word_count 5, got %v", insights[0]["word_count"])
	}
}

func TestFileEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		filename   string
		wantStatus int
		wantDetail string
		composite  bool
	}{
		{"text file", "/analyze-file/", "pitch.txt", http.StatusOK, "", false},
		{"text file wrong type", "/analyze-file/", "pitch.md", http.StatusBadRequest, MsgTextFileOnly, false},
		{"audio", "/analyze-audio/", "pitch.MP3", http.StatusOK, "", true},
		{"audio wrong type", "/analyze-audio/", "pitch.flac", http.StatusBadRequest, MsgAudioOnly, false},
		{"deck", "/analyze-pitch-deck/", "deck.pdf", http.StatusOK, "", false},
		{"deck wrong type", "/analyze-pitch-deck/", "deck.pptx", http.StatusBadRequest, MsgPdfOnly, false},
		{"video", "/analyze-video/", "demo.mov", http.StatusOK, "", true},
		{"video wrong type", "/analyze-video/", "demo.gif", http.StatusBadRequest, MsgVideoOnly, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, tt.path, tt.filename, []byte("We sell rockets."), nil)
			rr := httptest.NewRecorder()
			testHandler(0).ServeHTTP(rr, req)

			if status := rr.Code; status != tt.wantStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", status, tt.wantStatus, rr.Body.String())
			}
			if tt.wantDetail != "" {
				if detail := decode(t, rr)["detail"]; detail != tt.wantDetail {
					t.Errorf("expected detail %q, got %v", tt.wantDetail, detail)
				}
			}
			if tt.composite {
				doc := decode(t, rr)
				if _, ok := doc["transcript"]; !ok {
					t.Error("expected transcript in response")
				}
				if _, ok := doc["analysis"]; !ok {
					t.Error("expected analysis in response")
				}
			}
		})
	}
}

func TestMissingFilePart(t *testing.T) {
	req := multipartRequest(t, "/analyze-audio/", "", nil, nil)
	rr := httptest.NewRecorder()
	testHandler(0).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnprocessableEntity {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusUnprocessableEntity)
	}
	if _, ok := decode(t, rr)["detail"].([]any); !ok {
		t.Errorf("expected a structured detail list, got %s", rr.Body.String())
	}
}

func TestAnalyzeVideoURL(t *testing.T) {
	req := multipartRequest(t, "/analyze-video/", "", nil, map[string]string{"youtube_url": "https://youtu.be/abc"})
	rr := httptest.NewRecorder()
	testHandler(0).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if transcript := decode(t, rr)["transcript"]; transcript != "Transcribed video from https://youtu.be/abc." {
		t.Errorf("unexpected transcript: %v", transcript)
	}

	req = multipartRequest(t, "/analyze-video/", "", nil, nil)
	rr = httptest.NewRecorder()
	testHandler(0).ServeHTTP(rr, req)
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
	if detail := decode(t, rr)["detail"]; detail != MsgVideoRequired {
		t.Errorf("expected detail %q, got %v", MsgVideoRequired, detail)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req, _ := http.NewRequest("GET", "/analyze-text/", nil)
	rr := httptest.NewRecorder()
	testHandler(0).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusMethodNotAllowed {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusMethodNotAllowed)
	}
}

func TestRateLimit(t *testing.T) {
	handler := testHandler(1)

	newReq := func() *http.Request {
		req, _ := http.NewRequest("POST", "/analyze-text/", strings.NewReader(`{"transcript": "hi"}`))
		return req
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	if status := rr.Code; status != http.StatusTooManyRequests {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusTooManyRequests)
	}

	expected := `{"detail":"Rate limit exceeded"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestConcurrentRequests(t *testing.T) {
	handler := testHandler(0)

	var wg sync.WaitGroup
	errCh := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"transcript": "Pitch number %d."}`, i)
			req, err := http.NewRequest("POST", "/analyze-text/", strings.NewReader(body))
			if err != nil {
				errCh <- err
				return
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != http.StatusOK {
				errCh <- fmt.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
				return
			}
			want := fmt.Sprintf(`"summary":"Pitch number %d."`, i)
			if !strings.Contains(rr.Body.String(), want) {
				errCh <- fmt.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), want)
			}
		}(i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	testHandler(0).ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected X-Request-ID req-123, got %q", got)
	}
}
