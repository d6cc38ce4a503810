package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"xpicai/backend/xray"
)

// flatEncoder produces uniform embeddings; rankings collapse to catalogue
// order, which is all the HTTP layer cares about.
type flatEncoder struct{}

func (flatEncoder) EncodeText(context.Context, string) ([]float32, error) {
	vec := make([]float32, 8)
	vec[0] = 1
	return vec, nil
}

func (flatEncoder) EncodeImage(context.Context, []byte) ([]float32, error) {
	vec := make([]float32, 8)
	vec[0] = 1
	return vec, nil
}

func (flatEncoder) Close() error { return nil }

func newTestServer() *Server {
	logger := log.New(bytes.NewBuffer(nil), "", 0)
	classifier := xray.NewClassifier(func() (xray.Encoder, error) {
		return flatEncoder{}, nil
	}, logger)
	analyzer := xray.NewAnalyzer(classifier, nil, logger)
	return New(analyzer, false, logger)
}

func pngUpload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(0, 0, color.White)
	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "scan.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(imgBuf.Bytes())
	w.Close()
	return &body, w.FormDataContentType()
}

func TestPredict_OK(t *testing.T) {
	handler := newTestServer().Routes()
	body, contentType := pngUpload(t)

	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var report xray.CanonicalReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.ID == "" || report.Diagnosis == "" || report.Findings == "" {
		t.Errorf("report has blank fields: %+v", report)
	}
	if report.Confidence < 0.55 || report.Confidence > 0.95 {
		t.Errorf("Confidence = %v", report.Confidence)
	}
}

func TestPredict_BadImage(t *testing.T) {
	handler := newTestServer().Routes()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, _ := w.CreateFormFile("file", "scan.png")
	part.Write([]byte("not an image"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPredict_MissingFile(t *testing.T) {
	handler := newTestServer().Routes()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPredict_MethodNotAllowed(t *testing.T) {
	handler := newTestServer().Routes()
	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	handler := newTestServer().Routes()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Status   string `json:"status"`
		Diseases int    `json:"diseases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if got.Status != "ok" || got.Diseases != xray.CatalogueSize() {
		t.Errorf("health = %+v", got)
	}
}
