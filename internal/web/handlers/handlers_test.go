package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-id/internal/eigenface"
	"github.com/kozaktomas/face-id/internal/gallery"
)

func testPattern(seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*x*(seed+1) + y*y*(seed+2) + x*y) % 251)})
		}
	}
	return img
}

func testModel(t *testing.T) *eigenface.Model {
	t.Helper()
	set := eigenface.TrainingSet{
		{Image: testPattern(0), Label: "alice"},
		{Image: testPattern(1), Label: "alice"},
		{Image: testPattern(2), Label: "bob"},
		{Image: testPattern(3), Label: "bob"},
	}
	builder := eigenface.NewBuilder(
		eigenface.Vectorizer{Width: 10, Height: 10},
		eigenface.NewSolver(1e-12, 2000, 42),
	)
	model, err := builder.Train(set, 3)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	return model
}

// multipartImage encodes img as a PNG "file" part plus extra form fields.
func multipartImage(t *testing.T, img image.Image, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "query.png")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encoding image: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("writing field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
	}
}

func TestRecognizeKnownFace(t *testing.T) {
	model := testModel(t)
	handler := NewRecognizeHandler(model, 1e6)

	body, contentType := multipartImage(t, testPattern(0), nil)
	req := httptest.NewRequest("POST", "/api/v1/recognize", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	handler.Recognize(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	var resp struct {
		ID    string `json:"id"`
		Known bool   `json:"known"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Known || resp.Label != "alice" {
		t.Errorf("got known=%v label=%q, want alice", resp.Known, resp.Label)
	}
	if resp.ID == "" {
		t.Error("response has no result ID")
	}
}

func TestRecognizeThresholdOverride(t *testing.T) {
	model := testModel(t)
	handler := NewRecognizeHandler(model, 1e6)

	// An unenrolled pattern with a client-supplied tight threshold.
	body, contentType := multipartImage(t, testPattern(50), map[string]string{"threshold": "0.001"})
	req := httptest.NewRequest("POST", "/api/v1/recognize", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	handler.Recognize(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp struct {
		Known     bool    `json:"known"`
		Threshold float64 `json:"threshold"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Known {
		t.Error("expected unknown at a tight threshold")
	}
	if resp.Threshold != 0.001 {
		t.Errorf("threshold = %g, want 0.001", resp.Threshold)
	}
}

func TestRecognizeInvalidThreshold(t *testing.T) {
	model := testModel(t)
	handler := NewRecognizeHandler(model, 15)

	for _, value := range []string{"-5", "abc", "NaN", "+Inf"} {
		t.Run(value, func(t *testing.T) {
			body, contentType := multipartImage(t, testPattern(0), map[string]string{"threshold": value})
			req := httptest.NewRequest("POST", "/api/v1/recognize", body)
			req.Header.Set("Content-Type", contentType)
			recorder := httptest.NewRecorder()

			handler.Recognize(recorder, req)

			if recorder.Code != http.StatusBadRequest {
				t.Errorf("threshold %q: expected status %d, got %d", value, http.StatusBadRequest, recorder.Code)
			}
		})
	}
}

func TestRecognizeZeroThresholdHonored(t *testing.T) {
	// A supplied threshold of zero is a valid (maximally strict) value
	// and must not be swapped for the server default.
	model := testModel(t)
	handler := NewRecognizeHandler(model, 1e6)

	body, contentType := multipartImage(t, testPattern(50), map[string]string{"threshold": "0"})
	req := httptest.NewRequest("POST", "/api/v1/recognize", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	handler.Recognize(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp struct {
		Known     bool    `json:"known"`
		Threshold float64 `json:"threshold"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Threshold != 0 {
		t.Errorf("threshold = %g, want 0", resp.Threshold)
	}
	if resp.Known {
		t.Error("unenrolled query accepted at threshold 0")
	}
}

func TestRecognizeMissingFile(t *testing.T) {
	handler := NewRecognizeHandler(testModel(t), 10)

	req := httptest.NewRequest("POST", "/api/v1/recognize", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	recorder := httptest.NewRecorder()

	handler.Recognize(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestModelStats(t *testing.T) {
	model := testModel(t)
	handler := NewModelHandler(model)

	req := httptest.NewRequest("GET", "/api/v1/model", nil)
	recorder := httptest.NewRecorder()

	handler.Stats(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var stats struct {
		K      int      `json:"k"`
		Images int      `json:"images"`
		People []string `json:"people"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats.K != model.K() {
		t.Errorf("k = %d, want %d", stats.K, model.K())
	}
	if stats.Images != 4 {
		t.Errorf("images = %d, want 4", stats.Images)
	}
	if len(stats.People) != 2 {
		t.Errorf("people = %v, want [alice bob]", stats.People)
	}
}

func TestSimilar(t *testing.T) {
	model := testModel(t)
	index, err := gallery.Build(model)
	if err != nil {
		t.Fatalf("building index: %v", err)
	}
	handler := NewSimilarHandler(model, index)

	body, contentType := multipartImage(t, testPattern(0), map[string]string{"k": "2"})
	req := httptest.NewRequest("POST", "/api/v1/similar", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	handler.Similar(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	var resp struct {
		Count   int `json:"count"`
		Entries []struct {
			Index int    `json:"index"`
			Label string `json:"label"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count == 0 {
		t.Fatal("no entries returned")
	}
	if resp.Entries[0].Index != 0 || resp.Entries[0].Label != "alice" {
		t.Errorf("nearest entry = %+v, want index 0 / alice", resp.Entries[0])
	}
}

func TestSimilarWithoutIndex(t *testing.T) {
	handler := NewSimilarHandler(testModel(t), nil)

	body, contentType := multipartImage(t, testPattern(0), nil)
	req := httptest.NewRequest("POST", "/api/v1/similar", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	handler.Similar(recorder, req)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, recorder.Code)
	}
}
