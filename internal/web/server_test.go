package web

import (
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

func testModel(t *testing.T) *eigenface.Model {
	t.Helper()
	pattern := func(seed int) *image.Gray {
		img := image.NewGray(image.Rect(0, 0, 10, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8((x*x*(seed+1) + y*y*(seed+2) + x*y) % 251)})
			}
		}
		return img
	}
	set := eigenface.TrainingSet{
		{Image: pattern(0), Label: "alice"},
		{Image: pattern(1), Label: "bob"},
	}
	builder := eigenface.NewBuilder(
		eigenface.Vectorizer{Width: 10, Height: 10},
		eigenface.NewSolver(1e-12, 2000, 42),
	)
	model, err := builder.Train(set, 1)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	return model
}

func TestServerRoutes(t *testing.T) {
	server := NewServer(testModel(t), nil, 15.0, "localhost", 0)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/api/v1/health", http.StatusOK},
		{"GET", "/api/v1/model", http.StatusOK},
		{"GET", "/api/v1/missing", http.StatusNotFound},
		{"POST", "/api/v1/similar", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			recorder := httptest.NewRecorder()
			server.Router().ServeHTTP(recorder, req)
			if recorder.Code != tc.status {
				t.Errorf("status = %d, want %d", recorder.Code, tc.status)
			}
		})
	}
}
