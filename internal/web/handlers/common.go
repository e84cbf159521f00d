// Package handlers implements the HTTP handlers for the recognition API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"strconv"

	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/face-id/internal/dataset"
	"github.com/kozaktomas/face-id/internal/eigenface"
)

// maxUploadBytes bounds the multipart form held in memory per request.
const maxUploadBytes = 16 << 20

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// readUploadedImage decodes the "file" part of a multipart upload and
// fits it to the model's face dimensions.
func readUploadedImage(r *http.Request, m *eigenface.Model) (image.Image, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parsing multipart form: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing file upload")
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return dataset.Fit(img, m.Width, m.Height), nil
}

// formFloat reads an optional float form value. An absent value falls
// back to the default; a present value must parse as a finite
// non-negative number, so a caller-supplied threshold is either honored
// or rejected, never silently replaced.
func formFloat(r *http.Request, key string, defaultVal float64) (float64, error) {
	s := r.FormValue(key)
	if s == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, s)
	}
	return f, nil
}

// formInt reads an optional positive int form value, falling back to a default.
func formInt(r *http.Request, key string, defaultVal int) int {
	s := r.FormValue(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
