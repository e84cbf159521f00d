package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

// RecognizeHandler serves recognition requests against a loaded model.
type RecognizeHandler struct {
	model            *eigenface.Model
	defaultThreshold float64
}

// NewRecognizeHandler creates a recognize handler.
func NewRecognizeHandler(model *eigenface.Model, defaultThreshold float64) *RecognizeHandler {
	return &RecognizeHandler{model: model, defaultThreshold: defaultThreshold}
}

// recognizeResponse wraps a recognition result with a request-scoped ID
// so clients can correlate uploads with results in logs.
type recognizeResponse struct {
	ID        string  `json:"id"`
	Threshold float64 `json:"threshold"`
	*eigenface.Result
}

// Recognize handles POST /api/v1/recognize: a multipart "file" image
// plus an optional "threshold" form value.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	img, err := readUploadedImage(r, h.model)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold, err := formFloat(r, "threshold", h.defaultThreshold)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := eigenface.Recognize(h.model, img, threshold)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, recognizeResponse{
		ID:        uuid.NewString(),
		Threshold: threshold,
		Result:    result,
	})
}
