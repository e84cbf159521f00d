package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

// ModelHandler serves read-only statistics about the loaded model.
type ModelHandler struct {
	model *eigenface.Model
}

// NewModelHandler creates a model stats handler.
func NewModelHandler(model *eigenface.Model) *ModelHandler {
	return &ModelHandler{model: model}
}

type modelStats struct {
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	K           int       `json:"k"`
	Images      int       `json:"images"`
	People      []string  `json:"people"`
	Eigenvalues []float64 `json:"eigenvalues"`
}

// Stats handles GET /api/v1/model.
func (h *ModelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, modelStats{
		Width:       h.model.Width,
		Height:      h.model.Height,
		K:           h.model.K(),
		Images:      len(h.model.Labels),
		People:      h.model.People(),
		Eigenvalues: h.model.Eigenvalues,
	})
}
