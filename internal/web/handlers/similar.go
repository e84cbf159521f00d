package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-id/internal/eigenface"
	"github.com/kozaktomas/face-id/internal/gallery"
)

// defaultSimilarCount is how many gallery entries a similarity search
// returns when the client does not ask for a specific count.
const defaultSimilarCount = 5

// SimilarHandler serves approximate gallery searches from the HNSW index.
type SimilarHandler struct {
	model *eigenface.Model
	index *gallery.Index
}

// NewSimilarHandler creates a similarity handler. The index may be nil
// when the deployment runs without one.
func NewSimilarHandler(model *eigenface.Model, index *gallery.Index) *SimilarHandler {
	return &SimilarHandler{model: model, index: index}
}

type similarResponse struct {
	Count   int             `json:"count"`
	Entries []gallery.Entry `json:"entries"`
}

// Similar handles POST /api/v1/similar: a multipart "file" image plus an
// optional "k" form value.
func (h *SimilarHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondError(w, http.StatusServiceUnavailable, "gallery index not available")
		return
	}

	img, err := readUploadedImage(r, h.model)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	k := formInt(r, "k", defaultSimilarCount)

	vectorizer := eigenface.Vectorizer{Width: h.model.Width, Height: h.model.Height}
	vec, err := vectorizer.Vectorize(img)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	entries, err := h.index.Nearest(eigenface.Project(h.model, vec), k)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, similarResponse{
		Count:   len(entries),
		Entries: entries,
	})
}
