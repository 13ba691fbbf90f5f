package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/database"
	"github.com/kozaktomas/capture-kit/internal/facematch"
)

// IdentityStore is what the face endpoints need from the store.
type IdentityStore interface {
	database.IdentityWriter
	NextID() int
	Warnings() []database.LoadWarning
}

// FacesHandler serves the stored identities.
type FacesHandler struct {
	store   IdentityStore
	matcher *facematch.Matcher
	logger  *zap.Logger
}

// NewFacesHandler creates a new faces handler
func NewFacesHandler(store IdentityStore, matcher *facematch.Matcher, logger *zap.Logger) *FacesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacesHandler{store: store, matcher: matcher, logger: logger}
}

// FaceSummary is an identity without its vector.
type FaceSummary struct {
	ID    int    `json:"id"`
	Label string `json:"label,omitempty"`
	Dim   int    `json:"dim"`
}

// FaceDetail is an identity with its vector.
type FaceDetail struct {
	FaceSummary
	Vector []float32 `json:"vector"`
}

func summarize(ident database.Identity) FaceSummary {
	return FaceSummary{ID: ident.ID, Label: ident.Label, Dim: len(ident.Vector)}
}

// List returns all identities ordered by ID.
func (h *FacesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities := h.store.List()
	out := make([]FaceSummary, 0, len(identities))
	for _, ident := range identities {
		out = append(out, summarize(ident))
	}
	respondJSON(w, http.StatusOK, out)
}

// Get returns one identity with its vector.
func (h *FacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid face id")
		return
	}

	ident, err := h.store.Get(id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "face not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load face")
		return
	}
	respondJSON(w, http.StatusOK, FaceDetail{FaceSummary: summarize(ident), Vector: ident.Vector})
}

// LabelRequest sets or clears the display name of an identity.
type LabelRequest struct {
	Name string `json:"name"`
}

// SetLabel assigns a name to an identity. An empty name removes it.
func (h *FacesHandler) SetLabel(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid face id")
		return
	}

	var req LabelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	err := h.store.SetLabel(id, req.Name)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "face not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to set label", zap.Int("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to save label")
		return
	}

	ident, err := h.store.Get(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load face")
		return
	}
	respondJSON(w, http.StatusOK, summarize(ident))
}

// MatchRequest asks which identity a vector belongs to.
type MatchRequest struct {
	Vector []float32 `json:"vector"`
	Limit  int       `json:"limit,omitempty"` // nearest candidates to include, default 5
}

// MatchCandidate is one identity near the query vector.
type MatchCandidate struct {
	ID       int     `json:"id"`
	Label    string  `json:"label,omitempty"`
	Distance float64 `json:"distance"`
}

// MatchResponse reports the match the live loop would make. Nothing is
// enrolled.
type MatchResponse struct {
	Matched      bool             `json:"matched"`
	Match        *MatchCandidate  `json:"match,omitempty"`
	DisplayLabel string           `json:"display_label"`
	Tolerance    float64          `json:"tolerance"`
	Strategy     string           `json:"strategy"`
	Nearest      []MatchCandidate `json:"nearest"`
}

const (
	defaultMatchLimit = 5
	maxMatchLimit     = 100
)

// Match compares a vector with the stored identities.
func (h *FacesHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Vector) != h.store.Dim() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("vector must have %d dimensions, got %d", h.store.Dim(), len(req.Vector)))
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	limit = min(limit, maxMatchLimit)

	resp := MatchResponse{
		Tolerance: h.matcher.Tolerance(),
		Strategy:  string(h.matcher.Strategy()),
		Nearest:   []MatchCandidate{},
	}

	match, ok := h.matcher.Match(req.Vector)
	result := facematch.Result{Match: match, Known: ok}
	resp.Matched = ok
	resp.DisplayLabel = facematch.DisplayLabel(result)
	if ok {
		resp.Match = &MatchCandidate{ID: match.ID, Label: match.Label, Distance: match.Distance}
	}

	for _, m := range h.matcher.Nearest(req.Vector, limit) {
		resp.Nearest = append(resp.Nearest, MatchCandidate{ID: m.ID, Label: m.Label, Distance: m.Distance})
	}
	respondJSON(w, http.StatusOK, resp)
}
