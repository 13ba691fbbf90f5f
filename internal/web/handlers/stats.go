package handlers

import "net/http"

// StatsResponse summarises the identity store.
type StatsResponse struct {
	Identities int     `json:"identities"`
	Dim        int     `json:"dim"`
	NextID     int     `json:"next_id"`
	Skipped    int     `json:"skipped"`
	Labelled   int     `json:"labelled"`
	Tolerance  float64 `json:"tolerance"`
	Strategy   string  `json:"strategy"`
}

// Stats returns store statistics.
func (h *FacesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	labelled := 0
	for _, ident := range h.store.List() {
		if ident.Label != "" {
			labelled++
		}
	}
	respondJSON(w, http.StatusOK, StatsResponse{
		Identities: h.store.Count(),
		Dim:        h.store.Dim(),
		NextID:     h.store.NextID(),
		Skipped:    len(h.store.Warnings()),
		Labelled:   labelled,
		Tolerance:  h.matcher.Tolerance(),
		Strategy:   string(h.matcher.Strategy()),
	})
}
