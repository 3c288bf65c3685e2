package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jacobneff/scorebugger/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// StageStandings returns the per-pool tables of one stage, computed
// from its finalized matches at request time.
func (h *StandingsHandler) StageStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	standings, err := h.standingsService.StageStandings(r.Context(), tournamentID, stageKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CumulativeStandings ranks the whole field across every pre-playoff
// stage, the order playoff seeding uses.
func (h *StandingsHandler) CumulativeStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.standingsService.CumulativeStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
