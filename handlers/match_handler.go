package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jacobneff/scorebugger/live"
	"github.com/jacobneff/scorebugger/services"
)

type MatchHandler struct {
	matchService services.MatchService
	hub          *live.Hub
}

func NewMatchHandler(ms services.MatchService, hub *live.Hub) *MatchHandler {
	return &MatchHandler{matchService: ms, hub: hub}
}

func (h *MatchHandler) GenerateMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	matches, err := h.matchService.GenerateMatches(r.Context(), tournamentID, stageKey, forceParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.hub.Broadcast(tournamentID, live.Event{
		Type: live.EventMatchesGenerated,
		Payload: map[string]interface{}{
			"stage_key": stageKey,
			"count":     len(matches),
		},
	})

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	matches, err := h.matchService.ListByStage(r.Context(), tournamentID, stageKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnfinalizeMatch reopens a finalized match. Standings reads after this
// call no longer credit the cleared result.
func (h *MatchHandler) UnfinalizeMatch(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Unfinalize(r.Context(), tournamentID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.hub.Broadcast(tournamentID, live.Event{
		Type:    live.EventMatchUnfinalized,
		Payload: map[string]interface{}{"match_id": match.ID, "stage_key": match.StageKey},
	})

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
