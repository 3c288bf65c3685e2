package handlers

import (
	"errors"
	"net/http"

	"github.com/jacobneff/scorebugger/live"
	"github.com/jacobneff/scorebugger/services"
)

type PlayoffHandler struct {
	playoffService services.PlayoffService
	hub            *live.Hub
}

func NewPlayoffHandler(ps services.PlayoffService, hub *live.Hub) *PlayoffHandler {
	return &PlayoffHandler{playoffService: ps, hub: hub}
}

func (h *PlayoffHandler) GeneratePlayoffs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.playoffService.GeneratePlayoffs(r.Context(), tournamentID, forceParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.hub.Broadcast(tournamentID, live.Event{
		Type:    live.EventPlayoffsGenerated,
		Payload: map[string]interface{}{"count": len(matches)},
	})

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type nextRoundInput struct {
	Bracket string `json:"bracket"`
}

// GenerateNextRound creates the next elimination round once every match
// of the previous one is final.
func (h *PlayoffHandler) GenerateNextRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input nextRoundInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Bracket == "" {
		badRequestResponse(w, r, errors.New("bracket is required"))
		return
	}

	matches, err := h.playoffService.GenerateNextRound(r.Context(), tournamentID, input.Bracket)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.hub.Broadcast(tournamentID, live.Event{
		Type:    live.EventPlayoffsGenerated,
		Payload: map[string]interface{}{"bracket": input.Bracket, "count": len(matches)},
	})

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
